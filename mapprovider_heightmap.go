package corephys

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
)

// HeightmapMapProvider procedurally derives static collider placements from
// a grayscale heightmap image: one static body per grid cell, positioned at
// the cell's sampled height, scaled to the grid's cell size. The image is
// resampled to GridWidth x GridDepth first so any source resolution works.
type HeightmapMapProvider struct {
	Source    image.Image
	GridWidth int
	GridDepth int
	CellSize  float64
	HeightScale float64
}

func NewHeightmapMapProvider(source image.Image, gridWidth, gridDepth int, cellSize, heightScale float64) *HeightmapMapProvider {
	return &HeightmapMapProvider{
		Source:      source,
		GridWidth:   gridWidth,
		GridDepth:   gridDepth,
		CellSize:    cellSize,
		HeightScale: heightScale,
	}
}

func (p *HeightmapMapProvider) resample() *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, p.GridWidth, p.GridDepth))
	draw.CatmullRom.Scale(dst, dst.Bounds(), p.Source, p.Source.Bounds(), draw.Over, nil)
	return dst
}

func sampleHeight(g *image.Gray, x, z int, scale float64) float64 {
	c := g.GrayAt(x, z)
	return (float64(c.Y) / 255.0) * scale
}

// InitialObjects samples the resampled heightmap on a regular grid and
// emits one static RemoteObject per cell, scaled (CellSize, 1, CellSize)
// and centered on the sampled height. Cell (x, z) is assigned ID x*GridDepth+z so callers can
// recover grid coordinates from the returned objects.
func (p *HeightmapMapProvider) InitialObjects() []RemoteObject {
	if p.Source == nil || p.GridWidth <= 0 || p.GridDepth <= 0 {
		return nil
	}
	gray := p.resample()
	out := make([]RemoteObject, 0, p.GridWidth*p.GridDepth)
	for x := 0; x < p.GridWidth; x++ {
		for z := 0; z < p.GridDepth; z++ {
			h := sampleHeight(gray, x, z, p.HeightScale)
			pos := mgl64.Vec3{
				float64(x) * p.CellSize,
				h,
				float64(z) * p.CellSize,
			}
			out = append(out, RemoteObject{
				Orientation: mgl64.QuatIdent(),
				Position:    pos,
				Scale:       mgl64.Vec3{p.CellSize, 1, p.CellSize},
				Anchor:      mgl64.Vec3{0, 0, 0},
				Kind:        uint32(KindStatic),
				ID:          uint32(x*p.GridDepth + z),
			})
		}
	}
	return out
}
