package corephys

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticMapProviderReturnsCopy(t *testing.T) {
	objs := []RemoteObject{{ID: 1}, {ID: 2}}
	p := NewStaticMapProvider(objs)
	out := p.InitialObjects()
	require.Len(t, out, 2)
	out[0].ID = 999
	require.Equal(t, uint32(1), p.objects[0].ID, "InitialObjects must return a copy, not the backing slice")
}

func flatGray(w, h int, level uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

func TestHeightmapMapProviderGridCount(t *testing.T) {
	src := flatGray(8, 8, 128)
	p := NewHeightmapMapProvider(src, 4, 4, 10, 50)
	objs := p.InitialObjects()
	require.Len(t, objs, 16)
}

func TestHeightmapMapProviderFlatSourceProducesUniformHeight(t *testing.T) {
	src := flatGray(4, 4, 255)
	p := NewHeightmapMapProvider(src, 4, 4, 1, 100)
	objs := p.InitialObjects()
	require.NotEmpty(t, objs)
	for _, o := range objs {
		require.InDelta(t, 100, o.Position[1], 1.0)
	}
}

func TestHeightmapMapProviderNilSourceIsEmpty(t *testing.T) {
	p := NewHeightmapMapProvider(nil, 4, 4, 1, 1)
	require.Empty(t, p.InitialObjects())
}
