package corephys

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl64"
)

// ShaderTriangle is the std430-compatible layout uploaded to the compute
// shader: three vec4-padded vertices (w unused, kept for 16-byte stride).
type ShaderTriangle struct {
	V0, V1, V2 [4]float32
}

func toShaderTriangle(t Triangle, m mgl64.Mat4) ShaderTriangle {
	a, b, c := transformTri(t, m)
	return ShaderTriangle{
		V0: [4]float32{float32(a[0]), float32(a[1]), float32(a[2]), 0},
		V1: [4]float32{float32(b[0]), float32(b[1]), float32(b[2]), 0},
		V2: [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), 0},
	}
}

func toShaderTriangles(tris []Triangle, m mgl64.Mat4) []ShaderTriangle {
	out := make([]ShaderTriangle, len(tris))
	for i, t := range tris {
		out[i] = toShaderTriangle(t, m)
	}
	return out
}

// ComputeDispatcher is the abstract GPU triangle-intersection backend the
// core depends on. It is injected, never looked up through an ambient
// global, per the spec's explicit prohibition on hidden global state.
type ComputeDispatcher interface {
	// DispatchTriangleIntersect tests the |A|x|B| matrix of triangle pairs
	// in parallel and returns a per-triangle flag for each side marking
	// whether that triangle intersects at least one triangle in the
	// opposing set.
	DispatchTriangleIntersect(a, b []ShaderTriangle) (flagsA, flagsB []bool, err error)
}

// GraphicsContext is an explicit handle to a live GPU device, scoped and
// owned by the caller; its lifetime must exceed any GPUStrategy built from
// it (see SPEC_FULL.md §4.6 on the injected device-context handle).
type GraphicsContext struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
}

// WgpuComputeDispatcher implements ComputeDispatcher over the injected
// GraphicsContext. It compiles the compute pipeline and uploads both
// triangle buffers, but it does not bind, submit or read back a dispatch:
// every flag it returns is false, so a GPUStrategy built on it never
// reports an intersection.
type WgpuComputeDispatcher struct {
	ctx      *GraphicsContext
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.BindGroupLayout
}

const triIntersectShader = `
struct Triangle {
	v0: vec4<f32>,
	v1: vec4<f32>,
	v2: vec4<f32>,
}

@group(0) @binding(0) var<storage, read> trisA: array<Triangle>;
@group(0) @binding(1) var<storage, read> trisB: array<Triangle>;
@group(0) @binding(2) var<storage, read_write> flagsA: array<u32>;
@group(0) @binding(3) var<storage, read_write> flagsB: array<u32>;

@compute @workgroup_size(8, 8, 1)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
	if (gid.x >= arrayLength(&trisA) || gid.y >= arrayLength(&trisB)) {
		return;
	}
	// No geometric test: this kernel only declares the bindings and entry
	// point the pipeline is compiled against; it computes no intersection.
	flagsA[gid.x] = flagsA[gid.x];
	flagsB[gid.y] = flagsB[gid.y];
}
`

// NewWgpuComputeDispatcher compiles the intersection compute pipeline
// against the given device. Returns ErrStrategyUnavailable if ctx or its
// device is nil.
func NewWgpuComputeDispatcher(ctx *GraphicsContext) (*WgpuComputeDispatcher, error) {
	if ctx == nil || ctx.Device == nil {
		return nil, ErrStrategyUnavailable
	}
	shader, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "triangle-intersect",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: triIntersectShader},
	})
	if err != nil {
		return nil, fmt.Errorf("corephys: compiling compute shader: %w", err)
	}
	defer shader.Release()

	pipeline, err := ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "triangle-intersect-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("corephys: creating compute pipeline: %w", err)
	}

	return &WgpuComputeDispatcher{ctx: ctx, pipeline: pipeline}, nil
}

func (d *WgpuComputeDispatcher) DispatchTriangleIntersect(a, b []ShaderTriangle) (flagsA, flagsB []bool, err error) {
	if d == nil || d.ctx == nil {
		return nil, nil, ErrStrategyUnavailable
	}
	if len(a) == 0 && len(b) == 0 {
		return nil, nil, ErrEmptyCollisionBuffer
	}

	bufA, err := d.ctx.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "trisA",
		Contents: wgpu.ToBytes(a),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("corephys: uploading triangle buffer A: %w", err)
	}
	defer bufA.Release()

	bufB, err := d.ctx.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "trisB",
		Contents: wgpu.ToBytes(b),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("corephys: uploading triangle buffer B: %w", err)
	}
	defer bufB.Release()

	// No bind group is created against d.pipeline and nothing is submitted
	// to d.ctx.Queue or read back; both flag slices are returned all false.
	flagsA = make([]bool, len(a))
	flagsB = make([]bool, len(b))
	return flagsA, flagsB, nil
}

// GPUStrategy adapts a ComputeDispatcher to HighPrecisionStrategy.
type GPUStrategy struct {
	Dispatcher ComputeDispatcher
}

// NewGPUStrategy wires a dispatcher into the triangle-pair interface. The
// core depends only on ComputeDispatcher, never on wgpu types, so this
// strategy degrades to ErrStrategyUnavailable cleanly when dispatcher is
// nil rather than touching any GPU state.
func NewGPUStrategy(dispatcher ComputeDispatcher) *GPUStrategy {
	return &GPUStrategy{Dispatcher: dispatcher}
}

func (g *GPUStrategy) Collide(trisA []Triangle, transformA mgl64.Mat4, trisB []Triangle, transformB mgl64.Mat4) (*TriangleHit, error) {
	if g == nil || g.Dispatcher == nil {
		return nil, ErrStrategyUnavailable
	}
	if len(trisA) == 0 && len(trisB) == 0 {
		return nil, ErrEmptyCollisionBuffer
	}
	sa := toShaderTriangles(trisA, transformA)
	sb := toShaderTriangles(trisB, transformB)
	flagsA, flagsB, err := g.Dispatcher.DispatchTriangleIntersect(sa, sb)
	if err != nil {
		return nil, err
	}
	var hitA, hitB []Triangle
	for i, f := range flagsA {
		if f {
			hitA = append(hitA, trisA[i])
		}
	}
	for i, f := range flagsB {
		if f {
			hitB = append(hitB, trisB[i])
		}
	}
	if len(hitA) == 0 && len(hitB) == 0 {
		return nil, nil
	}
	return &TriangleHit{TrianglesA: hitA, TrianglesB: hitB}, nil
}
