package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUFrameUniformSource is the canonical WGSL definition of the FrameUniform struct.
// Matches GPUFrameUniform layout exactly (80 bytes, WGSL uniform aligned).
//
//go:embed assets/frame_uniform.wgsl
var GPUFrameUniformSource string

// CameraBasis is the per-frame view basis derived from a CameraState and a viewport.
// It is recomputed every frame and never stored by the camera.
type CameraBasis struct {
	Origin  mgl32.Vec3
	Right   mgl32.Vec3
	Up      mgl32.Vec3
	Forward mgl32.Vec3

	ScaleX   float32
	ScaleY   float32
	Distance float32
}

// Uniform converts the basis into its GPU record.
//
// Returns:
//   - GPUFrameUniform: the record ready to be marshalled
func (b CameraBasis) Uniform() GPUFrameUniform {
	return GPUFrameUniform{
		Scale:    [2]float32{b.ScaleX, b.ScaleY},
		Distance: b.Distance,
		Origin:   b.Origin,
		Right:    b.Right,
		Up:       b.Up,
		Forward:  b.Forward,
	}
}

// GPUFrameUniform is the GPU-aligned representation of one frame parameter slot.
// Matches the WGSL FrameUniform struct layout exactly (see GPUFrameUniformSource).
// Size: 80 bytes.
type GPUFrameUniform struct {
	Scale    [2]float32 // offset  0: viewport scale x, y (vec2<f32>)
	Distance float32    // offset  8: orbit distance (f32)
	_pad0    float32    // offset 12: vec3 alignment
	Origin   [3]float32 // offset 16: eye origin (vec3<f32>)
	_pad1    float32    // offset 28
	Right    [3]float32 // offset 32: right axis (vec3<f32>)
	_pad2    float32    // offset 44
	Up       [3]float32 // offset 48: up axis (vec3<f32>)
	_pad3    float32    // offset 60
	Forward  [3]float32 // offset 64: view direction (vec3<f32>)
	_pad4    float32    // offset 76: padding to 80 bytes
}

// GPUFrameUniformSize is the byte size of one serialized frame record.
const GPUFrameUniformSize = int(unsafe.Sizeof(GPUFrameUniform{}))

// Size returns the size of the GPUFrameUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUFrameUniform) Size() int {
	return GPUFrameUniformSize
}

// Marshal serializes the GPUFrameUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUFrameUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.MarshalTo(buf)
	return buf
}

// MarshalTo serializes the record into buf, which must hold at least Size() bytes.
// Padding bytes are zeroed.
//
// Parameters:
//   - buf: destination buffer
func (g *GPUFrameUniform) MarshalTo(buf []byte) {
	_ = buf[GPUFrameUniformSize-1]
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	put(0, g.Scale[0])
	put(4, g.Scale[1])
	put(8, g.Distance)
	put(12, 0)
	vecs := [4][3]float32{g.Origin, g.Right, g.Up, g.Forward}
	for i, v := range vecs {
		base := 16 + i*16
		put(base, v[0])
		put(base+4, v[1])
		put(base+8, v[2])
		put(base+12, 0)
	}
}
