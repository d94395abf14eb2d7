// Package model holds immutable vertex data uploaded to the GPU.
package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
)

var ErrTooFewVertices = errors.New("a model needs at least 3 vertices")

type Vertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
}

const vertexSize = uint32(unsafe.Sizeof(Vertex{}))

// BindingDescriptions describes one interleaved per-vertex buffer at binding 0.
func BindingDescriptions() []gpu.VertexBinding {
	return []gpu.VertexBinding{
		{Binding: 0, Stride: vertexSize, InputRate: gpu.VertexInputRateVertex},
	}
}

// AttributeDescriptions maps Position to location 0 and Color to location 1.
func AttributeDescriptions() []gpu.VertexAttribute {
	return []gpu.VertexAttribute{
		{Location: 0, Binding: 0, Format: gpu.FormatR32G32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Location: 1, Binding: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
	}
}

type Model struct {
	vertexBuffer gpu.Buffer
	vertexCount  uint32
}

func New(device gpu.Device, vertices []Vertex) (*Model, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewVertices, len(vertices))
	}
	buffer, err := device.CreateVertexBuffer(encodeVertices(vertices))
	if err != nil {
		e := fmt.Errorf("%w: vertex buffer: %w", core.ErrBufferCreate, err)
		core.LogError(e.Error())
		return nil, e
	}
	return &Model{vertexBuffer: buffer, vertexCount: uint32(len(vertices))}, nil
}

// encodeVertices lays vertices out as the shader reads them, little endian.
func encodeVertices(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*int(vertexSize))
	for _, v := range vertices {
		for _, f := range v.Position {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		for _, f := range v.Color {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

// Bind must precede Draw within the same render pass.
func (m *Model) Bind(cb gpu.CommandBuffer) {
	cb.BindVertexBuffer(m.vertexBuffer, 0)
}

func (m *Model) Draw(cb gpu.CommandBuffer) {
	cb.Draw(m.vertexCount, 1, 0, 0)
}

func (m *Model) VertexCount() uint32 {
	return m.vertexCount
}

func (m *Model) Destroy() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy()
		m.vertexBuffer = nil
	}
}
