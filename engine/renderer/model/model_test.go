package model

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
	"github.com/spaghettifunk/anima/engine/renderer/gpu/gputest"
)

var triangle = []Vertex{
	{Position: mgl32.Vec2{0.0, -0.5}, Color: mgl32.Vec3{1, 0, 0}},
	{Position: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0, 1, 0}},
	{Position: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{0, 0, 1}},
}

func TestNewRejectsTooFewVertices(t *testing.T) {
	dev := gputest.NewDevice()
	for _, n := range []int{0, 1, 2} {
		if _, err := New(dev, triangle[:n]); !errors.Is(err, ErrTooFewVertices) {
			t.Fatalf("%d vertices: got %v", n, err)
		}
	}
	if dev.Live() != 0 {
		t.Fatal("buffer created for a rejected model")
	}
}

func TestNewUploadsInterleavedVertices(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := New(dev, triangle)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Destroy()

	buf := m.vertexBuffer.(*gputest.Buffer)
	if got, want := len(buf.Data), len(triangle)*int(vertexSize); got != want {
		t.Fatalf("buffer size %d, want %d", got, want)
	}
	// second vertex, green channel
	off := int(vertexSize) + int(AttributeDescriptions()[1].Offset) + 4
	if g := math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[off:])); g != 1 {
		t.Fatalf("green of vertex 1 = %f", g)
	}
}

func TestVertexLayout(t *testing.T) {
	if vertexSize != 20 {
		t.Fatalf("vertex size %d", vertexSize)
	}
	attrs := AttributeDescriptions()
	if attrs[0].Offset != 0 || attrs[1].Offset != 8 || attrs[1].Location != 1 {
		t.Fatalf("attributes %+v", attrs)
	}
	if BindingDescriptions()[0].Stride != vertexSize {
		t.Fatal("stride does not match the vertex size")
	}
}

func TestBindPrecedesDraw(t *testing.T) {
	dev := gputest.NewDevice()
	m, err := New(dev, triangle)
	if err != nil {
		t.Fatal(err)
	}
	cbs, _ := dev.AllocateCommandBuffers(1)
	cb := cbs[0]
	extent := gpu.Extent{Width: 800, Height: 600}
	pass, _ := dev.CreateRenderPass(gpu.RenderPassInfo{ColorFormat: gpu.FormatB8G8R8A8Srgb})
	fb, _ := dev.CreateFramebuffer(pass, nil, extent)
	cb.Begin()
	cb.BeginRenderPass(pass, fb, extent, gpu.ClearValues{Depth: 1})
	m.Bind(cb)
	m.Draw(cb)
	cb.EndRenderPass()
	cb.End()

	got := cb.(*gputest.CommandBuffer).Commands()
	want := []string{"begin_render_pass", "bind_vertex_buffer", "draw 3", "end_render_pass"}
	if len(got) != len(want) {
		t.Fatalf("commands %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("commands %v, want %v", got, want)
		}
	}
	m.Destroy()
	if v := dev.Violations(); len(v) > 0 {
		t.Fatalf("device misuse: %v", v)
	}
}
