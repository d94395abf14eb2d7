package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/gpu"
	"github.com/spaghettifunk/anima/engine/renderer/gpu/gputest"
	"github.com/spaghettifunk/anima/engine/renderer/model"
)

type fixture struct {
	dev   *gputest.Device
	win   *gputest.Window
	model *model.Model
	r     *Renderer
	vert  string
	frag  string
}

func writeSPIRV(t *testing.T, path string) {
	t.Helper()
	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code, 0x07230203)
	if err := os.WriteFile(path, code, 0o644); err != nil {
		t.Fatal(err)
	}
}

func newFixture(t *testing.T, configure ...func(*Options)) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dev:  gputest.NewDevice(),
		vert: filepath.Join(dir, "shader.vert.spv"),
		frag: filepath.Join(dir, "shader.frag.spv"),
	}
	writeSPIRV(t, f.vert)
	writeSPIRV(t, f.frag)
	f.win = gputest.NewWindow(f.dev, gpu.Extent{Width: 800, Height: 600})

	m, err := model.New(f.dev, []model.Vertex{
		{Position: mgl32.Vec2{0.0, -0.5}, Color: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{0, 0, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.model = m

	opts := Options{VertexShader: f.vert, FragmentShader: f.frag}
	for _, c := range configure {
		c(&opts)
	}
	r, err := New(f.dev, f.win, m, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.r = r
	t.Cleanup(func() {
		f.r.Shutdown()
		f.model.Destroy()
		if n := f.dev.Live(); n != 0 {
			t.Errorf("%d objects leaked after shutdown", n)
		}
		f.assertNoViolations(t)
	})
	return f
}

func (f *fixture) assertNoViolations(t *testing.T) {
	t.Helper()
	if v := f.dev.Violations(); len(v) > 0 {
		t.Fatalf("device misuse:\n%s\ncalls:\n%s", strings.Join(v, "\n"), strings.Join(f.dev.Journal.Calls(), "\n"))
	}
}

func (f *fixture) draw(t *testing.T, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		if err := f.r.DrawFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f.r.State() != StateIdle {
			t.Fatalf("frame %d ended in state %v", i, f.r.State())
		}
	}
}

// lastSubmitted returns the command buffer submitted most recently.
func (f *fixture) lastSubmitted(t *testing.T) *gputest.CommandBuffer {
	t.Helper()
	calls := f.dev.Journal.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if !strings.HasPrefix(calls[i], "submit command_buffer#") {
			continue
		}
		var id int
		fmt.Sscanf(calls[i], "submit command_buffer#%d", &id)
		for _, cb := range f.dev.CommandBuffers() {
			if cb.ID() == id {
				return cb
			}
		}
	}
	t.Fatal("nothing submitted")
	return nil
}

func TestDrawFrameRecordsSubmitsAndPresents(t *testing.T) {
	f := newFixture(t)
	f.draw(t, 1)

	if f.r.FrameNumber() != 1 {
		t.Fatalf("frame number %d", f.r.FrameNumber())
	}
	if n := f.dev.Journal.Count("present"); n != 1 {
		t.Fatalf("%d presents", n)
	}

	cb := f.lastSubmitted(t)
	want := []string{"begin_render_pass", "bind_pipeline", "bind_vertex_buffer", "draw 3", "end_render_pass"}
	if got := cb.Commands(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("commands %v, want %v", got, want)
	}
	clear := cb.Clear()
	if clear.Color != DefaultClearColor || clear.Depth != 1.0 || clear.Stencil != 0 {
		t.Fatalf("clear values %+v", clear)
	}
	if cb.Target() != f.r.SwapChain().Framebuffer(0) {
		t.Fatal("first frame not rendered into the framebuffer of image 0")
	}
}

func TestDrawFrameUsesAllImages(t *testing.T) {
	f := newFixture(t)
	n := f.r.SwapChain().ImageCount()
	f.draw(t, 3*n)

	if got := len(f.r.CommandBuffers()); got != n {
		t.Fatalf("%d command buffers for %d images", got, n)
	}
	if f.r.FrameNumber() != uint64(3*n) {
		t.Fatalf("frame number %d", f.r.FrameNumber())
	}
}

func TestOutOfDateOnFrameTenRecovers(t *testing.T) {
	f := newFixture(t)
	results := make([]gpu.Result, 9)
	for i := range results {
		results[i] = gpu.Success()
	}
	f.dev.QueueAcquireResults(append(results, gpu.OutOfDate())...)

	f.draw(t, 9)
	oldSwapchain := f.dev.Swapchains()[0]
	oldPipeline := f.dev.Pipelines()[0]
	start := f.dev.Journal.Len()

	// frame 10
	f.draw(t, 1)
	if f.r.FrameNumber() != 9 {
		t.Fatalf("aborted frame was counted: %d", f.r.FrameNumber())
	}
	idle := f.dev.Journal.Index("wait_idle", start)
	created := f.dev.Journal.Index("create swapchain", start)
	if idle < 0 || created < 0 || idle > created {
		t.Fatalf("swapchain rebuilt without waiting for idle:\n%s", strings.Join(f.dev.Journal.Calls()[start:], "\n"))
	}
	swapchains := f.dev.Swapchains()
	if len(swapchains) != 2 {
		t.Fatalf("%d swapchains created", len(swapchains))
	}
	if swapchains[1].Info.Old != gpu.Swapchain(oldSwapchain) {
		t.Fatal("old swapchain not passed for migration")
	}
	if !oldSwapchain.Destroyed() || f.dev.LiveOf("swapchain") != 1 {
		t.Fatal("old swapchain leaked")
	}
	if len(f.dev.Pipelines()) != 2 || !oldPipeline.Destroyed() {
		t.Fatal("pipeline not rebuilt against the new render pass")
	}
	if f.dev.Pipelines()[1].Info.RenderPass != f.r.SwapChain().RenderPass() {
		t.Fatal("pipeline built against a stale render pass")
	}

	// frame 11
	before := f.dev.Journal.Len()
	f.draw(t, 1)
	if f.r.FrameNumber() != 10 {
		t.Fatalf("frame 11 not drawn: %d", f.r.FrameNumber())
	}
	if f.dev.Journal.Index(fmt.Sprintf("present swapchain#%d", swapchains[1].ID()), before) < 0 {
		t.Fatal("frame 11 not presented on the new swapchain")
	}
}

func TestRecreationMidLoopLeavesAWorkingFrame(t *testing.T) {
	tests := []struct {
		name    string
		trigger func(f *fixture)
	}{
		{"acquire out of date", func(f *fixture) { f.dev.QueueAcquireResults(gpu.OutOfDate()) }},
		{"acquire surface lost", func(f *fixture) {
			f.dev.QueueAcquireResults(gpu.SurfaceLost())
			f.dev.SetSurfaceLost(true)
		}},
		{"present out of date", func(f *fixture) { f.dev.QueuePresentResults(gpu.OutOfDate()) }},
		{"present surface lost", func(f *fixture) {
			f.dev.QueuePresentResults(gpu.SurfaceLost())
			f.dev.SetSurfaceLost(true)
		}},
		{"resize", func(f *fixture) { f.win.Resize(gpu.Extent{Width: 1024, Height: 768}) }},
		{"surface lost while rebuilding", func(f *fixture) {
			f.dev.QueuePresentResults(gpu.OutOfDate())
			f.dev.SetSurfaceLost(true)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.draw(t, 3)
			tt.trigger(f)
			f.draw(t, 1)

			frames := f.r.FrameNumber()
			start := f.dev.Journal.Len()
			f.draw(t, 1)
			if f.r.FrameNumber() != frames+1 {
				t.Fatal("frame after recreation not presented")
			}
			if f.dev.Journal.Index("present", start) < 0 {
				t.Fatal("nothing presented")
			}
			if f.dev.LiveOf("swapchain") != 1 || f.dev.LiveOf("pipeline") != 1 {
				t.Fatalf("live swapchains %d, pipelines %d", f.dev.LiveOf("swapchain"), f.dev.LiveOf("pipeline"))
			}
			if got, want := len(f.r.CommandBuffers()), f.r.SwapChain().ImageCount(); got != want {
				t.Fatalf("%d command buffers for %d images", got, want)
			}
			f.assertNoViolations(t)
		})
	}
}

func TestRecreateWaitsForNonZeroFramebuffer(t *testing.T) {
	f := newFixture(t)
	f.draw(t, 1)

	f.win.Resize(gpu.Extent{Width: 0, Height: 0})
	f.win.QueueSizes(gpu.Extent{Width: 0, Height: 0}, gpu.Extent{Width: 640, Height: 0}, gpu.Extent{Width: 1024, Height: 768})
	start := f.dev.Journal.Len()

	if err := f.r.Recreate(false); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	calls := f.dev.Journal.Calls()[start:]
	waits := 0
	for i, c := range calls {
		switch {
		case c == "wait_events":
			waits++
		case strings.HasPrefix(c, "create swapchain") || c == "wait_idle":
			if waits != 3 {
				t.Fatalf("%q after %d event waits:\n%s", c, waits, strings.Join(calls[:i+1], "\n"))
			}
		}
	}
	if got := f.r.SwapChain().Extent(); got != (gpu.Extent{Width: 1024, Height: 768}) {
		t.Fatalf("extent %v", got)
	}
	f.draw(t, 1)
}

func TestMinimizedWindowSuspendsDrawing(t *testing.T) {
	f := newFixture(t)
	f.draw(t, 1)

	f.win.Resize(gpu.Extent{})
	f.win.QueueSizes(gpu.Extent{Width: 300, Height: 200})
	created := f.dev.Journal.Count("create swapchain")
	// the resize flag makes this frame recreate, which waits for the window
	f.draw(t, 1)
	if f.win.WasResized() {
		t.Fatal("resize flag not cleared")
	}
	if got := f.r.SwapChain().Extent(); got != (gpu.Extent{Width: 300, Height: 200}) {
		t.Fatalf("extent %v", got)
	}

	f.draw(t, 3)
	if n := f.dev.Journal.Count("create swapchain") - created; n != 1 {
		t.Fatalf("%d swapchains built for one restore", n)
	}
}

func TestPendingResizeRebuildsOnce(t *testing.T) {
	tests := []struct {
		name    string
		trigger func(f *fixture)
	}{
		{"present", func(f *fixture) {}},
		{"acquire out of date", func(f *fixture) { f.dev.QueueAcquireResults(gpu.OutOfDate()) }},
		{"present out of date", func(f *fixture) { f.dev.QueuePresentResults(gpu.OutOfDate()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.draw(t, 2)

			f.win.Resize(gpu.Extent{Width: 700, Height: 500})
			tt.trigger(f)
			created := f.dev.Journal.Count("create swapchain")
			idle := f.dev.Journal.Count("wait_idle")
			f.draw(t, 4)

			if n := f.dev.Journal.Count("create swapchain") - created; n != 1 {
				t.Fatalf("%d swapchains built for one resize", n)
			}
			if n := f.dev.Journal.Count("wait_idle") - idle; n != 1 {
				t.Fatalf("%d idle waits for one resize", n)
			}
			if f.win.WasResized() {
				t.Fatal("resize flag still pending")
			}
			if got := f.r.SwapChain().Extent(); got != (gpu.Extent{Width: 700, Height: 500}) {
				t.Fatalf("extent %v", got)
			}
		})
	}
}

func TestSurfaceLostRecreatesSurfaceBeforeSwapchain(t *testing.T) {
	f := newFixture(t)
	f.draw(t, 2)

	f.dev.QueueAcquireResults(gpu.SurfaceLost())
	f.dev.SetSurfaceLost(true)
	start := f.dev.Journal.Len()
	f.draw(t, 1)

	surface := f.dev.Journal.Index("recreate_surface", start)
	swapchain := f.dev.Journal.Index("create swapchain", start)
	if surface < 0 || swapchain < 0 || surface > swapchain {
		t.Fatalf("surface must be recreated before the swapchain:\n%s", strings.Join(f.dev.Journal.Calls()[start:], "\n"))
	}
	destroyed := f.dev.Journal.Index("destroy swapchain", start)
	if destroyed < 0 || destroyed > surface {
		t.Fatal("old swapchain must be gone before its surface is replaced")
	}
	if f.win.Surfaces() != 2 {
		t.Fatalf("%d surfaces", f.win.Surfaces())
	}
	if f.r.SwapChain().Handle().(*gputest.Swapchain).Info.Old != nil {
		t.Fatal("swapchain of a lost surface used as migration hint")
	}
	f.draw(t, 1)
}

func TestTimeoutSkipsFrame(t *testing.T) {
	f := newFixture(t)
	f.dev.QueueAcquireResults(gpu.Timeout())

	f.draw(t, 1)
	if f.r.FrameNumber() != 0 || f.dev.Journal.Count("submit") != 0 {
		t.Fatal("timed out frame was submitted")
	}
	if len(f.dev.Swapchains()) != 1 {
		t.Fatal("timeout caused a recreation")
	}
	f.draw(t, 1)
	if f.r.FrameNumber() != 1 {
		t.Fatal("frame after timeout not drawn")
	}
}

func TestUnexpectedResultsAreNotFatal(t *testing.T) {
	f := newFixture(t)
	f.dev.QueueAcquireResults(gpu.Failure(-3))
	f.draw(t, 1)
	if f.dev.Journal.Count("submit") != 0 {
		t.Fatal("frame submitted after a failed acquire")
	}

	f.dev.QueuePresentResults(gpu.Failure(-13))
	f.draw(t, 1)
	if len(f.dev.Swapchains()) != 1 {
		t.Fatal("failed present caused a recreation")
	}
	f.draw(t, 1)
	if f.r.FrameNumber() != 1 {
		t.Fatalf("frame number %d", f.r.FrameNumber())
	}
}

func TestSuboptimalPolicy(t *testing.T) {
	t.Run("continue", func(t *testing.T) {
		f := newFixture(t)
		f.dev.QueueAcquireResults(gpu.Suboptimal())
		f.dev.QueuePresentResults(gpu.Suboptimal())
		f.draw(t, 1)
		if f.r.FrameNumber() != 1 || len(f.dev.Swapchains()) != 1 {
			t.Fatal("suboptimal frame not accepted")
		}
	})
	t.Run("recreate", func(t *testing.T) {
		f := newFixture(t, func(o *Options) { o.RecreateOnSuboptimal = true })
		f.dev.QueuePresentResults(gpu.Suboptimal())
		f.draw(t, 1)
		if len(f.dev.Swapchains()) != 2 {
			t.Fatal("suboptimal present did not recreate")
		}
	})
}

func TestRecordingFailureIsFatal(t *testing.T) {
	for _, op := range []string{gputest.OpBeginCommandBuffer, gputest.OpEndCommandBuffer} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			f.dev.Fail(op, 1, nil)
			err := f.r.DrawFrame()
			if !errors.Is(err, core.ErrRecording) {
				t.Fatalf("got %v, want ErrRecording", err)
			}
		})
	}
}

func TestSubmitFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.dev.Fail(gputest.OpSubmit, 1, nil)
	if err := f.r.DrawFrame(); !errors.Is(err, core.ErrCommandBuffer) {
		t.Fatalf("got %v", err)
	}
}

func TestRecreationFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.dev.QueueAcquireResults(gpu.OutOfDate())
	f.dev.Fail(gputest.OpCreateRenderPass, 1, nil)
	if err := f.r.DrawFrame(); !errors.Is(err, core.ErrSwapchainCreate) {
		t.Fatalf("got %v", err)
	}
}

func TestPipelineReload(t *testing.T) {
	f := newFixture(t)
	f.draw(t, 1)
	first := f.dev.Pipelines()[0]

	f.r.RequestPipelineReload()
	start := f.dev.Journal.Len()
	f.draw(t, 1)

	idle := f.dev.Journal.Index("wait_idle", start)
	created := f.dev.Journal.Index("create pipeline", start)
	if idle < 0 || created < idle {
		t.Fatal("pipeline reloaded without waiting for idle")
	}
	if !first.Destroyed() || f.dev.LiveOf("pipeline") != 1 {
		t.Fatal("previous pipeline not replaced")
	}

	// a broken shader keeps the current pipeline
	if err := os.WriteFile(f.vert, []byte("garbage!"), 0o644); err != nil {
		t.Fatal(err)
	}
	current := f.r.Pipeline()
	f.r.RequestPipelineReload()
	f.draw(t, 1)
	if f.r.Pipeline() != current {
		t.Fatal("pipeline replaced by a broken reload")
	}
	if f.r.FrameNumber() != 3 {
		t.Fatalf("frame number %d", f.r.FrameNumber())
	}
}

func TestNewWaitsForVisibleWindow(t *testing.T) {
	dev := gputest.NewDevice()
	win := gputest.NewWindow(dev, gpu.Extent{})
	win.QueueSizes(gpu.Extent{Width: 640, Height: 480})
	dir := t.TempDir()
	vert, frag := filepath.Join(dir, "v.spv"), filepath.Join(dir, "f.spv")
	writeSPIRV(t, vert)
	writeSPIRV(t, frag)
	m, err := model.New(dev, make([]model.Vertex, 3))
	if err != nil {
		t.Fatal(err)
	}

	r, err := New(dev, win, m, Options{VertexShader: vert, FragmentShader: frag})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := r.SwapChain().Extent(); got != (gpu.Extent{Width: 640, Height: 480}) {
		t.Fatalf("extent %v", got)
	}
	r.Shutdown()
	m.Destroy()
	if dev.Live() != 0 {
		t.Fatalf("%d objects leaked", dev.Live())
	}
}

func TestNewFailsOnMissingShader(t *testing.T) {
	dev := gputest.NewDevice()
	win := gputest.NewWindow(dev, gpu.Extent{Width: 800, Height: 600})
	_, err := New(dev, win, nil, Options{VertexShader: "missing.vert.spv", FragmentShader: "missing.frag.spv"})
	if !errors.Is(err, core.ErrShaderLoad) {
		t.Fatalf("got %v", err)
	}
	if dev.Live() != 0 {
		t.Fatalf("%d objects leaked", dev.Live())
	}
}
