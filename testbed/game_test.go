package testbed

import (
	"testing"

	"github.com/spaghettifunk/anima/engine"
)

func TestNewTestGameWiresHooks(t *testing.T) {
	g := NewTestGame(&engine.ApplicationConfig{StartWidth: 800, StartHeight: 600})
	if len(g.Vertices) != 3 {
		t.Fatalf("vertices: got %d, want 3", len(g.Vertices))
	}
	if g.FnInitialize == nil || g.FnUpdate == nil || g.FnOnResize == nil || g.FnShutdown == nil {
		t.Fatal("hooks not wired")
	}

	if err := g.FnUpdate(0.5); err != nil {
		t.Fatal(err)
	}
	if err := g.FnUpdate(0.25); err != nil {
		t.Fatal(err)
	}
	if got := g.state().elapsed; got != 0.75 {
		t.Fatalf("elapsed: got %f, want 0.75", got)
	}

	if err := g.FnOnResize(1024, 768); err != nil {
		t.Fatal(err)
	}
	if s := g.state(); s.width != 1024 || s.height != 768 {
		t.Fatalf("size after resize: got %dx%d", s.width, s.height)
	}
}
