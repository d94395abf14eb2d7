package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestShaderWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "shader.vert.spv")
	frag := filepath.Join(dir, "shader.frag.spv")
	for _, p := range []string{vert, frag} {
		if err := os.WriteFile(p, spirv(spirvMagic), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	changed := make(chan string, 16)
	sw, err := NewShaderWatcher(func(p string) { changed <- p }, vert, frag)
	if err != nil {
		t.Fatalf("NewShaderWatcher: %v", err)
	}
	defer sw.Close()

	// unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(frag, spirv(spirvMagic, 1), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		if p != frag {
			t.Fatalf("got change for %q, want %q", p, frag)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestShaderWatcherClose(t *testing.T) {
	dir := t.TempDir()
	sw, err := NewShaderWatcher(func(string) {}, filepath.Join(dir, "a.spv"))
	if err != nil {
		t.Fatal(err)
	}
	if err := sw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sw.Close(); err == nil {
		t.Fatal("second Close should fail")
	}
}
