package assets

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima/engine/core"
)

// spirv encodes words the way a shader compiler writes them.
func spirv(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

func TestLoadShader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shader.vert.spv")
	if err := os.WriteFile(path, spirv(spirvMagic, 0x00010000, 42), 0o644); err != nil {
		t.Fatal(err)
	}
	code, err := LoadShader(path)
	if err != nil {
		t.Fatalf("LoadShader: %v", err)
	}
	if len(code) != 3 || code[0] != spirvMagic || code[2] != 42 {
		t.Fatalf("got %#v", code)
	}
}

func TestLoadShaderErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", append(spirv(spirvMagic), 0x01)},
		{"not spirv", spirv(0xdeadbeef, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".spv")
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadShader(path); !errors.Is(err, core.ErrShaderLoad) {
				t.Fatalf("got %v, want ErrShaderLoad", err)
			}
		})
	}
	t.Run("missing", func(t *testing.T) {
		if _, err := LoadShader(filepath.Join(dir, "nope.spv")); !errors.Is(err, core.ErrShaderLoad) {
			t.Fatalf("got %v, want ErrShaderLoad", err)
		}
	})
}
