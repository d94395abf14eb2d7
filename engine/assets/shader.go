package assets

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spaghettifunk/anima/engine/core"
)

// SPIR-V magic number, first word of every module.
const spirvMagic uint32 = 0x07230203

// LoadShader reads a compiled SPIR-V module from disk.
func LoadShader(path string) ([]uint32, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrShaderLoad, err)
	}
	code, err := bytesToBytecode(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrShaderLoad, path, err)
	}
	return code, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("size %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	if byteCode[0] != spirvMagic {
		return nil, fmt.Errorf("bad magic number 0x%08x", byteCode[0])
	}
	return byteCode, nil
}
