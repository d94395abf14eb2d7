//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const shaderDir = "shaders"

var shaderSources = []string{"shader.vert", "shader.frag"}

// Compiles the GLSL shaders to SPIR-V next to their sources with glslc.
// Sources older than their output are skipped.
func (Build) Shaders() error {
	for _, name := range shaderSources {
		src := filepath.Join(shaderDir, name)
		if err := compileShader(src, src+".spv"); err != nil {
			return err
		}
	}
	return nil
}

// Compiles the shaders and builds the anima binary.
func (Build) Binary() error {
	mg.Deps(Build.Shaders)
	return run(true, "go", "build", "-o", "bin/anima", ".")
}
