//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the engine with anima.toml.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run engine...")
	return run(true, "go", "run", ".", "-config", "anima.toml")
}

type Test mg.Namespace

// Runs the unit tests of every package.
func (Test) Unit() error {
	return run(true, "go", "test", "./...")
}

// Runs the unit tests with the race detector; the shader watcher and the
// frame-slot tests use goroutines.
func (Test) Race() error {
	return run(true, "go", "test", "-race", "./...")
}
