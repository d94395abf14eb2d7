//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"
)

// run executes a tool from the repository root. Its output is echoed when
// stream is set or mage runs verbose, otherwise it is printed only on failure.
func run(stream bool, command string, args ...string) error {
	fmt.Printf("Executing: %s %s\n", command, strings.Join(args, " "))

	streamOutput := mg.Verbose() || stream
	var b bytes.Buffer
	stdout, stderr := io.Writer(&b), io.Writer(&b)
	if streamOutput {
		stdout = io.MultiWriter(&b, os.Stdout)
		stderr = io.MultiWriter(&b, os.Stderr)
	}
	if _, err := sh.Exec(nil, stdout, stderr, command, args...); err != nil {
		if !streamOutput {
			fmt.Println("... failed command output:")
			fmt.Println(b.String())
		}
		return fmt.Errorf("error executing %s: %w", command, err)
	}
	return nil
}

// compileShader turns one GLSL source into SPIR-V with glslc unless the
// output is newer than the source.
func compileShader(src, out string) error {
	stale, err := target.Path(out, src)
	if err != nil {
		return fmt.Errorf("checking %s: %w", src, err)
	}
	if !stale {
		return nil
	}
	return run(true, "glslc", src, "-o", out)
}
