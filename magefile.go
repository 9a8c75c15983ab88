//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles both executables
func Build() error {
	mg.Deps(BuildReconstruct)
	mg.Deps(BuildPidcount)
	fmt.Println("Compilation finished")
	return nil
}

func goCommand(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// BuildReconstruct builds the reconstruction executable, linked against HDF5
func BuildReconstruct() error {
	fmt.Println("Building reconstruct executable...")
	return goCommand("build", "-o", "./bin/reconstruct", "./reconstruct").Run()
}

// BuildPidcount builds the PID counting executable
func BuildPidcount() error {
	fmt.Println("Building pidcount executable...")
	return goCommand("build", "-o", "./bin/pidcount", "./pidcount").Run()
}

// Test runs the library tests. The HDF5 writer tests need libhdf5.
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./pkg/...").Run()
}
