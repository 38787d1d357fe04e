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

// Build compiles the executables into ./bin
func Build() error {
	mg.Deps(BuildDigitize, BuildGenDeposits, BuildMeasureCompression)
	fmt.Println("Compilation finished")
	return nil
}

// BuildDigitize needs CGO and the HDF5 library for the output writer.
func BuildDigitize() error {
	fmt.Println("Building digitize executable...")
	return goCmd(true, "build", "-o", "./bin/digitize", "./digitize")
}

func BuildGenDeposits() error {
	fmt.Println("Building gendeposits executable...")
	return goCmd(false, "build", "-o", "./bin/gendeposits", "./gendeposits")
}

func BuildMeasureCompression() error {
	fmt.Println("Building measureCompression executable...")
	return goCmd(true, "build", "-o", "./bin/measureCompression", "./measureCompression")
}

// Test runs the unit tests. Packages importing the writer need CGO and HDF5.
func Test() error {
	return goCmd(true, "test", "./pkg/...", "./gendeposits/...", "./digitize/...")
}

func goCmd(cgo bool, args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cgoEnabled := "CGO_ENABLED=0"
	if cgo {
		cgoEnabled = "CGO_ENABLED=1"
	}
	cmd.Env = append(os.Environ(),
		cgoEnabled,
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
