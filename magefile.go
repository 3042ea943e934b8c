//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binDir = "bin"

// Default target - build the binary
var Default = Build

// Build builds the ciwatch binary into ./bin
func Build() error {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", binDir, err)
	}
	return sh.RunV("go", "build", "-o", filepath.Join(binDir, "ciwatch"), "./cmd/ciwatch")
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm(binDir)
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test namespace for testing commands
type Test mg.Namespace

// Unit runs the package tests
func (Test) Unit() error {
	return sh.RunV("go", "test", "./internal/...")
}

// Race runs the package tests with the race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./internal/...")
}

// Integration builds the binary and runs the end-to-end tests
func (Test) Integration() error {
	return sh.RunV("go", "test", "./test/integration/...")
}

// All runs vet and every test suite
func (Test) All() {
	mg.SerialDeps(Vet, Test.Unit, Test.Integration)
}
