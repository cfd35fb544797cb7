// Package testgen provides utilities for generating test fixtures
// (annotation SVGs, page JPEGs, and seeded bookmark databases) with
// configurable contents for testing the compositing pipeline.
package testgen

import (
	"os"
	"testing"
)

// TempDir creates a temporary directory for testing and registers cleanup.
// The directory is automatically removed when the test completes.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}
