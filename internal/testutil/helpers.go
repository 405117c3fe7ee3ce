// Package testutil provides shared test helpers for rollblock packages.
package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TempPaths returns a temporary directory plus input and output paths
// inside it. The directory is automatically cleaned up when the test
// completes.
func TempPaths(t *testing.T) (dir, input, output string) {
	t.Helper()
	dir = t.TempDir()
	return dir, filepath.Join(dir, "in.csv"), filepath.Join(dir, "out.csv")
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadRows parses the comma-separated file at path.
func ReadRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return ParseRows(t, data)
}

// ParseRows parses comma-separated data with a variable field count.
func ParseRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse rows: %v", err)
	}
	return rows
}

// MustNotExist asserts that the file does not exist.
func MustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected %s to not exist", path)
	}
}

// AlmostEqual reports whether a and b differ by at most tol.
func AlmostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
