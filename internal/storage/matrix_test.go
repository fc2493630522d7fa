package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := mat.NewDense(3, 2, []float64{
		1.5, -2.25,
		0.0, 1e-12,
		math.Pi, 42.0,
	})

	if err := SaveMatrix(dir, "m.txt", m, false); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadMatrix(filepath.Join(dir, "m.txt"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !mat.EqualApprox(m, loaded, 0) {
		t.Errorf("round trip mismatch:\nsaved:\n%v\nloaded:\n%v", mat.Formatted(m), mat.Formatted(loaded))
	}
}

func TestOverwriteDisallowed(t *testing.T) {
	dir := t.TempDir()
	m := mat.NewDense(1, 1, []float64{1})

	if err := SaveMatrix(dir, "m.txt", m, false); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := SaveMatrix(dir, "m.txt", m, false); err == nil {
		t.Error("second save without overwrite should fail")
	}
	if err := SaveMatrix(dir, "m.txt", m, true); err != nil {
		t.Errorf("save with overwrite failed: %v", err)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := SaveMatrix(dir, "m.txt", mat.NewDense(1, 1, []float64{3}), false); err != nil {
		t.Fatalf("save into nested directory failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "m.txt")); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestLoadVector(t *testing.T) {
	dir := t.TempDir()
	if err := SaveVector(dir, "v.txt", []float64{1, 2, 3}, false); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	v, err := LoadVector(filepath.Join(dir, "v.txt"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(v) != 3 || v[0] != 1 || v[2] != 3 {
		t.Errorf("unexpected vector: %v", v)
	}
}

func TestLoadRaggedMatrix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte("1 2\n3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMatrix(path); err == nil {
		t.Error("ragged matrix should fail to load")
	}
}
