package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TrashHobbit/modelkit/internal/config"
)

func testProjectConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := config.InitModelkitDir(dir); err != nil {
		t.Fatalf("InitModelkitDir: %v", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func TestExpectedDimsUsesModelSidecar(t *testing.T) {
	cfg := testProjectConfig(t)

	sidecar := []byte(`{"input_shape": [-1, 160, 320, 3], "output_shape": [-1, 10]}`)
	if err := os.MkdirAll(filepath.Dir(cfg.ModelPath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.ModelPath(), sidecar, 0o644); err != nil {
		t.Fatal(err)
	}

	dims, err := expectedDims(cfg)
	if err != nil {
		t.Fatalf("expectedDims: %v", err)
	}
	// input_shape is [batch, height, width, channels].
	if dims != [2]int{320, 160} {
		t.Fatalf("dims = %v, want [320 160]", dims)
	}
}

func TestExpectedDimsFallsBackToTemplate(t *testing.T) {
	cfg := testProjectConfig(t)

	dims, err := expectedDims(cfg)
	if err != nil {
		t.Fatalf("expectedDims: %v", err)
	}
	if dims != [2]int{224, 224} {
		t.Fatalf("dims = %v, want [224 224]", dims)
	}
}
