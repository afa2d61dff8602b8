package templates

import (
	"os"
	"path/filepath"
	"testing"
)

const goTemplateSource = `package main

func ArchitectureTemplates() ([]map[string]any, error) {
	return []map[string]any{
		{
			"id":    "go-mlp",
			"input": []int{28, 28, 1},
			"layers": []map[string]any{
				{"kind": "flatten", "name": "flatten"},
				{"kind": "dense", "name": "dense_1", "units": 64, "activation": "relu"},
				{"kind": "dense", "name": "dense_output", "activation": "softmax"},
			},
		},
	}, nil
}`

func TestLoadGoTemplateDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mlp.go"), []byte(goTemplateSource), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	files, err := LoadGoTemplateDir(dir)
	if err != nil {
		t.Fatalf("load go templates: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 template, got %d", len(files))
	}
	if files[0].Template.ID != "go-mlp" {
		t.Fatalf("unexpected id: %+v", files[0].Template)
	}
	if len(files[0].Template.Layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(files[0].Template.Layers))
	}
}

func TestLoadGoTemplateDirMissingFunc(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write broken template: %v", err)
	}
	if _, err := LoadGoTemplateDir(dir); err == nil {
		t.Fatalf("expected error for missing ArchitectureTemplates function")
	}
}
