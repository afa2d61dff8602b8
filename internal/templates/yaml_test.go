package templates

import (
	"os"
	"path/filepath"
	"testing"
)

const smallTemplateYAML = `
id: small-cnn
name: Small CNN
input: [32, 32, 3]
layers:
  - kind: conv2d
    name: conv2d_1
    filters: 16
    kernel: [3, 3]
    activation: relu
  - kind: maxpool2d
    name: pool_1
    pool: [2, 2]
  - kind: flatten
    name: flatten
  - kind: dense
    name: dense_output
    activation: softmax
`

func TestLoadTemplateDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "small.yaml"), []byte(smallTemplateYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	files, err := LoadTemplateDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 template, got %d", len(files))
	}
	tpl := files[0].Template
	if tpl.ID != "small-cnn" || len(tpl.Layers) != 4 {
		t.Fatalf("unexpected template: %+v", tpl)
	}
}

func TestLoadTemplateDirMissingIsEmpty(t *testing.T) {
	files, err := LoadTemplateDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if files != nil {
		t.Fatalf("expected nil, got %v", files)
	}
}

func TestLoadTemplateDirRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	invalid := "id: broken\ninput: [32, 32, 3]\nlayers: []\n"
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(invalid), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTemplateDir(dir); err == nil {
		t.Fatal("expected error for invalid template")
	}
}

func TestLoadAllRegistersIntoRegistry(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "small.yaml"), []byte(smallTemplateYAML), 0644); err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry()
	if err := LoadAll(reg, dir); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if _, err := reg.Resolve("small-cnn"); err != nil {
		t.Fatalf("small-cnn not registered: %v", err)
	}
	if _, err := reg.Resolve(DefaultID); err != nil {
		t.Fatalf("default missing after LoadAll: %v", err)
	}
}
