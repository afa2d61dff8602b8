package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TrashHobbit/modelkit/internal/templates"
)

func TestConvertWritesDescriptorAndBlob(t *testing.T) {
	// The output dir does not exist yet; Convert must create it.
	outDir := filepath.Join(t.TempDir(), "public", "tfjs_model")
	result, err := Convert(templates.Default(), testHandle(10), outDir, "")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.Classes != 10 || result.Tensors != 8 {
		t.Fatalf("result = %+v", result)
	}

	doc, err := ReadFile(result.DescriptorPath)
	if err != nil {
		t.Fatalf("read descriptor back: %v", err)
	}
	if err := doc.Validate(); err != nil {
		t.Fatalf("written descriptor invalid: %v", err)
	}

	info, err := os.Stat(result.WeightsPath)
	if err != nil {
		t.Fatalf("stat blob: %v", err)
	}
	if info.Size() != result.BlobBytes {
		t.Fatalf("blob size %d, result says %d", info.Size(), result.BlobBytes)
	}
	if result.BlobBytes != doc.BlobBytes() {
		t.Fatalf("blob bytes %d, manifest expects %d", result.BlobBytes, doc.BlobBytes())
	}
}

func TestConvertCountsTrainedTensors(t *testing.T) {
	stPath := filepath.Join(t.TempDir(), "model.safetensors")
	writeSafetensors(t, stPath, map[string]struct {
		shape  []uint64
		values []float32
	}{
		"dense_output/bias": {shape: []uint64{3}, values: []float32{1, 2, 3}},
	})

	outDir := filepath.Join(t.TempDir(), "out")
	result, err := Convert(tinyTemplate(), tinyHandle(), outDir, stPath)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.FromTrained != 1 {
		t.Fatalf("FromTrained = %d, want 1", result.FromTrained)
	}
}

func TestConvertFailsOnBadSafetensors(t *testing.T) {
	stPath := filepath.Join(t.TempDir(), "model.safetensors")
	if err := os.WriteFile(stPath, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(t.TempDir(), "out")
	if _, err := Convert(tinyTemplate(), tinyHandle(), outDir, stPath); err == nil {
		t.Fatal("expected error for corrupt safetensors file")
	}
	if _, err := os.Stat(filepath.Join(outDir, "model.json")); !os.IsNotExist(err) {
		t.Fatal("descriptor must not be written when conversion fails")
	}
}
