package imagecheck

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes a minimal PNG header (signature plus IHDR chunk) that is
// enough for header-based dimension sniffing.
func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	data := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	data = append(data, 0, 0, 0, 13)
	data = append(data, 'I', 'H', 'D', 'R')
	data = binary.BigEndian.AppendUint32(data, uint32(width))
	data = binary.BigEndian.AppendUint32(data, uint32(height))
	// bit depth, color type, compression, filter, interlace
	data = append(data, 8, 6, 0, 0, 0)
	// chunk CRC, unchecked by header sniffers
	data = append(data, 0, 0, 0, 0)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.png")
	writePNG(t, path, 32, 32)

	dims, err := Dims(path)
	if err != nil {
		t.Fatalf("Dims: %v", err)
	}
	if dims != [2]int{32, 32} {
		t.Fatalf("dims = %v", dims)
	}
}

func TestDimsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Dims(path); err == nil {
		t.Fatal("expected error for non-image content")
	}
}

func TestScanReportsMismatches(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "ok1.png"), 32, 32)
	writePNG(t, filepath.Join(dir, "nested", "ok2.png"), 32, 32)
	writePNG(t, filepath.Join(dir, "wrong.png"), 64, 48)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := Scan(dir, [2]int{32, 32})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Checked != 3 {
		t.Fatalf("checked = %d, want 3", result.Checked)
	}
	if result.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", result.Skipped)
	}
	if len(result.Mismatches) != 1 || result.OK() {
		t.Fatalf("mismatches = %v", result.Mismatches)
	}
	mismatch := result.Mismatches[0]
	if filepath.Base(mismatch.Path) != "wrong.png" || mismatch.Width != 64 || mismatch.Height != 48 {
		t.Fatalf("mismatch = %+v", mismatch)
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	result, err := Scan(t.TempDir(), [2]int{32, 32})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Checked != 0 || !result.OK() {
		t.Fatalf("result = %+v", result)
	}
}

func TestScanRejectsInvalidExpectedDims(t *testing.T) {
	if _, err := Scan(t.TempDir(), [2]int{0, 32}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestScanMissingDirectory(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "absent"), [2]int{32, 32}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
