// Package imagecheck verifies that sample images match the dimensions the
// model descriptor expects, reading only image headers rather than decoding
// full files.
package imagecheck

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rubenfonseca/fastimage"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// Mismatch is one image whose dimensions disagree with the expected size.
type Mismatch struct {
	Path   string
	Width  int
	Height int
}

// Result summarizes a directory scan.
type Result struct {
	Checked    int
	Skipped    int
	Mismatches []Mismatch
}

// OK reports whether every checked image had the expected dimensions.
func (r Result) OK() bool {
	return len(r.Mismatches) == 0
}

// Dims reads the image header and returns [width, height].
func Dims(path string) ([2]int, error) {
	var dims [2]int
	file, err := os.Open(path)
	if err != nil {
		return dims, err
	}
	defer file.Close()
	_, size, err := fastimage.DetectImageTypeFromReader(file)
	if err != nil {
		return dims, err
	}
	if size == nil {
		return dims, fmt.Errorf("imagecheck: %s: unknown image format", path)
	}
	dims = [2]int{int(size.Width), int(size.Height)}
	return dims, nil
}

// Scan walks dir for image files and compares each against want (width,
// height). Unreadable or unrecognized files are counted as skipped, not
// failures.
func Scan(dir string, want [2]int) (Result, error) {
	var result Result
	if want[0] <= 0 || want[1] <= 0 {
		return result, fmt.Errorf("imagecheck: expected dimensions %dx%d are invalid", want[0], want[1])
	}

	var paths []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExts[strings.ToLower(filepath.Ext(p))] {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("imagecheck: scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	for _, p := range paths {
		dims, err := Dims(p)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Checked++
		if dims != want {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Path:   p,
				Width:  dims[0],
				Height: dims[1],
			})
		}
	}
	return result, nil
}
