package descriptor

import (
	"fmt"
	"path/filepath"

	"github.com/TrashHobbit/modelkit/internal/model"
	"github.com/TrashHobbit/modelkit/internal/templates"
)

// ConvertResult reports what a conversion produced.
type ConvertResult struct {
	DescriptorPath string
	WeightsPath    string
	Classes        int
	Tensors        int
	BlobBytes      int64
	FromTrained    int // tensors copied through from safetensors
}

// Convert synthesizes the descriptor for handle using tpl and writes
// model.json plus weights.bin under outDir. When weightsPath names an
// existing safetensors file, matching tensors are copied through instead of
// initialized.
func Convert(tpl templates.Template, handle *model.Handle, outDir, weightsPath string) (ConvertResult, error) {
	doc, err := Synthesize(tpl, handle)
	if err != nil {
		return ConvertResult{}, err
	}

	var source TensorSource
	copied := 0
	if weightsPath != "" {
		st, err := OpenSafetensors(weightsPath)
		if err != nil {
			return ConvertResult{}, err
		}
		source = st
		copied = countMatches(st, doc)
	}

	descriptorPath := filepath.Join(outDir, "model.json")
	if err := doc.WriteFile(descriptorPath); err != nil {
		return ConvertResult{}, err
	}
	blobPath := filepath.Join(outDir, BlobFileName)
	written, err := WriteBlob(blobPath, doc, source)
	if err != nil {
		return ConvertResult{}, err
	}
	if written != doc.BlobBytes() {
		return ConvertResult{}, fmt.Errorf("descriptor: blob is %d bytes, manifest expects %d", written, doc.BlobBytes())
	}

	return ConvertResult{
		DescriptorPath: descriptorPath,
		WeightsPath:    blobPath,
		Classes:        handle.ClassCount(),
		Tensors:        len(doc.Entries()),
		BlobBytes:      written,
		FromTrained:    copied,
	}, nil
}

func countMatches(st *SafetensorsSource, doc *Document) int {
	matches := 0
	for _, entry := range doc.Entries() {
		info, ok := st.infos[entry.Name]
		if ok && info.DType == "F32" && shapesEqual(info.Shape, entry.Shape) {
			matches++
		}
	}
	return matches
}
