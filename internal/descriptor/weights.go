package descriptor

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// TensorSource supplies tensor values for the weights blob. Implementations
// return ok=false when they have no data for the named tensor, in which case
// the writer falls back to the deterministic initializer.
type TensorSource interface {
	Tensor(name string, shape []int) (values []float32, ok bool, err error)
}

// WriteBlob writes the weights blob for the document: float32 little-endian
// tensors concatenated in manifest order. Tensors the source cannot supply
// are filled with Glorot-uniform kernels and zero biases, seeded from the
// tensor name so repeat runs produce identical bytes.
func WriteBlob(path string, doc *Document, source TensorSource) (int64, error) {
	entries := doc.Entries()
	buf := make([]byte, 0, doc.BlobBytes())
	for _, entry := range entries {
		values, err := tensorValues(entry, source)
		if err != nil {
			return 0, err
		}
		if int64(len(values)) != entry.Elements() {
			return 0, fmt.Errorf("descriptor: %s: got %d values, shape %v needs %d",
				entry.Name, len(values), entry.Shape, entry.Elements())
		}
		for _, v := range values {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("descriptor: ensure output dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return 0, fmt.Errorf("descriptor: write %s: %w", path, err)
	}
	return int64(len(buf)), nil
}

func tensorValues(entry WeightEntry, source TensorSource) ([]float32, error) {
	if source != nil {
		values, ok, err := source.Tensor(entry.Name, entry.Shape)
		if err != nil {
			return nil, fmt.Errorf("descriptor: %s: %w", entry.Name, err)
		}
		if ok {
			return values, nil
		}
	}
	return initializeTensor(entry), nil
}

// initializeTensor produces placeholder values: zeros for biases,
// Glorot-uniform samples for kernels.
func initializeTensor(entry WeightEntry) []float32 {
	n := entry.Elements()
	values := make([]float32, n)
	if strings.HasSuffix(entry.Name, "/bias") || len(entry.Shape) == 1 {
		return values
	}
	fanIn, fanOut := fans(entry.Shape)
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	rng := rand.New(rand.NewSource(nameSeed(entry.Name)))
	for i := range values {
		values[i] = (rng.Float32()*2 - 1) * limit
	}
	return values
}

// fans computes fan-in/fan-out the Keras way: dense kernels are [in, out],
// conv kernels [kh, kw, in, out] with the receptive field folded in.
func fans(shape []int) (int, int) {
	switch len(shape) {
	case 2:
		return shape[0], shape[1]
	case 4:
		field := shape[0] * shape[1]
		return shape[2] * field, shape[3] * field
	default:
		n := 1
		for _, dim := range shape {
			n *= dim
		}
		return n, n
	}
}

func nameSeed(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
