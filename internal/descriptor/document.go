// Package descriptor synthesizes the TensorFlow.js layers-model document the
// browser app loads: a Keras-style topology plus a weights manifest pointing
// at an external binary blob.
package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FormatLayersModel is the only document format modelkit emits.
	FormatLayersModel = "layers-model"
	// KerasVersion recorded in the topology header.
	KerasVersion = "2.15.0"
	// Backend recorded in the topology header.
	Backend = "tensorflow"
	// BlobFileName is the weights file referenced by the manifest.
	BlobFileName = "weights.bin"
	// DTypeFloat32 is the element type of every manifest tensor.
	DTypeFloat32 = "float32"
)

// Document is the full model.json payload.
type Document struct {
	Format          string          `json:"format"`
	GeneratedBy     string          `json:"generatedBy"`
	ConvertedBy     string          `json:"convertedBy"`
	ModelTopology   Topology        `json:"modelTopology"`
	WeightsManifest []ManifestGroup `json:"weightsManifest"`
}

// Topology mirrors the Keras serialization header.
type Topology struct {
	KerasVersion string      `json:"keras_version"`
	Backend      string      `json:"backend"`
	ModelConfig  ModelConfig `json:"model_config"`
}

// ModelConfig wraps the Sequential network definition.
type ModelConfig struct {
	ClassName string        `json:"class_name"`
	Config    NetworkConfig `json:"config"`
}

// NetworkConfig lists the layer stack and the input/output linkage.
type NetworkConfig struct {
	Name         string      `json:"name"`
	Layers       []LayerSpec `json:"layers"`
	InputLayers  [][]any     `json:"input_layers"`
	OutputLayers [][]any     `json:"output_layers"`
}

// LayerSpec is a single Keras layer entry.
type LayerSpec struct {
	ClassName string         `json:"class_name"`
	Config    map[string]any `json:"config"`
}

// Name returns the layer's config name, or "" when absent.
func (l LayerSpec) Name() string {
	name, _ := l.Config["name"].(string)
	return name
}

// ManifestGroup maps a set of weight tensors onto blob files.
type ManifestGroup struct {
	Paths   []string      `json:"paths"`
	Weights []WeightEntry `json:"weights"`
}

// WeightEntry names one tensor stored in the blob.
type WeightEntry struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	Dtype string `json:"dtype"`
}

// Elements returns the number of scalar values in the tensor.
func (w WeightEntry) Elements() int64 {
	n := int64(1)
	for _, dim := range w.Shape {
		n *= int64(dim)
	}
	return n
}

// Entries flattens the manifest groups into a single ordered tensor list.
func (d *Document) Entries() []WeightEntry {
	var entries []WeightEntry
	for _, group := range d.WeightsManifest {
		entries = append(entries, group.Weights...)
	}
	return entries
}

// BlobBytes returns the expected byte length of the weights blob.
func (d *Document) BlobBytes() int64 {
	var total int64
	for _, entry := range d.Entries() {
		total += entry.Elements() * 4
	}
	return total
}

// WriteFile serializes the document as indented JSON, creating parent
// directories as needed.
func (d *Document) WriteFile(path string) error {
	if err := d.Validate(); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("descriptor: encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("descriptor: ensure output dir: %w", err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("descriptor: write %s: %w", path, err)
	}
	return nil
}

// ReadFile parses a previously written descriptor.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("descriptor: parse %s: %w", path, err)
	}
	return &doc, nil
}
