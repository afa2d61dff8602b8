// Package model loads the metadata sidecar written next to a locally trained
// classifier. The handle is read-only: it exposes tensor shapes, class labels
// and a printable summary, nothing else.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TensorShape is an ordered list of dimensions. -1 marks a dynamic dimension
// (typically the batch axis).
type TensorShape []int64

func (s TensorShape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		if dim < 0 {
			parts[i] = "_"
			continue
		}
		parts[i] = fmt.Sprintf("%d", dim)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// LoadError reports a trained model that could not be read. Callers treat it
// as fatal: no descriptor output may be written after a load failure.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("model: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// sidecar mirrors the JSON metadata file emitted by the training pipeline.
type sidecar struct {
	Name        string   `json:"name,omitempty"`
	Framework   string   `json:"framework,omitempty"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes,omitempty"`
	ImageSize   int      `json:"image_size,omitempty"`
}

// Handle is the in-memory representation of a previously trained classifier.
type Handle struct {
	Name      string
	Framework string
	Inputs    []TensorShape
	Outputs   []TensorShape
	Classes   []string
	path      string
}

// Load reads the trained-model metadata from path. When path is a directory
// the sidecar is expected at <path>/metadata.json.
func Load(path string) (*Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	sidecarPath := path
	if info.IsDir() {
		sidecarPath = filepath.Join(path, "metadata.json")
	}
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return nil, &LoadError{Path: sidecarPath, Err: err}
	}
	var meta sidecar
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &LoadError{Path: sidecarPath, Err: fmt.Errorf("parse metadata: %w", err)}
	}
	h := &Handle{
		Name:      strings.TrimSpace(meta.Name),
		Framework: strings.TrimSpace(meta.Framework),
		Classes:   meta.Classes,
		path:      sidecarPath,
	}
	if h.Name == "" {
		h.Name = strings.TrimSuffix(filepath.Base(sidecarPath), filepath.Ext(sidecarPath))
	}
	if len(meta.InputShape) > 0 {
		h.Inputs = []TensorShape{TensorShape(meta.InputShape)}
	}
	if len(meta.OutputShape) > 0 {
		h.Outputs = []TensorShape{TensorShape(meta.OutputShape)}
	}
	if err := h.validate(); err != nil {
		return nil, &LoadError{Path: sidecarPath, Err: err}
	}
	return h, nil
}

func (h *Handle) validate() error {
	if len(h.Inputs) == 0 {
		return fmt.Errorf("metadata missing input_shape")
	}
	if len(h.Outputs) == 0 {
		return fmt.Errorf("metadata missing output_shape")
	}
	if h.ClassCount() <= 0 {
		return fmt.Errorf("output shape %s has no class dimension", h.Outputs[0])
	}
	if len(h.Classes) > 0 && int64(len(h.Classes)) != int64(h.ClassCount()) {
		return fmt.Errorf("%d class labels do not match output dimension %d", len(h.Classes), h.ClassCount())
	}
	return nil
}

// Path returns the sidecar file the handle was loaded from.
func (h *Handle) Path() string { return h.path }

// InputShape returns the first input tensor shape with the batch dimension
// dropped.
func (h *Handle) InputShape() TensorShape {
	if len(h.Inputs) == 0 || len(h.Inputs[0]) < 2 {
		return nil
	}
	shape := h.Inputs[0]
	out := make(TensorShape, len(shape)-1)
	copy(out, shape[1:])
	return out
}

// ClassCount returns the final dimension of the first output tensor.
func (h *Handle) ClassCount() int {
	if len(h.Outputs) == 0 || len(h.Outputs[0]) == 0 {
		return 0
	}
	shape := h.Outputs[0]
	last := shape[len(shape)-1]
	if last <= 0 {
		return 0
	}
	return int(last)
}

// Summary renders a human-readable description of the handle.
func (h *Handle) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s\n", h.Name)
	if h.Framework != "" {
		fmt.Fprintf(&b, "Framework: %s\n", h.Framework)
	}
	for _, shape := range h.Inputs {
		fmt.Fprintf(&b, "Input shape: %s\n", shape)
	}
	for _, shape := range h.Outputs {
		fmt.Fprintf(&b, "Output shape: %s\n", shape)
	}
	fmt.Fprintf(&b, "Classes: %d", h.ClassCount())
	if len(h.Classes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(h.Classes, ", "))
	}
	return b.String()
}
