// Package templates defines the architecture templates used by descriptor
// synthesis. A template declares the layer stack; the final dense layer
// leaves its unit count open so synthesis can size it to the trained model's
// class count.
package templates

import (
	"fmt"
	"strings"
)

// LayerKind enumerates the supported layer types.
type LayerKind string

const (
	KindConv2D    LayerKind = "conv2d"
	KindMaxPool2D LayerKind = "maxpool2d"
	KindFlatten   LayerKind = "flatten"
	KindDense     LayerKind = "dense"
)

// Layer is one entry in a template's layer stack.
//
// Filters/Kernel apply to conv2d, Pool to maxpool2d, Units to dense. A dense
// layer with Units == 0 is the classifier head and is sized to the model's
// class count during synthesis.
type Layer struct {
	Kind       LayerKind `json:"kind" yaml:"kind"`
	Name       string    `json:"name" yaml:"name"`
	Filters    int       `json:"filters,omitempty" yaml:"filters,omitempty"`
	Kernel     []int     `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Pool       []int     `json:"pool,omitempty" yaml:"pool,omitempty"`
	Units      int       `json:"units,omitempty" yaml:"units,omitempty"`
	Activation string    `json:"activation,omitempty" yaml:"activation,omitempty"`
}

// Template describes a full network architecture.
type Template struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Input       []int   `json:"input" yaml:"input"`
	Layers      []Layer `json:"layers" yaml:"layers"`
}

// Normalized returns a trimmed copy of the template.
func (t Template) Normalized() Template {
	clone := Template{
		ID:          strings.TrimSpace(t.ID),
		Name:        strings.TrimSpace(t.Name),
		Description: strings.TrimSpace(t.Description),
	}
	if len(t.Input) > 0 {
		clone.Input = append([]int{}, t.Input...)
	}
	if len(t.Layers) > 0 {
		clone.Layers = make([]Layer, len(t.Layers))
		for i, layer := range t.Layers {
			clone.Layers[i] = layer.normalized()
		}
	}
	return clone
}

func (l Layer) normalized() Layer {
	clone := Layer{
		Kind:       LayerKind(strings.ToLower(strings.TrimSpace(string(l.Kind)))),
		Name:       strings.TrimSpace(l.Name),
		Filters:    l.Filters,
		Units:      l.Units,
		Activation: strings.ToLower(strings.TrimSpace(l.Activation)),
	}
	if len(l.Kernel) > 0 {
		clone.Kernel = append([]int{}, l.Kernel...)
	}
	if len(l.Pool) > 0 {
		clone.Pool = append([]int{}, l.Pool...)
	}
	return clone
}

// Validate ensures the template describes a buildable classifier.
func (t Template) Validate() error {
	normalized := t.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("template: id is required")
	}
	if len(normalized.Input) != 3 {
		return fmt.Errorf("template %s: input must be [height, width, channels]", normalized.ID)
	}
	for i, dim := range normalized.Input {
		if dim <= 0 {
			return fmt.Errorf("template %s: input[%d] must be positive", normalized.ID, i)
		}
	}
	if len(normalized.Layers) == 0 {
		return fmt.Errorf("template %s: at least one layer is required", normalized.ID)
	}
	seen := make(map[string]struct{}, len(normalized.Layers))
	heads := 0
	for i, layer := range normalized.Layers {
		if err := layer.validate(); err != nil {
			return fmt.Errorf("template %s: layers[%d]: %w", normalized.ID, i, err)
		}
		if _, exists := seen[layer.Name]; exists {
			return fmt.Errorf("template %s: layers[%d]: duplicate name %s", normalized.ID, i, layer.Name)
		}
		seen[layer.Name] = struct{}{}
		if layer.Kind == KindDense && layer.Units == 0 {
			heads++
		}
	}
	last := normalized.Layers[len(normalized.Layers)-1]
	if last.Kind != KindDense || last.Units != 0 {
		return fmt.Errorf("template %s: last layer must be a dense classifier head (units omitted)", normalized.ID)
	}
	if heads != 1 {
		return fmt.Errorf("template %s: exactly one dense layer may omit units, found %d", normalized.ID, heads)
	}
	return nil
}

func (l Layer) validate() error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch l.Kind {
	case KindConv2D:
		if l.Filters <= 0 {
			return fmt.Errorf("conv2d %s: filters must be positive", l.Name)
		}
		if err := validatePair("kernel", l.Kernel); err != nil {
			return fmt.Errorf("conv2d %s: %w", l.Name, err)
		}
	case KindMaxPool2D:
		if err := validatePair("pool", l.Pool); err != nil {
			return fmt.Errorf("maxpool2d %s: %w", l.Name, err)
		}
	case KindFlatten:
		// no parameters
	case KindDense:
		if l.Units < 0 {
			return fmt.Errorf("dense %s: units must be >= 0", l.Name)
		}
	default:
		return fmt.Errorf("unknown layer kind %q", l.Kind)
	}
	return nil
}

func validatePair(label string, values []int) error {
	if len(values) != 2 {
		return fmt.Errorf("%s must have exactly two dimensions", label)
	}
	for _, v := range values {
		if v <= 0 {
			return fmt.Errorf("%s dimensions must be positive", label)
		}
	}
	return nil
}
