package templates

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultID names the builtin template every registry starts with.
const DefaultID = "default-cnn"

// Default returns the builtin architecture: two conv/pool blocks, a 128-unit
// dense layer and a softmax head sized at synthesis time.
func Default() Template {
	return Template{
		ID:          DefaultID,
		Name:        "Default CNN",
		Description: "Two conv/pool blocks, 128-unit dense, softmax head",
		Input:       []int{224, 224, 3},
		Layers: []Layer{
			{Kind: KindConv2D, Name: "conv2d_1", Filters: 32, Kernel: []int{3, 3}, Activation: "relu"},
			{Kind: KindMaxPool2D, Name: "max_pooling2d_1", Pool: []int{2, 2}},
			{Kind: KindConv2D, Name: "conv2d_2", Filters: 64, Kernel: []int{3, 3}, Activation: "relu"},
			{Kind: KindMaxPool2D, Name: "max_pooling2d_2", Pool: []int{2, 2}},
			{Kind: KindFlatten, Name: "flatten"},
			{Kind: KindDense, Name: "dense_1", Units: 128, Activation: "relu"},
			{Kind: KindDense, Name: "dense_output", Activation: "softmax"},
		},
	}
}

// Registry maintains known architecture templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry returns a registry seeded with the builtin default template.
func NewRegistry() *Registry {
	r := &Registry{templates: map[string]Template{}}
	r.MustRegister(Default())
	return r
}

// Register installs a template. Returns an error if the ID already exists.
func (r *Registry) Register(tpl Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	normalized := tpl.Normalized()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[normalized.ID]; exists {
		return fmt.Errorf("template: %s already registered", normalized.ID)
	}
	r.templates[normalized.ID] = normalized
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(tpl Template) {
	if err := r.Register(tpl); err != nil {
		panic(err)
	}
}

// Resolve returns the template with the given ID.
func (r *Registry) Resolve(id string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("template: unknown id %s", id)
	}
	return tpl, nil
}

// IDs returns a sorted list of registered template identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
