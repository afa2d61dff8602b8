package descriptor

import (
	"fmt"

	"github.com/TrashHobbit/modelkit/internal/model"
	"github.com/TrashHobbit/modelkit/internal/templates"
)

// GeneratedBy/ConvertedBy identify the producer in the emitted document.
const (
	GeneratedBy = "keras v" + KerasVersion
	ConvertedBy = "modelkit convert"
)

// Synthesize builds a descriptor for the template, sized to the trained
// model's class count. Weight shapes are derived from the layer stack so the
// manifest always matches the topology: conv layers keep spatial dimensions
// (same padding, stride 1), pooling halves them with floor division, flatten
// multiplies the remaining dimensions out.
func Synthesize(tpl templates.Template, handle *model.Handle) (*Document, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	classes := handle.ClassCount()
	if classes <= 0 {
		return nil, fmt.Errorf("descriptor: model %s has no class dimension", handle.Name)
	}

	tpl = tpl.Normalized()
	height, width, channels := tpl.Input[0], tpl.Input[1], tpl.Input[2]

	layers := []LayerSpec{inputLayerSpec(height, width, channels)}
	var weights []WeightEntry

	// Running shape through the stack. flatUnits switches on after flatten
	// or the first dense layer.
	flat := false
	units := 0
	for _, layer := range tpl.Layers {
		switch layer.Kind {
		case templates.KindConv2D:
			if flat {
				return nil, fmt.Errorf("descriptor: conv2d %s after flatten", layer.Name)
			}
			layers = append(layers, conv2DSpec(layer))
			weights = append(weights,
				WeightEntry{
					Name:  layer.Name + "/kernel",
					Shape: []int{layer.Kernel[0], layer.Kernel[1], channels, layer.Filters},
					Dtype: DTypeFloat32,
				},
				WeightEntry{
					Name:  layer.Name + "/bias",
					Shape: []int{layer.Filters},
					Dtype: DTypeFloat32,
				},
			)
			channels = layer.Filters
		case templates.KindMaxPool2D:
			if flat {
				return nil, fmt.Errorf("descriptor: maxpool2d %s after flatten", layer.Name)
			}
			layers = append(layers, maxPool2DSpec(layer))
			height /= layer.Pool[0]
			width /= layer.Pool[1]
			if height == 0 || width == 0 {
				return nil, fmt.Errorf("descriptor: pooling %s collapses the feature map", layer.Name)
			}
		case templates.KindFlatten:
			layers = append(layers, flattenSpec(layer))
			units = height * width * channels
			flat = true
		case templates.KindDense:
			if !flat {
				return nil, fmt.Errorf("descriptor: dense %s requires a flattened input", layer.Name)
			}
			out := layer.Units
			if out == 0 {
				out = classes
			}
			layers = append(layers, denseSpec(layer, out))
			weights = append(weights,
				WeightEntry{Name: layer.Name + "/kernel", Shape: []int{units, out}, Dtype: DTypeFloat32},
				WeightEntry{Name: layer.Name + "/bias", Shape: []int{out}, Dtype: DTypeFloat32},
			)
			units = out
		default:
			return nil, fmt.Errorf("descriptor: unsupported layer kind %q", layer.Kind)
		}
	}

	head := tpl.Layers[len(tpl.Layers)-1]
	doc := &Document{
		Format:      FormatLayersModel,
		GeneratedBy: GeneratedBy,
		ConvertedBy: ConvertedBy,
		ModelTopology: Topology{
			KerasVersion: KerasVersion,
			Backend:      Backend,
			ModelConfig: ModelConfig{
				ClassName: "Sequential",
				Config: NetworkConfig{
					Name:         networkName(handle),
					Layers:       layers,
					InputLayers:  [][]any{{"input_layer", 0, 0}},
					OutputLayers: [][]any{{head.Name, 0, 0}},
				},
			},
		},
		WeightsManifest: []ManifestGroup{
			{Paths: []string{BlobFileName}, Weights: weights},
		},
	}
	return doc, nil
}

func networkName(handle *model.Handle) string {
	if handle.Name != "" {
		return handle.Name
	}
	return "trained_transfer_model"
}

func inputLayerSpec(height, width, channels int) LayerSpec {
	return LayerSpec{
		ClassName: "InputLayer",
		Config: map[string]any{
			"batch_input_shape": []any{nil, height, width, channels},
			"dtype":             DTypeFloat32,
			"sparse":            false,
			"name":              "input_layer",
		},
	}
}

func conv2DSpec(layer templates.Layer) LayerSpec {
	return LayerSpec{
		ClassName: "Conv2D",
		Config: map[string]any{
			"name":          layer.Name,
			"trainable":     true,
			"filters":       layer.Filters,
			"kernel_size":   []any{layer.Kernel[0], layer.Kernel[1]},
			"strides":       []any{1, 1},
			"padding":       "same",
			"data_format":   "channels_last",
			"dilation_rate": []any{1, 1},
			"groups":        1,
			"activation":    layer.Activation,
			"use_bias":      true,
		},
	}
}

func maxPool2DSpec(layer templates.Layer) LayerSpec {
	return LayerSpec{
		ClassName: "MaxPooling2D",
		Config: map[string]any{
			"name":      layer.Name,
			"trainable": false,
			"pool_size": []any{layer.Pool[0], layer.Pool[1]},
			"padding":   "valid",
			"strides":   []any{layer.Pool[0], layer.Pool[1]},
		},
	}
}

func flattenSpec(layer templates.Layer) LayerSpec {
	return LayerSpec{
		ClassName: "Flatten",
		Config: map[string]any{
			"name":      layer.Name,
			"trainable": false,
		},
	}
}

func denseSpec(layer templates.Layer, units int) LayerSpec {
	return LayerSpec{
		ClassName: "Dense",
		Config: map[string]any{
			"name":       layer.Name,
			"trainable":  true,
			"units":      units,
			"activation": layer.Activation,
			"use_bias":   true,
		},
	}
}
