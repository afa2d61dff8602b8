package descriptor

import (
	"fmt"
	"strings"
)

// Validate checks the document's internal consistency: every manifest tensor
// must correspond to a kernel or bias of a trainable layer in the topology,
// and the declared shapes must match the layer parameters.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("descriptor: nil document")
	}
	if d.Format != FormatLayersModel {
		return fmt.Errorf("descriptor: format must be %q, got %q", FormatLayersModel, d.Format)
	}
	layers := d.ModelTopology.ModelConfig.Config.Layers
	if len(layers) == 0 {
		return fmt.Errorf("descriptor: topology has no layers")
	}
	byName := make(map[string]LayerSpec, len(layers))
	for i, layer := range layers {
		name := layer.Name()
		if name == "" {
			return fmt.Errorf("descriptor: layers[%d] has no name", i)
		}
		if _, exists := byName[name]; exists {
			return fmt.Errorf("descriptor: duplicate layer name %s", name)
		}
		byName[name] = layer
	}
	if len(d.WeightsManifest) == 0 {
		return fmt.Errorf("descriptor: weights manifest is empty")
	}
	for gi, group := range d.WeightsManifest {
		if len(group.Paths) == 0 {
			return fmt.Errorf("descriptor: weightsManifest[%d] has no blob paths", gi)
		}
		for _, entry := range group.Weights {
			if err := validateEntry(entry, byName); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateEntry(entry WeightEntry, layers map[string]LayerSpec) error {
	if entry.Dtype != DTypeFloat32 {
		return fmt.Errorf("descriptor: %s: dtype must be %s", entry.Name, DTypeFloat32)
	}
	layerName, param, ok := strings.Cut(entry.Name, "/")
	if !ok || (param != "kernel" && param != "bias") {
		return fmt.Errorf("descriptor: %s: weight names must be <layer>/kernel or <layer>/bias", entry.Name)
	}
	layer, ok := layers[layerName]
	if !ok {
		return fmt.Errorf("descriptor: %s: no layer %s in topology", entry.Name, layerName)
	}
	if trainable, _ := layer.Config["trainable"].(bool); !trainable {
		return fmt.Errorf("descriptor: %s: layer %s is not trainable", entry.Name, layerName)
	}
	for _, dim := range entry.Shape {
		if dim <= 0 {
			return fmt.Errorf("descriptor: %s: shape %v has a non-positive dimension", entry.Name, entry.Shape)
		}
	}
	switch layer.ClassName {
	case "Conv2D":
		filters := intConfig(layer.Config, "filters")
		if param == "kernel" {
			if len(entry.Shape) != 4 || entry.Shape[3] != filters {
				return fmt.Errorf("descriptor: %s: conv kernel shape %v does not end in filters=%d", entry.Name, entry.Shape, filters)
			}
		} else if len(entry.Shape) != 1 || entry.Shape[0] != filters {
			return fmt.Errorf("descriptor: %s: conv bias shape %v does not match filters=%d", entry.Name, entry.Shape, filters)
		}
	case "Dense":
		units := intConfig(layer.Config, "units")
		if param == "kernel" {
			if len(entry.Shape) != 2 || entry.Shape[1] != units {
				return fmt.Errorf("descriptor: %s: dense kernel shape %v does not end in units=%d", entry.Name, entry.Shape, units)
			}
		} else if len(entry.Shape) != 1 || entry.Shape[0] != units {
			return fmt.Errorf("descriptor: %s: dense bias shape %v does not match units=%d", entry.Name, entry.Shape, units)
		}
	default:
		return fmt.Errorf("descriptor: %s: layer class %s has no weights", entry.Name, layer.ClassName)
	}
	return nil
}

// intConfig tolerates both int and float64 values since the config may have
// round-tripped through JSON.
func intConfig(config map[string]any, key string) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
