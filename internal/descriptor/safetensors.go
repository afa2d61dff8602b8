package descriptor

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// safetensors layout: an 8-byte little-endian header length, a JSON table
// mapping tensor names to {dtype, shape, data_offsets}, then the raw buffer.
// Offsets are relative to the end of the header.

type safetensorsInfo struct {
	DType       string    `json:"dtype"`
	Shape       []uint64  `json:"shape"`
	DataOffsets [2]uint64 `json:"data_offsets"`
}

// SafetensorsSource serves tensors out of a safetensors file. Only float32
// tensors whose name and shape match the requested entry are supplied;
// everything else falls through to the initializer.
type SafetensorsSource struct {
	path   string
	infos  map[string]safetensorsInfo
	buffer []byte
}

// OpenSafetensors reads and indexes a safetensors file.
func OpenSafetensors(path string) (*SafetensorsSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: read safetensors %s: %w", path, err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("descriptor: safetensors %s: truncated header", path)
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if headerLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("descriptor: safetensors %s: header length %d exceeds file size", path, headerLen)
	}
	var table map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &table); err != nil {
		return nil, fmt.Errorf("descriptor: safetensors %s: parse header: %w", path, err)
	}
	infos := make(map[string]safetensorsInfo, len(table))
	buffer := data[8+headerLen:]
	for name, raw := range table {
		if name == "__metadata__" {
			continue
		}
		var info safetensorsInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, fmt.Errorf("descriptor: safetensors %s: tensor %s: %w", path, name, err)
		}
		if info.DataOffsets[1] < info.DataOffsets[0] || info.DataOffsets[1] > uint64(len(buffer)) {
			return nil, fmt.Errorf("descriptor: safetensors %s: tensor %s: offsets out of range", path, name)
		}
		infos[name] = info
	}
	return &SafetensorsSource{path: path, infos: infos, buffer: buffer}, nil
}

// Tensor implements TensorSource.
func (s *SafetensorsSource) Tensor(name string, shape []int) ([]float32, bool, error) {
	info, ok := s.infos[name]
	if !ok {
		return nil, false, nil
	}
	if info.DType != "F32" || !shapesEqual(info.Shape, shape) {
		return nil, false, nil
	}
	raw := s.buffer[info.DataOffsets[0]:info.DataOffsets[1]]
	if len(raw)%4 != 0 {
		return nil, false, fmt.Errorf("safetensors tensor %s: buffer length %d not a multiple of 4", name, len(raw))
	}
	values := make([]float32, len(raw)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	expected := int64(1)
	for _, dim := range shape {
		expected *= int64(dim)
	}
	if int64(len(values)) != expected {
		return nil, false, fmt.Errorf("safetensors tensor %s: %d values for shape %v", name, len(values), shape)
	}
	return values, true, nil
}

// Names returns the tensor names present in the file.
func (s *SafetensorsSource) Names() []string {
	names := make([]string, 0, len(s.infos))
	for name := range s.infos {
		names = append(names, name)
	}
	return names
}

func shapesEqual(have []uint64, want []int) bool {
	if len(have) != len(want) {
		return false
	}
	for i, dim := range want {
		if dim < 0 || have[i] != uint64(dim) {
			return false
		}
	}
	return true
}
