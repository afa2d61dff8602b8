package templates

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateFile pairs a parsed template with its on-disk source.
type TemplateFile struct {
	Template Template
	Path     string
}

// ParseTemplateYAML decodes and validates a single template payload.
func ParseTemplateYAML(data []byte) (Template, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Template{}, fmt.Errorf("template: payload is empty")
	}
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("template: decode: %w", err)
	}
	if err := tpl.Validate(); err != nil {
		return Template{}, err
	}
	return tpl.Normalized(), nil
}

// LoadTemplateFile reads a YAML file from disk and returns the parsed template.
func LoadTemplateFile(path string) (TemplateFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return TemplateFile{}, fmt.Errorf("template: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return TemplateFile{}, fmt.Errorf("template: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return TemplateFile{}, fmt.Errorf("template: read %s: %w", path, err)
	}
	tpl, err := ParseTemplateYAML(data)
	if err != nil {
		return TemplateFile{}, fmt.Errorf("template: %s: %w", path, err)
	}
	return TemplateFile{Template: tpl, Path: filepath.Clean(path)}, nil
}

// LoadTemplateDir scans a directory for *.yaml templates and returns the
// parsed definitions. Missing directories are treated as "no templates" to
// simplify startup.
func LoadTemplateDir(dir string) ([]TemplateFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("template: read %s: %w", trimmed, err)
	}
	var files []TemplateFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isYAMLFile(name) {
			continue
		}
		path := filepath.Join(trimmed, name)
		file, err := LoadTemplateFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// LoadAll populates a registry with every template found under dir, both YAML
// definitions and Go-source files exposing ArchitectureTemplates().
func LoadAll(reg *Registry, dir string) error {
	yamlFiles, err := LoadTemplateDir(dir)
	if err != nil {
		return err
	}
	goFiles, err := LoadGoTemplateDir(dir)
	if err != nil {
		return err
	}
	for _, file := range append(yamlFiles, goFiles...) {
		if err := reg.Register(file.Template); err != nil {
			return fmt.Errorf("template: %s: %w", file.Path, err)
		}
	}
	return nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
