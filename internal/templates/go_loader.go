package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const goTemplateFuncName = "ArchitectureTemplates"

// LoadGoTemplateDir evaluates every .go file in dir and collects templates
// declared via ArchitectureTemplates().
func LoadGoTemplateDir(dir string) ([]TemplateFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("template: read %s: %w", trimmed, err)
	}
	var files []TemplateFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		fileTemplates, err := loadGoTemplateFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, fileTemplates...)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func loadGoTemplateFile(path string) ([]TemplateFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("template: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("template: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	i.Use(stdlib.Symbols)
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("template: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(goTemplateFuncName)
	if err != nil {
		return nil, fmt.Errorf("template: %s must define %s() ([]map[string]any, error): %w", path, goTemplateFuncName, err)
	}
	raws, callErr := invokeTemplateFunc(fnValue)
	if callErr != nil {
		return nil, fmt.Errorf("template: %s: %w", path, callErr)
	}
	files := make([]TemplateFile, 0, len(raws))
	for idx, raw := range raws {
		payload, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("template: %s template[%d]: %w", path, idx, err)
		}
		parsed, err := ParseTemplateYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("template: %s template[%d]: %w", path, idx, err)
		}
		files = append(files, TemplateFile{Template: parsed, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return files, nil
}

func invokeTemplateFunc(value reflect.Value) ([]map[string]any, error) {
	if !value.IsValid() {
		return nil, fmt.Errorf("missing %s function", goTemplateFuncName)
	}
	fn := value
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goTemplateFuncName)
	}
	results := fn.Call(nil)
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goTemplateFuncName)
	}
	tplsVal := results[0]
	if len(results) == 2 {
		if !results[1].IsNil() {
			if e, ok := results[1].Interface().(error); ok && e != nil {
				return nil, e
			}
			return nil, fmt.Errorf("%s returned non-error second value", goTemplateFuncName)
		}
	}
	tpls, ok := tplsVal.Interface().([]map[string]any)
	if ok {
		return tpls, nil
	}
	if tplsVal.Kind() == reflect.Slice {
		result := make([]map[string]any, tplsVal.Len())
		for i := 0; i < tplsVal.Len(); i++ {
			entry := tplsVal.Index(i).Interface()
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is not map[string]any", goTemplateFuncName, i)
			}
			result[i] = m
		}
		return result, nil
	}
	return nil, fmt.Errorf("%s must return []map[string]any", goTemplateFuncName)
}
