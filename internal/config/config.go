// internal/config/config.go
//
// This package handles configuration and the .modelkit directory structure.
// Every project that uses modelkit gets a .modelkit/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ModelkitDir is the name of the directory we create in each project
	ModelkitDir = ".modelkit"

	defaultTemplateID = "default-cnn"
	defaultOutputDir  = "public/tfjs_model"
	defaultModelPath  = "models/transfer_model.json"
)

const defaultProjectConfigYAML = `# modelkit project configuration
version: 1

# Local trained-model metadata. The path points at the JSON sidecar written
# during training; weights is optional and only used when a safetensors file
# exists alongside the trained model.
model:
  path: models/transfer_model.json
  # weights: models/model.safetensors

# Descriptor synthesis. The template id must be registered (builtin or loaded
# from .modelkit/templates/).
descriptor:
  template: default-cnn
  output_dir: public/tfjs_model

# Remote model hub (S3-compatible). The credential is never stored here; it
# comes from the MODELKIT_HUB_TOKEN environment variable.
hub:
  endpoint: https://hub.example.com
  bucket: models
  repository: TrashHobbit/dakota-ai-cifar10-classifier

# Artifacts pushed by 'modelkit publish', relative to the project directory.
publish:
  files:
    - README.md
    - best_cifar10_model.keras
    - saved_model/saved_model.pb
  directories:
    - saved_model/variables

serve:
  host: 127.0.0.1
  port: 8093

check:
  images_dir: data/samples
`

// ModelConfig locates the locally trained model artifacts.
type ModelConfig struct {
	Path    string `yaml:"path"`
	Weights string `yaml:"weights,omitempty"`
}

// DescriptorConfig controls descriptor synthesis output.
type DescriptorConfig struct {
	Template  string `yaml:"template"`
	OutputDir string `yaml:"output_dir"`
}

// HubConfig names the remote repository and how to reach it.
type HubConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Region     string `yaml:"region,omitempty"`
	UseSSL     bool   `yaml:"use_ssl,omitempty"`
	Bucket     string `yaml:"bucket"`
	Repository string `yaml:"repository"`
}

// PublishConfig is the upload manifest: files and directories pushed to the hub.
type PublishConfig struct {
	Files       []string `yaml:"files"`
	Directories []string `yaml:"directories,omitempty"`
}

// ServeConfig holds preferences for the local preview server.
type ServeConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// CheckConfig points the sample-image check at a directory.
type CheckConfig struct {
	ImagesDir string `yaml:"images_dir,omitempty"`
}

// ProjectConfig models .modelkit/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Model      ModelConfig      `yaml:"model"`
	Descriptor DescriptorConfig `yaml:"descriptor"`
	Hub        HubConfig        `yaml:"hub"`
	Publish    PublishConfig    `yaml:"publish"`
	Serve      ServeConfig      `yaml:"serve,omitempty"`
	Check      CheckConfig      `yaml:"check,omitempty"`
}

// Config holds the runtime configuration for modelkit.
type Config struct {
	// ProjectDir is the directory where the user ran `modelkit` from
	ProjectDir string

	// ModelkitProjectDir is ProjectDir/.modelkit
	ModelkitProjectDir string

	Project ProjectConfig
}

// InitModelkitDir creates the .modelkit directory structure in the given
// project directory. Called by every subcommand before anything else runs.
//
// Structure created:
// .modelkit/
// ├── logs/       <- Run log
// ├── history/    <- Publish history database
// └── templates/  <- User architecture templates (*.yaml, *.go)
func InitModelkitDir(projectDir string) error {
	kitDir := filepath.Join(projectDir, ModelkitDir)

	dirs := []string{
		filepath.Join(kitDir, "logs"),
		filepath.Join(kitDir, "history"),
		filepath.Join(kitDir, "templates"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(kitDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		ModelkitProjectDir: filepath.Join(projectDir, ModelkitDir),
		Project:            defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogPath returns the run log location.
func (c *Config) LogPath() string {
	return filepath.Join(c.ModelkitProjectDir, "logs", "modelkit.log")
}

// HistoryDBPath returns the publish-history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.ModelkitProjectDir, "history", "publish.sqlite3")
}

// TemplatesDir returns the directory scanned for user architecture templates.
func (c *Config) TemplatesDir() string {
	return filepath.Join(c.ModelkitProjectDir, "templates")
}

// ModelPath returns the resolved trained-model metadata path.
func (c *Config) ModelPath() string {
	return c.Project.Model.Path
}

// ModelWeightsPath returns the resolved safetensors path, or "" when unset.
func (c *Config) ModelWeightsPath() string {
	return c.Project.Model.Weights
}

// OutputDir returns the resolved descriptor output directory.
func (c *Config) OutputDir() string {
	return c.Project.Descriptor.OutputDir
}

// DescriptorPath returns where model.json is written.
func (c *Config) DescriptorPath() string {
	return filepath.Join(c.OutputDir(), "model.json")
}

// WeightsBlobPath returns where weights.bin is written.
func (c *Config) WeightsBlobPath() string {
	return filepath.Join(c.OutputDir(), "weights.bin")
}

// TemplateID returns the configured architecture template identifier.
func (c *Config) TemplateID() string {
	return c.Project.Descriptor.Template
}

// Repository returns the remote repository identifier.
func (c *Config) Repository() string {
	return c.Project.Hub.Repository
}

// ImagesDir returns the resolved sample-image directory, or "" when unset.
func (c *Config) ImagesDir() string {
	return c.Project.Check.ImagesDir
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ModelkitProjectDir, "config.yaml")
}

// SetTemplate updates the active architecture template and persists the value
// back to .modelkit/config.yaml.
func (c *Config) SetTemplate(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: template id is required")
	}
	c.Project.Descriptor.Template = id
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Model: ModelConfig{
			Path: defaultModelPath,
		},
		Descriptor: DescriptorConfig{
			Template:  defaultTemplateID,
			OutputDir: defaultOutputDir,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Model.Path) == "" {
		pc.Model.Path = defaultModelPath
	}
	if strings.TrimSpace(pc.Descriptor.Template) == "" {
		pc.Descriptor.Template = defaultTemplateID
	}
	if strings.TrimSpace(pc.Descriptor.OutputDir) == "" {
		pc.Descriptor.OutputDir = defaultOutputDir
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Model.Path = resolvePath(base, pc.Model.Path)
	pc.Model.Weights = resolvePath(base, pc.Model.Weights)
	pc.Descriptor.Template = strings.TrimSpace(pc.Descriptor.Template)
	pc.Descriptor.OutputDir = resolvePath(base, pc.Descriptor.OutputDir)
	pc.Hub.Endpoint = strings.TrimSpace(pc.Hub.Endpoint)
	pc.Hub.Bucket = strings.TrimSpace(pc.Hub.Bucket)
	pc.Hub.Repository = strings.TrimSpace(pc.Hub.Repository)
	pc.Publish.Files = normalizeRelPaths(pc.Publish.Files)
	pc.Publish.Directories = normalizeRelPaths(pc.Publish.Directories)
	pc.Serve.Host = strings.TrimSpace(pc.Serve.Host)
	pc.Check.ImagesDir = resolvePath(base, pc.Check.ImagesDir)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if pc.Descriptor.Template == "" {
		return fmt.Errorf("descriptor.template is required")
	}
	if repo := pc.Hub.Repository; repo != "" {
		if err := validateRepository(repo); err != nil {
			return err
		}
	}
	for i, entry := range pc.Publish.Files {
		if err := validateRelPath(entry); err != nil {
			return fmt.Errorf("publish.files[%d]: %w", i, err)
		}
	}
	for i, entry := range pc.Publish.Directories {
		if err := validateRelPath(entry); err != nil {
			return fmt.Errorf("publish.directories[%d]: %w", i, err)
		}
	}
	if pc.Serve.Port != 0 && (pc.Serve.Port < 1 || pc.Serve.Port > 65535) {
		return fmt.Errorf("serve.port must be between 1 and 65535")
	}
	return nil
}

func validateRepository(repo string) error {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return fmt.Errorf("hub.repository must be in owner/name form, got %q", repo)
	}
	return nil
}

func validateRelPath(entry string) error {
	if entry == "" {
		return fmt.Errorf("path is empty")
	}
	if filepath.IsAbs(entry) {
		return fmt.Errorf("path %s must be relative to the project directory", entry)
	}
	if strings.HasPrefix(entry, "..") {
		return fmt.Errorf("path %s escapes the project directory", entry)
	}
	return nil
}

func normalizeRelPaths(entries []string) []string {
	if len(entries) == 0 {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		out = append(out, filepath.ToSlash(filepath.Clean(trimmed)))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.ModelkitProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure modelkit dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
