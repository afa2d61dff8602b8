package preview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TrashHobbit/modelkit/internal/config"
)

const sampleDescriptor = `{
  "format": "layers-model",
  "generatedBy": "keras v2.15.0",
  "convertedBy": "modelkit convert",
  "modelTopology": {
    "keras_version": "2.15.0",
    "backend": "tensorflow",
    "model_config": {
      "class_name": "Sequential",
      "config": {
        "name": "sequential",
        "layers": [
          {"class_name": "InputLayer", "config": {"name": "input_layer"}},
          {"class_name": "Dense", "config": {"name": "dense_output", "units": 10}}
        ],
        "input_layers": [["input_layer", 0, 0]],
        "output_layers": [["dense_output", 0, 0]]
      }
    }
  },
  "weightsManifest": [
    {
      "paths": ["weights.bin"],
      "weights": [
        {"name": "dense_output/kernel", "shape": [128, 10], "dtype": "float32"},
        {"name": "dense_output/bias", "shape": [10], "dtype": "float32"}
      ]
    }
  ]
}`

func testSettings() Settings {
	return Settings{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
	}
}

func startServer(t *testing.T, dir string) *Server {
	t.Helper()
	server := NewServer(testSettings(), dir)
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return server
}

func TestServeDescriptorFilesWithCORS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte(sampleDescriptor), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "weights.bin"), make([]byte, 16), 0644); err != nil {
		t.Fatal(err)
	}
	server := startServer(t, dir)

	resp, err := http.Get(server.BaseURL() + "/model.json")
	if err != nil {
		t.Fatalf("GET model.json: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if origin := resp.Header.Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", origin)
	}
	body, _ := io.ReadAll(resp.Body)
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("served descriptor is not JSON: %v", err)
	}
	if doc["format"] != "layers-model" {
		t.Fatalf("format = %v", doc["format"])
	}
}

func TestDescriptorSummaryEndpoint(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte(sampleDescriptor), 0644); err != nil {
		t.Fatal(err)
	}
	server := startServer(t, dir)

	resp, err := http.Get(server.BaseURL() + "/api/descriptor")
	if err != nil {
		t.Fatalf("GET /api/descriptor: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var summary descriptorResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Format != "layers-model" || summary.Layers != 2 || summary.Tensors != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Classes != 10 {
		t.Fatalf("classes = %d, want 10", summary.Classes)
	}
	if summary.BlobBytes != (128*10+10)*4 {
		t.Fatalf("blob bytes = %d", summary.BlobBytes)
	}
}

func TestDescriptorSummaryMissingFile(t *testing.T) {
	server := startServer(t, t.TempDir())

	resp, err := http.Get(server.BaseURL() + "/api/descriptor")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := startServer(t, t.TempDir())
	if server.Status() != StatusReady {
		t.Fatalf("status = %s", server.Status())
	}

	resp, err := http.Get(server.BaseURL() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != string(StatusReady) {
		t.Fatalf("health status = %s", health.Status)
	}
}

func TestStartRejectsMissingDirectory(t *testing.T) {
	server := NewServer(testSettings(), filepath.Join(t.TempDir(), "absent"))
	if err := server.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestSettingsFromConfigEnvOverride(t *testing.T) {
	cfg := &config.Config{Project: config.ProjectConfig{
		Serve: config.ServeConfig{Host: "0.0.0.0", Port: 9000},
	}}

	settings := SettingsFromConfig(cfg)
	if settings.Host != "0.0.0.0" || settings.Port != 9000 {
		t.Fatalf("settings = %+v", settings)
	}

	t.Setenv("MODELKIT_SERVE_HOST", "127.0.0.1")
	t.Setenv("MODELKIT_SERVE_PORT", "9100")
	settings = SettingsFromConfig(cfg)
	if settings.Host != "127.0.0.1" || settings.Port != 9100 {
		t.Fatalf("env override settings = %+v", settings)
	}

	t.Setenv("MODELKIT_SERVE_PORT", "not-a-port")
	settings = SettingsFromConfig(cfg)
	if settings.Port != 9000 {
		t.Fatalf("invalid env port should fall back to config, got %d", settings.Port)
	}
}
