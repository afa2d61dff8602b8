package hub

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/TrashHobbit/modelkit/internal/config"
)

func TestCredentialsFromEnv(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "")
		_, err := CredentialsFromEnv()
		if !errors.Is(err, ErrMissingToken) {
			t.Fatalf("err = %v, want ErrMissingToken", err)
		}
	})
	t.Run("pair", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "AKIA123:sekrit")
		creds, err := CredentialsFromEnv()
		if err != nil {
			t.Fatal(err)
		}
		if creds.AccessKey != "AKIA123" || creds.SecretKey != "sekrit" {
			t.Fatalf("creds = %+v", creds)
		}
	})
	t.Run("bare token", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "hub_tok_abc")
		creds, err := CredentialsFromEnv()
		if err != nil {
			t.Fatal(err)
		}
		if creds.AccessKey != "hub_tok_abc" || creds.SecretKey != "hub_tok_abc" {
			t.Fatalf("creds = %+v", creds)
		}
	})
	t.Run("dangling colon", func(t *testing.T) {
		t.Setenv(TokenEnvVar, "access:")
		if _, err := CredentialsFromEnv(); err == nil {
			t.Fatal("expected error for malformed token")
		}
	})
}

func TestNewSelectsImplementation(t *testing.T) {
	creds := Credentials{AccessKey: "a", SecretKey: "b"}

	fsClient, err := New(config.HubConfig{Endpoint: "file://" + t.TempDir()}, creds)
	if err != nil {
		t.Fatalf("file endpoint: %v", err)
	}
	if _, ok := fsClient.(*FSClient); !ok {
		t.Fatalf("expected *FSClient, got %T", fsClient)
	}

	s3Client, err := New(config.HubConfig{Endpoint: "https://hub.example.com", Bucket: "models"}, creds)
	if err != nil {
		t.Fatalf("https endpoint: %v", err)
	}
	if _, ok := s3Client.(*S3Client); !ok {
		t.Fatalf("expected *S3Client, got %T", s3Client)
	}

	if _, err := New(config.HubConfig{}, creds); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestFSClientRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	client := NewFSClient(t.TempDir())
	repo := "TrashHobbit/dakota-ai-cifar10-classifier"

	_, err := client.RepoInfo(ctx, repo)
	var coded *Error
	if !errors.As(err, &coded) || coded.Code != CodeRepoNotFound {
		t.Fatalf("missing repo error = %v, want %s", err, CodeRepoNotFound)
	}

	if err := client.CreateRepo(repo); err != nil {
		t.Fatalf("create repo: %v", err)
	}
	info, err := client.RepoInfo(ctx, repo)
	if err != nil {
		t.Fatalf("repo info: %v", err)
	}
	if info.ID != repo {
		t.Fatalf("info.ID = %q", info.ID)
	}
}

func TestFSClientUploadFileAndDir(t *testing.T) {
	ctx := context.Background()
	client := NewFSClient(t.TempDir())
	repo := "owner/model"
	if err := client.CreateRepo(repo); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	readme := filepath.Join(project, "README.md")
	if err := os.WriteFile(readme, []byte("# model"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := client.UploadFile(ctx, repo, readme, "README.md"); err != nil {
		t.Fatalf("upload file: %v", err)
	}
	stored := filepath.Join(client.Root(), "owner", "model", "README.md")
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	variables := filepath.Join(project, "saved_model", "variables")
	if err := os.MkdirAll(variables, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"variables.index", "variables.data-00000-of-00001"} {
		if err := os.WriteFile(filepath.Join(variables, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	uploaded, err := client.UploadDir(ctx, repo, variables, "saved_model/variables")
	if err != nil {
		t.Fatalf("upload dir: %v", err)
	}
	if len(uploaded) != 2 {
		t.Fatalf("uploaded %d entries, want 2: %v", len(uploaded), uploaded)
	}
	for _, rel := range uploaded {
		if _, err := os.Stat(filepath.Join(client.Root(), "owner", "model", filepath.FromSlash(rel))); err != nil {
			t.Fatalf("uploaded entry %s missing: %v", rel, err)
		}
	}
}

func TestURL(t *testing.T) {
	cfg := config.HubConfig{Endpoint: "https://hub.example.com/"}
	got := URL(cfg, "owner/model")
	if got != "https://hub.example.com/owner/model" {
		t.Fatalf("URL = %q", got)
	}
}
