// Package hub talks to the remote model hub: an S3-compatible object store
// holding one prefix per repository. The rest of the program only sees the
// Client interface; protocol details stay here.
package hub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TrashHobbit/modelkit/internal/config"
)

// TokenEnvVar supplies the hub credential as "accessKey:secretKey". A bare
// token without a colon is used as both halves.
const TokenEnvVar = "MODELKIT_HUB_TOKEN"

// ErrMissingToken signals that no credential is available. Callers must not
// attempt any remote call after seeing it.
var ErrMissingToken = errors.New("hub: " + TokenEnvVar + " environment variable is not set")

// Credentials authenticate against the hub endpoint.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// CredentialsFromEnv reads the credential from TokenEnvVar.
func CredentialsFromEnv() (Credentials, error) {
	token := strings.TrimSpace(os.Getenv(TokenEnvVar))
	if token == "" {
		return Credentials{}, ErrMissingToken
	}
	access, secret, found := strings.Cut(token, ":")
	if !found {
		secret = access
	}
	if access == "" || secret == "" {
		return Credentials{}, fmt.Errorf("hub: malformed token in %s, want accessKey:secretKey", TokenEnvVar)
	}
	return Credentials{AccessKey: access, SecretKey: secret}, nil
}

// RepoInfo is the metadata stored at <repo>/repo.json.
type RepoInfo struct {
	ID        string    `json:"id"`
	Private   bool      `json:"private,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Client is the minimal hub surface the uploader needs.
type Client interface {
	// RepoInfo fetches repository metadata; a CodeRepoNotFound error means
	// the repository does not exist.
	RepoInfo(ctx context.Context, repoID string) (RepoInfo, error)
	// UploadFile pushes one local file to repoPath inside the repository.
	UploadFile(ctx context.Context, repoID, localPath, repoPath string) error
	// UploadDir pushes a directory tree to repoPath, returning the uploaded
	// relative paths.
	UploadDir(ctx context.Context, repoID, localDir, repoPath string) ([]string, error)
}

// New selects a client implementation from the hub configuration: S3 for
// http/https endpoints, a filesystem store for file:// endpoints and tests.
func New(cfg config.HubConfig, creds Credentials) (Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	switch {
	case strings.HasPrefix(endpoint, "file://"):
		return NewFSClient(strings.TrimPrefix(endpoint, "file://")), nil
	case strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://"):
		return NewS3Client(cfg, creds)
	case endpoint == "":
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("hub.endpoint is not configured"))
	default:
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("unsupported endpoint %q", endpoint))
	}
}

// URL returns the human-facing location of a repository, used in status
// messages and the completion summary.
func URL(cfg config.HubConfig, repoID string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return repoID
	}
	return endpoint + "/" + repoID
}

const repoInfoObject = "repo.json"

func repoKey(repoID, path string) string {
	return strings.TrimSuffix(repoID, "/") + "/" + strings.TrimPrefix(path, "/")
}
