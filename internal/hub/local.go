package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// FSClient mimics the hub on the local filesystem for file:// endpoints and
// tests. Repositories are directories under root; repo.json marks existence.
type FSClient struct {
	root string
}

// NewFSClient creates a filesystem-backed hub rooted at dir.
func NewFSClient(root string) *FSClient {
	if root == "" {
		root = filepath.Join(os.TempDir(), "modelkit-hub")
	}
	_ = os.MkdirAll(root, 0o755)
	return &FSClient{root: root}
}

// Root returns the backing directory.
func (c *FSClient) Root() string { return c.root }

// CreateRepo writes repo.json so subsequent lookups succeed. Used by tests
// and local development setups.
func (c *FSClient) CreateRepo(repoID string) error {
	info := RepoInfo{ID: repoID}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	target := c.objectPath(repoID, repoInfoObject)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// RepoInfo implements Client.
func (c *FSClient) RepoInfo(ctx context.Context, repoID string) (RepoInfo, error) {
	if err := ctx.Err(); err != nil {
		return RepoInfo{}, err
	}
	if repoID == "" {
		return RepoInfo{}, wrapError(CodeRepoNotFound, false, fmt.Errorf("repository id is required"))
	}
	data, err := os.ReadFile(c.objectPath(repoID, repoInfoObject))
	if err != nil {
		if os.IsNotExist(err) {
			return RepoInfo{}, wrapError(CodeRepoNotFound, false, fmt.Errorf("repository %s not found", repoID))
		}
		return RepoInfo{}, wrapError(CodeUploadFailed, true, err)
	}
	var info RepoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return RepoInfo{}, wrapError(CodeRepoNotFound, false, fmt.Errorf("repository %s has invalid metadata: %w", repoID, err))
	}
	if info.ID == "" {
		info.ID = repoID
	}
	return info, nil
}

// UploadFile implements Client.
func (c *FSClient) UploadFile(ctx context.Context, repoID, localPath, repoPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if repoPath == "" {
		return wrapError(CodeUploadFailed, false, fmt.Errorf("repo path is required"))
	}
	src, err := os.Open(localPath)
	if err != nil {
		return wrapError(CodeUploadFailed, false, err)
	}
	defer src.Close()
	target := c.objectPath(repoID, repoPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return wrapError(CodePermissionDenied, false, err)
	}
	dst, err := os.Create(target)
	if err != nil {
		return wrapError(CodePermissionDenied, false, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return wrapError(CodeUploadFailed, true, err)
	}
	return nil
}

// UploadDir implements Client.
func (c *FSClient) UploadDir(ctx context.Context, repoID, localDir, repoPath string) ([]string, error) {
	var uploaded []string
	err := filepath.WalkDir(localDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		target := path.Join(repoPath, filepath.ToSlash(rel))
		if err := c.UploadFile(ctx, repoID, p, target); err != nil {
			return err
		}
		uploaded = append(uploaded, target)
		return nil
	})
	if err != nil {
		if coded, ok := err.(*Error); ok {
			return uploaded, coded
		}
		return uploaded, wrapError(CodeUploadFailed, true, err)
	}
	return uploaded, nil
}

func (c *FSClient) objectPath(repoID, repoPath string) string {
	return filepath.Join(c.root, filepath.FromSlash(repoKey(repoID, repoPath)))
}
