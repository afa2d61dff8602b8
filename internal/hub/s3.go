package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/TrashHobbit/modelkit/internal/config"
)

// S3Client implements Client against an S3-compatible hub using minio-go.
type S3Client struct {
	client *minio.Client
	bucket string
}

// NewS3Client creates a hub client from config and credentials.
func NewS3Client(cfg config.HubConfig, creds Credentials) (*S3Client, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return nil, wrapError(CodeAuthInvalid, false, fmt.Errorf("credentials are required"))
	}
	if cfg.Bucket == "" {
		return nil, wrapError(CodeRepoNotFound, false, fmt.Errorf("hub.bucket is not configured"))
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("invalid endpoint URL: %w", err))
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	useSSL := cfg.UseSSL
	if u.Scheme == "https" {
		useSSL = true
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeEndpointUnreachable, true, fmt.Errorf("create hub client: %w", err))
	}

	return &S3Client{client: client, bucket: cfg.Bucket}, nil
}

// RepoInfo reads <repo>/repo.json from the bucket.
func (s *S3Client) RepoInfo(ctx context.Context, repoID string) (RepoInfo, error) {
	if repoID == "" {
		return RepoInfo{}, wrapError(CodeRepoNotFound, false, fmt.Errorf("repository id is required"))
	}
	obj, err := s.client.GetObject(ctx, s.bucket, repoKey(repoID, repoInfoObject), minio.GetObjectOptions{})
	if err != nil {
		return RepoInfo{}, classifyMinioError(err, repoID)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return RepoInfo{}, classifyMinioError(err, repoID)
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

// UploadFile pushes one local file into the repository prefix.
func (s *S3Client) UploadFile(ctx context.Context, repoID, localPath, repoPath string) error {
	if repoPath == "" {
		return wrapError(CodeUploadFailed, false, fmt.Errorf("repo path is required"))
	}
	_, err := s.client.FPutObject(ctx, s.bucket, repoKey(repoID, repoPath), localPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return classifyMinioError(err, repoID)
	}
	return nil
}

// UploadDir walks localDir and uploads every regular file under repoPath.
func (s *S3Client) UploadDir(ctx context.Context, repoID, localDir, repoPath string) ([]string, error) {
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
		if err := s.UploadFile(ctx, repoID, p, target); err != nil {
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

// classifyMinioError converts minio-go errors to our structured Error type.
func classifyMinioError(err error, repoID string) *Error {
	if err == nil {
		return nil
	}

	if minioErr, ok := err.(minio.ErrorResponse); ok {
		switch minioErr.Code {
		case "NoSuchBucket":
			return wrapError(CodeRepoNotFound, false, err)
		case "NoSuchKey":
			return wrapError(CodeRepoNotFound, false, fmt.Errorf("repository %s not found: %w", repoID, err))
		case "AccessDenied":
			return wrapError(CodePermissionDenied, false, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return wrapError(CodeAuthInvalid, false, err)
		}
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "no such key") || strings.Contains(errStr, "not found") || strings.Contains(errStr, "does not exist"):
		return wrapError(CodeRepoNotFound, false, err)
	case strings.Contains(errStr, "access denied") || strings.Contains(errStr, "permission"):
		return wrapError(CodePermissionDenied, false, err)
	case strings.Contains(errStr, "invalid access key") || strings.Contains(errStr, "signature") || strings.Contains(errStr, "authentication"):
		return wrapError(CodeAuthInvalid, false, err)
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return wrapError(CodeTimeout, true, err)
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "unreachable") || strings.Contains(errStr, "no such host"):
		return wrapError(CodeEndpointUnreachable, true, err)
	default:
		return wrapError(CodeUploadFailed, true, err)
	}
}
