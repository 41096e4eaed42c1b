package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
)

// Compile-time check that MinIOStore implements ObjectStore.
var _ ObjectStore = (*MinIOStore)(nil)

// MinIOConfig holds the configuration for a MinIO (or other S3-compatible) server.
type MinIOConfig struct {
	Endpoint  string // host:port, without scheme
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// MinIOStore implements ObjectStore on a MinIO server.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore creates a new MinIOStore. It does not contact the server;
// call EnsureBucket to verify connectivity.
func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
// It reports whether the bucket had to be created.
func (s *MinIOStore) EnsureBucket(ctx context.Context) (bool, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return false, fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return false, nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return false, fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return true, nil
}

// Put uploads body to MinIO under key with the given content type.
func (s *MinIOStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload to MinIO: %w", err)
	}
	return nil
}

// PresignGet returns a presigned GET URL for key valid for ttl.
func (s *MinIOStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign MinIO object: %w", err)
	}
	return u.String(), nil
}
