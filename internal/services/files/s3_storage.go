package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

var errStorageNotConfigured = errors.New("s3 storage is not configured")

// S3Storage keeps approval documents and other uploads in one bucket.
// Object keys are generated by Service; this type never invents names.
type S3Storage struct {
	client *minio.Client
	bucket string

	mu          sync.Mutex
	bucketReady bool
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: strings.TrimSpace(bucket)}
}

func (s *S3Storage) ready() error {
	if s.client == nil || s.bucket == "" {
		return errStorageNotConfigured
	}
	return nil
}

// EnsureBucket creates the bucket on first use. A failed check is retried on
// the next call.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
	}
	s.bucketReady = true
	return nil
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if key == "" || body == nil {
		return ErrValidation
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a temporary download link. The stored file name is
// sent back as the attachment name.
func (s *S3Storage) PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = signedURLTTL
	}

	var params url.Values
	if name := strings.TrimSpace(filename); name != "" {
		params = url.Values{"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", name)}}
	}

	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return link.String(), nil
}

// Delete treats a missing object as already removed.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if key == "" || s.ready() != nil {
		return nil
	}

	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
