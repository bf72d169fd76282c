package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

// Meal image keys are never reused, so clients may cache objects forever.
const mealImageCacheControl = "public, max-age=31536000, immutable"

// S3Storage keeps meal images in one bucket of an S3 compatible store.
type S3Storage struct {
	client     *minio.Client
	bucket     string
	publicRead bool

	mu      sync.Mutex
	ensured bool
}

// NewS3Storage wraps client. With publicRead the bucket gets an anonymous
// read policy on the meal image prefix, for deployments that serve images
// through a public base URL instead of presigned links.
func NewS3Storage(client *minio.Client, bucket string, publicRead bool) *S3Storage {
	return &S3Storage{
		client:     client,
		bucket:     strings.TrimSpace(bucket),
		publicRead: publicRead,
	}
}

// EnsureBucket creates the bucket on first use. Failures are not cached, the
// next upload tries again.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check s3 bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create s3 bucket %q: %w", s.bucket, err)
		}
	}
	if s.publicRead {
		policy, err := publicReadPolicy(s.bucket, mealImagePrefix)
		if err != nil {
			return err
		}
		if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
			return fmt.Errorf("set s3 bucket policy: %w", err)
		}
	}

	s.ensured = true
	return nil
}

func (s *S3Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if key == "" || body == nil || size <= 0 {
		return ErrValidation
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: mealImageCacheControl,
	})
	if err != nil {
		return fmt.Errorf("put meal image %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if key == "" {
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign meal image %s: %w", key, err)
	}
	return presigned.String(), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.client == nil || key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete meal image %s: %w", key, err)
	}
	return nil
}

type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect    string              `json:"Effect"`
	Principal map[string][]string `json:"Principal"`
	Action    []string            `json:"Action"`
	Resource  []string            `json:"Resource"`
}

func publicReadPolicy(bucket, prefix string) (string, error) {
	raw, err := json.Marshal(bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect:    "Allow",
			Principal: map[string][]string{"AWS": {"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{fmt.Sprintf("arn:aws:s3:::%s/%s/*", bucket, prefix)},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal bucket policy: %w", err)
	}
	return string(raw), nil
}
