package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrStorageUnavailable = errors.New("image storage unavailable")
)

const (
	defaultSignedURLTTL = 15 * time.Minute
	mealImagePrefix     = "meals"
)

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	// PublicBaseURL points at a public read path for the image bucket, for
	// example a CDN. When empty, image URLs are presigned.
	PublicBaseURL string
	SignedURLTTL  time.Duration
}

type Service struct {
	storage ObjectStorage
	cfg     Config
	now     func() time.Time
}

func NewService(storage ObjectStorage, cfg Config) *Service {
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = defaultSignedURLTTL
	}
	return &Service{
		storage: storage,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ImageURL turns a meal image reference into a URL clients can load.
// Absolute http(s) references are returned unchanged.
func (s *Service) ImageURL(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref, nil
	}

	key := strings.TrimLeft(ref, "/")
	if s.cfg.PublicBaseURL != "" {
		return s.cfg.PublicBaseURL + "/" + escapeKey(key), nil
	}
	if s.storage == nil {
		return "", ErrStorageUnavailable
	}

	signed, err := s.storage.PresignGet(ctx, key, s.cfg.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign meal image: %w", err)
	}
	return signed, nil
}

// UploadMealImage stores an image and returns the reference to save on the meal.
func (s *Service) UploadMealImage(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, error) {
	if body == nil || size <= 0 {
		return "", ErrValidation
	}
	if s.storage == nil {
		return "", ErrStorageUnavailable
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key, err := s.buildMealImageKey(fileName)
	if err != nil {
		return "", fmt.Errorf("build object key: %w", err)
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.PutObject(ctx, key, body, size, contentType); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

// DeleteMealImage removes an image uploaded by UploadMealImage. External
// references are left alone.
func (s *Service) DeleteMealImage(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.Contains(ref, "://") {
		return nil
	}
	if s.storage == nil {
		return ErrStorageUnavailable
	}
	return s.storage.Delete(ctx, ref)
}

func (s *Service) buildMealImageKey(fileName string) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".jpg"
	}

	stamp := s.now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s/%s_%s%s", mealImagePrefix, stamp, hex.EncodeToString(rnd), ext), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
