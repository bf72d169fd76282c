package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
	"github.com/ivankudzin/mealmatch/internal/domain/rules"
)

var ErrInvalidCatalog = errors.New("invalid meal catalog")

// File is the YAML layout of a meal catalog.
type File struct {
	Meals []Entry `yaml:"meals"`
}

type Entry struct {
	Name               string   `yaml:"name"`
	Image              string   `yaml:"image"`
	Characteristics    []string `yaml:"characteristics"`
	DietaryPreferences []string `yaml:"dietary_preferences"`
}

type MealUpserter interface {
	Upsert(ctx context.Context, meal model.Meal) (model.Meal, error)
}

type ImageUploader interface {
	UploadMealImage(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, error)
}

type CacheInvalidator interface {
	InvalidateMeals(ctx context.Context) error
}

// Load reads and validates a catalog file. Dietary tags are normalized to
// the preference catalog spelling.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read catalog: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("unmarshal catalog yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Meals))
	for i := range file.Meals {
		entry := &file.Meals[i]
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Name == "" {
			return File{}, fmt.Errorf("%w: meal #%d has no name", ErrInvalidCatalog, i+1)
		}
		if _, dup := seen[entry.Name]; dup {
			return File{}, fmt.Errorf("%w: duplicate meal %q", ErrInvalidCatalog, entry.Name)
		}
		seen[entry.Name] = struct{}{}

		prefs, err := rules.NormalizePreferences(entry.DietaryPreferences)
		if err != nil {
			return File{}, fmt.Errorf("%w: meal %q: %w", ErrInvalidCatalog, entry.Name, err)
		}
		entry.DietaryPreferences = prefs
		entry.Characteristics = trimTags(entry.Characteristics)
	}
	return file, nil
}

type Importer struct {
	meals   MealUpserter
	images  ImageUploader
	cache   CacheInvalidator
	baseDir string
	logger  *zap.Logger
}

// NewImporter builds an importer. Relative image paths are resolved against
// baseDir and uploaded through images; images may be nil when the catalog
// only uses absolute URLs.
func NewImporter(meals MealUpserter, images ImageUploader, cache CacheInvalidator, baseDir string, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		meals:   meals,
		images:  images,
		cache:   cache,
		baseDir: baseDir,
		logger:  logger,
	}
}

// Import upserts every entry by name, keeping file order as feed order.
func (i *Importer) Import(ctx context.Context, file File) ([]model.Meal, error) {
	if i.meals == nil {
		return nil, fmt.Errorf("meal store is nil")
	}

	out := make([]model.Meal, 0, len(file.Meals))
	for pos, entry := range file.Meals {
		imageRef, err := i.imageRef(ctx, entry.Image)
		if err != nil {
			return out, fmt.Errorf("meal %q: %w", entry.Name, err)
		}

		meal, err := i.meals.Upsert(ctx, model.Meal{
			Name:               entry.Name,
			ImageRef:           imageRef,
			Characteristics:    entry.Characteristics,
			DietaryPreferences: entry.DietaryPreferences,
			Position:           pos,
		})
		if err != nil {
			return out, fmt.Errorf("upsert meal %q: %w", entry.Name, err)
		}
		out = append(out, meal)
	}

	if i.cache != nil {
		if err := i.cache.InvalidateMeals(ctx); err != nil {
			i.logger.Warn("invalidate meal cache failed", zap.Error(err))
		}
	}
	i.logger.Info("meal catalog imported", zap.Int("meals", len(out)))
	return out, nil
}

func (i *Importer) imageRef(ctx context.Context, image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" || strings.Contains(image, "://") {
		return image, nil
	}
	if i.images == nil {
		return "", fmt.Errorf("image %q needs uploading but no image storage is configured", image)
	}

	path := image
	if !filepath.IsAbs(path) {
		path = filepath.Join(i.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	return i.images.UploadMealImage(ctx, filepath.Base(path), contentType, f, info.Size())
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
