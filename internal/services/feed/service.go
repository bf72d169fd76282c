package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
	"github.com/ivankudzin/mealmatch/internal/domain/rules"
)

var ErrValidation = errors.New("validation error")

type MealLister interface {
	List(ctx context.Context) ([]model.Meal, error)
}

type PreferenceReader interface {
	Get(ctx context.Context, userID uuid.UUID) (model.UserPreferences, error)
}

// CatalogCache holds a copy of the meal catalog. Cache failures never fail
// a feed request.
type CatalogCache interface {
	GetMeals(ctx context.Context) ([]model.Meal, bool, error)
	SetMeals(ctx context.Context, meals []model.Meal) error
}

type ImageResolver interface {
	ImageURL(ctx context.Context, ref string) (string, error)
}

type Item struct {
	Meal     model.Meal
	ImageURL string
}

type Dependencies struct {
	Meals       MealLister
	Preferences PreferenceReader
	Cache       CatalogCache
	Images      ImageResolver
	Logger      *zap.Logger
}

type Service struct {
	meals       MealLister
	preferences PreferenceReader
	cache       CatalogCache
	images      ImageResolver
	logger      *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		meals:       deps.Meals,
		preferences: deps.Preferences,
		cache:       deps.Cache,
		images:      deps.Images,
		logger:      logger,
	}
}

// FeedFor returns the catalog in its own order, keeping meals that suit the
// user's dietary preferences. Users without preferences see every meal.
func (s *Service) FeedFor(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	if userID == uuid.Nil {
		return nil, ErrValidation
	}
	if s.meals == nil || s.preferences == nil {
		return nil, fmt.Errorf("feed dependencies are not configured")
	}

	prefs, err := s.preferences.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(catalog))
	for _, meal := range catalog {
		if !rules.MealMatchesPreferences(prefs.Preferences, meal.DietaryPreferences) {
			continue
		}
		item := Item{Meal: meal}
		if s.images != nil && meal.ImageRef != "" {
			url, err := s.images.ImageURL(ctx, meal.ImageRef)
			if err != nil {
				s.logger.Warn("resolve meal image failed", zap.Int64("meal_id", meal.ID), zap.Error(err))
			}
			item.ImageURL = url
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) catalog(ctx context.Context) ([]model.Meal, error) {
	if s.cache != nil {
		meals, ok, err := s.cache.GetMeals(ctx)
		if err != nil {
			s.logger.Warn("meal catalog cache read failed", zap.Error(err))
		}
		if ok {
			return meals, nil
		}
	}

	meals, err := s.meals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetMeals(ctx, meals); err != nil {
			s.logger.Warn("meal catalog cache write failed", zap.Error(err))
		}
	}
	return meals, nil
}
