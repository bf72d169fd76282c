package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
	"github.com/ivankudzin/mealmatch/internal/domain/rules"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnknownPreference = rules.ErrUnknownPreference
)

type PreferenceStore interface {
	Get(ctx context.Context, userID uuid.UUID) (model.UserPreferences, error)
	Save(ctx context.Context, userID uuid.UUID, preferences []string, now time.Time) (model.UserPreferences, error)
}

// Service manages the dietary preferences that filter a user's meal feed.
type Service struct {
	store PreferenceStore
	now   func() time.Time
}

func NewService(store PreferenceStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

func (s *Service) Catalog() []rules.PreferenceCategory {
	return rules.DietaryCatalog()
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (model.UserPreferences, error) {
	if userID == uuid.Nil {
		return model.UserPreferences{}, ErrValidation
	}
	if s.store == nil {
		return model.UserPreferences{}, fmt.Errorf("preference store is nil")
	}

	prefs, err := s.store.Get(ctx, userID)
	if err != nil {
		return model.UserPreferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// Save replaces the user's preferences. Tags are matched case-insensitively
// against the catalog; an unknown tag rejects the whole update.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, tags []string) (model.UserPreferences, error) {
	if userID == uuid.Nil {
		return model.UserPreferences{}, ErrValidation
	}
	if s.store == nil {
		return model.UserPreferences{}, fmt.Errorf("preference store is nil")
	}

	normalized, err := rules.NormalizePreferences(tags)
	if err != nil {
		return model.UserPreferences{}, err
	}

	prefs, err := s.store.Save(ctx, userID, normalized, s.now().UTC())
	if err != nil {
		return model.UserPreferences{}, fmt.Errorf("save preferences: %w", err)
	}
	return prefs, nil
}
