package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type PreferenceRepo struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepo(pool *pgxpool.Pool) *PreferenceRepo {
	return &PreferenceRepo{pool: pool}
}

// Get returns empty preferences for users who never saved any.
func (r *PreferenceRepo) Get(ctx context.Context, userID uuid.UUID) (model.UserPreferences, error) {
	db, err := conn(r.pool, nil)
	if err != nil {
		return model.UserPreferences{}, err
	}

	prefs := model.UserPreferences{UserID: userID}
	err = db.QueryRow(ctx, `
SELECT preferences, updated_at
FROM user_preferences
WHERE user_id = $1
`, userID).Scan(&prefs.Preferences, &prefs.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return model.UserPreferences{}, wrapErr("get preferences", err)
	}
	if prefs.Preferences == nil {
		prefs.Preferences = []string{}
	}
	prefs.UpdatedAt = prefs.UpdatedAt.UTC()
	return prefs, nil
}

func (r *PreferenceRepo) Save(ctx context.Context, userID uuid.UUID, preferences []string, now time.Time) (model.UserPreferences, error) {
	db, err := conn(r.pool, nil)
	if err != nil {
		return model.UserPreferences{}, err
	}

	prefs := model.UserPreferences{UserID: userID}
	err = db.QueryRow(ctx, `
INSERT INTO user_preferences (user_id, preferences, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET preferences = EXCLUDED.preferences,
	updated_at = EXCLUDED.updated_at
RETURNING preferences, updated_at
`, userID, nonNilTags(preferences), now.UTC()).Scan(&prefs.Preferences, &prefs.UpdatedAt)
	if err != nil {
		return model.UserPreferences{}, wrapErr("save preferences", err)
	}
	if prefs.Preferences == nil {
		prefs.Preferences = []string{}
	}
	prefs.UpdatedAt = prefs.UpdatedAt.UTC()
	return prefs, nil
}
