package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

const mealCatalogKey = "cache:meals:catalog"

// CacheRepo keeps a JSON copy of the meal catalog so feeds do not hit
// Postgres on every request.
type CacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCacheRepo(client *goredis.Client, ttl time.Duration) *CacheRepo {
	return &CacheRepo{client: client, ttl: ttl}
}

// GetMeals reports false on a cache miss.
func (r *CacheRepo) GetMeals(ctx context.Context) ([]model.Meal, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, mealCatalogKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get meal catalog cache: %w", err)
	}

	var meals []model.Meal
	if err := json.Unmarshal(raw, &meals); err != nil {
		return nil, false, fmt.Errorf("decode meal catalog cache: %w", err)
	}
	return meals, true, nil
}

func (r *CacheRepo) SetMeals(ctx context.Context, meals []model.Meal) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if r.ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(meals)
	if err != nil {
		return fmt.Errorf("encode meal catalog cache: %w", err)
	}
	if err := r.client.Set(ctx, mealCatalogKey, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set meal catalog cache: %w", err)
	}
	return nil
}

func (r *CacheRepo) InvalidateMeals(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, mealCatalogKey).Err(); err != nil {
		return fmt.Errorf("invalidate meal catalog cache: %w", err)
	}
	return nil
}
