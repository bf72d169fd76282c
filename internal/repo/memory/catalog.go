package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
)

type MealRepo struct {
	s *Store
}

// Seed adds meals to the catalog, assigning ids to meals without one.
func (r *MealRepo) Seed(meals ...model.Meal) []model.Meal {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	defer r.s.read()()

	out := make([]model.Meal, 0, len(meals))
	for _, meal := range meals {
		if meal.ID <= 0 {
			r.s.data.nextMealID++
			meal.ID = r.s.data.nextMealID
		} else if meal.ID > r.s.data.nextMealID {
			r.s.data.nextMealID = meal.ID
		}
		meal = cloneMeal(meal)
		r.s.data.meals[meal.ID] = meal
		out = append(out, cloneMeal(meal))
	}
	return out
}

// Upsert inserts a meal or replaces the one with the same name.
func (r *MealRepo) Upsert(ctx context.Context, meal model.Meal) (model.Meal, error) {
	if meal.Name == "" {
		return model.Meal{}, fmt.Errorf("meal name is required")
	}
	defer r.s.write(ctx)()

	meal.ID = 0
	for id, existing := range r.s.data.meals {
		if existing.Name == meal.Name {
			meal.ID = id
			break
		}
	}
	if meal.ID == 0 {
		r.s.data.nextMealID++
		meal.ID = r.s.data.nextMealID
	}
	meal = cloneMeal(meal)
	r.s.data.meals[meal.ID] = meal
	return cloneMeal(meal), nil
}

func (r *MealRepo) List(_ context.Context) ([]model.Meal, error) {
	defer r.s.read()()

	items := make([]model.Meal, 0, len(r.s.data.meals))
	for _, meal := range r.s.data.meals {
		items = append(items, cloneMeal(meal))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *MealRepo) GetByID(_ context.Context, mealID int64) (model.Meal, error) {
	defer r.s.read()()

	meal, ok := r.s.data.meals[mealID]
	if !ok {
		return model.Meal{}, pgrepo.ErrMealNotFound
	}
	return cloneMeal(meal), nil
}

type PreferenceRepo struct {
	s *Store
}

func (r *PreferenceRepo) Get(_ context.Context, userID uuid.UUID) (model.UserPreferences, error) {
	defer r.s.read()()

	prefs, ok := r.s.data.preferences[userID]
	if !ok {
		return model.UserPreferences{UserID: userID, Preferences: []string{}}, nil
	}
	prefs.Preferences = slices.Clone(prefs.Preferences)
	return prefs, nil
}

func (r *PreferenceRepo) Save(ctx context.Context, userID uuid.UUID, preferences []string, now time.Time) (model.UserPreferences, error) {
	defer r.s.write(ctx)()

	prefs := model.UserPreferences{
		UserID:      userID,
		Preferences: nonNil(slices.Clone(preferences)),
		UpdatedAt:   utc(now),
	}
	r.s.data.preferences[userID] = prefs

	out := prefs
	out.Preferences = slices.Clone(prefs.Preferences)
	return out, nil
}
