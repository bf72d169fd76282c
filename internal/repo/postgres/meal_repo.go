package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

const mealColumns = `id, name, image_ref, characteristics, dietary_preferences, position`

type MealRepo struct {
	pool *pgxpool.Pool
}

func NewMealRepo(pool *pgxpool.Pool) *MealRepo {
	return &MealRepo{pool: pool}
}

// List returns the whole catalog in presentation order.
func (r *MealRepo) List(ctx context.Context) ([]model.Meal, error) {
	db, err := conn(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
SELECT `+mealColumns+`
FROM meals
ORDER BY position ASC, id ASC
`)
	if err != nil {
		return nil, wrapErr("list meals", err)
	}
	defer rows.Close()

	items := make([]model.Meal, 0)
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return nil, wrapErr("scan meal", err)
		}
		items = append(items, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate meals", err)
	}
	return items, nil
}

func (r *MealRepo) GetByID(ctx context.Context, mealID int64) (model.Meal, error) {
	if mealID <= 0 {
		return model.Meal{}, ErrMealNotFound
	}
	db, err := conn(r.pool, nil)
	if err != nil {
		return model.Meal{}, err
	}

	meal, err := scanMeal(db.QueryRow(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = $1`, mealID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Meal{}, ErrMealNotFound
		}
		return model.Meal{}, wrapErr("get meal", err)
	}
	return meal, nil
}

// Upsert inserts a meal or updates the one with the same name.
func (r *MealRepo) Upsert(ctx context.Context, meal model.Meal) (model.Meal, error) {
	if meal.Name == "" {
		return model.Meal{}, fmt.Errorf("meal name is required")
	}
	db, err := conn(r.pool, nil)
	if err != nil {
		return model.Meal{}, err
	}

	stored, err := scanMeal(db.QueryRow(ctx, `
INSERT INTO meals (name, image_ref, characteristics, dietary_preferences, position)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE
SET image_ref = EXCLUDED.image_ref,
	characteristics = EXCLUDED.characteristics,
	dietary_preferences = EXCLUDED.dietary_preferences,
	position = EXCLUDED.position
RETURNING `+mealColumns,
		meal.Name,
		meal.ImageRef,
		nonNilTags(meal.Characteristics),
		nonNilTags(meal.DietaryPreferences),
		meal.Position,
	))
	if err != nil {
		return model.Meal{}, wrapErr("upsert meal", err)
	}
	return stored, nil
}

func scanMeal(row pgx.Row) (model.Meal, error) {
	var meal model.Meal
	if err := row.Scan(&meal.ID, &meal.Name, &meal.ImageRef, &meal.Characteristics, &meal.DietaryPreferences, &meal.Position); err != nil {
		return model.Meal{}, err
	}
	if meal.Characteristics == nil {
		meal.Characteristics = []string{}
	}
	if meal.DietaryPreferences == nil {
		meal.DietaryPreferences = []string{}
	}
	return meal, nil
}
