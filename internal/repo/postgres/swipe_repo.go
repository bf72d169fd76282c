package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

const swipeColumns = `id, participant_id, meal_id, action, characteristics, created_at`

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// Insert stores a first decision. A second decision for the same meal
// returns ErrSwipeExists.
func (r *SwipeRepo) Insert(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	if err := validateSwipe(swipe); err != nil {
		return model.Swipe{}, err
	}
	db, err := conn(r.pool, tx)
	if err != nil {
		return model.Swipe{}, err
	}

	stored, err := scanSwipe(db.QueryRow(ctx, `
INSERT INTO swipes (id, participant_id, meal_id, action, characteristics, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+swipeColumns, uuid.New(), swipe.ParticipantID, swipe.MealID, string(swipe.Action), nonNilTags(swipe.Characteristics), swipe.CreatedAt.UTC()))
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return model.Swipe{}, ErrSwipeExists
		}
		return model.Swipe{}, wrapErr("insert swipe", err)
	}
	return stored, nil
}

// Exists reports whether the participant already decided on the meal.
func (r *SwipeRepo) Exists(ctx context.Context, participantID uuid.UUID, mealID int64) (bool, error) {
	db, err := conn(r.pool, nil)
	if err != nil {
		return false, err
	}

	var exists bool
	err = db.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM swipes WHERE participant_id = $1 AND meal_id = $2)
`, participantID, mealID).Scan(&exists)
	if err != nil {
		return false, wrapErr("check swipe", err)
	}
	return exists, nil
}

// Upsert replaces an earlier decision for the same meal.
func (r *SwipeRepo) Upsert(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	if err := validateSwipe(swipe); err != nil {
		return model.Swipe{}, err
	}
	db, err := conn(r.pool, tx)
	if err != nil {
		return model.Swipe{}, err
	}

	stored, err := scanSwipe(db.QueryRow(ctx, `
INSERT INTO swipes (id, participant_id, meal_id, action, characteristics, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (participant_id, meal_id) DO UPDATE
SET action = EXCLUDED.action,
	characteristics = EXCLUDED.characteristics,
	created_at = EXCLUDED.created_at
RETURNING `+swipeColumns, uuid.New(), swipe.ParticipantID, swipe.MealID, string(swipe.Action), nonNilTags(swipe.Characteristics), swipe.CreatedAt.UTC()))
	if err != nil {
		return model.Swipe{}, wrapErr("upsert swipe", err)
	}
	return stored, nil
}

func (r *SwipeRepo) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]model.Swipe, error) {
	db, err := conn(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
SELECT `+swipeColumns+`
FROM swipes
WHERE participant_id = $1
ORDER BY created_at ASC, id ASC
`, participantID)
	if err != nil {
		return nil, wrapErr("list swipes", err)
	}
	defer rows.Close()

	items := make([]model.Swipe, 0)
	for rows.Next() {
		s, err := scanSwipe(rows)
		if err != nil {
			return nil, wrapErr("scan swipe", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate swipes", err)
	}
	return items, nil
}

func (r *SwipeRepo) ListLikesByRoom(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]model.RoomLike, error) {
	db, err := conn(r.pool, tx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
SELECT s.participant_id, s.meal_id, s.characteristics, s.created_at
FROM swipes s
JOIN participants p ON p.id = s.participant_id
WHERE p.room_id = $1 AND s.action = $2
ORDER BY s.created_at ASC, s.id ASC
`, roomID, string(enums.SwipeActionLike))
	if err != nil {
		return nil, wrapErr("list room likes", err)
	}
	defer rows.Close()

	items := make([]model.RoomLike, 0)
	for rows.Next() {
		var like model.RoomLike
		if err := rows.Scan(&like.ParticipantID, &like.MealID, &like.Characteristics, &like.CreatedAt); err != nil {
			return nil, wrapErr("scan room like", err)
		}
		like.CreatedAt = like.CreatedAt.UTC()
		items = append(items, like)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate room likes", err)
	}
	return items, nil
}

func validateSwipe(swipe model.Swipe) error {
	if swipe.ParticipantID == uuid.Nil || swipe.MealID <= 0 {
		return fmt.Errorf("invalid swipe payload")
	}
	if !swipe.Action.IsValid() {
		return fmt.Errorf("invalid swipe action")
	}
	return nil
}

func scanSwipe(row pgx.Row) (model.Swipe, error) {
	var (
		s      model.Swipe
		action string
	)
	if err := row.Scan(&s.ID, &s.ParticipantID, &s.MealID, &action, &s.Characteristics, &s.CreatedAt); err != nil {
		return model.Swipe{}, err
	}
	s.Action = enums.SwipeAction(action)
	s.CreatedAt = s.CreatedAt.UTC()
	if s.Characteristics == nil {
		s.Characteristics = []string{}
	}
	return s, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
