package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

const participantColumns = `id, room_id, user_id, status, created_at, updated_at`

type ParticipantRepo struct {
	pool *pgxpool.Pool
}

func NewParticipantRepo(pool *pgxpool.Pool) *ParticipantRepo {
	return &ParticipantRepo{pool: pool}
}

func (r *ParticipantRepo) Create(ctx context.Context, tx pgx.Tx, roomID, userID uuid.UUID, now time.Time) (model.Participant, error) {
	if roomID == uuid.Nil || userID == uuid.Nil {
		return model.Participant{}, fmt.Errorf("invalid participant payload")
	}
	if tx == nil {
		return model.Participant{}, fmt.Errorf("transaction is required")
	}

	p, err := scanParticipant(tx.QueryRow(ctx, `
INSERT INTO participants (id, room_id, user_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING `+participantColumns, uuid.New(), roomID, userID, string(enums.ParticipantStatusSwiping), now.UTC()))
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return model.Participant{}, ErrParticipantExists
		}
		return model.Participant{}, wrapErr("create participant", err)
	}
	return p, nil
}

func (r *ParticipantRepo) ListByRoom(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]model.Participant, error) {
	db, err := conn(r.pool, tx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
SELECT `+participantColumns+`
FROM participants
WHERE room_id = $1
ORDER BY created_at ASC, id ASC
`, roomID)
	if err != nil {
		return nil, wrapErr("list participants", err)
	}
	defer rows.Close()

	items := make([]model.Participant, 0, 2)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, wrapErr("scan participant", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate participants", err)
	}
	return items, nil
}

func (r *ParticipantRepo) GetByRoomAndUser(ctx context.Context, tx pgx.Tx, roomID, userID uuid.UUID) (model.Participant, error) {
	db, err := conn(r.pool, tx)
	if err != nil {
		return model.Participant{}, err
	}

	p, err := scanParticipant(db.QueryRow(ctx, `
SELECT `+participantColumns+`
FROM participants
WHERE room_id = $1 AND user_id = $2
`, roomID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Participant{}, ErrParticipantNotFound
		}
		return model.Participant{}, wrapErr("get participant", err)
	}
	return p, nil
}

func (r *ParticipantRepo) SetStatus(ctx context.Context, tx pgx.Tx, roomID, userID uuid.UUID, status enums.ParticipantStatus, now time.Time) (model.Participant, error) {
	db, err := conn(r.pool, tx)
	if err != nil {
		return model.Participant{}, err
	}

	p, err := scanParticipant(db.QueryRow(ctx, `
UPDATE participants
SET status = $3, updated_at = $4
WHERE room_id = $1 AND user_id = $2
RETURNING `+participantColumns, roomID, userID, string(status), now.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Participant{}, ErrParticipantNotFound
		}
		return model.Participant{}, wrapErr("set participant status", err)
	}
	return p, nil
}

func scanParticipant(row pgx.Row) (model.Participant, error) {
	var (
		p      model.Participant
		status string
	)
	if err := row.Scan(&p.ID, &p.RoomID, &p.UserID, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Participant{}, err
	}
	p.Status = enums.ParticipantStatus(status)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
