package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

const roomColumns = `id, code, created_by, status, created_at, updated_at`

type RoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

func (r *RoomRepo) LastCreatedAtByUser(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	if userID == uuid.Nil {
		return time.Time{}, false, fmt.Errorf("invalid user id")
	}
	db, err := conn(r.pool, nil)
	if err != nil {
		return time.Time{}, false, err
	}

	var createdAt time.Time
	err = db.QueryRow(ctx, `
SELECT created_at
FROM rooms
WHERE created_by = $1
ORDER BY created_at DESC
LIMIT 1
`, userID).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, wrapErr("get last room by creator", err)
	}
	return createdAt.UTC(), true, nil
}

func (r *RoomRepo) Create(ctx context.Context, tx pgx.Tx, code string, createdBy uuid.UUID, now time.Time) (model.Room, error) {
	if strings.TrimSpace(code) == "" || createdBy == uuid.Nil {
		return model.Room{}, fmt.Errorf("invalid room payload")
	}
	if tx == nil {
		return model.Room{}, fmt.Errorf("transaction is required")
	}

	room, err := scanRoom(tx.QueryRow(ctx, `
INSERT INTO rooms (id, code, created_by, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
RETURNING `+roomColumns, uuid.New(), code, createdBy, string(enums.RoomStatusOpen), now.UTC()))
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == "rooms_live_code_uniq" {
			return model.Room{}, ErrRoomCodeTaken
		}
		return model.Room{}, wrapErr("create room", err)
	}
	return room, nil
}

// GetByID reads a room; forUpdate locks the row and requires tx.
func (r *RoomRepo) GetByID(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, forUpdate bool) (model.Room, error) {
	if forUpdate && tx == nil {
		return model.Room{}, fmt.Errorf("transaction is required")
	}
	db, err := conn(r.pool, tx)
	if err != nil {
		return model.Room{}, err
	}

	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	room, err := scanRoom(db.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Room{}, ErrRoomNotFound
		}
		return model.Room{}, wrapErr("get room", err)
	}
	return room, nil
}

// FindByCodeForUpdate locks the live room carrying code if its status is one of statuses.
func (r *RoomRepo) FindByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string, statuses []enums.RoomStatus) (model.Room, error) {
	if tx == nil {
		return model.Room{}, fmt.Errorf("transaction is required")
	}
	if len(statuses) == 0 {
		return model.Room{}, ErrRoomNotFound
	}

	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	room, err := scanRoom(tx.QueryRow(ctx, `
SELECT `+roomColumns+`
FROM rooms
WHERE code = $1 AND status = ANY($2)
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE
`, code, values))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Room{}, ErrRoomNotFound
		}
		return model.Room{}, wrapErr("find room by code", err)
	}
	return room, nil
}

// UpdateStatus moves a room from one status to the next. It fails with
// ErrStatusConflict when the stored status is no longer from.
func (r *RoomRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, from, to enums.RoomStatus, now time.Time) (model.Room, error) {
	if !from.CanTransition(to) {
		return model.Room{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if tx == nil {
		return model.Room{}, fmt.Errorf("transaction is required")
	}

	room, err := scanRoom(tx.QueryRow(ctx, `
UPDATE rooms
SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2
RETURNING `+roomColumns, roomID, string(from), string(to), now.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Room{}, ErrStatusConflict
		}
		return model.Room{}, wrapErr("update room status", err)
	}
	return room, nil
}

// DeleteIfAbandoned removes an open room that still only holds its creator.
// The participant count is checked in the same statement, so a concurrent
// join either lands first and keeps the room or fails on the missing row.
func (r *RoomRepo) DeleteIfAbandoned(ctx context.Context, roomID, createdBy uuid.UUID) (bool, error) {
	db, err := conn(r.pool, nil)
	if err != nil {
		return false, err
	}

	tag, err := db.Exec(ctx, `
DELETE FROM rooms r
WHERE r.id = $1
	AND r.created_by = $2
	AND r.status = $3
	AND (SELECT COUNT(*) FROM participants p WHERE p.room_id = r.id) <= 1
`, roomID, createdBy, string(enums.RoomStatusOpen))
	if err != nil {
		return false, wrapErr("delete abandoned room", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteStaleOpen removes single-participant open rooms created before cutoff.
func (r *RoomRepo) DeleteStaleOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	db, err := conn(r.pool, nil)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
DELETE FROM rooms r
WHERE r.status = $1
	AND r.created_at < $2
	AND (SELECT COUNT(*) FROM participants p WHERE p.room_id = r.id) <= 1
RETURNING r.id
`, string(enums.RoomStatusOpen), cutoff.UTC())
	if err != nil {
		return nil, wrapErr("delete stale open rooms", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("scan stale room id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate stale rooms", err)
	}
	return ids, nil
}

func scanRoom(row pgx.Row) (model.Room, error) {
	var (
		room   model.Room
		status string
	)
	if err := row.Scan(&room.ID, &room.Code, &room.CreatedBy, &status, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return model.Room{}, err
	}
	room.Code = strings.TrimSpace(room.Code)
	room.Status = enums.RoomStatus(status)
	room.CreatedAt = room.CreatedAt.UTC()
	room.UpdatedAt = room.UpdatedAt.UTC()
	return room, nil
}
