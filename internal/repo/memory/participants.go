package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
)

type ParticipantRepo struct {
	s *Store
}

func (r *ParticipantRepo) Create(ctx context.Context, _ pgx.Tx, roomID, userID uuid.UUID, now time.Time) (model.Participant, error) {
	if roomID == uuid.Nil || userID == uuid.Nil {
		return model.Participant{}, fmt.Errorf("invalid participant payload")
	}
	defer r.s.write(ctx)()

	if _, ok := r.s.data.rooms[roomID]; !ok {
		return model.Participant{}, pgrepo.ErrRoomNotFound
	}
	for _, p := range r.s.data.participants {
		if p.RoomID == roomID && p.UserID == userID {
			return model.Participant{}, pgrepo.ErrParticipantExists
		}
	}

	p := model.Participant{
		ID:        uuid.New(),
		RoomID:    roomID,
		UserID:    userID,
		Status:    enums.ParticipantStatusSwiping,
		CreatedAt: utc(now),
		UpdatedAt: utc(now),
	}
	r.s.data.participants[p.ID] = p
	return p, nil
}

func (r *ParticipantRepo) ListByRoom(_ context.Context, _ pgx.Tx, roomID uuid.UUID) ([]model.Participant, error) {
	defer r.s.read()()

	items := make([]model.Participant, 0, 2)
	for _, p := range r.s.data.participants {
		if p.RoomID == roomID {
			items = append(items, p)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
	return items, nil
}

func (r *ParticipantRepo) GetByRoomAndUser(_ context.Context, _ pgx.Tx, roomID, userID uuid.UUID) (model.Participant, error) {
	defer r.s.read()()

	for _, p := range r.s.data.participants {
		if p.RoomID == roomID && p.UserID == userID {
			return p, nil
		}
	}
	return model.Participant{}, pgrepo.ErrParticipantNotFound
}

func (r *ParticipantRepo) SetStatus(ctx context.Context, _ pgx.Tx, roomID, userID uuid.UUID, status enums.ParticipantStatus, now time.Time) (model.Participant, error) {
	defer r.s.write(ctx)()

	for id, p := range r.s.data.participants {
		if p.RoomID == roomID && p.UserID == userID {
			p.Status = status
			p.UpdatedAt = utc(now)
			r.s.data.participants[id] = p
			return p, nil
		}
	}
	return model.Participant{}, pgrepo.ErrParticipantNotFound
}
