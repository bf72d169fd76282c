package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
)

type RoomRepo struct {
	s *Store
}

func (r *RoomRepo) LastCreatedAtByUser(_ context.Context, userID uuid.UUID) (time.Time, bool, error) {
	if userID == uuid.Nil {
		return time.Time{}, false, fmt.Errorf("invalid user id")
	}
	defer r.s.read()()

	var (
		latest time.Time
		found  bool
	)
	for _, room := range r.s.data.rooms {
		if room.CreatedBy != userID {
			continue
		}
		if !found || room.CreatedAt.After(latest) {
			latest = room.CreatedAt
			found = true
		}
	}
	return latest, found, nil
}

func (r *RoomRepo) Create(ctx context.Context, _ pgx.Tx, code string, createdBy uuid.UUID, now time.Time) (model.Room, error) {
	if strings.TrimSpace(code) == "" || createdBy == uuid.Nil {
		return model.Room{}, fmt.Errorf("invalid room payload")
	}
	defer r.s.write(ctx)()

	for _, room := range r.s.data.rooms {
		if room.Code == code && room.Status != enums.RoomStatusFinished {
			return model.Room{}, pgrepo.ErrRoomCodeTaken
		}
	}

	room := model.Room{
		ID:        uuid.New(),
		Code:      code,
		CreatedBy: createdBy,
		Status:    enums.RoomStatusOpen,
		CreatedAt: utc(now),
		UpdatedAt: utc(now),
	}
	r.s.data.rooms[room.ID] = room
	return room, nil
}

func (r *RoomRepo) GetByID(_ context.Context, _ pgx.Tx, roomID uuid.UUID, _ bool) (model.Room, error) {
	defer r.s.read()()

	room, ok := r.s.data.rooms[roomID]
	if !ok {
		return model.Room{}, pgrepo.ErrRoomNotFound
	}
	return room, nil
}

func (r *RoomRepo) FindByCodeForUpdate(_ context.Context, _ pgx.Tx, code string, statuses []enums.RoomStatus) (model.Room, error) {
	defer r.s.read()()

	var (
		found model.Room
		ok    bool
	)
	for _, room := range r.s.data.rooms {
		if room.Code != code || !slices.Contains(statuses, room.Status) {
			continue
		}
		if !ok || room.CreatedAt.After(found.CreatedAt) {
			found, ok = room, true
		}
	}
	if !ok {
		return model.Room{}, pgrepo.ErrRoomNotFound
	}
	return found, nil
}

func (r *RoomRepo) UpdateStatus(ctx context.Context, _ pgx.Tx, roomID uuid.UUID, from, to enums.RoomStatus, now time.Time) (model.Room, error) {
	if !from.CanTransition(to) {
		return model.Room{}, fmt.Errorf("%w: %s -> %s", pgrepo.ErrInvalidTransition, from, to)
	}
	defer r.s.write(ctx)()

	room, ok := r.s.data.rooms[roomID]
	if !ok || room.Status != from {
		return model.Room{}, pgrepo.ErrStatusConflict
	}
	room.Status = to
	room.UpdatedAt = utc(now)
	r.s.data.rooms[roomID] = room
	return room, nil
}

func (r *RoomRepo) DeleteIfAbandoned(ctx context.Context, roomID, createdBy uuid.UUID) (bool, error) {
	defer r.s.write(ctx)()

	room, ok := r.s.data.rooms[roomID]
	if !ok || room.CreatedBy != createdBy || room.Status != enums.RoomStatusOpen {
		return false, nil
	}
	if r.s.countParticipants(roomID) > 1 {
		return false, nil
	}
	r.s.deleteRoom(roomID)
	return true, nil
}

func (r *RoomRepo) DeleteStaleOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	defer r.s.write(ctx)()

	ids := make([]uuid.UUID, 0)
	for id, room := range r.s.data.rooms {
		if room.Status != enums.RoomStatusOpen || !room.CreatedAt.Before(cutoff) {
			continue
		}
		if r.s.countParticipants(id) > 1 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		r.s.deleteRoom(id)
	}
	return ids, nil
}

// countParticipants and deleteRoom expect mu to be held.
func (s *Store) countParticipants(roomID uuid.UUID) int {
	n := 0
	for _, p := range s.data.participants {
		if p.RoomID == roomID {
			n++
		}
	}
	return n
}

func (s *Store) deleteRoom(roomID uuid.UUID) {
	for pid, p := range s.data.participants {
		if p.RoomID != roomID {
			continue
		}
		for sid, row := range s.data.swipes {
			if row.swipe.ParticipantID == pid {
				delete(s.data.swipes, sid)
			}
		}
		delete(s.data.participants, pid)
	}
	delete(s.data.rooms, roomID)
}
