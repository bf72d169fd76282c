package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
)

type SwipeRepo struct {
	s *Store
}

func (r *SwipeRepo) Insert(ctx context.Context, _ pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	if err := validateSwipe(swipe); err != nil {
		return model.Swipe{}, err
	}
	defer r.s.write(ctx)()

	if err := r.s.checkSwipeRefs(swipe); err != nil {
		return model.Swipe{}, err
	}
	if _, ok := r.s.findSwipe(swipe.ParticipantID, swipe.MealID); ok {
		return model.Swipe{}, pgrepo.ErrSwipeExists
	}
	return r.s.putSwipe(uuid.New(), swipe), nil
}

func (r *SwipeRepo) Upsert(ctx context.Context, _ pgx.Tx, swipe model.Swipe) (model.Swipe, error) {
	if err := validateSwipe(swipe); err != nil {
		return model.Swipe{}, err
	}
	defer r.s.write(ctx)()

	if err := r.s.checkSwipeRefs(swipe); err != nil {
		return model.Swipe{}, err
	}
	id := uuid.New()
	if existing, ok := r.s.findSwipe(swipe.ParticipantID, swipe.MealID); ok {
		id = existing
	}
	return r.s.putSwipe(id, swipe), nil
}

func (r *SwipeRepo) Exists(_ context.Context, participantID uuid.UUID, mealID int64) (bool, error) {
	defer r.s.read()()

	_, ok := r.s.findSwipe(participantID, mealID)
	return ok, nil
}

func (r *SwipeRepo) ListByParticipant(_ context.Context, participantID uuid.UUID) ([]model.Swipe, error) {
	defer r.s.read()()

	rows := make([]swipeRow, 0)
	for _, row := range r.s.data.swipes {
		if row.swipe.ParticipantID == participantID {
			rows = append(rows, row)
		}
	}
	sortSwipeRows(rows)

	items := make([]model.Swipe, 0, len(rows))
	for _, row := range rows {
		s := row.swipe
		s.Characteristics = slices.Clone(s.Characteristics)
		items = append(items, s)
	}
	return items, nil
}

func (r *SwipeRepo) ListLikesByRoom(_ context.Context, _ pgx.Tx, roomID uuid.UUID) ([]model.RoomLike, error) {
	defer r.s.read()()

	rows := make([]swipeRow, 0)
	for _, row := range r.s.data.swipes {
		if row.swipe.Action != enums.SwipeActionLike {
			continue
		}
		p, ok := r.s.data.participants[row.swipe.ParticipantID]
		if !ok || p.RoomID != roomID {
			continue
		}
		rows = append(rows, row)
	}
	sortSwipeRows(rows)

	likes := make([]model.RoomLike, 0, len(rows))
	for _, row := range rows {
		likes = append(likes, model.RoomLike{
			ParticipantID:   row.swipe.ParticipantID,
			MealID:          row.swipe.MealID,
			Characteristics: slices.Clone(row.swipe.Characteristics),
			CreatedAt:       row.swipe.CreatedAt,
		})
	}
	return likes, nil
}

// The helpers below expect mu to be held.
func (s *Store) checkSwipeRefs(swipe model.Swipe) error {
	if _, ok := s.data.participants[swipe.ParticipantID]; !ok {
		return pgrepo.ErrParticipantNotFound
	}
	if _, ok := s.data.meals[swipe.MealID]; !ok {
		return pgrepo.ErrMealNotFound
	}
	return nil
}

func (s *Store) findSwipe(participantID uuid.UUID, mealID int64) (uuid.UUID, bool) {
	for id, row := range s.data.swipes {
		if row.swipe.ParticipantID == participantID && row.swipe.MealID == mealID {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (s *Store) putSwipe(id uuid.UUID, swipe model.Swipe) model.Swipe {
	s.data.nextSeq++
	swipe.ID = id
	swipe.CreatedAt = utc(swipe.CreatedAt)
	swipe.Characteristics = nonNil(slices.Clone(swipe.Characteristics))
	s.data.swipes[id] = swipeRow{swipe: swipe, seq: s.data.nextSeq}

	out := swipe
	out.Characteristics = slices.Clone(swipe.Characteristics)
	return out
}

func sortSwipeRows(rows []swipeRow) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].swipe.CreatedAt.Equal(rows[j].swipe.CreatedAt) {
			return rows[i].swipe.CreatedAt.Before(rows[j].swipe.CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})
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
