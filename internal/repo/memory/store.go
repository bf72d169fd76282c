// Package memory is a process-local implementation of the room, swipe, meal
// and preference stores. It backs the "memory" storage driver and tests.
//
// Isolation is weaker than Postgres: writes are serialised against running
// transactions, but reads outside a transaction only take the data lock and
// may observe rows a running transaction has not committed yet. Such a row
// disappears again if that transaction rolls back. Reads inside WithTx see
// a consistent view because transactions run one at a time.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type txKey struct{}

type swipeRow struct {
	swipe model.Swipe
	seq   int64
}

type state struct {
	rooms        map[uuid.UUID]model.Room
	participants map[uuid.UUID]model.Participant
	swipes       map[uuid.UUID]swipeRow
	meals        map[int64]model.Meal
	preferences  map[uuid.UUID]model.UserPreferences
	nextMealID   int64
	nextSeq      int64
}

func (s state) clone() state {
	c := state{
		rooms:        make(map[uuid.UUID]model.Room, len(s.rooms)),
		participants: make(map[uuid.UUID]model.Participant, len(s.participants)),
		swipes:       make(map[uuid.UUID]swipeRow, len(s.swipes)),
		meals:        make(map[int64]model.Meal, len(s.meals)),
		preferences:  make(map[uuid.UUID]model.UserPreferences, len(s.preferences)),
		nextMealID:   s.nextMealID,
		nextSeq:      s.nextSeq,
	}
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.participants {
		c.participants[k] = v
	}
	for k, v := range s.swipes {
		v.swipe.Characteristics = slices.Clone(v.swipe.Characteristics)
		c.swipes[k] = v
	}
	for k, v := range s.meals {
		c.meals[k] = cloneMeal(v)
	}
	for k, v := range s.preferences {
		v.Preferences = slices.Clone(v.Preferences)
		c.preferences[k] = v
	}
	return c
}

// Store serialises transactions with txMu and guards data with mu. A failed
// transaction restores the snapshot taken when it began.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state
}

func NewStore() *Store {
	return &Store{data: state{
		rooms:        make(map[uuid.UUID]model.Room),
		participants: make(map[uuid.UUID]model.Participant),
		swipes:       make(map[uuid.UUID]swipeRow),
		meals:        make(map[int64]model.Meal),
		preferences:  make(map[uuid.UUID]model.UserPreferences),
	}}
}

// WithTx runs fn with a nil pgx.Tx. Repositories of this package accept the
// nil transaction; callers must use the context handed to fn.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if inTx(ctx) {
		return fn(ctx, nil)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true), nil); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Rooms() *RoomRepo               { return &RoomRepo{s: s} }
func (s *Store) Participants() *ParticipantRepo { return &ParticipantRepo{s: s} }
func (s *Store) Swipes() *SwipeRepo             { return &SwipeRepo{s: s} }
func (s *Store) Meals() *MealRepo               { return &MealRepo{s: s} }
func (s *Store) Preferences() *PreferenceRepo   { return &PreferenceRepo{s: s} }

// write locks for a mutation. Outside a transaction it also waits for
// running transactions so a rollback cannot undo the write.
func (s *Store) write(ctx context.Context) func() {
	if inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *Store) read() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func cloneMeal(m model.Meal) model.Meal {
	m.Characteristics = nonNil(slices.Clone(m.Characteristics))
	m.DietaryPreferences = nonNil(slices.Clone(m.DietaryPreferences))
	return m
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
