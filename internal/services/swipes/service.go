package swipes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUnsupportedAction   = errors.New("unsupported action")
	ErrDuplicateSwipe      = errors.New("swipe already recorded")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomNotPlaying      = errors.New("room is not accepting swipes")
	ErrMealNotFound        = errors.New("meal not found")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return fmt.Sprintf("too many swipes, retry after %ds", e.RetryAfterSec)
}

type RoomReader interface {
	GetByID(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, forUpdate bool) (model.Room, error)
}

type ParticipantReader interface {
	GetByRoomAndUser(ctx context.Context, tx pgx.Tx, roomID, userID uuid.UUID) (model.Participant, error)
	ListByRoom(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]model.Participant, error)
}

type SwipeStore interface {
	Insert(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error)
	Upsert(ctx context.Context, tx pgx.Tx, swipe model.Swipe) (model.Swipe, error)
	Exists(ctx context.Context, participantID uuid.UUID, mealID int64) (bool, error)
	ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]model.Swipe, error)
}

type MealReader interface {
	GetByID(ctx context.Context, mealID int64) (model.Meal, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, userID uuid.UUID) (int64, bool, error)
}

type Config struct {
	DuplicatePolicy enums.DuplicateSwipePolicy
}

type Dependencies struct {
	Rooms        RoomReader
	Participants ParticipantReader
	Swipes       SwipeStore
	Meals        MealReader
	RateLimiter  RateLimiter
	Logger       *zap.Logger
}

type Service struct {
	rooms        RoomReader
	participants ParticipantReader
	swipes       SwipeStore
	meals        MealReader
	rateLimiter  RateLimiter
	logger       *zap.Logger
	cfg          Config
	now          func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DuplicatePolicy != enums.DuplicateSwipeOverwrite {
		cfg.DuplicatePolicy = enums.DuplicateSwipeReject
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		rooms:        deps.Rooms,
		participants: deps.Participants,
		swipes:       deps.Swipes,
		meals:        deps.Meals,
		rateLimiter:  deps.RateLimiter,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Record stores the caller's decision on a meal. It never changes the
// participant status; callers report feed exhaustion through the room
// lifecycle. Under the reject policy a second decision returns
// ErrDuplicateSwipe and the first one stands.
func (s *Service) Record(ctx context.Context, roomID, userID uuid.UUID, mealID int64, action string) (model.Swipe, error) {
	if roomID == uuid.Nil || userID == uuid.Nil || mealID <= 0 {
		return model.Swipe{}, ErrValidation
	}
	normalized, ok := enums.ParseSwipeAction(action)
	if !ok {
		return model.Swipe{}, ErrUnsupportedAction
	}
	if s.rooms == nil || s.participants == nil || s.swipes == nil || s.meals == nil {
		return model.Swipe{}, fmt.Errorf("swipe dependencies are not configured")
	}

	participant, err := s.participants.GetByRoomAndUser(ctx, nil, roomID, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrParticipantNotFound) {
			return model.Swipe{}, ErrParticipantNotFound
		}
		return model.Swipe{}, fmt.Errorf("resolve participant: %w", err)
	}

	room, err := s.rooms.GetByID(ctx, nil, roomID, false)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRoomNotFound) {
			return model.Swipe{}, ErrRoomNotFound
		}
		return model.Swipe{}, fmt.Errorf("load room: %w", err)
	}
	if room.Status != enums.RoomStatusPlaying {
		return model.Swipe{}, ErrRoomNotPlaying
	}

	meal, err := s.meals.GetByID(ctx, mealID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMealNotFound) {
			return model.Swipe{}, ErrMealNotFound
		}
		return model.Swipe{}, fmt.Errorf("load meal: %w", err)
	}

	// Repeated taps on a decided meal are no-ops and must not use up the
	// burst budget.
	rejectDuplicates := s.cfg.DuplicatePolicy != enums.DuplicateSwipeOverwrite
	if rejectDuplicates {
		exists, err := s.swipes.Exists(ctx, participant.ID, meal.ID)
		if err != nil {
			return model.Swipe{}, fmt.Errorf("check swipe: %w", err)
		}
		if exists {
			return model.Swipe{}, ErrDuplicateSwipe
		}
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, userID)
		if err != nil {
			s.logger.Warn("swipe rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return model.Swipe{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	swipe := model.Swipe{
		ParticipantID:   participant.ID,
		MealID:          meal.ID,
		Action:          normalized,
		Characteristics: meal.Characteristics,
		CreatedAt:       s.now().UTC(),
	}

	if !rejectDuplicates {
		stored, err := s.swipes.Upsert(ctx, nil, swipe)
		if err != nil {
			return model.Swipe{}, fmt.Errorf("upsert swipe: %w", err)
		}
		return stored, nil
	}

	stored, err := s.swipes.Insert(ctx, nil, swipe)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSwipeExists) {
			return model.Swipe{}, ErrDuplicateSwipe
		}
		return model.Swipe{}, fmt.Errorf("insert swipe: %w", err)
	}
	return stored, nil
}

// History returns every swipe recorded in the room, oldest first.
func (s *Service) History(ctx context.Context, roomID, userID uuid.UUID) ([]model.Swipe, error) {
	if roomID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrValidation
	}
	if s.participants == nil || s.swipes == nil {
		return nil, fmt.Errorf("swipe dependencies are not configured")
	}

	participants, err := s.participants.ListByRoom(ctx, nil, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	member := false
	for _, p := range participants {
		if p.UserID == userID {
			member = true
			break
		}
	}
	if !member {
		return nil, ErrParticipantNotFound
	}

	history := make([]model.Swipe, 0)
	for _, p := range participants {
		items, err := s.swipes.ListByParticipant(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list swipes: %w", err)
		}
		history = append(history, items...)
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history, nil
}
