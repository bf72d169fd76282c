package matches

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrRoomNotFound    = errors.New("room not found")
	ErrForbidden       = errors.New("user is not a room participant")
	ErrRoomNotFinished = errors.New("room is not finished")
)

type RoomReader interface {
	GetByID(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, forUpdate bool) (model.Room, error)
}

type ParticipantReader interface {
	ListByRoom(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]model.Participant, error)
}

type LikeReader interface {
	ListLikesByRoom(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]model.RoomLike, error)
}

type MealReader interface {
	GetByID(ctx context.Context, mealID int64) (model.Meal, error)
}

type ImageResolver interface {
	ImageURL(ctx context.Context, ref string) (string, error)
}

type Config struct {
	TopN int
}

type Dependencies struct {
	Rooms        RoomReader
	Participants ParticipantReader
	Likes        LikeReader
	Meals        MealReader
	Images       ImageResolver
	Logger       *zap.Logger
}

type Service struct {
	rooms        RoomReader
	participants ParticipantReader
	likes        LikeReader
	meals        MealReader
	images       ImageResolver
	logger       *zap.Logger
	cfg          Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		rooms:        deps.Rooms,
		participants: deps.Participants,
		likes:        deps.Likes,
		meals:        deps.Meals,
		images:       deps.Images,
		logger:       logger,
		cfg:          cfg,
	}
}

// ComputeMatches ranks the meals both participants liked. It reads the
// stored swipes every time, so repeated calls on the same data return the
// same list. Unless allowPartial is set the room must be FINISHED.
func (s *Service) ComputeMatches(ctx context.Context, roomID, userID uuid.UUID, allowPartial bool) ([]model.MatchResult, error) {
	if roomID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrValidation
	}
	if s.rooms == nil || s.participants == nil || s.likes == nil || s.meals == nil {
		return nil, fmt.Errorf("match dependencies are not configured")
	}

	room, err := s.rooms.GetByID(ctx, nil, roomID, false)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("load room: %w", err)
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
		return nil, ErrForbidden
	}
	if !allowPartial && room.Status != enums.RoomStatusFinished {
		return nil, ErrRoomNotFinished
	}

	likes, err := s.likes.ListLikesByRoom(ctx, nil, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room likes: %w", err)
	}

	// Cut after resolving meals so a meal missing from the catalog does not
	// cost a slot.
	candidates := Rank(likes, len(participants))
	results := make([]model.MatchResult, 0, min(len(candidates), s.cfg.TopN))
	for _, c := range candidates {
		if len(results) == s.cfg.TopN {
			break
		}
		meal, err := s.meals.GetByID(ctx, c.MealID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrMealNotFound) {
				s.logger.Warn("matched meal missing from catalog", zap.Int64("meal_id", c.MealID))
				continue
			}
			return nil, fmt.Errorf("load meal: %w", err)
		}

		result := model.MatchResult{
			Meal:                  meal,
			SharedCharacteristics: c.SharedCharacteristics,
			LikeCount:             c.LikeCount,
			Score:                 c.Score,
		}
		if s.images != nil && meal.ImageRef != "" {
			url, err := s.images.ImageURL(ctx, meal.ImageRef)
			if err != nil {
				s.logger.Warn("resolve meal image failed", zap.Int64("meal_id", meal.ID), zap.Error(err))
			}
			result.ImageURL = url
		}
		results = append(results, result)
	}
	return results, nil
}
