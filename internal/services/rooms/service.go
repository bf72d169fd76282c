package rooms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
	"github.com/ivankudzin/mealmatch/internal/domain/rules"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
	eventsvc "github.com/ivankudzin/mealmatch/internal/services/events"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrRateLimited        = errors.New("room creation rate limited")
	ErrNotFound           = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrForbidden          = errors.New("user is not allowed to access room")
	ErrCodeExhausted      = errors.New("could not allocate a unique room code")
	ErrInvariantViolation = errors.New("room invariant violated")
)

// RateLimitedError carries the remaining cooldown and matches ErrRateLimited.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %ds", ErrRateLimited.Error(), e.RetryAfterSec())
}

func (e RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

func (e RateLimitedError) RetryAfterSec() int64 {
	return rules.CeilSeconds(e.RetryAfter)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type RoomStore interface {
	LastCreatedAtByUser(ctx context.Context, userID uuid.UUID) (time.Time, bool, error)
	Create(ctx context.Context, tx pgx.Tx, code string, createdBy uuid.UUID, now time.Time) (model.Room, error)
	GetByID(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, forUpdate bool) (model.Room, error)
	FindByCodeForUpdate(ctx context.Context, tx pgx.Tx, code string, statuses []enums.RoomStatus) (model.Room, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, from, to enums.RoomStatus, now time.Time) (model.Room, error)
	DeleteIfAbandoned(ctx context.Context, roomID, createdBy uuid.UUID) (bool, error)
	DeleteStaleOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

type ParticipantStore interface {
	Create(ctx context.Context, tx pgx.Tx, roomID, userID uuid.UUID, now time.Time) (model.Participant, error)
	ListByRoom(ctx context.Context, tx pgx.Tx, roomID uuid.UUID) ([]model.Participant, error)
	GetByRoomAndUser(ctx context.Context, tx pgx.Tx, roomID, userID uuid.UUID) (model.Participant, error)
	SetStatus(ctx context.Context, tx pgx.Tx, roomID, userID uuid.UUID, status enums.ParticipantStatus, now time.Time) (model.Participant, error)
}

type Config struct {
	CreationCooldown time.Duration
	CodeAttempts     int
	// AllowRejoin lets existing participants look a PLAYING room up by code.
	// New users are only ever admitted to OPEN rooms.
	AllowRejoin bool
}

type Dependencies struct {
	Tx           TxRunner
	Rooms        RoomStore
	Participants ParticipantStore
	Publisher    eventsvc.Publisher
	Subscriber   eventsvc.Subscriber
	Logger       *zap.Logger
}

// RoomView is a room together with its participants.
type RoomView struct {
	Room         model.Room          `json:"room"`
	Participants []model.Participant `json:"participants"`
}

type Service struct {
	tx           TxRunner
	rooms        RoomStore
	participants ParticipantStore
	publisher    eventsvc.Publisher
	subscriber   eventsvc.Subscriber
	logger       *zap.Logger
	cfg          Config
	now          func() time.Time
	newCode      func() (string, error)
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.CreationCooldown <= 0 {
		cfg.CreationCooldown = rules.RoomCreationCooldown
	}
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 5
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = eventsvc.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tx:           deps.Tx,
		rooms:        deps.Rooms,
		participants: deps.Participants,
		publisher:    publisher,
		subscriber:   deps.Subscriber,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
		newCode: func() (string, error) {
			return rules.NewRoomCode(nil)
		},
	}
}

func (s *Service) ready() error {
	if s.tx == nil || s.rooms == nil || s.participants == nil {
		return fmt.Errorf("room dependencies are not configured")
	}
	return nil
}

// CreateRoom opens a room with a fresh join code and the creator as its first
// participant. Code collisions with live rooms are retried with a new code.
func (s *Service) CreateRoom(ctx context.Context, userID uuid.UUID) (model.Room, error) {
	if userID == uuid.Nil {
		return model.Room{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return model.Room{}, err
	}

	now := s.now().UTC()
	lastCreatedAt, found, err := s.rooms.LastCreatedAtByUser(ctx, userID)
	if err != nil {
		return model.Room{}, fmt.Errorf("load last created room: %w", err)
	}
	if found {
		if wait := rules.CooldownRemaining(lastCreatedAt, now, s.cfg.CreationCooldown); wait > 0 {
			return model.Room{}, RateLimitedError{RetryAfter: wait}
		}
	}

	for attempt := 1; attempt <= s.cfg.CodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return model.Room{}, fmt.Errorf("generate room code: %w", err)
		}

		var room model.Room
		err = s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
			created, err := s.rooms.Create(txCtx, tx, code, userID, now)
			if err != nil {
				return err
			}
			if _, err := s.participants.Create(txCtx, tx, created.ID, userID, now); err != nil {
				return err
			}
			room = created
			return nil
		})
		if errors.Is(err, pgrepo.ErrRoomCodeTaken) {
			s.logger.Debug("room code collision, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return model.Room{}, fmt.Errorf("create room: %w", err)
		}

		s.logger.Info("room created",
			zap.String("room_id", room.ID.String()),
			zap.String("user_id", userID.String()),
		)
		return room, nil
	}

	return model.Room{}, ErrCodeExhausted
}

// JoinRoom admits userID to the room carrying code. Joining twice returns the
// room unchanged. The second participant moves the room to PLAYING under a
// row lock, so the transition happens once.
func (s *Service) JoinRoom(ctx context.Context, code string, userID uuid.UUID) (model.Room, error) {
	code = rules.NormalizeRoomCode(code)
	if userID == uuid.Nil || !rules.ValidRoomCode(code) {
		return model.Room{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return model.Room{}, err
	}

	statuses := []enums.RoomStatus{enums.RoomStatusOpen}
	if s.cfg.AllowRejoin {
		statuses = append(statuses, enums.RoomStatusPlaying)
	}

	now := s.now().UTC()
	var (
		room   model.Room
		joined *model.Participant
	)
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		locked, err := s.rooms.FindByCodeForUpdate(txCtx, tx, code, statuses)
		if err != nil {
			if errors.Is(err, pgrepo.ErrRoomNotFound) {
				return ErrNotFound
			}
			return err
		}

		participants, err := s.participants.ListByRoom(txCtx, tx, locked.ID)
		if err != nil {
			return err
		}
		for _, p := range participants {
			if p.UserID == userID {
				room = locked
				return nil
			}
		}

		if locked.Status != enums.RoomStatusOpen {
			return ErrNotFound
		}
		if len(participants) >= rules.RoomCapacity {
			return ErrRoomFull
		}

		p, err := s.participants.Create(txCtx, tx, locked.ID, userID, now)
		if err != nil {
			return err
		}
		joined = &p

		// the second participant starts the game
		if len(participants)+1 == rules.RoomCapacity {
			locked, err = s.rooms.UpdateStatus(txCtx, tx, locked.ID, enums.RoomStatusOpen, enums.RoomStatusPlaying, now)
			if err != nil {
				return err
			}
		}
		room = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRoomFull) {
			return model.Room{}, err
		}
		return model.Room{}, fmt.Errorf("join room: %w", err)
	}

	if joined != nil {
		participantID := joined.ID
		s.publish(ctx, model.RoomEvent{
			Type:          enums.RoomEventParticipantJoined,
			RoomID:        room.ID,
			ParticipantID: &participantID,
			Status:        room.Status,
			OccurredAt:    now,
		})
	}
	return room, nil
}

// AbandonRoom deletes a room its creator gave up on. It only succeeds while
// the room is OPEN with no second participant; otherwise it reports false.
func (s *Service) AbandonRoom(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	if roomID == uuid.Nil || userID == uuid.Nil {
		return false, ErrValidation
	}
	if err := s.ready(); err != nil {
		return false, err
	}

	room, err := s.rooms.GetByID(ctx, nil, roomID, false)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRoomNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("load room: %w", err)
	}
	if room.CreatedBy != userID {
		return false, ErrForbidden
	}

	deleted, err := s.rooms.DeleteIfAbandoned(ctx, roomID, userID)
	if err != nil {
		s.logger.Error("abandon room failed", zap.String("room_id", roomID.String()), zap.Error(err))
		return false, fmt.Errorf("abandon room: %w", err)
	}
	if deleted {
		s.publish(ctx, model.RoomEvent{
			Type:       enums.RoomEventRoomAbandoned,
			RoomID:     roomID,
			Status:     enums.RoomStatusOpen,
			OccurredAt: s.now().UTC(),
		})
	}
	return deleted, nil
}

// ExpireOpenRooms deletes OPEN rooms older than ttl that never got a second
// participant.
func (s *Service) ExpireOpenRooms(ctx context.Context, ttl time.Duration) ([]uuid.UUID, error) {
	if s.rooms == nil {
		return nil, fmt.Errorf("room dependencies are not configured")
	}
	if ttl <= 0 {
		ttl = rules.OpenRoomTTL
	}

	now := s.now().UTC()
	ids, err := s.rooms.DeleteStaleOpen(ctx, now.Add(-ttl))
	if err != nil {
		return nil, fmt.Errorf("delete stale open rooms: %w", err)
	}
	for _, id := range ids {
		s.publish(ctx, model.RoomEvent{
			Type:       enums.RoomEventRoomAbandoned,
			RoomID:     id,
			Status:     enums.RoomStatusOpen,
			OccurredAt: now,
		})
	}
	return ids, nil
}

func (s *Service) GetRoom(ctx context.Context, roomID, userID uuid.UUID) (RoomView, error) {
	if roomID == uuid.Nil || userID == uuid.Nil {
		return RoomView{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return RoomView{}, err
	}

	room, err := s.rooms.GetByID(ctx, nil, roomID, false)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRoomNotFound) {
			return RoomView{}, ErrNotFound
		}
		return RoomView{}, fmt.Errorf("load room: %w", err)
	}

	participants, err := s.participants.ListByRoom(ctx, nil, roomID)
	if err != nil {
		return RoomView{}, fmt.Errorf("list participants: %w", err)
	}
	if !containsUser(participants, userID) {
		return RoomView{}, ErrForbidden
	}

	return RoomView{Room: room, Participants: participants}, nil
}

// Subscribe streams events of a room the user participates in. Delivery is
// best effort; consumers re-read the room after each event.
func (s *Service) Subscribe(ctx context.Context, roomID, userID uuid.UUID) (<-chan model.RoomEvent, func(), error) {
	if s.subscriber == nil {
		return nil, nil, fmt.Errorf("room event subscriber is not configured")
	}
	if _, err := s.GetRoom(ctx, roomID, userID); err != nil {
		return nil, nil, err
	}
	return s.subscriber.Subscribe(ctx, roomID)
}

func (s *Service) publish(ctx context.Context, event model.RoomEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish room event failed",
			zap.String("type", string(event.Type)),
			zap.String("room_id", event.RoomID.String()),
			zap.Error(err),
		)
	}
}

func containsUser(participants []model.Participant, userID uuid.UUID) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
