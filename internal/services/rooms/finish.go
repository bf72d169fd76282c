package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
	"github.com/ivankudzin/mealmatch/internal/domain/rules"
	pgrepo "github.com/ivankudzin/mealmatch/internal/repo/postgres"
)

// FinishFeed marks the caller as done swiping and then checks whether the
// room is complete.
func (s *Service) FinishFeed(ctx context.Context, roomID, userID uuid.UUID) (model.Room, error) {
	if roomID == uuid.Nil || userID == uuid.Nil {
		return model.Room{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return model.Room{}, err
	}

	now := s.now().UTC()
	var (
		room        model.Room
		participant model.Participant
		changed     bool
	)
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		locked, err := s.rooms.GetByID(txCtx, tx, roomID, true)
		if err != nil {
			if errors.Is(err, pgrepo.ErrRoomNotFound) {
				return ErrNotFound
			}
			return err
		}
		room = locked

		current, err := s.participants.GetByRoomAndUser(txCtx, tx, roomID, userID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrParticipantNotFound) {
				return ErrForbidden
			}
			return err
		}
		if current.Status == enums.ParticipantStatusWaiting {
			participant = current
			return nil
		}
		if locked.Status == enums.RoomStatusOpen {
			return fmt.Errorf("%w: room is still waiting for a second participant", ErrInvariantViolation)
		}

		participant, err = s.participants.SetStatus(txCtx, tx, roomID, userID, enums.ParticipantStatusWaiting, now)
		if err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			s.logger.Error("finish feed rejected", zap.String("room_id", roomID.String()), zap.Error(err))
			return model.Room{}, err
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			return model.Room{}, err
		}
		return model.Room{}, fmt.Errorf("mark participant waiting: %w", err)
	}

	if changed {
		participantID := participant.ID
		s.publish(ctx, model.RoomEvent{
			Type:          enums.RoomEventParticipantWaiting,
			RoomID:        roomID,
			ParticipantID: &participantID,
			Status:        room.Status,
			OccurredAt:    now,
		})
	}

	return s.FinishIfReady(ctx, roomID)
}

// FinishIfReady moves a PLAYING room to FINISHED once every participant is
// WAITING. Participant statuses are re-read under the room lock, so two
// concurrent callers cannot both miss the transition. Calling it on a
// FINISHED room is a no-op.
func (s *Service) FinishIfReady(ctx context.Context, roomID uuid.UUID) (model.Room, error) {
	if roomID == uuid.Nil {
		return model.Room{}, ErrValidation
	}
	if err := s.ready(); err != nil {
		return model.Room{}, err
	}

	now := s.now().UTC()
	var (
		room     model.Room
		finished bool
	)
	err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		locked, err := s.rooms.GetByID(txCtx, tx, roomID, true)
		if err != nil {
			if errors.Is(err, pgrepo.ErrRoomNotFound) {
				return ErrNotFound
			}
			return err
		}
		room = locked
		if locked.Status == enums.RoomStatusFinished {
			return nil
		}

		participants, err := s.participants.ListByRoom(txCtx, tx, roomID)
		if err != nil {
			return err
		}
		if !allWaiting(participants) {
			return nil
		}
		if len(participants) < rules.RoomCapacity || locked.Status != enums.RoomStatusPlaying {
			return fmt.Errorf("%w: %d of %d participants in %s room", ErrInvariantViolation, len(participants), rules.RoomCapacity, locked.Status)
		}

		room, err = s.rooms.UpdateStatus(txCtx, tx, roomID, enums.RoomStatusPlaying, enums.RoomStatusFinished, now)
		if err != nil {
			return err
		}
		finished = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			s.logger.Error("finish room rejected", zap.String("room_id", roomID.String()), zap.Error(err))
			return model.Room{}, err
		}
		if errors.Is(err, ErrNotFound) {
			return model.Room{}, err
		}
		return model.Room{}, fmt.Errorf("finish room: %w", err)
	}

	if finished {
		s.logger.Info("room finished", zap.String("room_id", roomID.String()))
		s.publish(ctx, model.RoomEvent{
			Type:       enums.RoomEventRoomFinished,
			RoomID:     roomID,
			Status:     enums.RoomStatusFinished,
			OccurredAt: now,
		})
	}
	return room, nil
}

func allWaiting(participants []model.Participant) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		if p.Status != enums.ParticipantStatusWaiting {
			return false
		}
	}
	return true
}
