package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/rules"
)

type roomExpirer interface {
	ExpireOpenRooms(ctx context.Context, ttl time.Duration) ([]uuid.UUID, error)
}

// Job removes rooms that never got a second participant.
type Job struct {
	rooms    roomExpirer
	openTTL  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

func NewRoomSweepJob(rooms roomExpirer, openTTL, interval time.Duration, logger *zap.Logger) *Job {
	if openTTL <= 0 {
		openTTL = rules.OpenRoomTTL
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		rooms:    rooms,
		openTTL:  openTTL,
		interval: interval,
		logger:   logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.rooms == nil {
		return nil
	}

	expired, err := j.rooms.ExpireOpenRooms(ctx, j.openTTL)
	if err != nil {
		return fmt.Errorf("expire open rooms: %w", err)
	}
	if len(expired) > 0 {
		j.logger.Info("cleanup stale rooms completed", zap.Int("deleted", len(expired)))
	}
	return nil
}

// Start runs the sweep on every tick until ctx is done. Failures are logged
// and the next tick retries.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("room sweep failed", zap.Error(err))
			}
		}
	}
}
