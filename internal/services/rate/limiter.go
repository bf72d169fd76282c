package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/rules"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Window is one fixed window: at most Limit actions per Size.
type Window struct {
	Name  string
	Size  time.Duration
	Limit int
}

// Limiter counts one action per user across several windows. An action is
// allowed only when every window still has room.
type Limiter struct {
	store   WindowStore
	action  string
	windows []Window
}

// NewLimiter drops windows with a non-positive limit or size, so a zero
// limit in config disables that window.
func NewLimiter(store WindowStore, action string, windows ...Window) *Limiter {
	active := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Limit > 0 && w.Size > 0 {
			active = append(active, w)
		}
	}
	return &Limiter{store: store, action: action, windows: active}
}

// NewSwipeLimiter caps swipe bursts over a one minute and a ten second window.
func NewSwipeLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	return NewLimiter(store, "swipes",
		Window{Name: "min", Size: time.Minute, Limit: perMinute},
		Window{Name: "10s", Size: 10 * time.Second, Limit: per10Sec},
	)
}

// Allow consumes a slot in every window and returns the longest wait among
// the windows that overflowed.
func (l *Limiter) Allow(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	if err := l.check(userID); err != nil {
		return 0, false, err
	}

	var retryAfterSec int64
	for _, w := range l.windows {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key(w, userID), w.Size)
		if err != nil {
			return 0, false, fmt.Errorf("%s %s window: %w", l.action, w.Name, err)
		}
		if count > int64(w.Limit) {
			retryAfterSec = max(retryAfterSec, max(rules.CeilSeconds(ttl), 1))
		}
	}
	return retryAfterSec, retryAfterSec == 0, nil
}

// RetryAfter reports the current wait without consuming a slot.
func (l *Limiter) RetryAfter(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := l.check(userID); err != nil {
		return 0, err
	}

	var retryAfterSec int64
	for _, w := range l.windows {
		count, ttl, err := l.store.WindowState(ctx, l.key(w, userID))
		if err != nil {
			return 0, fmt.Errorf("%s %s window: %w", l.action, w.Name, err)
		}
		if count >= int64(w.Limit) {
			retryAfterSec = max(retryAfterSec, max(rules.CeilSeconds(ttl), 1))
		}
	}
	return retryAfterSec, nil
}

func (l *Limiter) check(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user id")
	}
	if l.store == nil && len(l.windows) > 0 {
		return fmt.Errorf("rate limiter store is nil")
	}
	return nil
}

func (l *Limiter) key(w Window, userID uuid.UUID) string {
	return "rate:" + l.action + ":" + w.Name + ":" + userID.String()
}
