package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []time.Duration
	ids   []uuid.UUID
	err   error
}

func (f *fakeExpirer) ExpireOpenRooms(_ context.Context, ttl time.Duration) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ttl)
	return f.ids, f.err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRunPassesConfiguredTTL(t *testing.T) {
	expirer := &fakeExpirer{ids: []uuid.UUID{uuid.New()}}
	job := NewRoomSweepJob(expirer, 20*time.Minute, time.Minute, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(expirer.calls) != 1 || expirer.calls[0] != 20*time.Minute {
		t.Fatalf("unexpected calls %v", expirer.calls)
	}
}

func TestRunDefaultsTTL(t *testing.T) {
	expirer := &fakeExpirer{}
	job := NewRoomSweepJob(expirer, 0, 0, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if expirer.calls[0] != 15*time.Minute {
		t.Fatalf("expected default ttl, got %s", expirer.calls[0])
	}
}

func TestRunWrapsError(t *testing.T) {
	boom := errors.New("boom")
	job := NewRoomSweepJob(&fakeExpirer{err: boom}, time.Minute, time.Minute, nil)

	if err := job.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("transient")}
	job := NewRoomSweepJob(expirer, time.Minute, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for expirer.callCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("sweep did not keep running after failure")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("start did not return after cancel")
	}
}
