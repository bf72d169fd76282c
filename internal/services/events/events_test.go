package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/mealmatch/internal/domain/enums"
	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.RoomEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event model.RoomEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingPublisher) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func TestFanoutReturnsOnlyPrimaryErrors(t *testing.T) {
	primary := &recordingPublisher{}
	sink := &recordingPublisher{err: errors.New("kafka down")}
	fanout := NewFanout(primary, nil, sink, nil)

	event := model.RoomEvent{Type: enums.RoomEventRoomFinished, RoomID: uuid.New()}
	if err := fanout.Publish(context.Background(), event); err != nil {
		t.Fatalf("expected sink error to be swallowed, got %v", err)
	}

	primary.fail(errors.New("redis down"))
	if err := fanout.Publish(context.Background(), event); err == nil {
		t.Fatalf("expected primary error")
	}

	fanout.Close()
	if primary.count() != 2 || sink.count() != 2 {
		t.Fatalf("expected both publishers to see both events, primary=%d sink=%d", primary.count(), sink.count())
	}
}

type blockingPublisher struct {
	release chan struct{}
	got     chan model.RoomEvent
}

func (p *blockingPublisher) Publish(_ context.Context, event model.RoomEvent) error {
	<-p.release
	p.got <- event
	return nil
}

func TestFanoutSlowSinkDoesNotDelayPrimary(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	roomID := uuid.New()
	ch, cancel, err := bus.Subscribe(context.Background(), roomID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	sink := &blockingPublisher{release: make(chan struct{}), got: make(chan model.RoomEvent, 1)}
	fanout := NewFanout(bus, nil, sink)

	published := make(chan error, 1)
	go func() {
		published <- fanout.Publish(context.Background(), model.RoomEvent{Type: enums.RoomEventParticipantJoined, RoomID: roomID})
	}()

	select {
	case err := <-published:
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("publish blocked on a slow sink")
	}
	select {
	case got := <-ch:
		if got.RoomID != roomID {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("subscriber did not receive the event while the sink was stalled")
	}

	close(sink.release)
	select {
	case got := <-sink.got:
		if got.RoomID != roomID {
			t.Fatalf("sink got unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("sink never received the event")
	}
	fanout.Close()
}

func TestLocalBusDeliversPerRoom(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	roomA, roomB := uuid.New(), uuid.New()
	eventsA, cancelA, err := bus.Subscribe(context.Background(), roomA)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancelA()

	_ = bus.Publish(context.Background(), model.RoomEvent{Type: enums.RoomEventRoomFinished, RoomID: roomB})
	_ = bus.Publish(context.Background(), model.RoomEvent{Type: enums.RoomEventParticipantJoined, RoomID: roomA})

	select {
	case got := <-eventsA:
		if got.RoomID != roomA || got.Type != enums.RoomEventParticipantJoined {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestLocalBusClosesOnContextDone(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _, err := bus.Subscribe(ctx, uuid.New())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription not closed after context cancel")
	}
}
