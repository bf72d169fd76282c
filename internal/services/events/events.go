package events

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type Publisher interface {
	Publish(ctx context.Context, event model.RoomEvent) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan model.RoomEvent, func(), error)
}

// Fanout publishes to a primary transport and hands the event to a list of
// best-effort sinks. Only a primary failure is returned. Sinks run on a
// background worker so a slow sink never delays primary delivery; when the
// sink queue is full the event is dropped for the sinks and logged.
type Fanout struct {
	primary Publisher
	sinks   []Publisher
	logger  *zap.Logger

	queue     chan model.RoomEvent
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

const fanoutQueueSize = 256

func NewFanout(primary Publisher, logger *zap.Logger, sinks ...Publisher) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make([]Publisher, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	f := &Fanout{
		primary: primary,
		sinks:   kept,
		logger:  logger,
		queue:   make(chan model.RoomEvent, fanoutQueueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *Fanout) Publish(ctx context.Context, event model.RoomEvent) error {
	var err error
	if f.primary != nil {
		err = f.primary.Publish(ctx, event)
	}
	if len(f.sinks) == 0 {
		return err
	}

	select {
	case <-f.stop:
	case f.queue <- event:
	default:
		f.logger.Warn("room event sink queue full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("room_id", event.RoomID.String()),
		)
	}
	return err
}

// Close stops the sink worker after it drains events already queued.
func (f *Fanout) Close() {
	f.closeOnce.Do(func() { close(f.stop) })
	<-f.done
}

func (f *Fanout) run() {
	defer close(f.done)
	for {
		select {
		case event := <-f.queue:
			f.deliver(event)
		case <-f.stop:
			for {
				select {
				case event := <-f.queue:
					f.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (f *Fanout) deliver(event model.RoomEvent) {
	for _, sink := range f.sinks {
		if err := sink.Publish(context.Background(), event); err != nil {
			f.logger.Warn("room event sink failed",
				zap.String("type", string(event.Type)),
				zap.String("room_id", event.RoomID.String()),
				zap.Error(err),
			)
		}
	}
}

type Nop struct{}

func (Nop) Publish(context.Context, model.RoomEvent) error { return nil }

var ErrBusClosed = errors.New("event bus closed")

// LocalBus is an in-process Publisher and Subscriber used when Redis is not
// part of the deployment. Slow subscribers drop events instead of blocking
// publishers.
type LocalBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[uuid.UUID]map[int]chan model.RoomEvent
	closed bool
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[uuid.UUID]map[int]chan model.RoomEvent)}
}

func (b *LocalBus) Publish(_ context.Context, event model.RoomEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	for _, ch := range b.subs[event.RoomID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan model.RoomEvent, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, ErrBusClosed
	}
	id := b.nextID
	b.nextID++
	ch := make(chan model.RoomEvent, 16)
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[int]chan model.RoomEvent)
	}
	b.subs[roomID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if room, ok := b.subs[roomID]; ok {
				if _, ok := room[id]; ok {
					delete(room, id)
					close(ch)
				}
				if len(room) == 0 {
					delete(b.subs, roomID)
				}
			}
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}

func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for roomID, room := range b.subs {
		for id, ch := range room {
			close(ch)
			delete(room, id)
		}
		delete(b.subs, roomID)
	}
}
