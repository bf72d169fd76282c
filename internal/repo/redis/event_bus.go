package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

const subscriberBuffer = 16

// EventBus carries room events over Redis pub/sub, one channel per room.
// Delivery is at most once per subscriber; consumers re-read room state.
type EventBus struct {
	client *goredis.Client
	logger *zap.Logger
}

func NewEventBus(client *goredis.Client, logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{client: client, logger: logger}
}

func RoomChannel(roomID uuid.UUID) string {
	return "rooms:" + roomID.String() + ":events"
}

func (b *EventBus) Publish(ctx context.Context, event model.RoomEvent) error {
	if b.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if event.RoomID == uuid.Nil {
		return fmt.Errorf("room id is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode room event: %w", err)
	}
	if err := b.client.Publish(ctx, RoomChannel(event.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("publish room event: %w", err)
	}
	return nil
}

// Subscribe waits for the subscription to be confirmed before returning, so
// events published after Subscribe returns are not missed. The channel is
// closed when ctx ends or cancel is called.
func (b *EventBus) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan model.RoomEvent, func(), error) {
	if b.client == nil {
		return nil, nil, fmt.Errorf("redis client is nil")
	}
	if roomID == uuid.Nil {
		return nil, nil, fmt.Errorf("room id is required")
	}

	sub := b.client.Subscribe(ctx, RoomChannel(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe room events: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan model.RoomEvent, subscriberBuffer)

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		messages := sub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event model.RoomEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("drop malformed room event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return out, cancel, nil
}
