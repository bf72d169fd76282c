package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ivankudzin/mealmatch/internal/domain/model"
)

type Config struct {
	Brokers      []string
	Topic        string
	ClientID     string
	WriteTimeout time.Duration
}

// batchTimeout bounds how long a single room event waits for a batch to
// fill; the kafka-go default of one second dominates event latency.
const batchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink forwards room events to a Kafka topic keyed by room id, so every
// event of one room lands in the same partition in publish order.
type Sink struct {
	writer  messageWriter
	timeout time.Duration
}

func NewSink(cfg Config) (*Sink, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
	}
	if cfg.ClientID != "" {
		writer.Transport = &kafkago.Transport{ClientID: cfg.ClientID}
	}

	return newSink(writer, cfg.WriteTimeout), nil
}

func newSink(writer messageWriter, timeout time.Duration) *Sink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sink{writer: writer, timeout: timeout}
}

func (s *Sink) Publish(ctx context.Context, event model.RoomEvent) error {
	if s == nil || s.writer == nil {
		return fmt.Errorf("kafka sink is not configured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode room event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.writer.WriteMessages(writeCtx, kafkago.Message{
		Key:   []byte(event.RoomID.String()),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write room event to kafka: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
