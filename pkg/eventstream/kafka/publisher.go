// Package kafka publishes card events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/cards/pkg/eventstream"
)

// DefaultTopic is the topic card events are written to.
const DefaultTopic = "cards.events"

// Config holds configuration for the Kafka publisher.
type Config struct {
	Brokers []string

	// Topic defaults to DefaultTopic.
	Topic string

	// WriteTimeout bounds a single write. Defaults to ten seconds.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes JSON encoded card events keyed by card id, so that every
// event for one card lands on the same partition.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPublisher creates a Kafka publisher. Connections are opened lazily on
// the first write.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	timeout := cfg.WriteTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		Compression:  kafkago.Gzip,
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: timeout,
	}

	logger.Info("kafka event publisher configured",
		"brokers", cfg.Brokers,
		"topic", topic,
	)

	return newPublisher(w, logger), nil
}

func newPublisher(w messageWriter, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

// PublishCard writes one event.
func (p *Publisher) PublishCard(ctx context.Context, event *eventstream.CardEvent) error {
	if event == nil {
		return eventstream.ErrNilCardEvent
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return eventstream.ErrPublisherClosed
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding card event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.CardID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("writing card event %s: %w", event.EventID, err)
	}

	p.logger.Debug("published card event",
		"event_type", event.EventType,
		"card_id", event.CardID,
	)
	return nil
}

// Close flushes pending writes and closes the writer. It is safe to call more
// than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
