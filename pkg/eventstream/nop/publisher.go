// Package nop provides an eventstream publisher that drops every event. It
// backs the "none" provider so that serve runs without a broker.
package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/cards/pkg/eventstream"
)

type Publisher struct {
	logger  *slog.Logger
	dropped atomic.Int64
	closed  atomic.Bool
}

// NewPublisher returns a publisher that logs each dropped event at debug
// level. A nil logger discards.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishCard(_ context.Context, event *eventstream.CardEvent) error {
	if event == nil {
		return eventstream.ErrNilCardEvent
	}
	if p.closed.Load() {
		return eventstream.ErrPublisherClosed
	}

	p.dropped.Add(1)
	p.logger.Debug("dropping card event, no event stream configured",
		"event_type", event.EventType,
		"card_id", event.CardID,
	)
	return nil
}

// Dropped reports how many events were accepted and discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close is safe to call more than once.
func (p *Publisher) Close() error {
	p.closed.Store(true)
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
