package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/cards/pkg/eventstream"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.CardEvent
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (r *RecordingPublisher) PublishCard(_ context.Context, event *eventstream.CardEvent) error {
	if event == nil {
		return eventstream.ErrNilCardEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns the published events in order.
func (r *RecordingPublisher) Events() []*eventstream.CardEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*eventstream.CardEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *RecordingPublisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*RecordingPublisher)(nil)
