package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeCardCreated is emitted after a card is stored.
	EventTypeCardCreated = "cards.card.created"

	// EventTypeCardVoted is emitted after a vote is applied to a card.
	EventTypeCardVoted = "cards.card.voted"
)

// CardEvent is a transport-neutral event payload for a card change.
type CardEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	CardID        string    `json:"card_id"`
	OwnerID       string    `json:"owner_id,omitempty"`
	Topic         string    `json:"topic,omitempty"`
	Side          string    `json:"side,omitempty"`

	// Upvote is set for vote events only.
	Upvote *bool `json:"upvote,omitempty"`
}

// NewCardCreated builds a created event for a freshly stored card.
func NewCardCreated(cardID, ownerID, topic, side string) *CardEvent {
	return &CardEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeCardCreated,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		CardID:        cardID,
		OwnerID:       ownerID,
		Topic:         topic,
		Side:          side,
	}
}

// NewCardVoted builds a voted event.
func NewCardVoted(cardID string, upvote bool) *CardEvent {
	return &CardEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeCardVoted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		CardID:        cardID,
		Upvote:        &upvote,
	}
}
