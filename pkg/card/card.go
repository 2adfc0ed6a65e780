// Package card defines debate cards and their mapping to and from vector
// store payloads.
package card

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payload keys persisted for every card.
const (
	FieldContent   = "content"
	FieldTopic     = "topic"
	FieldSide      = "side"
	FieldOwnerID   = "user_id"
	FieldLink      = "link"
	FieldUpvotes   = "upvotes"
	FieldDownvotes = "downvotes"
	FieldCreatedAt = "created_at"
)

// Fields is the payload field set requested when searching or fetching cards.
func Fields() []string {
	return []string{
		FieldContent,
		FieldTopic,
		FieldSide,
		FieldOwnerID,
		FieldLink,
		FieldUpvotes,
		FieldDownvotes,
		FieldCreatedAt,
	}
}

// NewCard is a submitted card before it is stored.
type NewCard struct {
	Content string
	Topic   string
	Side    string
	Link    *string

	// OwnerID is empty for anonymous submissions.
	OwnerID string
}

// Card is the decoded form of a stored card.
type Card struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	Side      string     `json:"side"`
	Topic     string     `json:"topic"`
	Link      *string    `json:"link"`
	OwnerID   string     `json:"owner_id"`
	Upvotes   int64      `json:"upvotes"`
	Downvotes int64      `json:"downvotes"`
	Votes     int64      `json:"votes"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ScoredCard is a card returned from a similarity search.
type ScoredCard struct {
	Card
	Score float32 `json:"score"`
}

// RetrievedCard is a card fetched directly by id.
type RetrievedCard struct {
	Card
}

// ParseID validates a card id and returns its canonical form.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedID, id)
	}
	return u.String(), nil
}

// NewID returns a fresh random card id.
func NewID() string {
	return uuid.NewString()
}
