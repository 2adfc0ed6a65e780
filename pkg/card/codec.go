package card

import (
	"fmt"
	"time"

	"github.com/papercomputeco/cards/pkg/vector"
)

// Encode builds the payload for a newly created card. Counters start at zero.
func Encode(c NewCard, createdAt time.Time) vector.Payload {
	link := vector.NullValue()
	if c.Link != nil {
		link = vector.StringValue(*c.Link)
	}

	return vector.Payload{
		FieldContent:   vector.StringValue(c.Content),
		FieldTopic:     vector.StringValue(c.Topic),
		FieldSide:      vector.StringValue(c.Side),
		FieldOwnerID:   vector.StringValue(c.OwnerID),
		FieldLink:      link,
		FieldUpvotes:   vector.IntegerValue(0),
		FieldDownvotes: vector.IntegerValue(0),
		FieldCreatedAt: vector.StringValue(createdAt.UTC().Format(time.RFC3339)),
	}
}

// DecodeScored converts a search hit into a ScoredCard.
func DecodeScored(p vector.ScoredPoint) (ScoredCard, error) {
	c, err := decode(p.Point)
	if err != nil {
		return ScoredCard{}, err
	}
	return ScoredCard{Card: c, Score: p.Score}, nil
}

// DecodeRetrieved converts a fetched point into a RetrievedCard.
func DecodeRetrieved(p vector.Point) (RetrievedCard, error) {
	c, err := decode(p)
	if err != nil {
		return RetrievedCard{}, err
	}
	return RetrievedCard{Card: c}, nil
}

func decode(p vector.Point) (Card, error) {
	if p.ID == "" {
		return Card{}, fmt.Errorf("%w: point has no resolvable id", ErrDecode)
	}

	content, err := requireString(p.Payload, FieldContent)
	if err != nil {
		return Card{}, err
	}
	side, err := requireString(p.Payload, FieldSide)
	if err != nil {
		return Card{}, err
	}
	topic, err := requireString(p.Payload, FieldTopic)
	if err != nil {
		return Card{}, err
	}
	up, err := requireInteger(p.Payload, FieldUpvotes)
	if err != nil {
		return Card{}, err
	}
	down, err := requireInteger(p.Payload, FieldDownvotes)
	if err != nil {
		return Card{}, err
	}

	c := Card{
		ID:        p.ID,
		Content:   content,
		Side:      side,
		Topic:     topic,
		Upvotes:   up,
		Downvotes: down,
		Votes:     up - down,
	}

	if link, ok := p.Payload[FieldLink].AsString(); ok {
		c.Link = &link
	}
	if owner, ok := p.Payload[FieldOwnerID].AsString(); ok {
		c.OwnerID = owner
	}
	if raw, ok := p.Payload[FieldCreatedAt].AsString(); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			c.CreatedAt = &t
		}
	}

	return c, nil
}

func requireString(p vector.Payload, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrDecode, key)
	}
	switch v.Kind() {
	case vector.KindString:
		s, _ := v.AsString()
		return s, nil
	case vector.KindNull, vector.KindBool, vector.KindInteger, vector.KindDouble, vector.KindList, vector.KindStruct:
		return "", fmt.Errorf("%w: %s is %s, want string", ErrDecode, key, v.Kind())
	default:
		return "", fmt.Errorf("%w: %s has unknown kind", ErrDecode, key)
	}
}

func requireInteger(p vector.Payload, key string) (int64, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrDecode, key)
	}
	switch v.Kind() {
	case vector.KindInteger:
		i, _ := v.AsInteger()
		return i, nil
	case vector.KindNull, vector.KindBool, vector.KindDouble, vector.KindString, vector.KindList, vector.KindStruct:
		return 0, fmt.Errorf("%w: %s is %s, want integer", ErrDecode, key, v.Kind())
	default:
		return 0, fmt.Errorf("%w: %s has unknown kind", ErrDecode, key)
	}
}

// Counters reads the vote counters. Unless both are integers they are
// treated as zero.
func Counters(p vector.Payload) (up, down int64) {
	u, uok := p[FieldUpvotes].AsInteger()
	d, dok := p[FieldDownvotes].AsInteger()
	if !uok || !dok {
		return 0, 0
	}
	return u, d
}

// ApplyVote returns a copy of p with exactly one counter incremented. All
// other keys are carried over unchanged.
func ApplyVote(p vector.Payload, upvote bool) vector.Payload {
	up, down := Counters(p)

	next := p.Clone()
	if next == nil {
		next = vector.Payload{}
	}
	if upvote {
		next[FieldUpvotes] = vector.IntegerValue(up + 1)
	} else {
		next[FieldDownvotes] = vector.IntegerValue(down + 1)
	}
	return next
}
