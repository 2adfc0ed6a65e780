// Package repository implements the card lifecycle on top of an embedder and
// a vector store: create, paginated similarity search, lookup and voting.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/cards/pkg/card"
	"github.com/papercomputeco/cards/pkg/embeddings"
	"github.com/papercomputeco/cards/pkg/eventstream"
	"github.com/papercomputeco/cards/pkg/metrics"
	"github.com/papercomputeco/cards/pkg/vector"
	"github.com/papercomputeco/cards/pkg/worker"
)

const (
	// PageSize is the number of cards per search page.
	PageSize = 25

	// DefaultCallTimeout bounds each embedder and store call when
	// Config.CallTimeout is zero.
	DefaultCallTimeout = 30 * time.Second
)

// EventQueue accepts card events for asynchronous publication.
// *worker.Pool satisfies it.
type EventQueue interface {
	Enqueue(job worker.Job) bool
}

// Config holds the collaborators of a Repository.
type Config struct {
	Embedder embeddings.Embedder
	Driver   vector.Driver

	// Events is optional; without it no events are emitted.
	Events EventQueue

	// Metrics is optional.
	Metrics *metrics.Collector

	Logger *slog.Logger

	// CallTimeout bounds each embedder and store call. A vote's
	// read-modify-write shares one deadline, so a stalled store cannot hold
	// the card's lock past it. Defaults to DefaultCallTimeout.
	CallTimeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Repository is safe for concurrent use.
type Repository struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	events   EventQueue
	metrics  *metrics.Collector
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
	locks    *keyedMutex
}

// New creates a Repository.
func New(c Config) (*Repository, error) {
	if c.Embedder == nil {
		return nil, errors.New("repository requires an embedder")
	}
	if c.Driver == nil {
		return nil, errors.New("repository requires a vector driver")
	}
	if c.Logger == nil {
		return nil, errors.New("repository requires a logger")
	}

	now := c.Now
	if now == nil {
		now = time.Now
	}
	timeout := c.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	return &Repository{
		embedder: c.Embedder,
		driver:   c.Driver,
		events:   c.Events,
		metrics:  c.Metrics,
		logger:   c.Logger,
		timeout:  timeout,
		now:      now,
		locks:    newKeyedMutex(),
	}, nil
}

// Create embeds and stores a new card, returning its id. Identical content
// may be stored more than once.
func (r *Repository) Create(ctx context.Context, nc card.NewCard) (string, error) {
	emb, err := r.embed(ctx, nc.Content)
	if err != nil {
		return "", err
	}

	id := card.NewID()
	point := vector.Point{
		ID:        id,
		Embedding: emb,
		Payload:   card.Encode(nc, r.now()),
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	err = r.driver.Upsert(callCtx, []vector.Point{point})
	cancel()
	if err != nil {
		return "", fmt.Errorf("storing card: %w", err)
	}

	r.metrics.CardCreated()
	r.logger.Info("card created",
		"card_id", id,
		"topic", nc.Topic,
		"side", nc.Side,
	)

	r.emit(eventstream.NewCardCreated(id, nc.OwnerID, nc.Topic, nc.Side))
	return id, nil
}

// Search returns one page of cards ranked by similarity to query. Page 0 is
// treated as page 1. Hits whose payload cannot be decoded are dropped, so a
// page may hold fewer than PageSize cards.
func (r *Repository) Search(ctx context.Context, query string, page int) ([]card.ScoredCard, error) {
	if page < 0 {
		return nil, fmt.Errorf("%w: %d", card.ErrInvalidPage, page)
	}
	if page == 0 {
		page = 1
	}

	emb, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	hits, err := r.driver.Search(callCtx, vector.SearchQuery{
		Vector: emb,
		Limit:  PageSize,
		Offset: (page - 1) * PageSize,
		Fields: card.Fields(),
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("searching cards: %w", err)
	}

	cards := make([]card.ScoredCard, 0, len(hits))
	dropped := 0
	for _, hit := range hits {
		c, err := card.DecodeScored(hit)
		if err != nil {
			dropped++
			r.logger.Debug("dropping unreadable search hit",
				"point_id", hit.ID,
				"error", err,
			)
			continue
		}
		cards = append(cards, c)
	}

	r.metrics.CardSearched()
	r.metrics.SearchHitsDropped(dropped)
	r.logger.Debug("cards searched",
		"page", page,
		"hits", len(hits),
		"dropped", dropped,
	)
	return cards, nil
}

// Get fetches a card by id. A stored record that is not a well-formed card
// yields card.ErrDecode rather than card.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (card.RetrievedCard, error) {
	id, err := card.ParseID(id)
	if err != nil {
		return card.RetrievedCard{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	point, err := r.driver.Get(callCtx, id, card.Fields())
	cancel()
	if err != nil {
		return card.RetrievedCard{}, lookupErr(id, err)
	}

	c, err := card.DecodeRetrieved(*point)
	if err != nil {
		r.logger.Warn("stored card is unreadable", "card_id", id, "error", err)
		return card.RetrievedCard{}, err
	}
	return c, nil
}

// Vote adds one up or down vote to a card.
//
// The read-modify-write runs under a per-id lock, so concurrent votes within
// this process are never lost. Processes sharing a store do not coordinate;
// across them counts are best effort.
func (r *Repository) Vote(ctx context.Context, id string, upvote bool) error {
	id, err := card.ParseID(id)
	if err != nil {
		return err
	}

	unlock, err := r.locks.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("waiting for card %s: %w", id, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	err = r.applyVote(callCtx, id, upvote)
	cancel()
	unlock()
	if err != nil {
		return err
	}

	r.metrics.CardVoted(upvote)
	r.logger.Info("card voted", "card_id", id, "upvote", upvote)

	r.emit(eventstream.NewCardVoted(id, upvote))
	return nil
}

func (r *Repository) applyVote(ctx context.Context, id string, upvote bool) error {
	// nil fields: the whole payload is rewritten, so every key must be read
	point, err := r.driver.Get(ctx, id, nil)
	if err != nil {
		return lookupErr(id, err)
	}
	if len(point.Embedding) == 0 {
		return fmt.Errorf("%w: card %s was returned without its vector", vector.ErrRead, id)
	}

	next := vector.Point{
		ID:        id,
		Embedding: point.Embedding,
		Payload:   card.ApplyVote(point.Payload, upvote),
	}
	if err := r.driver.Upsert(ctx, []vector.Point{next}); err != nil {
		return fmt.Errorf("storing vote: %w", err)
	}
	return nil
}

func (r *Repository) emit(event *eventstream.CardEvent) {
	if r.events == nil {
		return
	}
	if !r.events.Enqueue(worker.Job{Event: event}) {
		r.metrics.EventDropped()
	}
}

func (r *Repository) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	emb, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, embedErr(err)
	}
	return emb, nil
}

func embedErr(err error) error {
	if errors.Is(err, vector.ErrEmbedding) {
		return err
	}
	return fmt.Errorf("%w: %v", vector.ErrEmbedding, err)
}

func lookupErr(id string, err error) error {
	if errors.Is(err, vector.ErrNotFound) {
		return fmt.Errorf("%w: %s", card.ErrNotFound, id)
	}
	return fmt.Errorf("fetching card %s: %w", id, err)
}
