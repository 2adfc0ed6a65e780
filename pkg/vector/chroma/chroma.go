// Package chroma provides a Chroma vector database driver over its REST API.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/papercomputeco/cards/pkg/vector"
)

const (
	// DefaultCollectionName is the collection cards are stored in.
	DefaultCollectionName = "debate_cards"

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries bounds the attempts made to reach the collection at startup,
	// which covers a Chroma container that is still booting.
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver connects to Chroma and gets or creates the collection with cosine
// distance.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return nil, fmt.Errorf("invalid chroma URL %q: %w", c.URL, err)
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	for attempt := 1; ; attempt++ {
		id, err := d.getOrCreateCollection(ctx)
		if err == nil {
			d.collectionID = id
			break
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("getting or creating collection %q after %d attempts: %w", collectionName, attempt, err)
		}

		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", vector.ErrConnection, ctx.Err())
		case <-time.After(delay):
		}
		delay = min(delay*2, maxDelay)
	}

	logger.Info("connected to Chroma",
		"url", c.URL,
		"collection", collectionName,
		"collection_id", d.collectionID,
	)

	return d, nil
}

func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection
	err := d.post(ctx, collectionsPath, chromaCreateCollectionRequest{
		Name:        d.collectionName,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
		GetOrCreate: true,
	}, &collection, vector.ErrWrite)
	if err != nil {
		return "", err
	}
	if collection.ID == "" {
		return "", fmt.Errorf("%w: chroma returned a collection without an id", vector.ErrRead)
	}
	return collection.ID, nil
}

func (d *Driver) collectionPath(op string) string {
	return fmt.Sprintf("%s/%s/%s", collectionsPath, d.collectionID, op)
}

// Upsert stores points. Chroma metadata is flat, so null values are left out
// and list or struct values are rejected.
func (d *Driver) Upsert(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	req := chromaUpsertRequest{
		IDs:        make([]string, len(points)),
		Embeddings: make([][]float32, len(points)),
		Metadatas:  make([]map[string]vector.Value, len(points)),
	}
	for i, p := range points {
		meta, err := toMetadata(p.Payload)
		if err != nil {
			return fmt.Errorf("%w: point %s: %v", vector.ErrWrite, p.ID, err)
		}
		req.IDs[i] = p.ID
		req.Embeddings[i] = p.Embedding
		req.Metadatas[i] = meta
	}

	if err := d.post(ctx, d.collectionPath("upsert"), req, nil, vector.ErrWrite); err != nil {
		return err
	}

	d.logger.Debug("upserted points to chroma", "count", len(points))
	return nil
}

// Get retrieves a single point with its embedding.
func (d *Driver) Get(ctx context.Context, id string, fields []string) (*vector.Point, error) {
	var resp chromaGetResponse
	err := d.post(ctx, d.collectionPath("get"), chromaGetRequest{
		IDs:     []string{id},
		Include: []string{"metadatas", "embeddings"},
	}, &resp, vector.ErrRead)
	if err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return nil, vector.ErrNotFound
	}

	p := &vector.Point{
		ID:      resp.IDs[0],
		Payload: fromMetadata(nil).Select(fields),
	}
	if len(resp.Metadatas) > 0 {
		p.Payload = fromMetadata(resp.Metadatas[0]).Select(fields)
	}
	if len(resp.Embeddings) > 0 {
		p.Embedding = resp.Embeddings[0]
	}
	return p, nil
}

// Search runs a nearest-neighbour query. Chroma queries have no offset, so
// the first offset+limit neighbours are fetched and the leading offset skipped.
func (d *Driver) Search(ctx context.Context, q vector.SearchQuery) ([]vector.ScoredPoint, error) {
	if q.Limit <= 0 {
		return []vector.ScoredPoint{}, nil
	}

	var resp chromaQueryResponse
	err := d.post(ctx, d.collectionPath("query"), chromaQueryRequest{
		QueryEmbeddings: [][]float32{q.Vector},
		NResults:        q.Offset + q.Limit,
		Include:         []string{"metadatas", "distances"},
	}, &resp, vector.ErrRead)
	if err != nil {
		return nil, err
	}

	results := make([]vector.ScoredPoint, 0, q.Limit)
	if len(resp.IDs) == 0 {
		return results, nil
	}

	// one query embedding, one result group
	ids := resp.IDs[0]
	var distances []float64
	if len(resp.Distances) > 0 {
		distances = resp.Distances[0]
	}
	var metadatas []map[string]vector.Value
	if len(resp.Metadatas) > 0 {
		metadatas = resp.Metadatas[0]
	}

	for i := q.Offset; i < len(ids) && len(results) < q.Limit; i++ {
		sp := vector.ScoredPoint{Point: vector.Point{ID: ids[i]}}
		if i < len(metadatas) {
			sp.Payload = fromMetadata(metadatas[i]).Select(q.Fields)
		} else {
			sp.Payload = vector.Payload{}
		}
		if i < len(distances) {
			// cosine distance lies in [0, 2]
			sp.Score = float32(1 - distances[i])
		}
		results = append(results, sp)
	}

	d.logger.Debug("queried chroma", "results", len(results))
	return results, nil
}

// Close releases idle connections held by the HTTP client.
func (d *Driver) Close() error {
	d.httpClient.CloseIdleConnections()
	return nil
}

// post sends a JSON request and decodes the JSON response into out when out
// is non-nil. Transport failures wrap vector.ErrConnection; everything else
// wraps fallback.
func (d *Driver) post(ctx context.Context, path string, body, out any, fallback error) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", fallback, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", fallback, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: chroma request: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusBadGateway {
			fallback = vector.ErrConnection
		}
		return fmt.Errorf("%w: chroma returned status %d: %s", fallback, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", fallback, err)
	}
	return nil
}

func toMetadata(p vector.Payload) (map[string]vector.Value, error) {
	meta := make(map[string]vector.Value, len(p))
	for k, v := range p {
		switch v.Kind() {
		case vector.KindNull:
			continue
		case vector.KindBool, vector.KindInteger, vector.KindDouble, vector.KindString:
			meta[k] = v
		case vector.KindList, vector.KindStruct:
			return nil, fmt.Errorf("chroma metadata cannot hold %s value for %q", v.Kind(), k)
		default:
			return nil, fmt.Errorf("unknown kind for %q", k)
		}
	}
	return meta, nil
}

func fromMetadata(m map[string]vector.Value) vector.Payload {
	p := make(vector.Payload, len(m))
	for k, v := range m {
		p[k] = v
	}
	return p
}

var _ vector.Driver = (*Driver)(nil)
