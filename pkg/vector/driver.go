// Package vector provides the point store interface and its implementations.
//
// A point is an (id, embedding, payload) triple. Drivers persist points and run
// nearest-neighbour searches over their embeddings, returning the payload fields
// the caller asks for.
package vector

import "context"

// Point is a stored embedding with its payload.
type Point struct {
	// ID is the point identifier. Drivers resolve store-native ids (numeric or
	// UUID) to their string form; an empty ID means the store returned an id
	// that could not be resolved.
	ID string

	// Embedding is the vector representation of the point.
	Embedding []float32

	// Payload is the key/value metadata attached to the point.
	Payload Payload
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	Point

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// SearchQuery describes a paginated nearest-neighbour search.
type SearchQuery struct {
	// Vector is the query embedding.
	Vector []float32

	// Limit is the maximum number of points to return.
	Limit int

	// Offset is the number of best matches to skip.
	Offset int

	// Fields restricts the returned payload to the named keys.
	// A nil slice returns the full payload.
	Fields []string
}

// Driver handles storage and retrieval of points.
type Driver interface {
	// Upsert stores points, replacing any point with the same ID. Upsert only
	// returns once the store has acknowledged the write.
	Upsert(ctx context.Context, points []Point) error

	// Get retrieves a single point, including its embedding, by ID.
	// Returns ErrNotFound when no such point exists. A nil fields slice
	// returns the full payload.
	Get(ctx context.Context, id string, fields []string) (*Point, error)

	// Search returns points ordered by descending similarity to the query vector.
	Search(ctx context.Context, query SearchQuery) ([]ScoredPoint, error)

	// Close releases any resources held by the driver.
	Close() error
}
