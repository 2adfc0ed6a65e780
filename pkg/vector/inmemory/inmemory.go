// Package inmemory provides a map-backed vector driver that ranks points by
// brute-force cosine similarity. It is meant for local runs and tests.
package inmemory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/papercomputeco/cards/pkg/vector"
)

// Driver implements vector.Driver using an in-memory map.
type Driver struct {
	// mu guards points
	mu sync.RWMutex

	// points is keyed by point ID
	points map[string]vector.Point
}

// NewDriver creates a new in-memory vector driver.
func NewDriver() *Driver {
	return &Driver{
		points: make(map[string]vector.Point),
	}
}

// Upsert stores points, replacing existing points with the same ID.
func (d *Driver) Upsert(_ context.Context, points []vector.Point) error {
	for _, p := range points {
		if p.ID == "" {
			return errors.New("cannot store point without an id")
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range points {
		d.points[p.ID] = clonePoint(p, nil)
	}
	return nil
}

// Get retrieves a single point by ID.
func (d *Driver) Get(_ context.Context, id string, fields []string) (*vector.Point, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.points[id]
	if !ok {
		return nil, vector.ErrNotFound
	}

	c := clonePoint(p, fields)
	return &c, nil
}

// Search ranks every stored point by cosine similarity to the query vector.
// Ties are broken by point ID so that pagination is stable.
func (d *Driver) Search(_ context.Context, q vector.SearchQuery) ([]vector.ScoredPoint, error) {
	d.mu.RLock()
	scored := make([]vector.ScoredPoint, 0, len(d.points))
	for _, p := range d.points {
		scored = append(scored, vector.ScoredPoint{
			Point: clonePoint(p, q.Fields),
			Score: cosine(q.Vector, p.Embedding),
		})
	}
	d.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if q.Offset >= len(scored) || q.Limit <= 0 {
		return []vector.ScoredPoint{}, nil
	}
	scored = scored[q.Offset:]
	if len(scored) > q.Limit {
		scored = scored[:q.Limit]
	}
	return scored, nil
}

// Len returns the number of stored points.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.points)
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

func clonePoint(p vector.Point, fields []string) vector.Point {
	emb := make([]float32, len(p.Embedding))
	copy(emb, p.Embedding)
	return vector.Point{
		ID:        p.ID,
		Embedding: emb,
		Payload:   p.Payload.Select(fields),
	}
}

// cosine returns the cosine similarity of a and b, or 0 when either vector is
// zero or the lengths differ.
func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ vector.Driver = (*Driver)(nil)
