package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/papercomputeco/cards/pkg/vector"
	"github.com/papercomputeco/cards/pkg/vector/inmemory"
)

// MockVectorDriver wraps the in-memory driver, recording search queries and
// optionally failing calls.
type MockVectorDriver struct {
	*inmemory.Driver

	mu      sync.Mutex
	queries []vector.SearchQuery

	// UpsertErr, GetErr and SearchErr are returned by the matching call when set.
	UpsertErr error
	GetErr    error
	SearchErr error

	// Stall makes Get block until its context ends, like a hung store.
	Stall atomic.Bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{Driver: inmemory.NewDriver()}
}

func (m *MockVectorDriver) Upsert(ctx context.Context, points []vector.Point) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	return m.Driver.Upsert(ctx, points)
}

func (m *MockVectorDriver) Get(ctx context.Context, id string, fields []string) (*vector.Point, error) {
	if m.Stall.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Driver.Get(ctx, id, fields)
}

func (m *MockVectorDriver) Search(ctx context.Context, q vector.SearchQuery) ([]vector.ScoredPoint, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Driver.Search(ctx, q)
}

// Queries returns the search queries seen so far.
func (m *MockVectorDriver) Queries() []vector.SearchQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]vector.SearchQuery, len(m.queries))
	copy(out, m.queries)
	return out
}

var _ vector.Driver = (*MockVectorDriver)(nil)
