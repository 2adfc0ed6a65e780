// Package vectorutils builds vector drivers from configuration.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/cards/pkg/vector"
	"github.com/papercomputeco/cards/pkg/vector/chroma"
	"github.com/papercomputeco/cards/pkg/vector/inmemory"
	"github.com/papercomputeco/cards/pkg/vector/pgvector"
	"github.com/papercomputeco/cards/pkg/vector/qdrant"
	"github.com/papercomputeco/cards/pkg/vector/sqlitevec"
)

// Supported vector store providers.
const (
	ProviderQdrant   = "qdrant"
	ProviderPgvector = "pgvector"
	ProviderSQLite   = "sqlite"
	ProviderChroma   = "chroma"
	ProviderMemory   = "memory"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the Qdrant gRPC address, the PostgreSQL connection string,
	// the SQLite database path or the Chroma URL depending on ProviderType.
	TargetURL  string
	Collection string
	APIKey     string
	Dimensions uint
	Logger     *slog.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case ProviderQdrant:
		return qdrant.NewDriver(ctx, qdrant.Config{
			Addr:           o.TargetURL,
			CollectionName: o.Collection,
			APIKey:         o.APIKey,
			Dimensions:     o.Dimensions,
		}, o.Logger)
	case ProviderPgvector:
		return pgvector.NewDriver(ctx, pgvector.Config{
			ConnString: o.TargetURL,
			TableName:  o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderSQLite:
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.TargetURL,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderChroma:
		return chroma.NewDriver(ctx, chroma.Config{
			URL:            o.TargetURL,
			CollectionName: o.Collection,
		}, o.Logger)
	case ProviderMemory:
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
