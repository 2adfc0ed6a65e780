// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/cards/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db     *sql.DB
	logger *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so point ids and payloads live in
	// a mapping table keyed by the same rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_points (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			point_id TEXT NOT NULL UNIQUE,
			payload TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating points table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Upsert stores points in one transaction, replacing existing points.
func (d *Driver) Upsert(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrWrite, err)
	}
	defer tx.Rollback()

	for _, p := range points {
		if err := upsertPoint(ctx, tx, p); err != nil {
			return fmt.Errorf("%w: %v", vector.ErrWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", vector.ErrWrite, err)
	}

	d.logger.Debug("upserted points to sqlite-vec", "count", len(points))
	return nil
}

func upsertPoint(ctx context.Context, tx *sql.Tx, p vector.Point) error {
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload for point %s: %w", p.ID, err)
	}
	embBlob := serializeFloat32(p.Embedding)

	var rowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT rowid FROM vec_points WHERE point_id = ?`, p.ID,
	).Scan(&rowID)

	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			`UPDATE vec_points SET payload = ? WHERE rowid = ?`, string(payload), rowID,
		); err != nil {
			return fmt.Errorf("updating point %s: %w", p.ID, err)
		}

		// vec0 does not support UPDATE
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting old embedding for point %s: %w", p.ID, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		result, err := tx.ExecContext(ctx,
			`INSERT INTO vec_points(point_id, payload) VALUES (?, ?)`, p.ID, string(payload),
		)
		if err != nil {
			return fmt.Errorf("inserting point %s: %w", p.ID, err)
		}

		rowID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for point %s: %w", p.ID, err)
		}
	default:
		return fmt.Errorf("checking for existing point %s: %w", p.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`, rowID, embBlob,
	); err != nil {
		return fmt.Errorf("inserting embedding for point %s: %w", p.ID, err)
	}
	return nil
}

// Get retrieves a single point by ID.
func (d *Driver) Get(ctx context.Context, id string, fields []string) (*vector.Point, error) {
	var (
		rowID   int64
		payload string
		embBlob []byte
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT p.rowid, p.payload, e.embedding
		FROM vec_points p
		INNER JOIN vec_embeddings e ON e.rowid = p.rowid
		WHERE p.point_id = ?
	`, id).Scan(&rowID, &payload, &embBlob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vector.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying point %s: %v", vector.ErrRead, id, err)
	}

	p, err := decodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrRead, err)
	}

	emb, err := deserializeFloat32(embBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrRead, err)
	}

	return &vector.Point{
		ID:        id,
		Embedding: emb,
		Payload:   p.Select(fields),
	}, nil
}

// MaxK is the largest k sqlite-vec accepts in a KNN query. Search results
// end at the MaxK-th neighbour.
const MaxK = 4096

// Search runs a KNN query. sqlite-vec has no offset for KNN, so the first
// offset+limit neighbours are fetched and the leading offset rows skipped.
func (d *Driver) Search(ctx context.Context, q vector.SearchQuery) ([]vector.ScoredPoint, error) {
	if q.Limit <= 0 || q.Offset >= MaxK {
		return []vector.ScoredPoint{}, nil
	}
	k := min(q.Offset+q.Limit, MaxK)

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			p.point_id,
			p.payload,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_points p ON p.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance
	`, serializeFloat32(q.Vector), k)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %v", vector.ErrRead, err)
	}
	defer rows.Close()

	results := make([]vector.ScoredPoint, 0, q.Limit)
	skipped := 0
	for rows.Next() {
		var (
			pointID  string
			payload  string
			distance float64
		)
		if err := rows.Scan(&pointID, &payload, &distance); err != nil {
			return nil, fmt.Errorf("%w: scanning query result: %v", vector.ErrRead, err)
		}

		if skipped < q.Offset {
			skipped++
			continue
		}

		p, err := decodePayload(payload)
		if err != nil {
			d.logger.Warn("skipping point with unreadable payload", "point_id", pointID, "error", err)
			p = vector.Payload{}
		}

		results = append(results, vector.ScoredPoint{
			Point: vector.Point{
				ID:      pointID,
				Payload: p.Select(q.Fields),
			},
			// cosine distance lies in [0, 2]
			Score: float32(1 - distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating query results: %v", vector.ErrRead, err)
	}

	d.logger.Debug("queried sqlite-vec", "results", len(results))
	return results, nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

func decodePayload(raw string) (vector.Payload, error) {
	var p vector.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if p == nil {
		p = vector.Payload{}
	}
	return p, nil
}

var _ vector.Driver = (*Driver)(nil)
