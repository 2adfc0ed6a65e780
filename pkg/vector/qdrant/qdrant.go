// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/papercomputeco/cards/pkg/vector"
)

const (
	// DefaultCollectionName is the collection cards are stored in.
	DefaultCollectionName = "debate_cards"

	// DefaultAddr is the default Qdrant gRPC address.
	DefaultAddr = "localhost:6334"
)

// Driver implements vector.Driver using Qdrant's gRPC API.
type Driver struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	logger      *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Addr is the Qdrant gRPC address (e.g., "localhost:6334").
	// Defaults to DefaultAddr if empty.
	Addr string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// APIKey is sent as the "api-key" metadata header when set.
	APIKey string

	// Dimensions is the vector size used when the collection has to be created.
	Dimensions uint
}

// NewDriver connects to Qdrant and makes sure the collection exists, creating
// it with cosine distance when it does not.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	addr := c.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if c.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(c.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant connect: %v", vector.ErrConnection, err)
	}

	d := &Driver{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		logger:      logger,
	}

	if err := d.ensureCollection(ctx, c.Dimensions); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensuring collection %q: %w", collection, err)
	}

	logger.Info("connected to Qdrant",
		"addr", addr,
		"collection", collection,
	)

	return d, nil
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (d *Driver) ensureCollection(ctx context.Context, dimensions uint) error {
	resp, err := d.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return classify(err, vector.ErrRead)
	}

	for _, col := range resp.GetCollections() {
		if col.GetName() == d.collection {
			return nil
		}
	}

	if dimensions == 0 {
		return errors.New("collection does not exist and embedding dimensions are not configured")
	}

	_, err = d.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return classify(err, vector.ErrWrite)
	}

	d.logger.Info("created qdrant collection",
		"collection", d.collection,
		"dimensions", dimensions,
	)
	return nil
}

// Upsert stores points and waits for Qdrant to acknowledge the write.
func (d *Driver) Upsert(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		id, err := toPointID(p.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", vector.ErrWrite, err)
		}
		structs[i] = &pb.PointStruct{
			Id:      id,
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Embedding}}},
			Payload: toPayload(p.Payload),
		}
	}

	wait := true
	_, err := d.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         structs,
	})
	if err != nil {
		return classify(err, vector.ErrWrite)
	}

	d.logger.Debug("upserted points to qdrant", "count", len(points))
	return nil
}

// Get retrieves a single point with its vector.
func (d *Driver) Get(ctx context.Context, id string, fields []string) (*vector.Point, error) {
	pid, err := toPointID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrRead, err)
	}

	resp, err := d.points.Get(ctx, &pb.GetPoints{
		CollectionName: d.collection,
		Ids:            []*pb.PointId{pid},
		WithPayload:    payloadSelector(fields),
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, classify(err, vector.ErrRead)
	}

	result := resp.GetResult()
	if len(result) == 0 {
		return nil, vector.ErrNotFound
	}

	rp := result[0]
	return &vector.Point{
		ID:        fromPointID(rp.GetId()),
		Embedding: rp.GetVectors().GetVector().GetData(),
		Payload:   fromPayload(rp.GetPayload()),
	}, nil
}

// Search runs a paginated nearest-neighbour query.
func (d *Driver) Search(ctx context.Context, q vector.SearchQuery) ([]vector.ScoredPoint, error) {
	req := &pb.SearchPoints{
		CollectionName: d.collection,
		Vector:         q.Vector,
		Limit:          uint64(q.Limit),
		WithPayload:    payloadSelector(q.Fields),
	}
	if q.Offset > 0 {
		offset := uint64(q.Offset)
		req.Offset = &offset
	}

	resp, err := d.points.Search(ctx, req)
	if err != nil {
		return nil, classify(err, vector.ErrRead)
	}

	results := make([]vector.ScoredPoint, 0, len(resp.GetResult()))
	for _, sp := range resp.GetResult() {
		results = append(results, vector.ScoredPoint{
			Point: vector.Point{
				ID:      fromPointID(sp.GetId()),
				Payload: fromPayload(sp.GetPayload()),
			},
			Score: sp.GetScore(),
		})
	}

	d.logger.Debug("searched qdrant",
		"results", len(results),
		"offset", q.Offset,
	)
	return results, nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.conn.Close()
}

// classify maps a gRPC failure onto the vector error taxonomy.
func classify(err error, fallback error) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return fmt.Errorf("%w: %s", vector.ErrConnection, st.Message())
		}
	}
	return fmt.Errorf("%w: %v", fallback, err)
}

func payloadSelector(fields []string) *pb.WithPayloadSelector {
	if fields == nil {
		return &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}}
	}
	return &pb.WithPayloadSelector{
		SelectorOptions: &pb.WithPayloadSelector_Include{
			Include: &pb.PayloadIncludeSelector{Fields: fields},
		},
	}
}

var _ vector.Driver = (*Driver)(nil)
