package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"song-search-api/domain"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// DefaultCollection is the collection songs are stored in.
const DefaultCollection = "songs_collection_database"

// Config describes how to reach Qdrant.
type Config struct {
	Addr       string // gRPC address, e.g. localhost:6334
	APIKey     string
	Collection string
}

// QdrantClient implements the domain.VectorStore interface using Qdrant.
type QdrantClient struct {
	client         qdrant.PointsClient
	collections    qdrant.CollectionsClient
	conn           *grpc.ClientConn
	collectionName string
	logger         *log.Logger
}

// NewQdrantClient dials Qdrant over gRPC. The connection is lazy; no call is made until first use.
func NewQdrantClient(cfg Config, logger *log.Logger) (*QdrantClient, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6334"
		logger.Info("qdrant address not set, using default", "addr", cfg.Addr)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to Qdrant: %w", err)
	}

	c := NewQdrantClientWithConn(qdrant.NewPointsClient(conn), qdrant.NewCollectionsClient(conn), cfg.Collection, logger)
	c.conn = conn
	return c, nil
}

// NewQdrantClientWithConn builds a client over existing gRPC service clients.
func NewQdrantClientWithConn(points qdrant.PointsClient, collections qdrant.CollectionsClient, collection string, logger *log.Logger) *QdrantClient {
	return &QdrantClient{
		client:         points,
		collections:    collections,
		collectionName: collection,
		logger:         logger,
	}
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Collection returns the name of the collection this client targets.
func (c *QdrantClient) Collection() string {
	return c.collectionName
}

// Close releases the gRPC connection, if this client owns one.
func (c *QdrantClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// EnsureCollection creates the collection with cosine distance and the given vector size
// if it does not exist. An existing collection with another size is an error.
func (c *QdrantClient) EnsureCollection(ctx context.Context, size uint64) error {
	info, err := c.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: c.collectionName,
	})
	switch {
	case err == nil:
		existing := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if existing != 0 && existing != size {
			return fmt.Errorf("%w: collection %s has vector size %d, expected %d", domain.ErrVectorStore, c.collectionName, existing, size)
		}
		return nil
	case status.Code(err) != codes.NotFound:
		return fmt.Errorf("%w: failed to get collection %s: %w", domain.ErrVectorStore, c.collectionName, err)
	}

	c.logger.Info("collection does not exist, creating", "collection", c.collectionName, "size", size)
	_, err = c.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: c.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create collection: %w", domain.ErrVectorStore, err)
	}

	c.logger.Info("collection created", "collection", c.collectionName)
	return nil
}

// pointID converts a song id to a Qdrant point id.
func pointID(id domain.SongID) (*qdrant.PointId, error) {
	if n, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: n}}, nil
	}
	if u, err := uuid.Parse(string(id)); err == nil {
		return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: u.String()}}, nil
	}
	return nil, id.Validate()
}

// Helper function to convert a payload map to map[string]*qdrant.Value
func mapToPayload(data domain.Payload) (map[string]*qdrant.Value, error) {
	payload := make(map[string]*qdrant.Value, len(data))
	for key, val := range data {
		v, err := toValue(val)
		if err != nil {
			return nil, fmt.Errorf("payload field '%s': %w", key, err)
		}
		payload[key] = v
	}
	return payload, nil
}

func toValue(val any) (*qdrant.Value, error) {
	switch v := val.(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{}}, nil
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}, nil
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}, nil
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}, nil
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}, nil
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}, nil
	case []string:
		listValues := make([]*qdrant.Value, len(v))
		for i, s := range v {
			listValues[i] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: listValues}}}, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

// payloadToMap converts a Qdrant payload back to plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) domain.Payload {
	out := make(domain.Payload, len(payload))
	for key, val := range payload {
		out[key] = fromValue(val)
	}
	return out
}

func fromValue(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_ListValue:
		values := k.ListValue.GetValues()
		list := make([]any, len(values))
		for i, item := range values {
			list[i] = fromValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		fields := k.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for name, item := range fields {
			m[name] = fromValue(item)
		}
		return m
	default:
		return nil
	}
}

func withPayload() *qdrant.WithPayloadSelector {
	return &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}}
}

// Search returns the payloads of the topK records closest to vector.
func (c *QdrantClient) Search(ctx context.Context, vector domain.Embedding, topK int) ([]domain.Payload, error) {
	if topK <= 0 {
		return []domain.Payload{}, nil
	}

	searchResult, err := c.client.Search(ctx, &qdrant.SearchPoints{
		CollectionName: c.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    withPayload(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to search points: %w", domain.ErrVectorStore, err)
	}

	payloads := make([]domain.Payload, 0, len(searchResult.GetResult()))
	for _, hit := range searchResult.GetResult() {
		payloads = append(payloads, payloadToMap(hit.GetPayload()))
	}
	return payloads, nil
}

// Upsert writes one point and waits for Qdrant to acknowledge it.
func (c *QdrantClient) Upsert(ctx context.Context, id domain.SongID, vector domain.Embedding, payload domain.Payload) error {
	pid, err := pointID(id)
	if err != nil {
		return err
	}

	qdrantPayload, err := mapToPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to convert payload for point %s: %w", id, err)
	}

	_, err = c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collectionName,
		Points: []*qdrant.PointStruct{{
			Id:      pid,
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vector}}},
			Payload: qdrantPayload,
		}},
		Wait: proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upsert point %s: %w", domain.ErrVectorStore, id, err)
	}
	return nil
}

// Delete removes one point. Qdrant acknowledges deletes of unknown ids, so those succeed.
func (c *QdrantClient) Delete(ctx context.Context, id domain.SongID) error {
	pid, err := pointID(id)
	if err != nil {
		return err
	}

	_, err = c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collectionName,
		Wait:           proto.Bool(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{pid}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete point %s: %w", domain.ErrVectorStore, id, err)
	}
	return nil
}

// Scroll returns the payloads of the first page of points, without vectors.
// The next-page offset is ignored.
func (c *QdrantClient) Scroll(ctx context.Context, limit int) ([]domain.Payload, error) {
	if limit <= 0 {
		return nil, errors.New("scroll limit must be positive")
	}

	resp, err := c.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.collectionName,
		Limit:          proto.Uint32(uint32(limit)),
		WithPayload:    withPayload(),
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: false}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scroll points: %w", domain.ErrVectorStore, err)
	}

	if resp.GetNextPageOffset() != nil {
		c.logger.Debug("scroll has more pages than returned", "collection", c.collectionName, "limit", limit)
	}

	payloads := make([]domain.Payload, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		payloads = append(payloads, payloadToMap(p.GetPayload()))
	}
	return payloads, nil
}
