package metrics

import (
	"context"
	"time"

	"song-search-api/domain"
)

// EmbeddingClient times every call of the wrapped client.
type EmbeddingClient struct {
	next domain.EmbeddingClient
	m    *Collectors
}

// InstrumentEmbedder wraps next so its calls are observed in m.
func InstrumentEmbedder(next domain.EmbeddingClient, m *Collectors) *EmbeddingClient {
	return &EmbeddingClient{next: next, m: m}
}

func (c *EmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	start := time.Now()
	out, err := c.next.GenerateEmbeddings(ctx, texts)
	c.m.EmbeddingDuration.WithLabelValues(outcome(err)).Observe(time.Since(start).Seconds())
	return out, err
}

// VectorStore times every call of the wrapped store, labelled by operation.
type VectorStore struct {
	next domain.VectorStore
	m    *Collectors
}

// InstrumentStore wraps next so its calls are observed in m.
func InstrumentStore(next domain.VectorStore, m *Collectors) *VectorStore {
	return &VectorStore{next: next, m: m}
}

func (s *VectorStore) observe(op string, start time.Time, err error) {
	s.m.VectorStoreDuration.WithLabelValues(op, outcome(err)).Observe(time.Since(start).Seconds())
}

func (s *VectorStore) Search(ctx context.Context, vector domain.Embedding, topK int) ([]domain.Payload, error) {
	start := time.Now()
	out, err := s.next.Search(ctx, vector, topK)
	s.observe("search", start, err)
	return out, err
}

func (s *VectorStore) Upsert(ctx context.Context, id domain.SongID, vector domain.Embedding, payload domain.Payload) error {
	start := time.Now()
	err := s.next.Upsert(ctx, id, vector, payload)
	s.observe("upsert", start, err)
	return err
}

func (s *VectorStore) Delete(ctx context.Context, id domain.SongID) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe("delete", start, err)
	return err
}

func (s *VectorStore) Scroll(ctx context.Context, limit int) ([]domain.Payload, error) {
	start := time.Now()
	out, err := s.next.Scroll(ctx, limit)
	s.observe("scroll", start, err)
	return out, err
}
