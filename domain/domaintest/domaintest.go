// Package domaintest provides in-memory doubles for the domain ports.
package domaintest

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"sync"

	"song-search-api/domain"
)

// Embedder is a deterministic [domain.EmbeddingClient].
//
// Texts listed in Vectors map to that vector; any other text maps to a
// vector of Dim values derived from its hash.
type Embedder struct {
	Dim     int
	Vectors map[string]domain.Embedding
	Err     error

	mu    sync.Mutex
	Calls [][]string
}

// NewEmbedder returns an [Embedder] producing vectors of dimension dim.
func NewEmbedder(dim int) *Embedder {
	return &Embedder{Dim: dim, Vectors: map[string]domain.Embedding{}}
}

func (e *Embedder) GenerateEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	e.mu.Lock()
	e.Calls = append(e.Calls, append([]string(nil), texts...))
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Embedding, len(texts))
	for i, t := range texts {
		out[i] = e.Encode(t)
	}
	return out, nil
}

// Encode returns the vector the embedder produces for a single text.
func (e *Embedder) Encode(text string) domain.Embedding {
	if v, ok := e.Vectors[text]; ok {
		return v
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make(domain.Embedding, e.Dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed>>40)/float32(1<<24) - 0.5
	}
	return v
}

// Record is a point held by [Store].
type Record struct {
	ID      domain.SongID
	Vector  domain.Embedding
	Payload domain.Payload
}

// Store is an in-memory [domain.VectorStore] ranking by cosine similarity.
type Store struct {
	Err error

	mu       sync.Mutex
	records  map[domain.SongID]Record
	order    []domain.SongID
	Upserts  []Record
	Deletes  []domain.SongID
	Searches []domain.Embedding
	Scrolls  []int
}

// NewStore returns an empty [Store].
func NewStore() *Store {
	return &Store{records: map[domain.SongID]Record{}}
}

func (s *Store) Search(ctx context.Context, vector domain.Embedding, topK int) ([]domain.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Searches = append(s.Searches, vector)
	if s.Err != nil {
		return nil, s.Err
	}

	type hit struct {
		score   float64
		payload domain.Payload
	}
	hits := make([]hit, 0, len(s.records))
	for _, id := range s.order {
		r := s.records[id]
		hits = append(hits, hit{score: cosine(vector, r.Vector), payload: r.Payload})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if topK <= 0 {
		return []domain.Payload{}, nil
	}
	if topK < len(hits) {
		hits = hits[:topK]
	}
	out := make([]domain.Payload, len(hits))
	for i, h := range hits {
		out[i] = h.payload
	}
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, id domain.SongID, vector domain.Embedding, payload domain.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{ID: id, Vector: vector, Payload: payload}
	s.Upserts = append(s.Upserts, rec)
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = rec
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.SongID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deletes = append(s.Deletes, id)
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Scroll(ctx context.Context, limit int) ([]domain.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scrolls = append(s.Scrolls, limit)
	if s.Err != nil {
		return nil, s.Err
	}
	out := []domain.Payload{}
	for _, id := range s.order {
		if len(out) == limit {
			break
		}
		out = append(out, s.records[id].Payload)
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func cosine(a, b domain.Embedding) float64 {
	if len(a) != len(b) {
		return math.Inf(-1)
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
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
