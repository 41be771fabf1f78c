package application

import (
	"context"
	"fmt"
	"time"

	"song-search-api/domain"

	"github.com/google/uuid"
)

const (
	// DefaultSearchTopK is used by /search when top_k is absent.
	DefaultSearchTopK = 5
	// DefaultHomeTopK is used by /search-in-home when top_k is absent.
	DefaultHomeTopK = 10
	// ListPageSize is the size of the single page returned when listing songs.
	ListPageSize = 100
)

// SongServiceConfig tunes the blocking policy of the external calls.
// A zero timeout leaves the call bounded only by the request context.
type SongServiceConfig struct {
	// Dimension is the length of one embedding. Zero skips the length check.
	Dimension          int
	EmbeddingTimeout   time.Duration
	VectorStoreTimeout time.Duration
}

// SongService turns song metadata into vectors and forwards them to the vector store.
type SongService struct {
	embedder domain.EmbeddingClient
	store    domain.VectorStore
	cfg      SongServiceConfig
}

// NewSongService creates a new SongService.
func NewSongService(embedder domain.EmbeddingClient, store domain.VectorStore, cfg SongServiceConfig) *SongService {
	return &SongService{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// BuildVector embeds the three parts of q in one model call and concatenates them
// as (title+artist, category, description).
func (s *SongService) BuildVector(ctx context.Context, q domain.SongQuery) (domain.Embedding, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.EmbeddingTimeout)
	defer cancel()

	texts := q.Texts()
	parts, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, embeddingError(err)
	}
	if len(parts) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbedding, len(texts), len(parts))
	}
	if s.cfg.Dimension > 0 {
		for i, p := range parts {
			if len(p) != s.cfg.Dimension {
				return nil, fmt.Errorf("%w: embedding %d has dimension %d, expected %d", domain.ErrEmbedding, i, len(p), s.cfg.Dimension)
			}
		}
	}

	return domain.Concat(parts...), nil
}

// embeddingError tags err as an embedding failure unless it already is one.
// Deadline errors stay matchable with errors.Is.
func embeddingError(err error) error {
	if isExternal(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
}

func storeError(err error) error {
	if isExternal(err) || isValidation(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrVectorStore, err)
}

// Search finds the songs nearest to q. A non-positive topK means [DefaultSearchTopK].
func (s *SongService) Search(ctx context.Context, q domain.SongQuery, topK int) ([]domain.Payload, error) {
	if topK <= 0 {
		topK = DefaultSearchTopK
	}

	vector, err := s.BuildVector(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, vector, topK)
}

// SearchHome averages the vectors of all given songs elementwise and searches once with the mean.
// A non-positive topK means [DefaultHomeTopK].
func (s *SongService) SearchHome(ctx context.Context, songs []domain.SongQuery, topK int) ([]domain.Payload, error) {
	if len(songs) == 0 {
		return nil, domain.Invalid("Song list is required")
	}
	if topK <= 0 {
		topK = DefaultHomeTopK
	}

	vectors := make([]domain.Embedding, 0, len(songs))
	for _, q := range songs {
		v, err := s.BuildVector(ctx, q)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}

	mean, err := domain.Mean(vectors)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, mean, topK)
}

func (s *SongService) search(ctx context.Context, vector domain.Embedding, topK int) ([]domain.Payload, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.VectorStoreTimeout)
	defer cancel()

	results, err := s.store.Search(ctx, vector, topK)
	if err != nil {
		return nil, storeError(err)
	}
	if results == nil {
		results = []domain.Payload{}
	}
	return results, nil
}

// AddSong validates song, embeds it and upserts it. An empty id is replaced by a random UUID.
// It returns the id the song was stored under.
func (s *SongService) AddSong(ctx context.Context, song domain.Song) (domain.SongID, error) {
	if err := song.Validate(); err != nil {
		return "", err
	}
	if song.ID == "" {
		song.ID = domain.SongID(uuid.New().String())
	}
	if err := song.ID.Validate(); err != nil {
		return "", err
	}
	song.Lyrics = ""

	vector, err := s.BuildVector(ctx, song.SongQuery)
	if err != nil {
		return "", err
	}
	song.Embedding = vector

	ctx, cancel := withTimeout(ctx, s.cfg.VectorStoreTimeout)
	defer cancel()

	if err := s.store.Upsert(ctx, song.ID, song.Embedding, song.Payload()); err != nil {
		return "", storeError(err)
	}
	return song.ID, nil
}

// DeleteSong removes the song with the given id. Unknown ids succeed.
func (s *SongService) DeleteSong(ctx context.Context, id domain.SongID) error {
	// Id 0 counts as missing here, as it always has for deletes.
	if id == "0" {
		return domain.Invalid("ID is required")
	}
	if err := id.Validate(); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.cfg.VectorStoreTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err)
	}
	return nil
}

// ListSongs returns the payloads of the first [ListPageSize] songs.
// Further pages are not fetched.
func (s *SongService) ListSongs(ctx context.Context) ([]domain.Payload, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.VectorStoreTimeout)
	defer cancel()

	results, err := s.store.Scroll(ctx, ListPageSize)
	if err != nil {
		return nil, storeError(err)
	}
	if results == nil {
		results = []domain.Payload{}
	}
	return results, nil
}
