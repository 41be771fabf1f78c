package application

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"song-search-api/domain"
	"song-search-api/domain/domaintest"
)

func newTestService(dim int) (*SongService, *domaintest.Embedder, *domaintest.Store) {
	embedder := domaintest.NewEmbedder(dim)
	store := domaintest.NewStore()
	return NewSongService(embedder, store, SongServiceConfig{Dimension: dim}), embedder, store
}

func equalVectors(a, b domain.Embedding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var abcd = domain.SongQuery{Title: "A", Artist: "B", Category: "C", Description: "D"}

func TestSongService(t *testing.T) {
	ctx := context.Background()

	t.Run("BuildVector", func(t *testing.T) {
		t.Run("Concatenates In Fixed Order", func(t *testing.T) {
			svc, embedder, _ := newTestService(2)
			embedder.Vectors["A B"] = domain.Embedding{1, 2}
			embedder.Vectors["C"] = domain.Embedding{3, 4}
			embedder.Vectors["D"] = domain.Embedding{5, 6}

			for range 3 {
				got, err := svc.BuildVector(ctx, abcd)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if want := (domain.Embedding{1, 2, 3, 4, 5, 6}); !equalVectors(got, want) {
					t.Errorf("expected %v, got %v", want, got)
				}
			}

			call := embedder.Calls[0]
			if len(call) != 3 || call[0] != "A B" || call[1] != "C" || call[2] != "D" {
				t.Errorf("unexpected texts sent to the model: %v", call)
			}
		})

		t.Run("Rejects Wrong Dimension", func(t *testing.T) {
			svc, embedder, _ := newTestService(2)
			embedder.Vectors["C"] = domain.Embedding{1, 2, 3}

			if _, err := svc.BuildVector(ctx, abcd); !errors.Is(err, domain.ErrEmbedding) {
				t.Errorf("expected embedding error, got %v", err)
			}
		})

		t.Run("Wraps Model Errors", func(t *testing.T) {
			svc, embedder, _ := newTestService(2)
			embedder.Err = errors.New("connection refused")

			if _, err := svc.BuildVector(ctx, abcd); !errors.Is(err, domain.ErrEmbedding) {
				t.Errorf("expected embedding error, got %v", err)
			}
		})

		t.Run("Applies Timeout", func(t *testing.T) {
			embedder := &blockingEmbedder{}
			svc := NewSongService(embedder, domaintest.NewStore(), SongServiceConfig{EmbeddingTimeout: 10 * time.Millisecond})

			_, err := svc.BuildVector(ctx, abcd)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected deadline exceeded, got %v", err)
			}
			if !errors.Is(err, domain.ErrEmbedding) {
				t.Errorf("expected embedding error, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Uses Default TopK", func(t *testing.T) {
			svc, _, store := newTestService(2)
			got, err := svc.Search(ctx, abcd, 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got == nil {
				t.Error("expected an empty list, not nil")
			}
			if len(store.Searches) != 1 || len(store.Searches[0]) != 6 {
				t.Errorf("expected one search with a 6-value vector, got %v", store.Searches)
			}
		})

		t.Run("Store Failure", func(t *testing.T) {
			svc, _, store := newTestService(2)
			store.Err = errors.New("unavailable")
			if _, err := svc.Search(ctx, abcd, 1); !errors.Is(err, domain.ErrVectorStore) {
				t.Errorf("expected vector store error, got %v", err)
			}
		})
	})

	t.Run("SearchHome", func(t *testing.T) {
		t.Run("Averages Song Vectors", func(t *testing.T) {
			svc, embedder, store := newTestService(1)
			embedder.Vectors["A B"] = domain.Embedding{1}
			embedder.Vectors["C"] = domain.Embedding{2}
			embedder.Vectors["D"] = domain.Embedding{3}
			embedder.Vectors["E F"] = domain.Embedding{3}
			embedder.Vectors["G"] = domain.Embedding{4}
			embedder.Vectors["H"] = domain.Embedding{7}

			songs := []domain.SongQuery{abcd, {Title: "E", Artist: "F", Category: "G", Description: "H"}}
			if _, err := svc.SearchHome(ctx, songs, 0); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(store.Searches) != 1 {
				t.Fatalf("expected exactly one search, got %d", len(store.Searches))
			}
			if want := (domain.Embedding{2, 3, 5}); !equalVectors(store.Searches[0], want) {
				t.Errorf("expected mean %v, got %v", want, store.Searches[0])
			}
		})

		t.Run("Empty Song List", func(t *testing.T) {
			svc, _, store := newTestService(1)
			_, err := svc.SearchHome(ctx, nil, 3)
			if !errors.Is(err, domain.ErrValidation) || err.Error() != "Song list is required" {
				t.Errorf("expected song list validation error, got %v", err)
			}
			if len(store.Searches) != 0 {
				t.Error("expected no search")
			}
		})
	})

	t.Run("AddSong", func(t *testing.T) {
		t.Run("Upserts Concatenated Vector", func(t *testing.T) {
			svc, embedder, store := newTestService(2)
			song := domain.Song{SongQuery: abcd, ID: "42"}

			id, err := svc.AddSong(ctx, song)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "42" {
				t.Errorf("expected id 42, got %s", id)
			}

			if len(store.Upserts) != 1 {
				t.Fatalf("expected one upsert, got %d", len(store.Upserts))
			}
			rec := store.Upserts[0]
			want := domain.Concat(embedder.Encode("A B"), embedder.Encode("C"), embedder.Encode("D"))
			if !equalVectors(rec.Vector, want) {
				t.Errorf("expected %v, got %v", want, rec.Vector)
			}
			if rec.Payload["id"] != "42" || rec.Payload["title"] != "A" || rec.Payload["lyrics"] != "" {
				t.Errorf("unexpected payload %v", rec.Payload)
			}
		})

		t.Run("Missing Field Issues No Upsert", func(t *testing.T) {
			svc, embedder, store := newTestService(2)
			song := domain.Song{SongQuery: domain.SongQuery{Title: "A", Artist: "B", Category: "C"}, ID: "1"}

			if _, err := svc.AddSong(ctx, song); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(store.Upserts) != 0 || len(embedder.Calls) != 0 {
				t.Error("expected no model or store call")
			}
		})

		t.Run("Generates Missing ID", func(t *testing.T) {
			svc, _, store := newTestService(2)
			id, err := svc.AddSong(ctx, domain.Song{SongQuery: abcd})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if err := id.Validate(); err != nil {
				t.Errorf("expected a valid generated id, got %q", id)
			}
			if store.Upserts[0].Payload["id"] != string(id) {
				t.Errorf("expected payload id %s, got %v", id, store.Upserts[0].Payload["id"])
			}
		})

		t.Run("Rejects Malformed ID", func(t *testing.T) {
			svc, _, store := newTestService(2)
			if _, err := svc.AddSong(ctx, domain.Song{SongQuery: abcd, ID: "song-1"}); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(store.Upserts) != 0 {
				t.Error("expected no upsert")
			}
		})
	})

	t.Run("DeleteSong", func(t *testing.T) {
		svc, _, store := newTestService(2)

		if err := svc.DeleteSong(ctx, ""); !errors.Is(err, domain.ErrValidation) || err.Error() != "ID is required" {
			t.Errorf("expected id validation error, got %v", err)
		}
		if err := svc.DeleteSong(ctx, "0"); !errors.Is(err, domain.ErrValidation) || err.Error() != "ID is required" {
			t.Errorf("expected id 0 to count as missing, got %v", err)
		}
		if err := svc.DeleteSong(ctx, "999"); err != nil {
			t.Errorf("expected unknown id to succeed, got %v", err)
		}
		if len(store.Deletes) != 1 {
			t.Errorf("expected one delete, got %d", len(store.Deletes))
		}
	})

	t.Run("ListSongs", func(t *testing.T) {
		svc, _, store := newTestService(1)
		for i := range 120 {
			id := domain.SongID(strconv.Itoa(i))
			_ = store.Upsert(ctx, id, domain.Embedding{1}, domain.Payload{"id": string(id)})
		}

		got, err := svc.ListSongs(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != ListPageSize {
			t.Errorf("expected %d songs, got %d", ListPageSize, len(got))
		}
		if len(store.Scrolls) != 1 || store.Scrolls[0] != ListPageSize {
			t.Errorf("expected a single page of %d, got %v", ListPageSize, store.Scrolls)
		}
	})
}

// blockingEmbedder waits until the context ends.
type blockingEmbedder struct{}

func (blockingEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
