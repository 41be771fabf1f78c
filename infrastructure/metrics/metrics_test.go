package metrics

import (
	"context"
	"errors"
	"testing"

	"song-search-api/domain"
	"song-search-api/domain/domaintest"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumented(t *testing.T) {
	ctx := context.Background()

	t.Run("Embedder", func(t *testing.T) {
		m := New()
		fake := domaintest.NewEmbedder(2)
		e := InstrumentEmbedder(fake, m)

		if _, err := e.GenerateEmbeddings(ctx, []string{"a"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		fake.Err = errors.New("boom")
		if _, err := e.GenerateEmbeddings(ctx, []string{"a"}); err == nil {
			t.Fatal("expected wrapped error to pass through")
		}

		if n := testutil.CollectAndCount(m.EmbeddingDuration); n != 2 {
			t.Errorf("expected ok and error series, got %d", n)
		}
	})

	t.Run("Store", func(t *testing.T) {
		m := New()
		s := InstrumentStore(domaintest.NewStore(), m)

		_ = s.Upsert(ctx, "1", domain.Embedding{1}, domain.Payload{})
		_, _ = s.Search(ctx, domain.Embedding{1}, 1)
		_ = s.Delete(ctx, "1")
		_, _ = s.Scroll(ctx, 10)

		if n := testutil.CollectAndCount(m.VectorStoreDuration); n != 4 {
			t.Errorf("expected one series per operation, got %d", n)
		}
	})

	t.Run("Requests Counter", func(t *testing.T) {
		m := New()
		m.Requests.WithLabelValues("/search", "POST", "200").Inc()
		m.Requests.WithLabelValues("/search", "POST", "200").Inc()

		if v := testutil.ToFloat64(m.Requests.WithLabelValues("/search", "POST", "200")); v != 2 {
			t.Errorf("expected 2 requests, got %v", v)
		}
	})
}
