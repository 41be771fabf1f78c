package domain

import (
	"context"
	"fmt"
)

// Embedding represents a numerical vector representation of text.
type Embedding []float32

// EmbeddingClient defines the interface for generating embeddings from text.
type EmbeddingClient interface {
	// GenerateEmbeddings generates embeddings for the given texts, one per text and in the same order.
	GenerateEmbeddings(ctx context.Context, texts []string) ([]Embedding, error)
}

// Concat joins the given embeddings end to end, preserving argument order.
func Concat(parts ...Embedding) Embedding {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make(Embedding, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Mean returns the elementwise mean of the given embeddings.
// All embeddings must share one dimension.
func Mean(vectors []Embedding) (Embedding, error) {
	if len(vectors) == 0 {
		return nil, Invalid("No embeddings were calculated")
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(v), dim)
		}
		for j, x := range v {
			sum[j] += float64(x)
		}
	}

	out := make(Embedding, dim)
	n := float64(len(vectors))
	for j := range sum {
		out[j] = float32(sum[j] / n)
	}
	return out, nil
}
