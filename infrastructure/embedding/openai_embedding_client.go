package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"song-search-api/domain"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the sentence-transformers model the song collection is built with.
const DefaultModel = "all-MiniLM-L6-v2"

// Config selects the OpenAI-compatible embedding endpoint.
type Config struct {
	// BaseURL of the API, e.g. http://localhost:8080/v1. Empty means api.openai.com.
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAIEmbeddingClient implements the domain.EmbeddingClient interface using the OpenAI embeddings API.
// Any server speaking that API (OpenAI, text-embeddings-inference, Ollama, LocalAI) can back it.
type OpenAIEmbeddingClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbeddingClient creates a new OpenAIEmbeddingClient.
// An API key is only required when talking to the public OpenAI endpoint.
func NewOpenAIEmbeddingClient(cfg Config) (*OpenAIEmbeddingClient, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("EMBEDDING_API_KEY or EMBEDDING_BASE_URL must be set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbeddingClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(cfg.Model),
	}, nil
}

// GenerateEmbeddings generates embeddings for the given texts using the configured model.
// Results are returned in input order.
func (c *OpenAIEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbedding, len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	embeddings := make([]domain.Embedding, len(data))
	for i, d := range data {
		embeddings[i] = domain.Embedding(d.Embedding)
	}

	return embeddings, nil
}
