package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"

	openrouterx "github.com/tanpawarit/agentic-query-router/pkg/openrouter"
)

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type EmbeddingConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey    string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model     string        `envconfig:"MODEL" split_words:"true" default:"text-embedding-3-small"`
	BatchSize int           `envconfig:"BATCH_SIZE" split_words:"true" default:"64"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// OpenAIEmbedder calls the embeddings endpoint of any OpenAI-compatible API.
type OpenAIEmbedder struct {
	client    *openaisdk.Client
	model     string
	batchSize int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(cfg EmbeddingConfig) (*OpenAIEmbedder, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("embedding model is required")
	}
	client := openrouterx.NewClient(openrouterx.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})
	if client == nil {
		return nil, errors.New("embedding api key is required")
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	return &OpenAIEmbedder{client: client, model: model, batchSize: batch}, nil
}

// Embed keeps output order aligned with texts across batches.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
			Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
			Model: openaisdk.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embeddings returned %d vectors for %d inputs", len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			idx := int(d.Index)
			if idx < 0 || idx >= len(batch) {
				return nil, fmt.Errorf("embedding index %d out of range", idx)
			}
			out[start+idx] = d.Embedding
		}
	}
	return out, nil
}
