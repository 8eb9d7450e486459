package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"ragmail/internal/domain"
)

const (
	DefaultURL            = "http://localhost:11434"
	DefaultEmbeddingModel = "nomic-embed-text"
)

// Config configures the Ollama client.
type Config struct {
	URL            string
	EmbeddingModel string
	Timeout        time.Duration
}

// Client talks to a local Ollama server for embeddings and completions.
type Client struct {
	api            *api.Client
	embeddingModel string
}

func NewClient(cfg Config) (*Client, error) {
	raw := cfg.URL
	if raw == "" {
		raw = DefaultURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ollama url %q: %v", domain.ErrConfiguration, raw, err)
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	t := cfg.Timeout
	if t == 0 {
		t = 5 * time.Minute
	}
	return &Client{
		api:            api.NewClient(base, &http.Client{Timeout: t}),
		embeddingModel: cfg.EmbeddingModel,
	}, nil
}

func (c *Client) Name() string { return "ollama" }

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.api.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  c.embeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embeddings: %v", domain.ErrExternalService, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama embeddings: empty embedding", domain.ErrExternalService)
	}
	return resp.Embedding, nil
}

// Generate runs a non-streaming completion. num_predict bounds the output length.
func (c *Client) Generate(ctx context.Context, prompt string, opts domain.GenerateOptions) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  opts.Model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}
	var out strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama generate: %v", domain.ErrExternalService, err)
	}
	return out.String(), nil
}
