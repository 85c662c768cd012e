package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"paperchat/internal/domain"
)

// Task hints for the embedding model. Document and query vectors are
// placed in compatible but distinct regions of the space, optimized
// for asymmetric search (short query against long document). The two
// must never be swapped.
const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// Config carries the credentials and model names for the hosted
// embedding and generation models. It is owned by the caller and
// passed in explicitly; the package keeps no ambient state.
type Config struct {
	APIKey          string
	EmbeddingModel  string
	GenerationModel string
}

// Client wraps the Gemini API for embedding and generation.
type Client struct {
	client    *genai.Client
	embModel  string
	genModel  string
	dimension int
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing API key")
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-004"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gemini-flash-latest"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: c, embModel: cfg.EmbeddingModel, genModel: cfg.GenerationModel}, nil
}

// EmbedDocuments embeds chunk texts for storage, one vector per input
// in order. Any individual failure aborts the whole batch; callers
// decide whether to skip the file or retry.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := c.embed(ctx, text, taskDocument)
		if err != nil {
			return nil, &domain.EmbeddingError{Mode: domain.EmbedDocument, Err: err}
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// EmbedQuery embeds a user question for retrieval.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := c.embed(ctx, text, taskQuery)
	if err != nil {
		return nil, &domain.EmbeddingError{Mode: domain.EmbedQuery, Err: err}
	}
	return v, nil
}

// Dimension reports the vector dimensionality observed on the first
// successful embedding call, or zero before that.
func (c *Client) Dimension() int { return c.dimension }

func (c *Client) embed(ctx context.Context, text, task string) ([]float32, error) {
	resp, err := c.client.Models.EmbedContent(ctx, c.embModel, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: task,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("model %s returned no embedding", c.embModel)
	}
	v := resp.Embeddings[0].Values
	if c.dimension == 0 {
		c.dimension = len(v)
	}
	return v, nil
}

// Generate returns the complete answer for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.genModel, genai.Text(prompt), nil)
	if err != nil {
		return "", &domain.GenerationError{Err: err}
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &domain.GenerationError{Err: fmt.Errorf("model %s returned an empty answer", c.genModel)}
	}
	return text, nil
}

// GenerateStream delivers the answer as text fragments to fn, in
// order, until the model finishes or fn returns an error.
func (c *Client) GenerateStream(ctx context.Context, prompt string, fn func(fragment string) error) error {
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.genModel, genai.Text(prompt), nil) {
		if err != nil {
			return &domain.GenerationError{Err: err}
		}
		fragment := resp.Text()
		if fragment == "" {
			continue
		}
		if err := fn(fragment); err != nil {
			return err
		}
	}
	return nil
}

// ModelInfo describes one available hosted model.
type ModelInfo struct {
	Name       string
	Generation bool
	Embedding  bool
}

// ListModels reports which hosted models support generation and which
// support embedding, for picking config values.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("gemini: list models: %w", err)
		}
		info := ModelInfo{Name: m.Name}
		for _, action := range m.SupportedActions {
			switch action {
			case "generateContent":
				info.Generation = true
			case "embedContent":
				info.Embedding = true
			}
		}
		if info.Generation || info.Embedding {
			out = append(out, info)
		}
	}
	return out, nil
}
