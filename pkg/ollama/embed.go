// Package ollama provides the Ollama-backed embedding provider used for
// both corpus indexing and query-time retrieval.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/aibroker/support-assistant/engine/domain"
)

// EmbedClient turns text into fixed-dimension float vectors via
// Ollama's HTTP API. Safe for concurrent use.
type EmbedClient struct {
	baseURL string
	model   string
	client  *http.Client

	mu   sync.Mutex
	dims int // discovered on first probe, fixed per model
}

// NewEmbedClient creates an Ollama embedding client.
func NewEmbedClient(baseURL, model string) *EmbedClient {
	return &EmbedClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

// Model returns the configured model name.
func (c *EmbedClient) Model() string { return c.model }

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
}

func (c *EmbedClient) embed(ctx context.Context, text string) ([]float32, error) {
	body, _ := json.Marshal(ollamaEmbedReq{Model: c.model, Prompt: text})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrEmbeddingUnavailable, resp.StatusCode)
	}

	var result ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrEmbeddingUnavailable, err)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// EmbedOne embeds a single text.
func (c *EmbedClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.rememberDims(len(vec))
	return vec, nil
}

// EmbedMany embeds texts one by one, preserving input order and length.
func (c *EmbedClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d]: %w", i, err)
		}
		out[i] = vec
	}
	if len(out) > 0 {
		c.rememberDims(len(out[0]))
	}
	return out, nil
}

// Dimension returns the model's output dimensionality, probing the
// model once and caching the result.
func (c *EmbedClient) Dimension(ctx context.Context) (int, error) {
	c.mu.Lock()
	dims := c.dims
	c.mu.Unlock()
	if dims > 0 {
		return dims, nil
	}

	vec, err := c.embed(ctx, "dimension probe")
	if err != nil {
		return 0, err
	}
	c.rememberDims(len(vec))
	return len(vec), nil
}

func (c *EmbedClient) rememberDims(n int) {
	if n == 0 {
		return
	}
	c.mu.Lock()
	c.dims = n
	c.mu.Unlock()
}
