// Package openai provides an embedding service adapter for the OpenAI
// embeddings API and compatible endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lodestone-labs/lodestone/internal/adapters/driven/embedding"
	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// DefaultRequestRate is the proactive client-side throttle in
	// requests per second, applied before any request leaves.
	DefaultRequestRate = 5.0
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
// It is passed once at construction; there is no process-wide state.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	Dimensions int

	// Retry bounds backoff behaviour for rate-limit and transient failures.
	Retry embedding.Policy

	// RequestRate throttles outgoing requests (default: 5 req/s).
	RequestRate float64
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	retry      embedding.Policy
	limiter    *rate.Limiter
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestRate <= 0 {
		cfg.RequestRate = DefaultRequestRate
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 1536 // Default fallback
		}
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
		retry:      cfg.Retry,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestRate), 1),
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidInput)
	}

	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", domain.ErrTransient)
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts. The result is aligned
// with the input order. Retryable failures are retried with backoff before
// the whole batch fails.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: empty text in batch", domain.ErrInvalidInput)
		}
	}

	var result [][]float32
	err := embedding.Do(ctx, s.retry, func() error {
		vectors, err := s.request(ctx, texts)
		if err != nil {
			return err
		}
		result = vectors
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EmbedEach generates embeddings with per-input outcomes. The whole batch
// is attempted first; on a non-fatal batch failure each input is retried
// individually so successes are never discarded with failures.
func (s *EmbeddingService) EmbedEach(ctx context.Context, texts []string) []driven.BatchItem {
	items := make([]driven.BatchItem, len(texts))

	vectors, err := s.EmbedBatch(ctx, texts)
	if err == nil {
		for i := range vectors {
			items[i].Vector = vectors[i]
		}
		return items
	}

	if embedding.IsFatal(err) || ctx.Err() != nil {
		for i := range items {
			items[i].Err = err
		}
		return items
	}

	// Batch failed for a retryable or per-input reason; isolate each input
	// so successes are kept and only the offenders are reported.
	var fatal error
	for i, text := range texts {
		if fatal != nil {
			items[i].Err = fatal
			continue
		}

		items[i].Vector, items[i].Err = s.Embed(ctx, text)
		if items[i].Err != nil && (embedding.IsFatal(items[i].Err) || ctx.Err() != nil) {
			fatal = items[i].Err
		}
	}
	return items
}

// request performs one embeddings API call and classifies any failure.
func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := embeddingRequest{
		Model: s.model,
		Input: texts,
	}

	// Only include dimensions for models that accept the parameter.
	if s.model == "text-embedding-3-small" || s.model == "text-embedding-3-large" {
		reqBody.Dimensions = s.dimensions
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, embedding.ClassifyStatus(0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, embedding.ClassifyStatus(0, err.Error())
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := string(body)
		if embedResp.Error != nil {
			message = embedResp.Error.Message
		}
		return nil, embedding.ClassifyStatus(resp.StatusCode, message)
	}

	// Convert float64 to float32 and order by index.
	vectors := make([][]float32, len(texts))
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("%w: response index %d out of range", domain.ErrTransient, data.Index)
		}

		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors[data.Index] = vec
	}

	for i, vec := range vectors {
		if vec == nil {
			return nil, fmt.Errorf("%w: missing embedding for input %d", domain.ErrTransient, i)
		}
		if len(vec) != s.dimensions {
			return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vec), s.dimensions)
		}
	}

	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return embedding.ClassifyStatus(0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return embedding.ClassifyStatus(resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
