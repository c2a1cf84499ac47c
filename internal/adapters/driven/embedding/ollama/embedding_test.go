package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-labs/lodestone/internal/adapters/driven/embedding"
	"github.com/lodestone-labs/lodestone/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewEmbeddingService(Config{
		BaseURL:    server.URL,
		Model:      "nomic-embed-text",
		Dimensions: 3,
		Retry:      embedding.Policy{MaxAttempts: 3, BaseDelay: 1, MaxDelay: 1},
	})
}

func TestEmbed(t *testing.T) {
	var gotPrompt string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Prompt

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}}) //nolint:errcheck
	})

	vec, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello", gotPrompt)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbed_EmptyTextRejectedWithoutCall(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	_, err := svc.Embed(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, called)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2}}) //nolint:errcheck
	})

	_, err := svc.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbed_ServerErrorRetriedThenExhausted(t *testing.T) {
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Embed(context.Background(), "hello")

	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 3, calls)

	var exhausted *domain.EmbeddingExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
}

func TestEmbedBatch_Sequential(t *testing.T) {
	var prompts []string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompts = append(prompts, req.Prompt)

		json.NewEncoder(w).Encode(embedResponse{ //nolint:errcheck
			Embedding: []float64{float64(len(prompts)), 0, 0},
		})
	})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, prompts)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
}

func TestEmbedEach_PartialFailure(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Prompt == "poison" {
			http.Error(w, "bad input", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 0, 0}}) //nolint:errcheck
	})

	items := svc.EmbedEach(context.Background(), []string{"ok", "poison", "also ok"})
	require.Len(t, items, 3)

	assert.NoError(t, items[0].Err)
	assert.Error(t, items[1].Err)
	assert.NoError(t, items[2].Err, "one bad input must not poison the rest")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestDefaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}
