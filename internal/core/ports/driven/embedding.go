package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations classify provider failures into the domain taxonomy
// (auth, rate-limit, transient, invalid input) and handle their own
// bounded retries; callers only see the final outcome.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The returned
	// slice is aligned with the input order. It fails as a whole; use
	// EmbedEach when partial success matters.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedEach generates embeddings for multiple texts, reporting a
	// per-input outcome so one failure does not discard the other vectors.
	EmbedEach(ctx context.Context, texts []string) []BatchItem

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the record store's fixed dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// BatchItem is the per-input outcome of EmbedEach. Exactly one of Vector
// and Err is set.
type BatchItem struct {
	Vector []float32
	Err    error
}
