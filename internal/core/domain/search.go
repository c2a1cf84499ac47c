package domain

// SearchResult represents a single similarity search hit.
type SearchResult struct {
	// ContentID identifies the matched content item.
	ContentID string

	// ChunkID identifies the specific chunk that matched.
	ChunkID string

	// Score is the cosine similarity between query and chunk vectors.
	Score float64

	// Snippet is a bounded excerpt of the chunk text for display.
	Snippet string

	// Metadata is a copy of the content item's metadata.
	Metadata map[string]string
}
