package driven

// Chunker splits extracted text into bounded segments for embedding.
// Implementations must be deterministic: identical input always yields
// identical boundaries.
type Chunker interface {
	// Chunk splits text into ordered segments. Empty text yields zero
	// segments, never one empty segment.
	Chunk(text string) []string
}
