package driven

import (
	"context"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
)

// Normaliser converts raw content into plain text plus metadata.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts text and format-specific metadata from raw bytes.
	// Scanned or unsupported content yields empty text, not an error.
	Normalise(ctx context.Context, raw *domain.RawContent) (*ExtractResult, error)
}

// ExtractResult contains the output of extraction.
// Chunking is handled separately by the chunker.
type ExtractResult struct {
	// Text is the full plain-text content, empty for binary content.
	Text string

	// Metadata holds format-specific attributes (author, title, counts).
	// File-level attributes are added by the pipeline, not the normaliser.
	Metadata map[string]string
}
