package domain

import (
	"fmt"
	"time"
)

// ContentRecord is the canonical indexed representation of one piece of
// content-addressed data. At most one record exists per ContentID; re-indexing
// replaces the whole record atomically.
type ContentRecord struct {
	// ContentID is the stable hash of the original bytes. Primary key.
	ContentID string

	// SourceName is the original filename. Diagnostic only.
	SourceName string

	// MIMEType is the declared or sniffed content type.
	MIMEType string

	// Metadata contains extracted and sidecar-supplied key-value pairs.
	Metadata map[string]string

	// Chunks holds the embedded units in document order.
	Chunks []ChunkRecord

	// IndexedAt is when the record was last successfully (re)indexed.
	IndexedAt time.Time
}

// ChunkRecord is one embedded unit of text within a ContentRecord.
type ChunkRecord struct {
	// ID is derived from the content ID and ordinal position, so re-indexing
	// unchanged bytes reproduces the same chunk IDs.
	ID string

	// ContentID links to the parent ContentRecord.
	ContentID string

	// Position is the ordinal position within the document.
	Position int

	// Text is the exact substring that was embedded, kept for snippeting.
	Text string

	// Embedding is the vector representation. Its length must equal the
	// store's fixed dimension. Never mutated in place.
	Embedding []float32
}

// ChunkID builds the deterministic chunk identifier for a content ID and
// ordinal position.
func ChunkID(contentID string, position int) string {
	return fmt.Sprintf("%s:%04d", contentID, position)
}

// ContentSummary is the manifest row returned by list operations. It carries
// no chunk payload so enumeration never scans vectors.
type ContentSummary struct {
	ContentID  string
	SourceName string
	MIMEType   string
	ChunkCount int
	IndexedAt  time.Time
}

// RawContent is the fetched input to the extraction pipeline: opaque bytes
// plus the identity and type hints needed to pick a normaliser.
type RawContent struct {
	// ContentID is the content-addressed identifier the bytes were fetched by.
	ContentID string

	// SourceName is the original filename, used for titles and diagnostics.
	SourceName string

	// MIMEType drives normaliser selection.
	MIMEType string

	// Data is the raw bytes.
	Data []byte
}
