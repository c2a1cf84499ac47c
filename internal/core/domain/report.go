package domain

// IndexReport describes the outcome of indexing one content item.
type IndexReport struct {
	// ContentID is the item that was indexed.
	ContentID string

	// ChunkCount is the number of chunks stored with vectors.
	ChunkCount int

	// SkippedChunks lists chunk IDs whose embedding failed after retries.
	SkippedChunks []string

	// Degraded is true when extraction failed and the item was indexed with
	// no searchable text, or when chunks were skipped.
	Degraded bool
}

// RebuildFailure records one identifier that could not be re-indexed.
type RebuildFailure struct {
	ContentID string
	Reason    string
}

// RebuildReport summarises a full index rebuild. One identifier's failure
// never aborts the rest.
type RebuildReport struct {
	// Succeeded counts identifiers indexed without fatal error.
	Succeeded int

	// Skipped counts identifiers indexed in degraded form.
	Skipped int

	// Failed counts identifiers that could not be indexed at all.
	Failed int

	// Failures lists each failed identifier with its reason.
	Failures []RebuildFailure
}
