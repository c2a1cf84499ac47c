package driving

import (
	"context"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
)

// IndexerService manages the lifecycle of indexed content.
//
// Index and Remove serialize per content ID; operations on different IDs
// proceed concurrently. Readers never observe a half-replaced record.
type IndexerService interface {
	// Index fetches, extracts, chunks, embeds and stores one content item.
	// Extraction failure degrades to an empty-chunk record; chunks whose
	// embedding fails after retries are skipped and reported. A content
	// store miss returns domain.ErrContentNotFound and changes nothing.
	Index(ctx context.Context, contentID string) (*domain.IndexReport, error)

	// IndexWithHints indexes with caller-supplied source name, MIME type and
	// sidecar metadata, for callers that know more than the content store.
	IndexWithHints(ctx context.Context, contentID string, hints IndexHints) (*domain.IndexReport, error)

	// Remove deletes a record. Removing an absent ID is not an error.
	Remove(ctx context.Context, contentID string) error

	// Get returns the stored record for an ID, or domain.ErrContentNotFound.
	Get(ctx context.Context, contentID string) (*domain.ContentRecord, error)

	// List enumerates all records via the manifest.
	List(ctx context.Context) ([]domain.ContentSummary, error)

	// Rebuild clears nothing up front; it re-indexes every given ID with
	// the stored record's source name, MIME type and metadata carried
	// forward, tolerating per-item failures, and reports per-identifier
	// outcomes.
	Rebuild(ctx context.Context, contentIDs []string) (*domain.RebuildReport, error)
}

// IndexHints carries optional caller-supplied context for indexing.
type IndexHints struct {
	// SourceName is the original filename.
	SourceName string

	// MIMEType overrides sniffing when the caller knows the type.
	MIMEType string

	// Sidecar holds user metadata merged over extracted metadata,
	// winning on key collision.
	Sidecar map[string]string
}
