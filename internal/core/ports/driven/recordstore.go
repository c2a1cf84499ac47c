package driven

import (
	"context"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
)

// RecordStore persists content records and their chunk vectors.
// Backed by SQLite.
//
// Implementations must make ReplaceRecord atomic: a concurrent reader sees
// either the prior record or the new one, never a mix, and a crash mid-write
// leaves the prior durable state intact.
type RecordStore interface {
	// ReplaceRecord atomically swaps in a full record for its content ID,
	// removing any existing record with the same ID. The write is durably
	// flushed before the call returns.
	ReplaceRecord(ctx context.Context, rec *domain.ContentRecord) error

	// GetRecord retrieves a record by content ID, including its chunks.
	// Returns domain.ErrContentNotFound when absent.
	GetRecord(ctx context.Context, contentID string) (*domain.ContentRecord, error)

	// DeleteRecord removes a record and its chunks. Deleting an absent ID
	// is not an error. The removal is durably flushed before returning.
	DeleteRecord(ctx context.Context, contentID string) error

	// ListSummaries returns the manifest of all records without chunk
	// payloads. Corrupt rows are skipped and reported via ListIDs/rebuild.
	ListSummaries(ctx context.Context) ([]domain.ContentSummary, error)

	// ListIDs returns every known content identifier.
	ListIDs(ctx context.Context) ([]string, error)

	// AllChunks returns every stored chunk with its vector, for the
	// similarity scan. Order is unspecified.
	AllChunks(ctx context.Context) ([]domain.ChunkRecord, error)

	// Dimension returns the store's fixed vector dimension, or 0 when the
	// store is still empty and unpinned.
	Dimension(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
