package driven

import "context"

// ContentStore resolves content identifiers to raw bytes and back.
// Storage is content-addressed: the same bytes always yield the same ID.
//
// Fetch returns domain.ErrContentNotFound when no bytes exist for the ID.
type ContentStore interface {
	// Fetch returns the raw bytes for a content identifier.
	Fetch(ctx context.Context, contentID string) ([]byte, error)

	// Store writes bytes and returns their deterministic content identifier.
	Store(ctx context.Context, data []byte) (string, error)
}
