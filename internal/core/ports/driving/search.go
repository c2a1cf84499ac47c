package driving

import (
	"context"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
)

// SearchService answers similarity queries over the index.
type SearchService interface {
	// Search embeds the query once and returns the topK most similar
	// chunks, best score first. Ties break by content ID then chunk ID.
	// Empty query text or topK <= 0 returns domain.ErrInvalidQuery before
	// any embedding call.
	Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error)
}
