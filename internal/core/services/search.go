package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driving"
	"github.com/lodestone-labs/lodestone/internal/logger"
)

// snippetMaxRunes bounds the excerpt attached to each search result.
const snippetMaxRunes = 240

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// Searcher answers similarity queries with a brute-force cosine scan.
type Searcher struct {
	records  driven.RecordStore
	embedder driven.EmbeddingService
}

// NewSearcher creates a search service.
func NewSearcher(records driven.RecordStore, embedder driven.EmbeddingService) *Searcher {
	return &Searcher{
		records:  records,
		embedder: embedder,
	}
}

// Search embeds the query once and returns the topK most similar chunks.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query text", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	chunks, err := s.records.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	logger.Debug("Scanning %d chunks for query", len(chunks))

	results := make([]domain.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, domain.SearchResult{
			ContentID: chunk.ContentID,
			ChunkID:   chunk.ID,
			Score:     cosineSimilarity(queryVec, chunk.Embedding),
			Snippet:   snippet(chunk.Text),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].ContentID != results[j].ContentID {
			return results[i].ContentID < results[j].ContentID
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	if err := s.attachMetadata(ctx, results); err != nil {
		return nil, err
	}

	return results, nil
}

// attachMetadata copies each hit's content metadata onto the result.
// A record removed between the scan and the lookup just loses its metadata.
func (s *Searcher) attachMetadata(ctx context.Context, results []domain.SearchResult) error {
	cache := make(map[string]map[string]string)
	for i := range results {
		meta, ok := cache[results[i].ContentID]
		if !ok {
			rec, err := s.records.GetRecord(ctx, results[i].ContentID)
			switch {
			case errors.Is(err, domain.ErrContentNotFound):
				meta = nil
			case err != nil:
				return fmt.Errorf("loading result metadata: %w", err)
			default:
				meta = rec.Metadata
			}
			cache[results[i].ContentID] = meta
		}
		results[i].Metadata = meta
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// A zero vector or length mismatch yields 0, not an error.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// snippet bounds chunk text for display, cutting on a rune boundary.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetMaxRunes {
		return text
	}
	return string(runes[:snippetMaxRunes]) + "..."
}
