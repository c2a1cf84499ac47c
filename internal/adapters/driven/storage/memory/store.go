// Package memory provides an in-memory record store for tests and
// ephemeral runs. Semantics match the SQLite store, minus durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// Store is an in-memory record store.
type Store struct {
	mu        sync.RWMutex
	records   map[string]*domain.ContentRecord
	dimension int
}

// NewStore creates an empty in-memory record store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*domain.ContentRecord),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// ReplaceRecord atomically swaps in a full record for its content ID.
func (s *Store) ReplaceRecord(ctx context.Context, rec *domain.ContentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil || rec.ContentID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range rec.Chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if s.dimension == 0 {
			s.dimension = len(chunk.Embedding)
			continue
		}
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %s has %d, store has %d",
				domain.ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), s.dimension)
		}
	}

	s.records[rec.ContentID] = copyRecord(rec)
	return nil
}

// GetRecord retrieves a record by content ID, including its chunks.
func (s *Store) GetRecord(ctx context.Context, contentID string) (*domain.ContentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[contentID]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	return copyRecord(rec), nil
}

// DeleteRecord removes a record and its chunks.
func (s *Store) DeleteRecord(ctx context.Context, contentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, contentID)
	return nil
}

// ListSummaries returns the manifest of all records.
func (s *Store) ListSummaries(ctx context.Context) ([]domain.ContentSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.ContentSummary, 0, len(s.records))
	for _, rec := range s.records {
		summaries = append(summaries, domain.ContentSummary{
			ContentID:  rec.ContentID,
			SourceName: rec.SourceName,
			MIMEType:   rec.MIMEType,
			ChunkCount: len(rec.Chunks),
			IndexedAt:  rec.IndexedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ContentID < summaries[j].ContentID
	})
	return summaries, nil
}

// ListIDs returns every known content identifier.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// AllChunks returns every stored chunk with its vector.
func (s *Store) AllChunks(ctx context.Context) ([]domain.ChunkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var chunks []domain.ChunkRecord
	for _, rec := range s.records {
		chunks = append(chunks, rec.Chunks...)
	}
	return chunks, nil
}

// Dimension returns the store's pinned vector dimension, or 0 when unpinned.
func (s *Store) Dimension(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dimension, nil
}

// copyRecord deep-copies a record so callers cannot mutate stored state.
func copyRecord(rec *domain.ContentRecord) *domain.ContentRecord {
	out := &domain.ContentRecord{
		ContentID:  rec.ContentID,
		SourceName: rec.SourceName,
		MIMEType:   rec.MIMEType,
		IndexedAt:  rec.IndexedAt,
	}
	if rec.Metadata != nil {
		out.Metadata = make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			out.Metadata[k] = v
		}
	}
	if rec.Chunks != nil {
		out.Chunks = make([]domain.ChunkRecord, len(rec.Chunks))
		copy(out.Chunks, rec.Chunks)
		for i := range out.Chunks {
			if rec.Chunks[i].Embedding != nil {
				out.Chunks[i].Embedding = append([]float32(nil), rec.Chunks[i].Embedding...)
			}
		}
	}
	return out
}
