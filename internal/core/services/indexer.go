// Package services contains the core orchestration logic: the indexing
// pipeline and similarity search, wired together through the driven ports.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driving"
	"github.com/lodestone-labs/lodestone/internal/logger"
)

// Extractor runs the extraction pipeline for raw content. Satisfied by
// the normaliser registry.
type Extractor interface {
	Extract(ctx context.Context, raw *domain.RawContent) (string, map[string]string)
}

// Ensure Indexer implements the interface.
var _ driving.IndexerService = (*Indexer)(nil)

// Indexer orchestrates the fetch, extract, chunk, embed, store pipeline.
type Indexer struct {
	contents  driven.ContentStore
	records   driven.RecordStore
	embedder  driven.EmbeddingService
	extractor Extractor
	chunker   driven.Chunker
	locks     *keyLock
	clock     func() time.Time
}

// NewIndexer creates an indexer service.
func NewIndexer(
	contents driven.ContentStore,
	records driven.RecordStore,
	embedder driven.EmbeddingService,
	extractor Extractor,
	chunker driven.Chunker,
) *Indexer {
	return &Indexer{
		contents:  contents,
		records:   records,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
		locks:     newKeyLock(),
		clock:     time.Now,
	}
}

// Index fetches, extracts, chunks, embeds and stores one content item.
func (s *Indexer) Index(ctx context.Context, contentID string) (*domain.IndexReport, error) {
	return s.IndexWithHints(ctx, contentID, driving.IndexHints{})
}

// IndexWithHints indexes with caller-supplied source name, MIME type and
// sidecar metadata.
func (s *Indexer) IndexWithHints(ctx context.Context, contentID string, hints driving.IndexHints) (*domain.IndexReport, error) {
	if contentID == "" {
		return nil, fmt.Errorf("%w: empty content ID", domain.ErrInvalidInput)
	}

	s.locks.Lock(contentID)
	defer s.locks.Unlock(contentID)

	logger.Section("Indexing " + contentID)

	data, err := s.contents.Fetch(ctx, contentID)
	if err != nil {
		return nil, err
	}

	raw := &domain.RawContent{
		ContentID:  contentID,
		SourceName: hints.SourceName,
		MIMEType:   hints.MIMEType,
		Data:       data,
	}

	text, meta := s.extractor.Extract(ctx, raw)

	// Sidecar metadata wins on key collision.
	for k, v := range hints.Sidecar {
		meta[k] = v
	}

	rec := &domain.ContentRecord{
		ContentID:  contentID,
		SourceName: hints.SourceName,
		MIMEType:   raw.MIMEType,
		Metadata:   meta,
		IndexedAt:  s.clock().UTC(),
	}

	report := &domain.IndexReport{ContentID: contentID}

	segments := s.chunker.Chunk(text)
	logger.Debug("Extracted %d bytes of text, %d chunks", len(text), len(segments))

	if len(segments) > 0 {
		chunks, skipped, err := s.embedSegments(ctx, contentID, segments)
		if err != nil {
			return nil, err
		}
		rec.Chunks = chunks
		report.SkippedChunks = skipped
	}

	if err := s.records.ReplaceRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing record: %w", err)
	}

	report.ChunkCount = len(rec.Chunks)
	report.Degraded = len(report.SkippedChunks) > 0 || meta[metaExtractionError] != ""

	logger.Info("Indexed %s: %d chunks stored, %d skipped",
		contentID, report.ChunkCount, len(report.SkippedChunks))
	return report, nil
}

// metaExtractionError mirrors the registry's failure marker key.
const metaExtractionError = "extraction_error"

// embedSegments embeds all segments and returns the stored chunk records
// plus the IDs of segments whose embedding failed after retries. Auth
// failures and context cancellation abort the whole item.
func (s *Indexer) embedSegments(ctx context.Context, contentID string, segments []string) ([]domain.ChunkRecord, []string, error) {
	items := s.embedder.EmbedEach(ctx, segments)

	var chunks []domain.ChunkRecord
	var skipped []string
	for i, item := range items {
		chunkID := domain.ChunkID(contentID, i)

		if item.Err != nil {
			if errors.Is(item.Err, domain.ErrAuthFailed) {
				return nil, nil, fmt.Errorf("embedding chunk %s: %w", chunkID, item.Err)
			}
			if errors.Is(item.Err, context.Canceled) || errors.Is(item.Err, context.DeadlineExceeded) {
				return nil, nil, item.Err
			}
			logger.Warn("Skipping chunk %s: %v", chunkID, item.Err)
			skipped = append(skipped, chunkID)
			continue
		}

		chunks = append(chunks, domain.ChunkRecord{
			ID:        chunkID,
			ContentID: contentID,
			Position:  i,
			Text:      segments[i],
			Embedding: item.Vector,
		})
	}

	return chunks, skipped, nil
}

// Remove deletes a record. Removing an absent ID is not an error.
func (s *Indexer) Remove(ctx context.Context, contentID string) error {
	if contentID == "" {
		return fmt.Errorf("%w: empty content ID", domain.ErrInvalidInput)
	}

	s.locks.Lock(contentID)
	defer s.locks.Unlock(contentID)

	return s.records.DeleteRecord(ctx, contentID)
}

// Get returns the stored record for an ID.
func (s *Indexer) Get(ctx context.Context, contentID string) (*domain.ContentRecord, error) {
	return s.records.GetRecord(ctx, contentID)
}

// List enumerates all records via the manifest.
func (s *Indexer) List(ctx context.Context) ([]domain.ContentSummary, error) {
	return s.records.ListSummaries(ctx)
}

// Rebuild re-indexes every given identifier, carrying each stored record's
// source name, MIME type and metadata forward so regeneration does not strip
// them. One identifier's failure never aborts the rest; auth failures and
// cancellation do, since every remaining item would fail the same way.
func (s *Indexer) Rebuild(ctx context.Context, contentIDs []string) (*domain.RebuildReport, error) {
	report := &domain.RebuildReport{}

	for _, id := range contentIDs {
		itemReport, err := s.IndexWithHints(ctx, id, s.rebuildHints(ctx, id))
		if err != nil {
			if errors.Is(err, domain.ErrAuthFailed) || ctx.Err() != nil {
				return report, err
			}
			report.Failed++
			report.Failures = append(report.Failures, domain.RebuildFailure{
				ContentID: id,
				Reason:    err.Error(),
			})
			continue
		}

		if itemReport.Degraded {
			report.Skipped++
		} else {
			report.Succeeded++
		}
	}

	return report, nil
}

// rebuildHints recovers the hints a record was originally indexed with.
// Content is addressed by digest, so re-extraction reproduces the extracted
// keys exactly; overlaying the stored metadata preserves sidecar keys
// without masking fresh extraction. The extraction failure marker is left
// out so a now-successful extraction clears it.
func (s *Indexer) rebuildHints(ctx context.Context, contentID string) driving.IndexHints {
	rec, err := s.records.GetRecord(ctx, contentID)
	if err != nil {
		return driving.IndexHints{}
	}

	carried := make(map[string]string, len(rec.Metadata))
	for k, v := range rec.Metadata {
		if k == metaExtractionError {
			continue
		}
		carried[k] = v
	}

	return driving.IndexHints{
		SourceName: rec.SourceName,
		MIMEType:   rec.MIMEType,
		Sidecar:    carried,
	}
}
