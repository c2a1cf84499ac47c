package cli

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driving"
)

// mockIndexerService records calls and returns canned data.
type mockIndexerService struct {
	indexed []string
	removed []string
	records map[string]*domain.ContentRecord
}

func newMockIndexer() *mockIndexerService {
	return &mockIndexerService{records: make(map[string]*domain.ContentRecord)}
}

func (m *mockIndexerService) Index(ctx context.Context, contentID string) (*domain.IndexReport, error) {
	return m.IndexWithHints(ctx, contentID, driving.IndexHints{})
}

func (m *mockIndexerService) IndexWithHints(_ context.Context, contentID string, _ driving.IndexHints) (*domain.IndexReport, error) {
	m.indexed = append(m.indexed, contentID)
	return &domain.IndexReport{ContentID: contentID, ChunkCount: 2}, nil
}

func (m *mockIndexerService) Remove(_ context.Context, contentID string) error {
	m.removed = append(m.removed, contentID)
	return nil
}

func (m *mockIndexerService) Get(_ context.Context, contentID string) (*domain.ContentRecord, error) {
	rec, ok := m.records[contentID]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	return rec, nil
}

func (m *mockIndexerService) List(_ context.Context) ([]domain.ContentSummary, error) {
	summaries := make([]domain.ContentSummary, 0, len(m.records))
	for _, rec := range m.records {
		summaries = append(summaries, domain.ContentSummary{
			ContentID:  rec.ContentID,
			SourceName: rec.SourceName,
			MIMEType:   rec.MIMEType,
			ChunkCount: len(rec.Chunks),
			IndexedAt:  rec.IndexedAt,
		})
	}
	return summaries, nil
}

func (m *mockIndexerService) Rebuild(ctx context.Context, contentIDs []string) (*domain.RebuildReport, error) {
	report := &domain.RebuildReport{}
	for _, id := range contentIDs {
		if _, err := m.Index(ctx, id); err == nil {
			report.Succeeded++
		}
	}
	return report, nil
}

// mockSearchService returns a fixed result set.
type mockSearchService struct {
	results []domain.SearchResult
	lastK   int
}

func (m *mockSearchService) Search(_ context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if query == "" || topK <= 0 {
		return nil, domain.ErrInvalidQuery
	}
	m.lastK = topK
	return m.results, nil
}

// mockSearchServiceError always fails.
type mockSearchServiceError struct{}

func (m *mockSearchServiceError) Search(_ context.Context, _ string, _ int) ([]domain.SearchResult, error) {
	return nil, errors.New("backend unavailable")
}

// setupTestServices installs mock services and returns a cleanup func.
func setupTestServices() func() {
	oldIndexer := indexerService
	oldSearch := searchService

	mockIdx := newMockIndexer()
	mockIdx.records["abc123"] = &domain.ContentRecord{
		ContentID:  "abc123",
		SourceName: "notes.txt",
		MIMEType:   "text/plain",
		Metadata:   map[string]string{"title": "Test Notes"},
		Chunks:     []domain.ChunkRecord{{ID: domain.ChunkID("abc123", 0)}},
		IndexedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	indexerService = mockIdx

	searchService = &mockSearchService{
		results: []domain.SearchResult{
			{
				ContentID: "abc123",
				ChunkID:   domain.ChunkID("abc123", 0),
				Score:     0.95,
				Snippet:   "This is a matching snippet",
				Metadata:  map[string]string{"title": "Test Notes", "source_name": "notes.txt"},
			},
		},
	}

	return func() {
		indexerService = oldIndexer
		searchService = oldSearch
	}
}

// execute runs the root command with args and captures combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
