package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-labs/lodestone/internal/adapters/driven/storage/memory"
	"github.com/lodestone-labs/lodestone/internal/core/domain"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driven"
	"github.com/lodestone-labs/lodestone/internal/core/ports/driving"
	"github.com/lodestone-labs/lodestone/internal/normalisers"
	"github.com/lodestone-labs/lodestone/internal/postprocessors/chunker"
)

// fakeContentStore serves pre-loaded bytes by content ID.
type fakeContentStore struct {
	objects map[string][]byte
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{objects: make(map[string][]byte)}
}

func (f *fakeContentStore) put(id string, data []byte) {
	f.objects[id] = data
}

func (f *fakeContentStore) Fetch(_ context.Context, contentID string) ([]byte, error) {
	data, ok := f.objects[contentID]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	return data, nil
}

func (f *fakeContentStore) Store(_ context.Context, data []byte) (string, error) {
	id := fmt.Sprintf("fake-%d", len(f.objects))
	f.objects[id] = data
	return id, nil
}

// fakeEmbedder returns configured vectors per exact text, a unit vector
// otherwise, and configured errors for poison texts.
type fakeEmbedder struct {
	dim        int
	vectors    map[string][]float32
	errs       map[string]error
	embedCalls int
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{
		dim:     dim,
		vectors: make(map[string][]float32),
		errs:    make(map[string]error),
	}
}

func (f *fakeEmbedder) vec(text string) ([]float32, error) {
	if err, ok := f.errs[text]; ok {
		return nil, err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	out := make([]float32, f.dim)
	out[0] = 1
	return out, nil
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.embedCalls++
	return f.vec(text)
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.vec(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedEach(_ context.Context, texts []string) []driven.BatchItem {
	f.embedCalls++
	items := make([]driven.BatchItem, len(texts))
	for i, t := range texts {
		v, err := f.vec(t)
		items[i] = driven.BatchItem{Vector: v, Err: err}
	}
	return items
}

func (f *fakeEmbedder) Dimensions() int              { return f.dim }
func (f *fakeEmbedder) ModelName() string            { return "fake-model" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

// failingExtractor mimics a registry downgrading an extraction failure.
type failingExtractor struct{}

func (failingExtractor) Extract(_ context.Context, raw *domain.RawContent) (string, map[string]string) {
	return "", map[string]string{
		"source_name":      raw.SourceName,
		"extraction_error": "unreadable payload",
	}
}

func newTestIndexer(t *testing.T) (*Indexer, *fakeContentStore, *memory.Store, *fakeEmbedder) {
	t.Helper()
	contents := newFakeContentStore()
	records := memory.NewStore()
	embedder := newFakeEmbedder(3)
	idx := NewIndexer(contents, records, embedder,
		normalisers.Defaults(), chunker.New(chunker.WithMaxSize(40)))
	return idx, contents, records, embedder
}

func TestIndex_FullPipeline(t *testing.T) {
	idx, contents, records, _ := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("First paragraph of the document.\n\nSecond paragraph, also short."))

	report, err := idx.IndexWithHints(ctx, "doc1", driving.IndexHints{SourceName: "notes.txt"})
	require.NoError(t, err)

	assert.Equal(t, "doc1", report.ContentID)
	assert.Equal(t, 2, report.ChunkCount)
	assert.Empty(t, report.SkippedChunks)
	assert.False(t, report.Degraded)

	rec, err := records.GetRecord(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", rec.SourceName)
	assert.Equal(t, "text/plain", rec.MIMEType)
	require.Len(t, rec.Chunks, 2)
	assert.Equal(t, domain.ChunkID("doc1", 0), rec.Chunks[0].ID)
	assert.Equal(t, domain.ChunkID("doc1", 1), rec.Chunks[1].ID)
	assert.Len(t, rec.Chunks[0].Embedding, 3)
}

func TestIndex_Idempotent(t *testing.T) {
	idx, contents, records, _ := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("Same bytes every time.\n\nBoundaries never drift."))

	_, err := idx.Index(ctx, "doc1")
	require.NoError(t, err)
	first, err := records.GetRecord(ctx, "doc1")
	require.NoError(t, err)

	_, err = idx.Index(ctx, "doc1")
	require.NoError(t, err)
	second, err := records.GetRecord(ctx, "doc1")
	require.NoError(t, err)

	require.Len(t, second.Chunks, len(first.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].ID, second.Chunks[i].ID)
		assert.Equal(t, first.Chunks[i].Text, second.Chunks[i].Text)
	}

	ids, err := records.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1"}, ids)
}

func TestIndex_ContentMiss(t *testing.T) {
	idx, _, records, _ := newTestIndexer(t)
	ctx := context.Background()

	_, err := idx.Index(ctx, "never-stored")
	assert.ErrorIs(t, err, domain.ErrContentNotFound)

	ids, err := records.ListIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "a fetch miss must leave the index untouched")
}

func TestIndex_PartialEmbeddingFailure(t *testing.T) {
	idx, contents, records, embedder := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("Alpha paragraph here.\n\nBeta paragraph here.\n\nGamma paragraph here."))
	embedder.errs["Beta paragraph here."] = &domain.EmbeddingExhaustedError{
		Attempts: 3,
		LastErr:  domain.ErrTransient,
	}

	report, err := idx.Index(ctx, "doc1")
	require.NoError(t, err)

	assert.Equal(t, 2, report.ChunkCount)
	assert.Equal(t, []string{domain.ChunkID("doc1", 1)}, report.SkippedChunks)
	assert.True(t, report.Degraded)

	rec, err := records.GetRecord(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, rec.Chunks, 2)
	// Surviving chunks keep their original positions.
	assert.Equal(t, 0, rec.Chunks[0].Position)
	assert.Equal(t, 2, rec.Chunks[1].Position)
}

func TestIndex_AuthFailureAborts(t *testing.T) {
	idx, contents, records, embedder := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("Alpha paragraph here.\n\nBeta paragraph here."))
	embedder.errs["Alpha paragraph here."] = domain.ErrAuthFailed

	_, err := idx.Index(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)

	_, err = records.GetRecord(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrContentNotFound, "aborted item must not be stored")
}

func TestIndex_ExtractionFailureDegrades(t *testing.T) {
	contents := newFakeContentStore()
	records := memory.NewStore()
	idx := NewIndexer(contents, records, newFakeEmbedder(3),
		failingExtractor{}, chunker.New())
	ctx := context.Background()

	contents.put("doc1", []byte{0xFF, 0xFE, 0x00})

	report, err := idx.Index(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.ChunkCount)
	assert.True(t, report.Degraded)

	rec, err := records.GetRecord(ctx, "doc1")
	require.NoError(t, err)
	assert.Empty(t, rec.Chunks)
	assert.Equal(t, "unreadable payload", rec.Metadata["extraction_error"])
}

func TestIndexWithHints_SidecarWins(t *testing.T) {
	idx, contents, records, _ := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("# Extracted Title\n\nBody text of the note."))

	_, err := idx.IndexWithHints(ctx, "doc1", driving.IndexHints{
		SourceName: "note.md",
		Sidecar:    map[string]string{"title": "Sidecar Title", "tags": "go,search"},
	})
	require.NoError(t, err)

	rec, err := records.GetRecord(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "Sidecar Title", rec.Metadata["title"])
	assert.Equal(t, "go,search", rec.Metadata["tags"])
	assert.Equal(t, "text/markdown", rec.Metadata["mime_type"])
}

func TestRemove(t *testing.T) {
	idx, contents, records, _ := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("Some text."))
	_, err := idx.Index(ctx, "doc1")
	require.NoError(t, err)

	require.NoError(t, idx.Remove(ctx, "doc1"))
	require.NoError(t, idx.Remove(ctx, "doc1")) // absent is fine

	_, err = records.GetRecord(ctx, "doc1")
	assert.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestRebuild_ToleratesPerItemFailure(t *testing.T) {
	idx, contents, _, _ := newTestIndexer(t)
	ctx := context.Background()

	contents.put("good1", []byte("Healthy content one."))
	contents.put("good2", []byte("Healthy content two."))

	report, err := idx.Rebuild(ctx, []string{"good1", "vanished", "good2"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "vanished", report.Failures[0].ContentID)
	assert.Contains(t, report.Failures[0].Reason, "content not found")
}

func TestRebuild_CountsDegradedAsSkipped(t *testing.T) {
	idx, contents, _, embedder := newTestIndexer(t)
	ctx := context.Background()

	contents.put("good1", []byte("Healthy content."))
	contents.put("bad1", []byte("Poisoned content."))
	embedder.errs["Poisoned content."] = &domain.EmbeddingExhaustedError{
		Attempts: 3,
		LastErr:  domain.ErrTransient,
	}

	report, err := idx.Rebuild(ctx, []string{"good1", "bad1"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
}

func TestRebuild_PreservesHints(t *testing.T) {
	idx, contents, records, _ := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("Body text of the note."))

	_, err := idx.IndexWithHints(ctx, "doc1", driving.IndexHints{
		SourceName: "notes.txt",
		MIMEType:   "text/markdown",
		Sidecar: map[string]string{
			"source_url": "https://example.com/origin",
			"tags":       "go,search",
			"author":     "Ada Lovelace",
		},
	})
	require.NoError(t, err)

	report, err := idx.Rebuild(ctx, []string{"doc1"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	rec, err := records.GetRecord(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", rec.SourceName)
	assert.Equal(t, "text/markdown", rec.MIMEType)
	assert.Equal(t, "https://example.com/origin", rec.Metadata["source_url"])
	assert.Equal(t, "go,search", rec.Metadata["tags"])
	assert.Equal(t, "Ada Lovelace", rec.Metadata["author"])
}

func TestRebuild_AuthFailureAborts(t *testing.T) {
	idx, contents, _, embedder := newTestIndexer(t)
	ctx := context.Background()

	contents.put("doc1", []byte("First content."))
	contents.put("doc2", []byte("Second content."))
	embedder.errs["First content."] = domain.ErrAuthFailed

	report, err := idx.Rebuild(ctx, []string{"doc1", "doc2"})
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Equal(t, 0, report.Succeeded+report.Skipped+report.Failed)
}
