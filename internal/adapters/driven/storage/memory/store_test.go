package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestone-labs/lodestone/internal/core/domain"
)

func makeRecord(contentID string, vectors ...[]float32) *domain.ContentRecord {
	rec := &domain.ContentRecord{
		ContentID: contentID,
		MIMEType:  "text/plain",
		IndexedAt: time.Now(),
	}
	for i, vec := range vectors {
		rec.Chunks = append(rec.Chunks, domain.ChunkRecord{
			ID:        domain.ChunkID(contentID, i),
			ContentID: contentID,
			Position:  i,
			Text:      "text",
			Embedding: vec,
		})
	}
	return rec
}

func TestReplaceAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.ReplaceRecord(ctx, makeRecord("aaa", []float32{1, 2})))

	got, err := s.GetRecord(ctx, "aaa")
	require.NoError(t, err)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, []float32{1, 2}, got.Chunks[0].Embedding)
}

func TestGet_Missing(t *testing.T) {
	s := NewStore()
	_, err := s.GetRecord(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestReplace_IsolatesCallerMutation(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	rec := makeRecord("aaa", []float32{1, 2})
	require.NoError(t, s.ReplaceRecord(ctx, rec))
	rec.Chunks[0].Embedding[0] = 99

	got, err := s.GetRecord(ctx, "aaa")
	require.NoError(t, err)
	assert.Equal(t, float32(1), got.Chunks[0].Embedding[0])
}

func TestDimensionPinning(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.ReplaceRecord(ctx, makeRecord("aaa", []float32{1, 2, 3})))

	dim, err := s.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dim)

	err = s.ReplaceRecord(ctx, makeRecord("bbb", []float32{1}))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestDeleteAndList(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.ReplaceRecord(ctx, makeRecord("bbb", []float32{1})))
	require.NoError(t, s.ReplaceRecord(ctx, makeRecord("aaa", []float32{2})))

	ids, err := s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa", "bbb"}, ids)

	summaries, err := s.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "aaa", summaries[0].ContentID)

	require.NoError(t, s.DeleteRecord(ctx, "aaa"))
	require.NoError(t, s.DeleteRecord(ctx, "aaa")) // absent is fine

	ids, err = s.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb"}, ids)
}

func TestAllChunks(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.ReplaceRecord(ctx, makeRecord("aaa", []float32{1}, []float32{2})))
	require.NoError(t, s.ReplaceRecord(ctx, makeRecord("bbb", []float32{3})))

	chunks, err := s.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}
