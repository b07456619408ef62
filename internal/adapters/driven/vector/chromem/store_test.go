package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

func eventChunk(id, eventID, name string, emb []float32) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: "event:" + eventID,
		Content:    "Event: " + name,
		Position:   1,
		Embedding:  emb,
		Metadata: domain.EventMetadata{
			EventAPIID: eventID,
			EventName:  name,
			GuestCount: 42,
			Source:     "events.csv",
			Line:       2,
		},
	}
}

func TestStore_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), "test")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		eventChunk("c1", "E1", "Launch Party", []float32{1, 0, 0}),
		eventChunk("c2", "E2", "Workshop", []float32{0, 1, 0}),
	}))
	assert.Equal(t, 2, s.Count())

	hits, err := s.Query(ctx, []float32{1, 0.1, 0}, 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	top := hits[0]
	assert.Equal(t, "c1", top.Chunk.ID)
	assert.Equal(t, "event:E1", top.Chunk.DocumentID)
	assert.Equal(t, 1, top.Chunk.Position)
	assert.Equal(t, "Event: Launch Party", top.Chunk.Content)
	assert.Greater(t, top.Similarity, hits[1].Similarity)

	meta, ok := top.Chunk.Metadata.(domain.EventMetadata)
	require.True(t, ok)
	assert.Equal(t, "E1", meta.EventAPIID)
	assert.Equal(t, 42, meta.GuestCount)
	assert.Equal(t, 2, meta.Line)
}

func TestStore_QueryFilter(t *testing.T) {
	ctx := context.Background()
	s, err := New("", "test")
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, []domain.Chunk{
		eventChunk("c1", "E1", "Launch Party", []float32{1, 0}),
		eventChunk("c2", "E2", "Workshop", []float32{0.9, 0.1}),
	}))

	hits, err := s.Query(ctx, []float32{1, 0}, 5, domain.RetrievalFilter{domain.KeyEventAPIID: "E2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].Chunk.ID)
}

func TestStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s, err := New("", "test")
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, []domain.Chunk{eventChunk("c1", "E1", "Old", []float32{1, 0})}))
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{eventChunk("c1", "E1", "New", []float32{1, 0})}))
	assert.Equal(t, 1, s.Count())

	hits, err := s.Query(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Event: New", hits[0].Chunk.Content)
}

func TestStore_EmptyCases(t *testing.T) {
	ctx := context.Background()
	s, err := New("", "")
	require.NoError(t, err)

	assert.NoError(t, s.Upsert(ctx, nil))

	hits, err := s.Query(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_UpsertRequiresEmbedding(t *testing.T) {
	s, err := New("", "test")
	require.NoError(t, err)

	err = s.Upsert(context.Background(), []domain.Chunk{eventChunk("c1", "E1", "x", nil)})
	assert.ErrorIs(t, err, errNoEmbedding)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir(), "test")
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, []domain.Chunk{eventChunk("c1", "E1", "x", []float32{1, 0})}))
	require.NoError(t, s.Reset(ctx))
	assert.Zero(t, s.Count())

	require.NoError(t, s.Upsert(ctx, []domain.Chunk{eventChunk("c2", "E2", "y", []float32{0, 1})}))
	assert.Equal(t, 1, s.Count())
}

func TestStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(dir, "test")
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{eventChunk("c1", "E1", "x", []float32{1, 0})}))

	reopened, err := New(dir, "test")
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
}
