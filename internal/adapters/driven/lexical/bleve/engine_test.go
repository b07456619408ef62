package bleve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

func guestDoc(id, eventID, content string) domain.Document {
	return domain.Document{
		ID:      id,
		Content: content,
		Metadata: domain.GuestLexicalMetadata{
			EventAPIID: eventID,
			GuestAPIID: id,
		},
	}
}

func testDocs() []domain.Document {
	return []domain.Document{
		guestDoc("g1", "E1", "Guest bio: Go developer building distributed systems"),
		guestDoc("g2", "E1", "Guest bio: Designer who loves typography"),
		guestDoc("g3", "E2", "Guest bio: Rust and Go enthusiast, Go meetup organiser"),
	}
}

func TestEngine_BuildAndSearch(t *testing.T) {
	ctx := context.Background()
	snap, err := NewEngine().Build(ctx, testDocs())
	require.NoError(t, err)
	defer snap.Close()

	assert.Equal(t, 3, snap.Len())

	hits, err := snap.Search(ctx, "typography", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "g2", hits[0].Document.ID)
	assert.Greater(t, hits[0].Score, 0.0)

	meta, ok := hits[0].Document.Metadata.(domain.GuestLexicalMetadata)
	require.True(t, ok)
	assert.Equal(t, "E1", meta.EventAPIID)
}

func TestEngine_SearchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	snap, err := NewEngine().Build(ctx, testDocs())
	require.NoError(t, err)
	defer snap.Close()

	hits, err := snap.Search(ctx, "DESIGNER", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "g2", hits[0].Document.ID)
}

func TestEngine_SearchRanksAndLimits(t *testing.T) {
	ctx := context.Background()
	snap, err := NewEngine().Build(ctx, testDocs())
	require.NoError(t, err)
	defer snap.Close()

	hits, err := snap.Search(ctx, "go", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}

	limited, err := snap.Search(ctx, "go", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestEngine_NoMatch(t *testing.T) {
	ctx := context.Background()
	snap, err := NewEngine().Build(ctx, testDocs())
	require.NoError(t, err)
	defer snap.Close()

	hits, err := snap.Search(ctx, "kubernetes", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEngine_EmptyCases(t *testing.T) {
	ctx := context.Background()
	snap, err := NewEngine().Build(ctx, nil)
	require.NoError(t, err)
	defer snap.Close()

	assert.Zero(t, snap.Len())
	hits, err := snap.Search(ctx, "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	full, err := NewEngine().Build(ctx, testDocs())
	require.NoError(t, err)
	defer full.Close()

	hits, err = full.Search(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = full.Search(ctx, "go", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestEngine_DuplicateIDsReplace(t *testing.T) {
	ctx := context.Background()
	snap, err := NewEngine().Build(ctx, []domain.Document{
		guestDoc("g1", "E1", "first version"),
		guestDoc("g1", "E1", "second version"),
	})
	require.NoError(t, err)
	defer snap.Close()

	assert.Equal(t, 1, snap.Len())
	hits, err := snap.Search(ctx, "second", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "second version", hits[0].Document.Content)
}

func TestEngine_BuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine().Build(ctx, testDocs())
	assert.ErrorIs(t, err, context.Canceled)
}
