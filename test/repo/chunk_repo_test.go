package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/laifehacker/chatgpt2claude/internal/model"
	"github.com/laifehacker/chatgpt2claude/internal/repo"
	"github.com/laifehacker/chatgpt2claude/test/testutil"
)

func sampleChunks(convID, title string) []*model.ConversationChunk {
	return []*model.ConversationChunk{
		{
			ConversationID:    convID,
			ConversationTitle: title,
			ChunkIndex:        model.TitleChunkIndex,
			Text:              title,
		},
		{
			ConversationID:    convID,
			ConversationTitle: title,
			ChunkIndex:        0,
			Text:              "User: question\n\nAssistant: answer",
			FirstTimestamp:    floatPtr(1700000000),
			LastTimestamp:     floatPtr(1700000010),
		},
	}
}

func TestChunkRepoReplaceAndCount(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	chunks := repo.NewChunkRepo(db)
	require.NoError(t, chunks.Reset(ctx))

	embeddings := [][]float32{{1, 0, 0}, {0, 1, 0}}
	require.NoError(t, chunks.ReplaceConversation(ctx, "conv-1", sampleChunks("conv-1", "First"), embeddings))

	count, err := chunks.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// Replace swaps, never accumulates.
	require.NoError(t, chunks.ReplaceConversation(ctx, "conv-1", sampleChunks("conv-1", "First")[:1], embeddings[:1]))
	count, err = chunks.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	err = chunks.ReplaceConversation(ctx, "conv-1", sampleChunks("conv-1", "First"), embeddings[:1])
	require.Error(t, err)
}

func TestChunkRepoSemanticSearchDedupesByConversation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	chunks := repo.NewChunkRepo(db)
	require.NoError(t, chunks.Reset(ctx))

	// conv-a has two chunks, both closer to the query than conv-b.
	require.NoError(t, chunks.ReplaceConversation(ctx, "conv-a", sampleChunks("conv-a", "About databases"),
		[][]float32{{1, 0, 0}, {0.9, 0.1, 0}}))
	require.NoError(t, chunks.ReplaceConversation(ctx, "conv-b", sampleChunks("conv-b", "About cooking")[:1],
		[][]float32{{0, 0, 1}}))

	results, err := chunks.SemanticSearch(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "conv-a", results[0].ConversationID)
	require.Equal(t, "conv-b", results[1].ConversationID)
	require.InDelta(t, 1.0, results[0].Score, 1e-4)
	require.Greater(t, results[0].Score, results[1].Score)

	topOne, err := chunks.SemanticSearch(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, topOne, 1)
	require.Equal(t, "conv-a", topOne[0].ConversationID)
}

func TestChunkRepoDeleteConversation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	chunks := repo.NewChunkRepo(db)
	require.NoError(t, chunks.Reset(ctx))

	require.NoError(t, chunks.ReplaceConversation(ctx, "conv-1", sampleChunks("conv-1", "T"), [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, chunks.DeleteConversation(ctx, "conv-1"))

	count, err := chunks.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestEmbeddingCacheRepoRoundTrip(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cache := repo.NewEmbeddingCacheRepo(db)

	item := &model.EmbeddingCache{
		ModelName:   "test-model",
		TaskType:    "RETRIEVAL_DOCUMENT",
		ContentHash: "hash-1",
		Embedding:   []float32{0.25, 0.5, 0.75},
		Ctime:       1700000000,
	}
	require.NoError(t, cache.Save(ctx, item))

	got, ok, err := cache.Get(ctx, "test-model", "RETRIEVAL_DOCUMENT", "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{0.25, 0.5, 0.75}, got)

	_, ok, err = cache.Get(ctx, "test-model", "RETRIEVAL_QUERY", "hash-1")
	require.NoError(t, err)
	require.False(t, ok)

	// Re-save overwrites.
	item.Embedding = []float32{1, 1, 1}
	require.NoError(t, cache.Save(ctx, item))
	got, ok, err = cache.Get(ctx, "test-model", "RETRIEVAL_DOCUMENT", "hash-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{1, 1, 1}, got)

	deleted, err := cache.DeleteBefore(ctx, 1800000000)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(1))
}

func TestImportRepoRecordAndLatest(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	imports := repo.NewImportRepo(db)
	require.NoError(t, imports.Reset(ctx))

	latest, err := imports.Latest(ctx)
	require.NoError(t, err)
	require.Nil(t, latest)

	require.NoError(t, imports.Record(ctx, &model.ImportRecord{
		ImportTime:    1700000000,
		FilePath:      "/tmp/export.zip",
		Conversations: 3,
		Messages:      40,
		Chunks:        12,
	}))
	require.NoError(t, imports.Record(ctx, &model.ImportRecord{
		ImportTime:    1700000500,
		FilePath:      "/tmp/export2.zip",
		Conversations: 1,
		Messages:      5,
		Chunks:        2,
	}))

	latest, err = imports.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "/tmp/export2.zip", latest.FilePath)
	require.Equal(t, 1, latest.Conversations)
}
