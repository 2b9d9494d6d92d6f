package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{float32(len(text)), float32(c.calls)}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "counting"
}

func TestLruEmbedderCachesByTextAndTask(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := embedder.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)

	second, err := embedder.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)
	require.Equal(t, first, second)

	// Same text, different task type is a distinct cache entry.
	_, err = embedder.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)

	_, err = embedder.Embed(context.Background(), "other", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 3, inner.calls)
}

func TestLruEmbedderReturnsCopies(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := embedder.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	first[0] = -1

	second, err := embedder.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.NotEqual(t, float32(-1), second[0])
}

func TestWrapLruCacheDisabled(t *testing.T) {
	inner := &countingEmbedder{}
	require.Same(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Same(t, inner, WrapLruCacheToEmbedder(inner, 16, 0))
}
