package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mterris/gutensearch/internal/clusterstate"
	"github.com/mterris/gutensearch/internal/gutenberg"
	"github.com/mterris/gutensearch/internal/indexing"
)

func newTestSearcher(t *testing.T) (*Searcher, *clusterstate.Cluster) {
	t.Helper()
	cluster, err := clusterstate.New(context.Background(), clusterstate.Config{
		Self:       "node1",
		Members:    []string{"node1"},
		ShardCount: 8,
		RPCTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	return New(cluster.Metadata, cluster.Postings, 100, 10), cluster
}

func index(t *testing.T, ctx context.Context, cluster *clusterstate.Cluster, md gutenberg.Metadata, body string) {
	t.Helper()
	require.NoError(t, cluster.Metadata.Put(ctx, md.BookID, md))
	for term := range indexing.TokenizeBody(body) {
		require.NoError(t, cluster.Postings.Put(ctx, term, md.BookID))
	}
}

func TestSearchUnionAndScoring(t *testing.T) {
	s, cluster := newTestSearcher(t)
	ctx := context.Background()

	index(t, ctx, cluster, gutenberg.Metadata{BookID: 11, Title: "Alice", Author: "Carroll", Language: "english"}, "alice wonderland")
	index(t, ctx, cluster, gutenberg.Metadata{BookID: 1342, Title: "Pride and Prejudice", Author: "Austen", Language: "english"}, "pride prejudice darcy")

	results, err := s.Search(ctx, Query{Text: "alice darcy"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(11), results[0].Metadata.BookID)
	assert.Equal(t, 11, results[0].Score)
	assert.Equal(t, int64(1342), results[1].Metadata.BookID)
	assert.Equal(t, 1, results[1].Score)
}

func TestSearchYearFilter(t *testing.T) {
	s, cluster := newTestSearcher(t)
	ctx := context.Background()

	index(t, ctx, cluster, gutenberg.Metadata{BookID: 1999, Title: "Test", Language: "english", Year: 1999, HasYear: true}, "test")
	index(t, ctx, cluster, gutenberg.Metadata{BookID: 2000, Title: "Test", Language: "english", Year: 2000, HasYear: true}, "test")

	results, err := s.Search(ctx, Query{Text: "test", Year: 2000, HasYear: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2000), results[0].Metadata.BookID)
}

func TestSearchStopwordOnlyQueryReturnsEmpty(t *testing.T) {
	s, cluster := newTestSearcher(t)
	ctx := context.Background()

	index(t, ctx, cluster, gutenberg.Metadata{BookID: 1, Title: "X"}, "whale ahab")

	results, err := s.Search(ctx, Query{Text: "the and"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLimitZeroReturnsEmpty(t *testing.T) {
	s, cluster := newTestSearcher(t)
	ctx := context.Background()

	index(t, ctx, cluster, gutenberg.Metadata{BookID: 1, Title: "Whale"}, "whale ahab")

	results, err := s.Search(ctx, Query{Text: "whale", Limit: 0, HasLimit: true})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestListAllRespectsLimit(t *testing.T) {
	s, cluster := newTestSearcher(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		index(t, ctx, cluster, gutenberg.Metadata{BookID: i, Title: "Book"}, "whale")
	}

	results, err := s.ListAll(ctx, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, 0, r.Score)
	}
}
