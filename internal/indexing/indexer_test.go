package indexing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mterris/gutensearch/internal/clusterstate"
	"github.com/mterris/gutensearch/internal/datalake"
)

func newTestIndexer(t *testing.T) (*Indexer, *datalake.Store, *clusterstate.Cluster) {
	t.Helper()

	lake, err := datalake.New(t.TempDir(), datalake.BucketPlacement{Size: 1000}, "tracking.txt")
	require.NoError(t, err)

	cluster, err := clusterstate.New(context.Background(), clusterstate.Config{
		Self:       "node1",
		Members:    []string{"node1"},
		ShardCount: 8,
		RPCTimeout: time.Second,
	}, nil)
	require.NoError(t, err)

	return New(lake, cluster.Metadata, cluster.Postings), lake, cluster
}

const aliceRaw = "Title: Alice\nAuthor: Carroll\nLanguage: English\nRelease Date: June 25, 2008\n\n" +
	"*** START OF\nwhite rabbit hole alice\n*** END OF"

func TestIndexBookHappyPath(t *testing.T) {
	ix, lake, cluster := newTestIndexer(t)
	ctx := context.Background()

	header := "Title: Alice\nAuthor: Carroll\nLanguage: English\nRelease Date: June 25, 2008\n"
	body := "white rabbit hole alice"
	_, err := lake.Save(11, header, body)
	require.NoError(t, err)

	require.NoError(t, ix.IndexBook(ctx, 11))

	md, ok, err := cluster.Metadata.Get(ctx, 11)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Alice", md.Title)
	require.Equal(t, "Carroll", md.Author)
	require.Equal(t, "english", md.Language)

	for _, term := range []string{"white", "rabbit", "hole", "alice"} {
		ok, err := cluster.Postings.ContainsEntry(ctx, term, 11)
		require.NoError(t, err)
		require.True(t, ok, "expected postings to contain %q -> 11", term)
	}
}

func TestIndexBookIdempotent(t *testing.T) {
	ix, lake, cluster := newTestIndexer(t)
	ctx := context.Background()

	_, err := lake.Save(11, "Title: Alice\n", "alice wonderland rabbit")
	require.NoError(t, err)

	require.NoError(t, ix.IndexBook(ctx, 11))
	sizeBefore, err := cluster.Metadata.Size(ctx)
	require.NoError(t, err)

	require.NoError(t, ix.IndexBook(ctx, 11))
	sizeAfter, err := cluster.Metadata.Size(ctx)
	require.NoError(t, err)

	require.Equal(t, sizeBefore, sizeAfter, "expected cluster state unchanged on re-index")
}

func TestIndexBookNoTermsStillProducesMetadata(t *testing.T) {
	ix, lake, cluster := newTestIndexer(t)
	ctx := context.Background()

	_, err := lake.Save(99, "Title: Empty\n", "a an is")
	require.NoError(t, err)

	require.NoError(t, ix.IndexBook(ctx, 99))

	_, ok, err := cluster.Metadata.Get(ctx, 99)
	require.NoError(t, err)
	require.True(t, ok, "expected metadata entry despite no indexable terms")
}

func TestRebuildReindexesEverything(t *testing.T) {
	ix, lake, cluster := newTestIndexer(t)
	ctx := context.Background()

	_, err := lake.Save(10, "Title: Ten\n", "whale ahab")
	require.NoError(t, err)
	_, err = lake.Save(20, "Title: Twenty\n", "whale ishmael")
	require.NoError(t, err)

	n, err := ix.Rebuild(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	size, err := cluster.Metadata.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, size)
}

func TestRecoverIfEmptyRunsScanRebuild(t *testing.T) {
	ix, lake, cluster := newTestIndexer(t)
	ctx := context.Background()

	_, err := lake.Save(10, "Title: Ten\n", "whale ahab")
	require.NoError(t, err)
	_, err = lake.Save(20, "Title: Twenty\n", "whale ishmael")
	require.NoError(t, err)

	require.NoError(t, ix.RecoverIfEmpty(ctx))

	size, err := cluster.Metadata.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, size)

	ok1, err := cluster.Postings.ContainsEntry(ctx, "whale", 10)
	require.NoError(t, err)
	ok2, err := cluster.Postings.ContainsEntry(ctx, "whale", 20)
	require.NoError(t, err)
	require.True(t, ok1 && ok2, "expected whale postings for both 10 and 20")
}
