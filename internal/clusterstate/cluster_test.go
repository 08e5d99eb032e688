package clusterstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mterris/gutensearch/internal/gutenberg"
)

func newTestCluster(t *testing.T) *Cluster {
	t.Helper()
	c, err := New(context.Background(), Config{
		Self:        "node1:9701",
		Members:     []string{"node1:9701"},
		BackupCount: 0,
		ShardCount:  8,
		RPCTimeout:  time.Second,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestClusterMapPutGetSingleNode(t *testing.T) {
	c := newTestCluster(t)
	ctx := context.Background()

	require.NoError(t, c.Metadata.Put(ctx, 11, gutenberg.Metadata{BookID: 11, Title: "Moby Dick"}))

	m, ok, err := c.Metadata.Get(ctx, 11)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Moby Dick", m.Title)

	n, err := c.Metadata.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClusterPostingsPutGetSingleNode(t *testing.T) {
	c := newTestCluster(t)
	ctx := context.Background()

	require.NoError(t, c.Postings.Put(ctx, "whale", 11))
	require.NoError(t, c.Postings.Put(ctx, "whale", 12))

	ids, err := c.Postings.Get(ctx, "whale")
	require.NoError(t, err)
	assert.True(t, ids.Contains(11))
	assert.True(t, ids.Contains(12))

	keys, err := c.Postings.KeySet(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestClusterLockSerializesSingleNode(t *testing.T) {
	c := newTestCluster(t)
	ctx := context.Background()

	unlock, err := c.Lock(ctx, "lock:rebuild")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u2, err := c.Lock(context.Background(), "lock:rebuild")
		if err != nil {
			t.Error(err)
			return
		}
		close(acquired)
		_ = u2.Unlock(context.Background())
	}()

	select {
	case <-acquired:
		t.Fatalf("second Lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, unlock.Unlock(ctx))
	<-acquired
}

func TestClusterClearSingleNode(t *testing.T) {
	c := newTestCluster(t)
	ctx := context.Background()

	require.NoError(t, c.Metadata.Put(ctx, 1, gutenberg.Metadata{BookID: 1}))
	require.NoError(t, c.Postings.Put(ctx, "whale", 1))

	require.NoError(t, c.Metadata.Clear(ctx))
	n, err := c.Metadata.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
