package clusterstate

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	gocache "github.com/eko/gocache/lib/v4/cache"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"

	"github.com/mterris/gutensearch/internal/gutenberg"
)

// readCache fronts remote metadata lookups: forwarded RPC reads for keys
// this node doesn't own are comparatively expensive, so results are
// memoized briefly to absorb repeated Get calls for the same book during a
// single search fan-out.
type readCache struct {
	cache *gocache.Cache[gutenberg.Metadata]
	ring  *ristretto.Cache
}

const metadataCacheTTL = 5 * time.Minute

func newReadCache() (*readCache, error) {
	r, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     32 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	store := ristrettostore.NewRistretto(r)
	return &readCache{cache: gocache.New[gutenberg.Metadata](store), ring: r}, nil
}

func (c *readCache) get(ctx context.Context, id int64) (gutenberg.Metadata, bool) {
	m, err := c.cache.Get(ctx, id)
	if err != nil {
		return gutenberg.Metadata{}, false
	}
	return m, true
}

func (c *readCache) set(ctx context.Context, id int64, m gutenberg.Metadata) {
	_ = c.cache.Set(ctx, id, m, gocache.WithExpiration(metadataCacheTTL))
}

func (c *readCache) invalidate(ctx context.Context, id int64) {
	_ = c.cache.Delete(ctx, id)
}

func (c *readCache) close() {
	c.ring.Close()
}
