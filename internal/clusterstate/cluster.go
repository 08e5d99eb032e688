package clusterstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mterris/gutensearch/internal/collections"
	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/gutenberg"
	"github.com/mterris/gutensearch/internal/logging"
)

// Config parameterizes a Cluster.
type Config struct {
	Self        string
	Members     []string
	BackupCount int
	ShardCount  int
	RPCTimeout  time.Duration
}

// core is the shared state behind Cluster's Map, MultiMap, and Locker
// facades: the consistent-hash ring (ring.go), this node's in-memory shard
// (local.go), the RPC client for forwarding to remote owners
// (rpc_client.go), and the durability layer (postgres.go).
type core struct {
	cfg    Config
	ring   *ring
	local  *localShard
	client *rpcClient
	pst    persistence
	cache  *readCache
}

func (c *core) owners(key string) []string {
	return c.ring.owners(key, 1+c.cfg.BackupCount)
}

func (c *core) isSelf(addr string) bool { return addr == c.cfg.Self }

// Cluster is the single type main constructs: the distributed metadata
// map, inverted-index multimap, and named-lock service backing every
// service role. Its three facades share one core so they partition
// consistently over the same ring.
type Cluster struct {
	*core
	Metadata Map
	Postings MultiMap
}

// New constructs a Cluster and loads this node's persisted shard before
// serving.
func New(ctx context.Context, cfg Config, pst persistence) (*Cluster, error) {
	if pst == nil {
		pst = noPersistence{}
	}
	members := cfg.Members
	if len(members) == 0 {
		members = []string{cfg.Self}
	}

	cache, err := newReadCache()
	if err != nil {
		return nil, err
	}

	cr := &core{
		cfg:    cfg,
		ring:   newRing(members),
		local:  newLocalShard(cfg.ShardCount),
		client: newRPCClient(cfg.RPCTimeout),
		pst:    pst,
		cache:  cache,
	}

	metadata, err := pst.LoadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	for id, m := range metadata {
		cr.local.putMetadata(id, m)
	}

	postings, err := pst.LoadPostings(ctx)
	if err != nil {
		return nil, err
	}
	for term, ids := range postings {
		for _, id := range ids {
			cr.local.putPosting(term, id)
		}
	}

	logging.Log(ctx).Info("cluster state loaded", "metadataCount", len(metadata), "termCount", len(postings), "members", members)

	return &Cluster{
		core:     cr,
		Metadata: &clusterMap{core: cr},
		Postings: &clusterMultiMap{core: cr},
	}, nil
}

// Routes registers the node's internal RPC surface.
func (c *Cluster) Routes(r chi.Router) {
	newRPCServer(c.local, c.pst).routes(r)
}

// Close releases this node's membership in cluster state: its durability
// connection and local read cache. Call after the HTTP surface and message
// consumer have both stopped.
func (c *Cluster) Close() {
	c.cache.close()
	c.pst.Close()
}

// Lock acquires name across the cluster by forwarding to its owning member's
// lockShard, satisfying Locker.
func (c *Cluster) Lock(ctx context.Context, name string) (Unlocker, error) {
	addr := c.ring.primary(name)
	if c.isSelf(addr) {
		acquired := make(chan func(), 1)
		go func() { acquired <- c.local.lockShard(name) }()
		select {
		case release := <-acquired:
			return &localUnlocker{release: release}, nil
		case <-ctx.Done():
			// Hand the lock back as soon as the pending acquire completes.
			go func() { (<-acquired)() }()
			return nil, ctx.Err()
		}
	}
	if err := c.client.lockAcquire(ctx, addr, name); err != nil {
		return nil, fmt.Errorf("acquiring lock %q on %s: %w", name, addr, err)
	}
	return &remoteUnlocker{client: c.client, addr: addr, name: name}, nil
}

type localUnlocker struct{ release func() }

func (l *localUnlocker) Unlock(context.Context) error {
	l.release()
	return nil
}

type remoteUnlocker struct {
	client *rpcClient
	addr   string
	name   string
}

func (r *remoteUnlocker) Unlock(ctx context.Context) error {
	return r.client.lockRelease(ctx, r.addr, r.name)
}

// clusterMap implements Map over *core.
type clusterMap struct{ *core }

var _ Map = (*clusterMap)(nil)

func (m *clusterMap) Get(ctx context.Context, id int64) (gutenberg.Metadata, bool, error) {
	key := fmt.Sprint(id)
	primary := m.ring.primary(key)
	if m.isSelf(primary) {
		v, ok := m.local.getMetadata(id)
		return v, ok, nil
	}

	if v, ok := m.cache.get(ctx, id); ok {
		return v, true, nil
	}
	v, ok, err := m.client.getMetadata(ctx, primary, id)
	if err == nil && ok {
		m.cache.set(ctx, id, v)
	}
	return v, ok, err
}

func (m *clusterMap) GetAll(ctx context.Context, ids []int64) (map[int64]gutenberg.Metadata, error) {
	out := make(map[int64]gutenberg.Metadata, len(ids))
	for _, id := range ids {
		v, ok, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = v
		}
	}
	return out, nil
}

// Put writes id's metadata to the primary owner and synchronously to
// backupCount backups; nothing is acknowledged until all configured
// replicas hold it.
func (m *clusterMap) Put(ctx context.Context, id int64, md gutenberg.Metadata) error {
	key := fmt.Sprint(id)
	owners := m.owners(key)
	if len(owners) == 0 {
		return errs.ErrClusterError
	}

	for _, addr := range owners {
		if m.isSelf(addr) {
			m.local.putMetadata(id, md)
			if err := m.pst.SaveMetadata(ctx, md); err != nil {
				logging.Log(ctx).Warn("persisting metadata locally", "bookId", id, "err", err)
			}
			continue
		}
		if err := m.client.putMetadata(ctx, addr, id, md); err != nil {
			return fmt.Errorf("replicating metadata for book %d to %s: %w", id, addr, err)
		}
		m.cache.invalidate(ctx, id)
	}
	return nil
}

func (m *clusterMap) ContainsKey(ctx context.Context, id int64) (bool, error) {
	key := fmt.Sprint(id)
	primary := m.ring.primary(key)
	if m.isSelf(primary) {
		return m.local.containsKey(id), nil
	}
	return m.client.containsKey(ctx, primary, id)
}

// Size fans out across every member and sums, since each owns a disjoint
// primary shard of the key space.
func (m *clusterMap) Size(ctx context.Context) (int, error) {
	total := 0
	for _, addr := range m.ring.members {
		if m.isSelf(addr) {
			total += m.local.size()
			continue
		}
		n, err := m.client.size(ctx, addr)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (m *clusterMap) Values(ctx context.Context) ([]gutenberg.Metadata, error) {
	var out []gutenberg.Metadata
	for _, addr := range m.ring.members {
		if m.isSelf(addr) {
			out = append(out, m.local.values()...)
			continue
		}
		vs, err := m.client.values(ctx, addr)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func (m *clusterMap) Clear(ctx context.Context) error {
	for _, addr := range m.ring.members {
		if m.isSelf(addr) {
			m.local.clear()
			if err := m.pst.Clear(ctx); err != nil {
				return err
			}
			continue
		}
		if err := m.client.mapClear(ctx, addr); err != nil {
			return err
		}
	}
	return nil
}

// clusterMultiMap implements MultiMap over *core.
type clusterMultiMap struct{ *core }

var _ MultiMap = (*clusterMultiMap)(nil)

func (m *clusterMultiMap) Get(ctx context.Context, term string) (collections.Set[int64], error) {
	primary := m.ring.primary(term)
	if m.isSelf(primary) {
		return m.local.getPostings(term), nil
	}
	ids, err := m.client.getPostings(ctx, primary, term)
	if err != nil {
		return nil, err
	}
	return collections.NewSet(ids...), nil
}

// Put writes term/id to the primary owner and synchronously to backupCount
// backups, matching clusterMap.Put's replication discipline.
func (m *clusterMultiMap) Put(ctx context.Context, term string, id int64) error {
	owners := m.owners(term)
	if len(owners) == 0 {
		return errs.ErrClusterError
	}

	for _, addr := range owners {
		if m.isSelf(addr) {
			m.local.putPosting(term, id)
			if err := m.pst.SavePosting(ctx, term, id); err != nil {
				logging.Log(ctx).Warn("persisting posting locally", "term", term, "bookId", id, "err", err)
			}
			continue
		}
		if err := m.client.putPosting(ctx, addr, term, id); err != nil {
			return fmt.Errorf("replicating posting %q/%d to %s: %w", term, id, addr, err)
		}
	}
	return nil
}

func (m *clusterMultiMap) ContainsEntry(ctx context.Context, term string, id int64) (bool, error) {
	primary := m.ring.primary(term)
	if m.isSelf(primary) {
		return m.local.containsEntry(term, id), nil
	}
	return m.client.containsEntry(ctx, primary, term, id)
}

func (m *clusterMultiMap) KeySet(ctx context.Context) ([]string, error) {
	seen := collections.Set[string]{}
	for _, addr := range m.ring.members {
		if m.isSelf(addr) {
			for _, t := range m.local.keySet() {
				seen.Add(t)
			}
			continue
		}
		ts, err := m.client.keySet(ctx, addr)
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			seen.Add(t)
		}
	}
	return seen.Slice(), nil
}

func (m *clusterMultiMap) Clear(ctx context.Context) error {
	for _, addr := range m.ring.members {
		if m.isSelf(addr) {
			m.local.clear()
			if err := m.pst.Clear(ctx); err != nil {
				return err
			}
			continue
		}
		if err := m.client.multimapClear(ctx, addr); err != nil {
			return err
		}
	}
	return nil
}
