package clusterstate

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// ring partitions keys across a static set of cluster members by a stable
// hash of the key. Membership is an explicit address list; there is no
// gossip or multicast rediscovery.
type ring struct {
	members []string // sorted by hash, ascending
	hashes  []uint64
}

func newRing(members []string) *ring {
	r := &ring{members: append([]string(nil), members...)}
	sort.Slice(r.members, func(i, j int) bool {
		return xxhash.Sum64String(r.members[i]) < xxhash.Sum64String(r.members[j])
	})
	r.hashes = make([]uint64, len(r.members))
	for i, m := range r.members {
		r.hashes[i] = xxhash.Sum64String(m)
	}
	return r
}

// owners returns up to n distinct members responsible for key, primary
// first followed by backups, walking the ring clockwise from key's hash.
func (r *ring) owners(key string, n int) []string {
	if len(r.members) == 0 {
		return nil
	}
	if n > len(r.members) {
		n = len(r.members)
	}

	h := xxhash.Sum64String(key)
	start := sort.Search(len(r.hashes), func(i int) bool { return r.hashes[i] >= h })

	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.members[(start+i)%len(r.members)])
	}
	return out
}

// primary returns the single member owning key.
func (r *ring) primary(key string) string {
	owners := r.owners(key, 1)
	if len(owners) == 0 {
		return ""
	}
	return owners[0]
}

// shardIndex maps name to one of S fixed shards: a fixed shard count S and
// a lock table of S mutexes indexed by nonNegative(hash(term)) mod S,
// rather than per-term lock names.
func shardIndex(name string, shardCount int) int {
	h := xxhash.Sum64String(name)
	return int(h % uint64(shardCount))
}
