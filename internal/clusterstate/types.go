// Package clusterstate implements the distributed metadata map, inverted-
// index multimap, and named-lock service every service role shares.
//
// The index is modeled as a partitioned service of shard owners, each
// holding an in-memory term→set<id> table (and id→metadata table),
// reachable through the RPC client abstraction in rpc_client.go.
// Membership is an explicit static address list; keys are assigned to
// owners by a stable hash (ring.go), and each owner persists its shard to
// Postgres (postgres.go) for durability across restarts.
package clusterstate

import (
	"context"

	"github.com/mterris/gutensearch/internal/collections"
	"github.com/mterris/gutensearch/internal/gutenberg"
)

// Map is the distributed book-id -> metadata collection.
type Map interface {
	Get(ctx context.Context, id int64) (gutenberg.Metadata, bool, error)
	GetAll(ctx context.Context, ids []int64) (map[int64]gutenberg.Metadata, error)
	Put(ctx context.Context, id int64, m gutenberg.Metadata) error
	ContainsKey(ctx context.Context, id int64) (bool, error)
	Size(ctx context.Context) (int, error)
	Values(ctx context.Context) ([]gutenberg.Metadata, error)
	Clear(ctx context.Context) error
}

// MultiMap is the distributed term -> set<bookId> collection.
type MultiMap interface {
	Get(ctx context.Context, term string) (collections.Set[int64], error)
	Put(ctx context.Context, term string, id int64) error
	ContainsEntry(ctx context.Context, term string, id int64) (bool, error)
	KeySet(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// Locker is a globally visible mutex identified by a UTF-8 name. Lock
// blocks until acquired or ctx is canceled.
type Locker interface {
	Lock(ctx context.Context, name string) (Unlocker, error)
}

// Unlocker releases a lock acquired through Locker.Lock.
type Unlocker interface {
	Unlock(ctx context.Context) error
}
