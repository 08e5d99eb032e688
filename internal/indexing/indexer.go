// Package indexing commits accepted books into the cluster-wide metadata
// map and inverted-index multimap.
package indexing

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/mterris/gutensearch/internal/clusterstate"
	"github.com/mterris/gutensearch/internal/datalake"
	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/gutenberg"
	"github.com/mterris/gutensearch/internal/logging"
)

// Indexer commits datalake-resident books into cluster state. It is safe
// for concurrent use by the HTTP surface and the message consumer alike.
type Indexer struct {
	lake     *datalake.Store
	metadata clusterstate.Map
	postings clusterstate.MultiMap
	group    singleflight.Group // coalesces concurrent indexBook(id) calls for the same id
}

func New(lake *datalake.Store, metadata clusterstate.Map, postings clusterstate.MultiMap) *Indexer {
	return &Indexer{lake: lake, metadata: metadata, postings: postings}
}

// IndexBook tokenizes and commits a single book's metadata and postings.
// It is idempotent: once id is present in the metadata map, later calls
// are no-ops.
func (ix *Indexer) IndexBook(ctx context.Context, id int64) error {
	_, err, _ := ix.group.Do(fmt.Sprint(id), func() (any, error) {
		return nil, ix.indexBookOnce(ctx, id)
	})
	return err
}

func (ix *Indexer) indexBookOnce(ctx context.Context, id int64) error {
	present, err := ix.metadata.ContainsKey(ctx, id)
	if err != nil {
		return err
	}
	if present {
		logging.Log(ctx).Debug("indexBook no-op, already indexed", "bookId", id)
		return nil
	}

	header, err := ix.lake.ReadHeader(id)
	if err != nil {
		return fmt.Errorf("reading header for book %d: %w", id, err)
	}
	body, err := ix.lake.ReadBody(id)
	if err != nil {
		return fmt.Errorf("reading body for book %d: %w", id, err)
	}

	md := gutenberg.ExtractMetadata(id, header, ix.lake.Path(id))
	if err := ix.metadata.Put(ctx, id, md); err != nil {
		return fmt.Errorf("writing metadata for book %d: %w", id, err)
	}

	terms := TokenizeBody(body)
	for term := range terms {
		if err := ix.postings.Put(ctx, term, id); err != nil {
			return fmt.Errorf("writing posting %q for book %d: %w", term, id, err)
		}
	}

	logging.Log(ctx).Info("indexed book", "bookId", id, "title", md.Title, "termCount", len(terms))
	return nil
}

// Rebuild clears cluster state, then indexes every identifier listed by
// the datalake's tracking file.
func (ix *Indexer) Rebuild(ctx context.Context) (int, error) {
	ids, err := ix.lake.ListIDs()
	if err != nil {
		return 0, err
	}
	return ix.rebuildFrom(ctx, ids)
}

// RebuildFromScan is the disaster-recovery variant: it rebuilds from a
// filesystem scan instead of the (possibly missing or unusable) tracking
// file.
func (ix *Indexer) RebuildFromScan(ctx context.Context) (int, error) {
	ids, err := ix.lake.ScanIDs()
	if err != nil {
		return 0, err
	}
	return ix.rebuildFrom(ctx, ids)
}

func (ix *Indexer) rebuildFrom(ctx context.Context, ids []int64) (int, error) {
	if err := ix.metadata.Clear(ctx); err != nil {
		return 0, err
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := ix.IndexBook(ctx, id); err != nil {
			return 0, fmt.Errorf("rebuilding book %d: %w", id, err)
		}
	}
	return len(ids), nil
}

// RecoverIfEmpty is the startup consistency check: if the cluster-wide
// inverted index is empty, run the filesystem-scan rebuild against the
// local datalake. Safe to run concurrently on multiple nodes because
// indexBook's idempotency check prevents duplicate writes.
func (ix *Indexer) RecoverIfEmpty(ctx context.Context) error {
	terms, err := ix.postings.KeySet(ctx)
	if err != nil {
		return err
	}
	if len(terms) > 0 {
		return nil
	}

	logging.Log(ctx).Info("cluster inverted index empty at startup, running disaster-recovery rebuild")
	n, err := ix.RebuildFromScan(ctx)
	if err != nil {
		return fmt.Errorf("disaster-recovery rebuild: %w", errs.Wrap(err, http.StatusInternalServerError))
	}
	logging.Log(ctx).Info("disaster-recovery rebuild complete", "bookCount", n)
	return nil
}
