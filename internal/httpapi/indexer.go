package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mterris/gutensearch/internal/clusterstate"
)

// bookIndexer is the subset of *indexing.Indexer the HTTP surface needs.
type bookIndexer interface {
	IndexBook(ctx context.Context, id int64) error
	Rebuild(ctx context.Context) (int, error)
}

// IndexerAPI serves the indexer role's HTTP surface.
type IndexerAPI struct {
	indexer  bookIndexer
	metadata clusterstate.Map
	postings clusterstate.MultiMap
	started  time.Time
}

func NewIndexerAPI(indexer bookIndexer, metadata clusterstate.Map, postings clusterstate.MultiMap) *IndexerAPI {
	return &IndexerAPI{indexer: indexer, metadata: metadata, postings: postings, started: time.Now()}
}

func (ix *IndexerAPI) Routes(r chi.Router) {
	r.Post("/index/update/{id}", ix.update)
	r.Post("/index/rebuild", ix.rebuild)
	r.Get("/index/status", ix.status)
	r.Get("/health", health)
	r.Get("/stats", ix.stats)
}

func (ix *IndexerAPI) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ix.indexer.IndexBook(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "failed", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookId": id, "status": "updated"})
}

func (ix *IndexerAPI) rebuild(w http.ResponseWriter, r *http.Request) {
	n, err := ix.indexer.Rebuild(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "completed", "books_indexed": n})
}

func (ix *IndexerAPI) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := ix.metadata.Size(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	terms, err := ix.postings.KeySet(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"books_indexed": n,
		"unique_words":  len(terms),
		"last_update":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (ix *IndexerAPI) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := ix.metadata.Size(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	terms, err := ix.postings.KeySet(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_books":  n,
		"unique_words": len(terms),
		"uptime":       time.Since(ix.started).String(),
	})
}
