package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mterris/gutensearch/internal/clusterstate"
	"github.com/mterris/gutensearch/internal/gutenberg"
	"github.com/mterris/gutensearch/internal/indexing"
	"github.com/mterris/gutensearch/internal/search"
)

func newTestSearcherRouter(t *testing.T) http.Handler {
	t.Helper()
	cluster, err := clusterstate.New(context.Background(), clusterstate.Config{
		Self:       "node1",
		Members:    []string{"node1"},
		ShardCount: 8,
		RPCTimeout: time.Second,
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	md := gutenberg.Metadata{BookID: 11, Title: "Alice", Author: "Carroll", Language: "english"}
	require.NoError(t, cluster.Metadata.Put(ctx, md.BookID, md))
	for term := range indexing.TokenizeBody("alice wonderland rabbit") {
		require.NoError(t, cluster.Postings.Put(ctx, term, md.BookID))
	}

	searcher := search.New(cluster.Metadata, cluster.Postings, 100, 10)
	r := chi.NewRouter()
	NewSearcherAPI(searcher).Routes(r)
	return r
}

func TestSearchEndpointHappyPath(t *testing.T) {
	r := newTestSearcherRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/search?q=alice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, float64(1), body["total_results"])
}

func TestSearchEndpointMissingQueryIsBadRequest(t *testing.T) {
	r := newTestSearcherRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestSearcherRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
