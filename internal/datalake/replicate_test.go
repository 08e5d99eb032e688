package datalake

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mterris/gutensearch/internal/errs"
)

func TestReplicateNoTargets(t *testing.T) {
	r := NewReplicator("self:9000", 8789, "/api/datalake/store", time.Second)

	err := r.Replicate(context.Background(), []string{"self:9000"}, 11, "t", "raw")
	assert.True(t, errors.Is(err, errs.ErrNoReplicaTargets))
}

func TestReplicateSucceedsOnReachablePeer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	r := NewReplicator("self", port, "/api/datalake/store", time.Second)
	err = r.Replicate(context.Background(), []string{"self", u.Hostname()}, 11, "t", "raw")
	require.NoError(t, err)
}

func TestReplicateFailsWhenAllPeersUnreachable(t *testing.T) {
	r := NewReplicator("self", 1, "/x", 50*time.Millisecond)

	err := r.Replicate(context.Background(), []string{"self", "127.0.0.1:1"}, 11, "t", "raw")
	assert.True(t, errors.Is(err, errs.ErrReplicationFailed))
}
