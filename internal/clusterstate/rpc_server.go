package clusterstate

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mterris/gutensearch/internal/errs"
	"github.com/mterris/gutensearch/internal/gutenberg"
	"github.com/mterris/gutensearch/internal/logging"
)

// rpcServer exposes a node's localShard over HTTP so peers that don't own a
// key can forward operations to whichever node does.
type rpcServer struct {
	shard *localShard
	pst   persistence
}

func newRPCServer(shard *localShard, pst persistence) *rpcServer {
	return &rpcServer{shard: shard, pst: pst}
}

// routes registers the internal cluster RPC endpoints on r.
func (s *rpcServer) routes(r chi.Router) {
	r.Get("/internal/map/get/{id}", s.mapGet)
	r.Put("/internal/map/put/{id}", s.mapPut)
	r.Get("/internal/map/containsKey/{id}", s.mapContainsKey)
	r.Get("/internal/map/size", s.mapSize)
	r.Get("/internal/map/values", s.mapValues)
	r.Post("/internal/map/clear", s.mapClear)

	r.Get("/internal/multimap/get/{term}", s.multimapGet)
	r.Put("/internal/multimap/put/{term}/{id}", s.multimapPut)
	r.Get("/internal/multimap/containsEntry/{term}/{id}", s.multimapContainsEntry)
	r.Get("/internal/multimap/keyset", s.multimapKeySet)
	r.Post("/internal/multimap/clear", s.multimapClear)

	r.Post("/internal/lock/acquire/{name}", s.lockAcquire)
	r.Post("/internal/lock/release/{name}", s.lockRelease)
}

func (s *rpcServer) mapGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.error(w, err)
		return
	}
	m, ok := s.shard.getMetadata(id)
	if !ok {
		s.error(w, errs.ErrNotFound)
		return
	}
	s.json(w, m)
}

func (s *rpcServer) mapPut(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.error(w, err)
		return
	}
	var m gutenberg.Metadata
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		s.error(w, errs.Wrap(err, http.StatusBadRequest))
		return
	}
	s.shard.putMetadata(id, m)
	if s.pst != nil {
		if err := s.pst.SaveMetadata(r.Context(), m); err != nil {
			logging.Log(r.Context()).Warn("persisting metadata", "bookId", id, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *rpcServer) mapContainsKey(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.error(w, err)
		return
	}
	s.json(w, s.shard.containsKey(id))
}

func (s *rpcServer) mapSize(w http.ResponseWriter, _ *http.Request) {
	s.json(w, s.shard.size())
}

func (s *rpcServer) mapValues(w http.ResponseWriter, _ *http.Request) {
	s.json(w, s.shard.values())
}

func (s *rpcServer) mapClear(w http.ResponseWriter, r *http.Request) {
	s.shard.clear()
	if s.pst != nil {
		if err := s.pst.Clear(r.Context()); err != nil {
			logging.Log(r.Context()).Warn("clearing persisted state", "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *rpcServer) multimapGet(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	s.json(w, s.shard.getPostings(term).Slice())
}

func (s *rpcServer) multimapPut(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.error(w, err)
		return
	}
	term := chi.URLParam(r, "term")
	s.shard.putPosting(term, id)
	if s.pst != nil {
		if err := s.pst.SavePosting(r.Context(), term, id); err != nil {
			logging.Log(r.Context()).Warn("persisting posting", "term", term, "bookId", id, "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *rpcServer) multimapContainsEntry(w http.ResponseWriter, r *http.Request) {
	term := chi.URLParam(r, "term")
	id, err := pathID(r, "id")
	if err != nil {
		s.error(w, err)
		return
	}
	s.json(w, s.shard.containsEntry(term, id))
}

func (s *rpcServer) multimapKeySet(w http.ResponseWriter, _ *http.Request) {
	s.json(w, s.shard.keySet())
}

func (s *rpcServer) multimapClear(w http.ResponseWriter, r *http.Request) {
	s.shard.clear()
	if s.pst != nil {
		if err := s.pst.Clear(r.Context()); err != nil {
			logging.Log(r.Context()).Warn("clearing persisted state", "err", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *rpcServer) lockAcquire(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	release := s.shard.lockShard(name)
	// The lock stays held after this request returns; the caller releases it
	// with an explicit /internal/lock/release call.
	lockRegistry.store(name, release)
	w.WriteHeader(http.StatusOK)
}

func (s *rpcServer) lockRelease(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !lockRegistry.release(name) {
		s.error(w, errs.ErrClusterError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *rpcServer) json(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *rpcServer) error(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errs.Status(err))
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil {
		return 0, errs.Wrap(err, http.StatusBadRequest)
	}
	return id, nil
}
