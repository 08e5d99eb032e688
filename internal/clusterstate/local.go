package clusterstate

import (
	"sync"

	"github.com/mterris/gutensearch/internal/collections"
	"github.com/mterris/gutensearch/internal/gutenberg"
)

// localShard is one node's in-memory slice of the metadata map and
// inverted-index multimap, for whichever keys this node owns (as primary
// or backup). Writes to postings are serialized by a fixed table of
// shardCount mutexes.
type localShard struct {
	mu       sync.RWMutex
	metadata map[int64]gutenberg.Metadata
	postings map[string]collections.Set[int64]

	shardMu []sync.Mutex
}

func newLocalShard(shardCount int) *localShard {
	return &localShard{
		metadata: map[int64]gutenberg.Metadata{},
		postings: map[string]collections.Set[int64]{},
		shardMu:  make([]sync.Mutex, shardCount),
	}
}

func (s *localShard) getMetadata(id int64) (gutenberg.Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metadata[id]
	return m, ok
}

func (s *localShard) putMetadata(id int64, m gutenberg.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[id] = m
}

func (s *localShard) containsKey(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.metadata[id]
	return ok
}

func (s *localShard) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.metadata)
}

func (s *localShard) values() []gutenberg.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gutenberg.Metadata, 0, len(s.metadata))
	for _, m := range s.metadata {
		out = append(out, m)
	}
	return out
}

func (s *localShard) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = map[int64]gutenberg.Metadata{}
	s.postings = map[string]collections.Set[int64]{}
}

func (s *localShard) getPostings(term string) collections.Set[int64] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collections.Union(s.postings[term], collections.Set[int64]{})
}

// putPosting adds id to term's postings under term's shard lock. The
// shard lock, not localShard.mu, is what must be held across the
// read-then-write of the postings set.
func (s *localShard) putPosting(term string, id int64) {
	idx := shardIndex(term, len(s.shardMu))
	s.shardMu[idx].Lock()
	defer s.shardMu[idx].Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.postings[term]
	if !ok {
		set = collections.Set[int64]{}
		s.postings[term] = set
	}
	set.Add(id)
}

func (s *localShard) containsEntry(term string, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postings[term].Contains(id)
}

func (s *localShard) keySet() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.postings))
	for t := range s.postings {
		out = append(out, t)
	}
	return out
}

// lockShard acquires the mutex for name's shard and returns a release func.
func (s *localShard) lockShard(name string) func() {
	idx := shardIndex(name, len(s.shardMu))
	s.shardMu[idx].Lock()
	return s.shardMu[idx].Unlock
}
