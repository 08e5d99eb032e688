package clusterstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mterris/gutensearch/internal/gutenberg"
)

func TestLocalShardMetadataRoundTrip(t *testing.T) {
	s := newLocalShard(4)

	_, ok := s.getMetadata(11)
	assert.False(t, ok, "expected no metadata before put")

	s.putMetadata(11, gutenberg.Metadata{BookID: 11, Title: "Moby Dick"})

	m, ok := s.getMetadata(11)
	require.True(t, ok)
	assert.Equal(t, "Moby Dick", m.Title)
	assert.True(t, s.containsKey(11))
	assert.Equal(t, 1, s.size())
}

func TestLocalShardPostingsAccumulate(t *testing.T) {
	s := newLocalShard(4)

	s.putPosting("whale", 1)
	s.putPosting("whale", 2)
	s.putPosting("ahab", 1)

	whale := s.getPostings("whale")
	assert.True(t, whale.Contains(1))
	assert.True(t, whale.Contains(2))
	assert.True(t, s.containsEntry("ahab", 1))

	keys := s.keySet()
	assert.Len(t, keys, 2)
}

func TestLocalShardPutPostingConcurrentSameTerm(t *testing.T) {
	s := newLocalShard(4)

	var wg sync.WaitGroup
	for i := int64(0); i < 100; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.putPosting("whale", id)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.getPostings("whale"), 100)
}

func TestLocalShardClear(t *testing.T) {
	s := newLocalShard(4)
	s.putMetadata(1, gutenberg.Metadata{BookID: 1})
	s.putPosting("whale", 1)

	s.clear()

	assert.Equal(t, 0, s.size())
	assert.Empty(t, s.getPostings("whale"))
}

func TestLocalShardLockShardSerializes(t *testing.T) {
	s := newLocalShard(4)

	release := s.lockShard("lock:shard:1")
	acquired := make(chan struct{})
	go func() {
		release2 := s.lockShard("lock:shard:1")
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatalf("second lockShard acquired before first was released")
	default:
	}
	release()
	<-acquired
}
