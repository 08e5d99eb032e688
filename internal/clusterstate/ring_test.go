package clusterstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingPrimaryIsDeterministic(t *testing.T) {
	r := newRing([]string{"a:1", "b:2", "c:3"})

	first := r.primary("hamlet")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.primary("hamlet"))
	}
}

func TestRingOwnersAreDistinct(t *testing.T) {
	r := newRing([]string{"a:1", "b:2", "c:3"})

	owners := r.owners("moby-dick", 3)
	assert.Len(t, owners, 3)

	seen := map[string]bool{}
	for _, o := range owners {
		assert.False(t, seen[o], "duplicate owner %q in %v", o, owners)
		seen[o] = true
	}
}

func TestRingOwnersCapsAtMemberCount(t *testing.T) {
	r := newRing([]string{"a:1", "b:2"})
	assert.Len(t, r.owners("x", 5), 2)
}

func TestRingEmptyMembers(t *testing.T) {
	r := newRing(nil)
	assert.Equal(t, "", r.primary("x"))
}

func TestShardIndexWithinBounds(t *testing.T) {
	for _, term := range []string{"whale", "ahab", "ishmael", ""} {
		idx := shardIndex(term, 7)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 7)
	}
}
