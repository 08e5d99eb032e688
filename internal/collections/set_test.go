package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnion(t *testing.T) {
	a := NewSet(1, 2, 3)
	b := NewSet(3, 4)

	got := Union(a, b)
	want := NewSet(1, 2, 3, 4)

	assert.Len(t, got, len(want))
	for v := range want {
		assert.True(t, got.Contains(v), "union missing %v", v)
	}
}

func TestSetContainsAdd(t *testing.T) {
	s := NewSet[string]()
	assert.False(t, s.Contains("a"), "empty set should not contain a")
	s.Add("a")
	assert.True(t, s.Contains("a"), "set should contain a after Add")
}
