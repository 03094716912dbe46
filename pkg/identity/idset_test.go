package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSetUnionDeduplicates(t *testing.T) {
	a := NewIDSet(1, 2, 3)
	b := NewIDSet(3, 4)

	u := a.Union(b)
	assert.Equal(t, []int64{1, 2, 3, 4}, u.Sorted())

	// Union never mutates its operands.
	assert.Equal(t, []int64{1, 2, 3}, a.Sorted())
	assert.Equal(t, []int64{3, 4}, b.Sorted())
}

func TestIDSetUnionOfNil(t *testing.T) {
	var a IDSet
	u := a.Union(NewIDSet(7))
	assert.Equal(t, []int64{7}, u.Sorted())
	assert.Equal(t, 0, a.Len())
}

func TestIDSetIntersect(t *testing.T) {
	a := NewIDSet(1, 2, 3)
	b := NewIDSet(2, 3, 4)
	assert.Equal(t, []int64{2, 3}, a.Intersect(b).Sorted())
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(NewIDSet(9)))
}

func TestIDSetContains(t *testing.T) {
	s := NewIDSet(5)
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(6))

	var nilSet IDSet
	assert.False(t, nilSet.Contains(5))
}
