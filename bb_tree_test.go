package cm3

import (
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBTreeQuery(t *testing.T) {
	tree := NewBBTree[int](0)
	leaves := make([]*Node[int], 10)
	for i := range leaves {
		c := mgl64.Vec3{float64(i) * 3, 0, 0}
		leaves[i] = tree.Insert(i, NewBBForExtents(c, splat(1)))
	}
	require.Equal(t, 10, tree.Count())

	var found []int
	tree.Query(NewBB(mgl64.Vec3{2.5, -1, -1}, mgl64.Vec3{6.5, 1, 1}), func(i int) {
		found = append(found, i)
	})
	slices.Sort(found)
	assert.Equal(t, []int{1, 2}, found)

	tree.Remove(leaves[1])
	assert.Equal(t, 9, tree.Count())
	found = found[:0]
	tree.Query(NewBB(mgl64.Vec3{2.5, -1, -1}, mgl64.Vec3{6.5, 1, 1}), func(i int) {
		found = append(found, i)
	})
	assert.Equal(t, []int{2}, found)

	var all int
	tree.Each(func(int) { all++ })
	assert.Equal(t, 9, all)
}

func TestBBTreeUpdate(t *testing.T) {
	tree := NewBBTree[string](0.5)
	leaf := tree.Insert("a", NewBBForSphere(mgl64.Vec3{}, 1))

	assert.False(t, tree.Update(leaf, NewBBForSphere(mgl64.Vec3{0.2, 0, 0}, 1)), "inside the fattened box")
	assert.True(t, tree.Update(leaf, NewBBForSphere(mgl64.Vec3{10, 0, 0}, 1)))

	var found []string
	tree.Query(NewBBForSphere(mgl64.Vec3{10, 0, 0}, 0.1), func(s string) { found = append(found, s) })
	assert.Equal(t, []string{"a"}, found)
}

func TestBBTreeSegmentQuery(t *testing.T) {
	tree := NewBBTree[int](0)
	for i := range 5 {
		tree.Insert(i, NewBBForExtents(mgl64.Vec3{float64(i+1) * 10, 0, 0}, splat(1)))
	}

	var visited []int
	tExit := tree.SegmentQuery(mgl64.Vec3{}, mgl64.Vec3{100, 0, 0}, 1, func(i int) float64 {
		visited = append(visited, i)
		// report a hit at the entry of the box
		return (float64(i+1)*10 - 1) / 100
	})
	assert.InDelta(t, 0.09, tExit, 1e-12)
	assert.Contains(t, visited, 0)
	assert.Less(t, len(visited), 5, "farther boxes are pruned")

	visited = visited[:0]
	tree.SegmentQuery(mgl64.Vec3{}, mgl64.Vec3{100, 0, 0}, 0, func(i int) float64 {
		visited = append(visited, i)
		return 1
	})
	assert.Empty(t, visited)
}

func TestBBSegmentQuery(t *testing.T) {
	bb := NewBB(mgl64.Vec3{1, -1, -1}, mgl64.Vec3{3, 1, 1})
	assert.InDelta(t, 0.1, bb.SegmentQuery(mgl64.Vec3{}, mgl64.Vec3{10, 0, 0}), 1e-12)
	assert.Equal(t, 0.0, bb.SegmentQuery(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{10, 0, 0}))
	assert.Equal(t, infinity, bb.SegmentQuery(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{10, 5, 0}))
	assert.Equal(t, infinity, bb.SegmentQuery(mgl64.Vec3{}, mgl64.Vec3{0.5, 0, 0}))

	f, n, ok := bb.RayHit(mgl64.Vec3{}, mgl64.Vec3{10, 0, 0}, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.1, f, 1e-12)
	assert.Equal(t, mgl64.Vec3{-1, 0, 0}, n)

	_, _, ok = bb.RayHit(mgl64.Vec3{}, mgl64.Vec3{10, 0, 0}, 0.05)
	assert.False(t, ok)
}

func TestBBOperations(t *testing.T) {
	a := NewBB(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := NewBB(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{3, 3, 3})
	assert.False(t, a.Intersects(b))
	assert.True(t, a.Merge(b).Contains(b))
	assert.True(t, a.Grow(1).Intersects(b))
	assert.Equal(t, NewBB(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{4, 4, 4}), a.Minkowski(b))
	assert.Equal(t, mgl64.Vec3{0.5, 0.5, 0.5}, a.Center())
	assert.Equal(t, 6.0, a.Area())
}
