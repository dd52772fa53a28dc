package cm3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionFind(t *testing.T) {
	var uf UnionFind
	uf.Reset(6)
	require.Equal(t, 6, uf.NumElements())
	for i := range 6 {
		assert.True(t, uf.IsRoot(i))
	}

	uf.Unite(0, 1)
	uf.Unite(3, 4)
	uf.Unite(1, 4)
	uf.Unite(4, 0)

	root := uf.Find(0)
	for _, i := range []int{1, 3, 4} {
		assert.Equal(t, root, uf.Find(i))
	}
	assert.NotEqual(t, root, uf.Find(2))
	assert.NotEqual(t, uf.Find(2), uf.Find(5))
	assert.Equal(t, uf.Find(3), uf.FindGroupID(3))

	uf.Reset(2)
	assert.NotEqual(t, uf.Find(0), uf.Find(1))
}

func TestSortIslands(t *testing.T) {
	var uf UnionFind
	uf.Reset(5)
	uf.Unite(4, 1)
	uf.Unite(2, 0)

	islands := uf.SortIslands()
	require.Len(t, islands, 5)

	// entries of an island are contiguous and in ascending group order
	seen := map[int]bool{}
	for i, entry := range islands {
		assert.Equal(t, uf.Find(entry.BodyIndex), entry.GroupID)
		if i > 0 && islands[i-1].GroupID != entry.GroupID {
			assert.Less(t, islands[i-1].GroupID, entry.GroupID)
			assert.False(t, seen[entry.GroupID])
		}
		if i > 0 && islands[i-1].GroupID == entry.GroupID {
			assert.Less(t, islands[i-1].BodyIndex, entry.BodyIndex, "bodies keep their order")
		}
		seen[entry.GroupID] = true
	}
	assert.Len(t, seen, 3)

	// sorting does not change the sets
	assert.Equal(t, uf.Find(1), uf.Find(4))
	assert.Equal(t, uf.Find(0), uf.Find(2))
}
