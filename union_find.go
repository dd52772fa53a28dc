package cm3

import "slices"

type element struct {
	id, sz int
}

// UnionFind groups the indices [0, n) into disjoint sets by weighted union and
// path compression.
type UnionFind struct {
	elements []element
}

// IslandEntry is one body of an IslandIndex.
type IslandEntry struct {
	GroupID   int
	BodyIndex int
}

// IslandIndex lists body indices grouped by island. Entries of one island are
// contiguous, islands appear in ascending GroupID order and bodies keep their
// index order within an island.
type IslandIndex []IslandEntry

// Reset makes every index of [0, n) its own set.
func (uf *UnionFind) Reset(n int) {
	if cap(uf.elements) < n {
		uf.elements = make([]element, n)
	}
	uf.elements = uf.elements[:n]
	for i := range uf.elements {
		uf.elements[i] = element{id: i, sz: 1}
	}
}

func (uf *UnionFind) NumElements() int {
	return len(uf.elements)
}

// Find returns the root of the set of x.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.elements[root].id != root {
		root = uf.elements[root].id
	}
	for x != root {
		next := uf.elements[x].id
		uf.elements[x].id = root
		x = next
	}
	return root
}

// IsRoot reports whether x represents its set.
func (uf *UnionFind) IsRoot(x int) bool {
	return uf.elements[x].id == x
}

// Unite merges the sets of p and q. The smaller set is attached below the
// larger one.
func (uf *UnionFind) Unite(p, q int) {
	i, j := uf.Find(p), uf.Find(q)
	if i == j {
		return
	}
	if uf.elements[i].sz < uf.elements[j].sz {
		i, j = j, i
	}
	uf.elements[j].id = i
	uf.elements[i].sz += uf.elements[j].sz
}

// FindGroupID returns the set id of x, the same value as Find.
func (uf *UnionFind) FindGroupID(x int) int {
	return uf.Find(x)
}

// SortIslands returns the indices grouped by their set. The union-find is left
// untouched and can still be queried afterwards.
func (uf *UnionFind) SortIslands() IslandIndex {
	index := make(IslandIndex, len(uf.elements))
	for i := range uf.elements {
		index[i] = IslandEntry{GroupID: uf.Find(i), BodyIndex: i}
	}
	slices.SortStableFunc(index, func(a, b IslandEntry) int {
		return a.GroupID - b.GroupID
	})
	return index
}
