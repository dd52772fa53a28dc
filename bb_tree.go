package cm3

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BBTree is a dynamic bounding volume hierarchy. Leaves carry a value of type T
// and a (possibly fattened) bounding box; inner nodes hold the merged box of
// their children. The broad phase stores proxies in it and triangle meshes
// store triangle indices.
type BBTree[T any] struct {
	// root is the root node of the bounding box tree.
	root *Node[T]
	// pooledNodes is a reusable pool of nodes to optimize memory usage and allocation.
	pooledNodes *Node[T]
	// margin fattens leaf boxes so that small moves do not restructure the tree.
	margin float64
	count  int
}

// Node is an inner node or a leaf of a BBTree. Leaves are returned by Insert and
// act as handles for Update and Remove.
type Node[T any] struct {
	obj    T
	bb     BB
	parent *Node[T]
	a, b   *Node[T]
	leaf   bool
}

// NewBBTree returns an empty tree. Leaf boxes are grown by margin on insertion.
func NewBBTree[T any](margin float64) *BBTree[T] {
	return &BBTree[T]{margin: margin}
}

// Value returns the object stored in a leaf.
func (node *Node[T]) Value() T {
	return node.obj
}

// BB returns the box stored in the node.
func (node *Node[T]) BB() BB {
	return node.bb
}

func (node *Node[T]) IsLeaf() bool {
	return node.leaf
}

func (node *Node[T]) other(child *Node[T]) *Node[T] {
	if node.a == child {
		return node.b
	}
	return node.a
}

func nodeSetA[T any](node, value *Node[T]) {
	node.a = value
	value.parent = node
}

func nodeSetB[T any](node, value *Node[T]) {
	node.b = value
	value.parent = node
}

func (tree *BBTree[T]) Count() int {
	return tree.count
}

// Insert adds obj with bounds bb and returns its leaf.
func (tree *BBTree[T]) Insert(obj T, bb BB) *Node[T] {
	leaf := tree.nodeFromPool()
	leaf.obj = obj
	leaf.bb = bb.Grow(tree.margin)
	leaf.parent = nil
	leaf.a, leaf.b = nil, nil
	leaf.leaf = true

	tree.root = tree.subtreeInsert(tree.root, leaf)
	tree.count++
	return leaf
}

// Remove deletes a leaf returned by Insert.
func (tree *BBTree[T]) Remove(leaf *Node[T]) {
	tree.root = tree.subtreeRemove(tree.root, leaf)
	tree.count--
	var zero T
	leaf.obj = zero
	tree.recycleNode(leaf)
}

// Update moves a leaf to the new bounds. The tree is only restructured when bb
// leaves the fattened box of the leaf. Returns true if the leaf was reinserted.
func (tree *BBTree[T]) Update(leaf *Node[T], bb BB) bool {
	if leaf.bb.Contains(bb) {
		return false
	}
	tree.root = tree.subtreeRemove(tree.root, leaf)
	leaf.bb = bb.Grow(tree.margin)
	leaf.parent = nil
	tree.root = tree.subtreeInsert(tree.root, leaf)
	return true
}

// Each iterates over all leaves of the tree.
func (tree *BBTree[T]) Each(f func(obj T)) {
	if tree.root != nil {
		tree.root.each(f)
	}
}

// Query calls f for every leaf whose box intersects bb.
func (tree *BBTree[T]) Query(bb BB, f func(obj T)) {
	if tree.root != nil {
		tree.root.subtreeQuery(bb, f)
	}
}

// SegmentQuery visits the leaves whose boxes are hit by the segment a→b before
// tExit, nearest child first. f returns the fraction at which its object was hit
// (or a value ≥ tExit for a miss); the smallest fraction prunes the rest of the
// traversal and is returned.
func (tree *BBTree[T]) SegmentQuery(a, b mgl64.Vec3, tExit float64, f func(obj T) float64) float64 {
	root := tree.root
	if root == nil || root.bb.SegmentQuery(a, b) >= tExit {
		return tExit
	}
	return root.subtreeSegmentQuery(a, b, tExit, f)
}

func (tree *BBTree[T]) subtreeInsert(subtree, leaf *Node[T]) *Node[T] {
	if subtree == nil {
		return leaf
	}
	if subtree.IsLeaf() {
		return tree.newNode(leaf, subtree)
	}

	costA := subtree.b.bb.Area() + subtree.a.bb.MergedArea(leaf.bb)
	costB := subtree.a.bb.Area() + subtree.b.bb.MergedArea(leaf.bb)

	if costA == costB {
		costA = subtree.a.bb.Proximity(leaf.bb)
		costB = subtree.b.bb.Proximity(leaf.bb)
	}

	if costB < costA {
		nodeSetB(subtree, tree.subtreeInsert(subtree.b, leaf))
	} else {
		nodeSetA(subtree, tree.subtreeInsert(subtree.a, leaf))
	}

	subtree.bb = subtree.bb.Merge(leaf.bb)
	return subtree
}

func (tree *BBTree[T]) subtreeRemove(subtree, leaf *Node[T]) *Node[T] {
	if leaf == subtree {
		return nil
	}

	parent := leaf.parent
	if parent == subtree {
		other := subtree.other(leaf)
		other.parent = subtree.parent
		tree.recycleNode(subtree)
		return other
	}

	tree.replaceChild(parent.parent, parent, parent.other(leaf))
	return subtree
}

func (tree *BBTree[T]) replaceChild(parent, child, value *Node[T]) {
	if parent.a == child {
		tree.recycleNode(parent.a)
		nodeSetA(parent, value)
	} else {
		tree.recycleNode(parent.b)
		nodeSetB(parent, value)
	}

	for node := parent; node != nil; node = node.parent {
		node.bb = node.a.bb.Merge(node.b.bb)
	}
}

func (tree *BBTree[T]) newNode(a, b *Node[T]) *Node[T] {
	node := tree.nodeFromPool()
	var zero T
	node.obj = zero
	node.leaf = false
	node.bb = a.bb.Merge(b.bb)
	node.parent = nil

	nodeSetA(node, a)
	nodeSetB(node, b)
	return node
}

func (tree *BBTree[T]) nodeFromPool() *Node[T] {
	node := tree.pooledNodes

	if node != nil {
		tree.pooledNodes = node.parent
		return node
	}

	// Pool is exhausted make more
	for i := 0; i < pooledBufferSize; i++ {
		tree.recycleNode(&Node[T]{})
	}

	return &Node[T]{}
}

func (tree *BBTree[T]) recycleNode(node *Node[T]) {
	node.a, node.b = nil, nil
	node.parent = tree.pooledNodes
	tree.pooledNodes = node
}

func (subtree *Node[T]) each(f func(obj T)) {
	if subtree.IsLeaf() {
		f(subtree.obj)
		return
	}
	subtree.a.each(f)
	subtree.b.each(f)
}

func (subtree *Node[T]) subtreeQuery(bb BB, f func(obj T)) {
	if subtree.bb.Intersects(bb) {
		if subtree.IsLeaf() {
			f(subtree.obj)
		} else {
			subtree.a.subtreeQuery(bb, f)
			subtree.b.subtreeQuery(bb, f)
		}
	}
}

func (subtree *Node[T]) subtreeSegmentQuery(a, b mgl64.Vec3, tExit float64, f func(obj T) float64) float64 {
	if subtree.IsLeaf() {
		return math.Min(tExit, f(subtree.obj))
	}

	tA := subtree.a.bb.SegmentQuery(a, b)
	tB := subtree.b.bb.SegmentQuery(a, b)

	if tA < tB {
		if tA < tExit {
			tExit = math.Min(tExit, subtree.a.subtreeSegmentQuery(a, b, tExit, f))
		}
		if tB < tExit {
			tExit = math.Min(tExit, subtree.b.subtreeSegmentQuery(a, b, tExit, f))
		}
	} else {
		if tB < tExit {
			tExit = math.Min(tExit, subtree.b.subtreeSegmentQuery(a, b, tExit, f))
		}
		if tA < tExit {
			tExit = math.Min(tExit, subtree.a.subtreeSegmentQuery(a, b, tExit, f))
		}
	}

	return tExit
}
