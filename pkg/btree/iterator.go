package btree

import (
	"golang.org/x/exp/constraints"

	"go-btree/pkg/stack"
)

// iteratorStackSize is the initial frame capacity of an iterator
// path, enough for any realistic tree height.
const iteratorStackSize = 32

// frame records a node on the iterator path and the index of the
// next key to visit in it.
type frame[T constraints.Ordered] struct {
	node *node[T]
	idx  int
}

// Iterator performs a lazy, non-recursive in-order traversal over
// the keys of a tree, duplicates included. The path is held as an
// explicit stack of node/index frames, so traversal depth is bounded
// by memory, not by the call stack.
//
// An iterator is a snapshot-scoped view: Insert, Remove, Clear and
// MoveFrom on the source tree relocate or destroy nodes and
// invalidate every outstanding iterator. Using an iterator after a
// mutation is undefined.
type Iterator[T constraints.Ordered] struct {
	path    stack.Stack[*frame[T]]
	current *T
}

// Begin returns an iterator positioned on the smallest key of the
// tree. On an empty tree the iterator is immediately exhausted.
func (tree *BTree[T]) Begin() *Iterator[T] {
	it := &Iterator[T]{path: stack.New[*frame[T]](iteratorStackSize)}
	if tree.root != nil {
		it.pushLeftPath(tree.root)
		it.advance()
	}
	return it
}

// End returns an exhausted iterator, the position past the last key.
func (tree *BTree[T]) End() *Iterator[T] {
	return &Iterator[T]{path: stack.New[*frame[T]](0)}
}

// Find returns an iterator positioned on a key equal to the given
// one, or an exhausted iterator if the key is absent. Advancing it
// continues the in-order traversal from that position, so no element
// is skipped or repeated relative to a traversal from Begin.
func (tree *BTree[T]) Find(key T) *Iterator[T] {
	it := &Iterator[T]{path: stack.New[*frame[T]](iteratorStackSize)}

	n := tree.root
	for n != nil {
		idx, found := n.search(key)
		if found {
			f := &frame[T]{node: n, idx: idx}
			it.path.Push(f)
			it.current = &n.keys[idx]

			f.idx++
			if !n.isLeaf() && f.idx < len(n.children) {
				it.pushLeftPath(n.children[f.idx])
			}
			return it
		}

		if n.isLeaf() {
			return tree.End()
		}

		it.path.Push(&frame[T]{node: n, idx: idx})
		n = n.children[idx]
	}

	return tree.End()
}

// Valid reports whether the iterator is positioned on a key.
func (it *Iterator[T]) Valid() bool { return it.current != nil }

// Key returns the key the iterator is positioned on. Must not be
// called on an invalid iterator.
func (it *Iterator[T]) Key() T { return *it.current }

// Next advances the iterator to the next key in order. Once the
// sequence is exhausted the iterator becomes invalid.
func (it *Iterator[T]) Next() { it.advance() }

// pushLeftPath pushes the leftmost spine of the subtree rooted at n
// onto the path, stopping at a leaf.
func (it *Iterator[T]) pushLeftPath(n *node[T]) {
	for n != nil {
		it.path.Push(&frame[T]{node: n})
		if n.isLeaf() {
			break
		}
		n = n.children[0]
	}
}

func (it *Iterator[T]) advance() {
	for !it.path.Empty() {
		f := it.path.Top()

		if f.idx < len(f.node.keys) {
			it.current = &f.node.keys[f.idx]
			f.idx++

			// descend into the right child of the yielded key
			if !f.node.isLeaf() && f.idx < len(f.node.children) {
				it.pushLeftPath(f.node.children[f.idx])
			}
			return
		}

		it.path.Pop()
	}

	it.current = nil
}
