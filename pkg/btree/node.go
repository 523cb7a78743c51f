package btree

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// node represents an internal or leaf node in the B-tree. A node
// exclusively owns its children; leaf-ness is implied by the absence
// of children.
type node[T constraints.Ordered] struct {
	keys     []T
	children []*node[T]
}

// isLeaf returns true if this node has no children. (i.e., it is
// a leaf node.)
func (n *node[T]) isLeaf() bool { return len(n.children) == 0 }

// search performs a binary search in the node keys for the given key
// and returns the first index whose key is not less than it, and a
// flag indicating whether the key exists at that index.
func (n *node[T]) search(key T) (idx int, found bool) {
	left, right := 0, len(n.keys)-1

	for left <= right {
		idx = (right + left) / 2

		if n.keys[idx] < key {
			left = idx + 1
		} else {
			right = idx - 1
		}
	}

	if left < len(n.keys) && n.keys[left] == key {
		return left, true
	}
	return left, false
}

// searchUpper returns the first index whose key is strictly greater
// than the given key. Descent for insertion uses this rule, so equal
// keys land in the right subtree.
func (n *node[T]) searchUpper(key T) int {
	left, right := 0, len(n.keys)-1

	for left <= right {
		idx := (right + left) / 2

		if n.keys[idx] <= key {
			left = idx + 1
		} else {
			right = idx - 1
		}
	}

	return left
}

// insertKey inserts the key at the given index into the node.
func (n *node[T]) insertKey(idx int, key T) {
	var zero T
	n.keys = append(n.keys, zero)
	copy(n.keys[idx+1:], n.keys[idx:])
	n.keys[idx] = key
}

// insertChild adds the given child at the given index under the node.
func (n *node[T]) insertChild(idx int, child *node[T]) {
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
}

// removeKey removes the key at the given index and returns the value
// that existed.
func (n *node[T]) removeKey(idx int) T {
	key := n.keys[idx]
	n.keys = append(n.keys[:idx], n.keys[idx+1:]...)
	return key
}

func (n *node[T]) removeChild(idx int) *node[T] {
	child := n.children[idx]
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	return child
}

// min walks the leftmost spine and returns the smallest key of the
// subtree rooted at n.
func (n *node[T]) min() T {
	for !n.isLeaf() {
		n = n.children[0]
	}
	return n.keys[0]
}

// max walks the rightmost spine and returns the largest key of the
// subtree rooted at n.
func (n *node[T]) max() T {
	for !n.isLeaf() {
		n = n.children[len(n.children)-1]
	}
	return n.keys[len(n.keys)-1]
}

// clone returns a deep copy of the subtree rooted at n.
func (n *node[T]) clone() *node[T] {
	if n == nil {
		return nil
	}

	cp := &node[T]{keys: make([]T, len(n.keys), cap(n.keys))}
	copy(cp.keys, n.keys)
	if !n.isLeaf() {
		cp.children = make([]*node[T], 0, cap(n.children))
		for _, child := range n.children {
			cp.children = append(cp.children, child.clone())
		}
	}
	return cp
}

func (n *node[T]) String() string {
	s := "{"
	for _, k := range n.keys {
		s += fmt.Sprintf("'%v' ", k)
	}
	s += "} "
	s += fmt.Sprintf("[size=%d, leaf=%t]", len(n.keys), n.isLeaf())

	return s
}
