// Package btree implements an in-memory, ordered, multiway balanced
// tree (a B-tree) with logarithmic search, insertion and deletion,
// plus lazy in-order iteration. Keys are kept sorted inside
// capacity-bounded nodes; all leaves sit at equal depth. The tree is
// a multiset: duplicate keys are permitted and each occurrence is a
// distinct element.
//
// The tree is not safe for concurrent use. Callers needing shared
// access must serialize externally. Any mutation (Insert, Remove,
// Clear, MoveFrom) invalidates every outstanding iterator of the
// tree.
package btree

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// BTree represents an in-memory B-tree of the given key type. Degree
// of the tree is fixed at construction. The zero value is not usable;
// use New. A BTree must not be copied by value (the copy would share
// node ownership with the original); use Clone for an independent
// copy and MoveFrom for ownership transfer.
type BTree[T constraints.Ordered] struct {
	root *node[T]
	size int

	degree  int
	maxKeys int
	minKeys int
}

// New returns an empty B-tree with the given options. If nil options
// are provided, defaultOptions will be used. Returns ErrInvalidDegree
// if the configured degree is below 3.
func New[T constraints.Ordered](opts *Options) (*BTree[T], error) {
	if opts == nil {
		opts = &defaultOptions
	}

	if opts.Degree < 3 {
		return nil, ErrInvalidDegree
	}

	return &BTree[T]{
		degree:  opts.Degree,
		maxKeys: opts.Degree - 1,
		minKeys: (opts.Degree - 1) / 2,
	}, nil
}

// Insert puts the key into the tree. Duplicates are kept, each
// insert adds a distinct element.
func (tree *BTree[T]) Insert(key T) {
	if tree.root == nil {
		tree.root = tree.newNode(true)
		tree.root.keys = append(tree.root.keys, key)
		tree.size++
		return
	}

	tree.insertInto(tree.root, key)

	// the root is the one node with no parent to absorb its overflow,
	// wrap it in a fresh root and split
	if len(tree.root.keys) > tree.maxKeys {
		newRoot := tree.newNode(false)
		newRoot.children = append(newRoot.children, tree.root)
		tree.split(newRoot, 0)
		tree.root = newRoot
	}

	tree.size++
}

// Remove deletes one occurrence of the key from the tree and reports
// whether the key was present. With duplicate keys a single call
// removes exactly one occurrence.
func (tree *BTree[T]) Remove(key T) bool {
	if tree.root == nil {
		return false
	}

	removed := tree.removeFromNode(tree.root, key)
	if removed {
		tree.size--
	}

	// root collapse: promote the sole child, or empty the tree. A
	// merge of the root's last two children drains it even when the
	// key turned out to be absent.
	if len(tree.root.keys) == 0 {
		if tree.root.isLeaf() {
			tree.root = nil
		} else {
			tree.root = tree.root.children[0]
		}
	}

	return removed
}

// Search reports whether the key exists in the tree.
func (tree *BTree[T]) Search(key T) bool {
	n := tree.root
	for n != nil {
		idx, found := n.search(key)
		if found {
			return true
		}
		if n.isLeaf() {
			return false
		}
		n = n.children[idx]
	}
	return false
}

// Contains is an alias for Search.
func (tree *BTree[T]) Contains(key T) bool {
	return tree.Search(key)
}

// Min returns the smallest key in the tree.
// Returns ErrEmptyTree if the tree is empty.
func (tree *BTree[T]) Min() (T, error) {
	if tree.root == nil {
		var zero T
		return zero, ErrEmptyTree
	}
	return tree.root.min(), nil
}

// Max returns the largest key in the tree.
// Returns ErrEmptyTree if the tree is empty.
func (tree *BTree[T]) Max() (T, error) {
	if tree.root == nil {
		var zero T
		return zero, ErrEmptyTree
	}
	return tree.root.max(), nil
}

// Size returns the number of elements in the entire tree.
func (tree *BTree[T]) Size() int { return tree.size }

// Empty reports whether the tree has no elements.
func (tree *BTree[T]) Empty() bool { return tree.root == nil }

// Height returns the number of levels in the tree, 0 for an empty
// tree. All leaves are at the same depth, so following the leftmost
// spine suffices.
func (tree *BTree[T]) Height() int {
	h := 0
	for n := tree.root; n != nil; n = n.children[0] {
		h++
		if n.isLeaf() {
			break
		}
	}
	return h
}

// Clear discards the entire node tree and resets the element count.
func (tree *BTree[T]) Clear() {
	tree.root = nil
	tree.size = 0
}

// ForEach applies fn to every key in ascending order.
func (tree *BTree[T]) ForEach(fn func(key T)) {
	if tree.root != nil {
		tree.forEach(tree.root, fn)
	}
}

// ToSlice returns all keys as a sorted slice.
func (tree *BTree[T]) ToSlice() []T {
	result := make([]T, 0, tree.size)
	tree.ForEach(func(key T) {
		result = append(result, key)
	})
	return result
}

// SerializeInOrder writes all keys in ascending order to the given
// sink, space-separated with a trailing newline. Intended for
// diagnostic display, not a persisted format.
func (tree *BTree[T]) SerializeInOrder(w io.Writer) error {
	if tree.root == nil {
		return nil
	}

	if err := tree.writeNode(w, tree.root); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w)
	return errors.Wrap(err, "failed to write trailing newline")
}

// Clone returns an independent deep copy of the tree.
func (tree *BTree[T]) Clone() *BTree[T] {
	return &BTree[T]{
		root:    tree.root.clone(),
		size:    tree.size,
		degree:  tree.degree,
		maxKeys: tree.maxKeys,
		minKeys: tree.minKeys,
	}
}

// MoveFrom transfers ownership of other's contents into tree and
// leaves other empty. The tree's previous contents are discarded.
// Moving a tree into itself is a no-op.
func (tree *BTree[T]) MoveFrom(other *BTree[T]) {
	if tree == other {
		return
	}

	tree.root = other.root
	tree.size = other.size
	tree.degree = other.degree
	tree.maxKeys = other.maxKeys
	tree.minKeys = other.minKeys

	other.root = nil
	other.size = 0
}

func (tree *BTree[T]) String() string {
	return fmt.Sprintf(
		"BTree{size=%d, degree=%d, height=%d}",
		tree.Size(), tree.degree, tree.Height(),
	)
}

// Print dumps the tree structure to stdout, one key per line,
// indented by depth with rightmost subtrees on top.
func (tree *BTree[T]) Print() {
	fmt.Println("============= btree =============")
	tree.print(tree.root, 0)
	fmt.Println("=================================")
}

// CheckConsistency walks the whole tree and verifies its structural
// invariants: sorted keys inside every node, one more child than keys
// on internals, capacity bounds on every non-root node, equal depth
// for all leaves, a globally non-decreasing in-order sequence and an
// element count matching Size.
func (tree *BTree[T]) CheckConsistency() error {
	if tree.root == nil {
		if tree.size != 0 {
			return errors.Errorf("empty tree has size %d", tree.size)
		}
		return nil
	}

	count := 0
	leafDepth := -1
	var prev *T

	var traverse func(n *node[T], depth int) error
	traverse = func(n *node[T], depth int) error {
		if n != tree.root {
			if len(n.keys) < tree.minKeys || len(n.keys) > tree.maxKeys {
				return errors.Errorf(
					"node %s violates key bounds [%d, %d]",
					n, tree.minKeys, tree.maxKeys,
				)
			}
		} else if len(n.keys) == 0 || len(n.keys) > tree.maxKeys {
			return errors.Errorf("root %s violates key bounds [1, %d]", n, tree.maxKeys)
		}

		if n.isLeaf() {
			if leafDepth == -1 {
				leafDepth = depth
			} else if depth != leafDepth {
				return errors.Errorf("leaf %s at depth %d, expected %d", n, depth, leafDepth)
			}
		} else if len(n.children) != len(n.keys)+1 {
			return errors.Errorf(
				"node %s has %d children for %d keys",
				n, len(n.children), len(n.keys),
			)
		}

		for i := 0; i < len(n.keys); i++ {
			if !n.isLeaf() {
				if err := traverse(n.children[i], depth+1); err != nil {
					return err
				}
			}

			if prev != nil && n.keys[i] < *prev {
				return errors.Errorf(
					"in-order sequence decreases at %v after %v",
					n.keys[i], *prev,
				)
			}
			key := n.keys[i]
			prev = &key
			count++
		}

		if !n.isLeaf() {
			return traverse(n.children[len(n.keys)], depth+1)
		}
		return nil
	}

	if err := traverse(tree.root, 0); err != nil {
		return err
	}

	if count != tree.size {
		return errors.Errorf("in-order walk visited %d keys, size is %d", count, tree.size)
	}
	return nil
}

// insertInto inserts the key into the subtree rooted at n. The key
// lands in a leaf first, which may overflow to maxKeys+1 keys; the
// overflow is split away on the unwind, one level at a time. n itself
// can end one key over capacity, which n's parent resolves.
func (tree *BTree[T]) insertInto(n *node[T], key T) {
	if n.isLeaf() {
		idx, _ := n.search(key)
		n.insertKey(idx, key)
		return
	}

	idx := n.searchUpper(key)
	tree.insertInto(n.children[idx], key)

	if len(n.children[idx].keys) > tree.maxKeys {
		tree.split(n, idx)
	}
}

// split divides the child of n at the given index into two nodes,
// promoting its middle key into n. The child holds exactly maxKeys+1
// keys on entry, so both halves come out with at least minKeys keys
// at any degree.
func (tree *BTree[T]) split(n *node[T], idx int) {
	child := n.children[idx]
	sibling := tree.newNode(child.isLeaf())

	mid := len(child.keys) / 2
	midKey := child.keys[mid]

	sibling.keys = append(sibling.keys, child.keys[mid+1:]...)
	child.keys = child.keys[:mid]

	if !child.isLeaf() {
		sibling.children = append(sibling.children, child.children[mid+1:]...)
		child.children = child.children[:mid+1]
	}

	n.insertKey(idx, midKey)
	n.insertChild(idx+1, sibling)
}

// removeFromNode deletes one occurrence of the key from the subtree
// rooted at n and reports whether it was found. A minimal child on
// the descent path is rebalanced before descending. A merge can leave
// that child one key over capacity at small orders; the removal lands
// in the merged child first and the overflow, if it survives the
// removal, is split away afterwards.
func (tree *BTree[T]) removeFromNode(n *node[T], key T) bool {
	idx, found := n.search(key)

	if n.isLeaf() {
		if found {
			n.removeKey(idx)
		}
		return found
	}

	if !found {
		if len(n.children[idx].keys) <= tree.minKeys {
			// a borrow shifts separators, a merge drops one and moves
			// the descent point, restart against the new layout
			tree.fill(n, idx)
			return tree.removeFromNode(n, key)
		}
		return tree.removeFromChild(n, idx, key)
	}

	if len(n.children[idx].keys) > tree.minKeys {
		// left child has slack, substitute the predecessor
		pred := n.children[idx].max()
		n.keys[idx] = pred
		return tree.removeFromNode(n.children[idx], pred)
	}

	if len(n.children[idx+1].keys) > tree.minKeys {
		// right child has slack, substitute the successor
		succ := n.children[idx+1].min()
		n.keys[idx] = succ
		return tree.removeFromNode(n.children[idx+1], succ)
	}

	// both children minimal, merge them around the key; the key now
	// lives in the merged child
	tree.merge(n, idx)
	return tree.removeFromChild(n, idx, key)
}

// removeFromChild removes the key from the subtree under n's child at
// idx. A child left over capacity by a merge is split back into two
// siblings once the removal has landed.
func (tree *BTree[T]) removeFromChild(n *node[T], idx int, key T) bool {
	removed := tree.removeFromNode(n.children[idx], key)

	if len(n.children[idx].keys) > tree.maxKeys {
		tree.split(n, idx)
	}
	return removed
}

// fill gives the minimal child of n at the given index at least one
// key of slack before descent: borrow from a sibling with spare keys,
// or merge with one.
func (tree *BTree[T]) fill(n *node[T], idx int) {
	if idx > 0 && len(n.children[idx-1].keys) > tree.minKeys {
		tree.borrowFromLeft(n, idx)
	} else if idx < len(n.children)-1 && len(n.children[idx+1].keys) > tree.minKeys {
		tree.borrowFromRight(n, idx)
	} else if idx < len(n.children)-1 {
		tree.merge(n, idx)
	} else {
		tree.merge(n, idx-1)
	}
}

// borrowFromLeft rotates the largest key of the left sibling through
// the parent separator into the child at idx.
func (tree *BTree[T]) borrowFromLeft(n *node[T], idx int) {
	child := n.children[idx]
	sibling := n.children[idx-1]

	child.insertKey(0, n.keys[idx-1])
	n.keys[idx-1] = sibling.removeKey(len(sibling.keys) - 1)

	if !child.isLeaf() {
		child.insertChild(0, sibling.removeChild(len(sibling.children)-1))
	}
}

// borrowFromRight rotates the smallest key of the right sibling
// through the parent separator into the child at idx.
func (tree *BTree[T]) borrowFromRight(n *node[T], idx int) {
	child := n.children[idx]
	sibling := n.children[idx+1]

	child.keys = append(child.keys, n.keys[idx])
	n.keys[idx] = sibling.removeKey(0)

	if !child.isLeaf() {
		child.children = append(child.children, sibling.removeChild(0))
	}
}

// merge absorbs the separator key of n at idx and the right sibling
// into the left child. When maxKeys is even the merged node ends up
// one key over capacity (2*minKeys+1 = maxKeys+1); the caller removes
// through it in that transient state and splits it afterwards if the
// overflow survived.
func (tree *BTree[T]) merge(n *node[T], idx int) {
	left := n.children[idx]
	right := n.children[idx+1]

	left.keys = append(left.keys, n.keys[idx])
	left.keys = append(left.keys, right.keys...)
	if !left.isLeaf() {
		left.children = append(left.children, right.children...)
	}

	n.removeKey(idx)
	n.removeChild(idx + 1)
	right.children = nil // subtrees now owned by left
}

func (tree *BTree[T]) forEach(n *node[T], fn func(key T)) {
	var i int
	for i = 0; i < len(n.keys); i++ {
		if !n.isLeaf() {
			tree.forEach(n.children[i], fn)
		}
		fn(n.keys[i])
	}

	if !n.isLeaf() {
		tree.forEach(n.children[i], fn)
	}
}

func (tree *BTree[T]) writeNode(w io.Writer, n *node[T]) error {
	var i int
	for i = 0; i < len(n.keys); i++ {
		if !n.isLeaf() {
			if err := tree.writeNode(w, n.children[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%v ", n.keys[i]); err != nil {
			return errors.Wrap(err, "failed to write key")
		}
	}

	if !n.isLeaf() {
		return tree.writeNode(w, n.children[i])
	}
	return nil
}

func (tree *BTree[T]) print(n *node[T], indent int) {
	if n == nil {
		return
	}

	for i := len(n.keys) - 1; i >= 0; i-- {
		if !n.isLeaf() {
			tree.print(n.children[i+1], indent+4)
		}
		fmt.Printf("%*s%v\n", indent, "", n.keys[i])
	}

	if !n.isLeaf() {
		tree.print(n.children[0], indent+4)
	}
}

func (tree *BTree[T]) newNode(leaf bool) *node[T] {
	n := &node[T]{
		keys: make([]T, 0, tree.maxKeys),
	}
	if !leaf {
		n.children = make([]*node[T], 0, tree.degree)
	}
	return n
}
