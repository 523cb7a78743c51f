package btree

import "errors"

// ErrEmptyTree is returned by Min and Max when the tree has no
// elements. It is a recoverable condition the caller is expected
// to check.
var ErrEmptyTree = errors.New("empty tree")

// ErrInvalidDegree is returned by New when the requested order is
// below the minimum supported by the rebalancing scheme.
var ErrInvalidDegree = errors.New("degree must be at least 3")
