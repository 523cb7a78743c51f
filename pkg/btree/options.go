package btree

// Options represents the configuration options for the B-tree.
type Options struct {
	// Degree is the order of the tree, the maximum number of children
	// an internal node may have. Must be at least 3. Order 3 is the
	// minimal case: merging two minimal siblings overflows node
	// capacity until the pending removal lands and the node is split
	// back apart.
	Degree int `json:"degree"`
}

var defaultOptions = Options{
	Degree: 8,
}
