package main

import (
	r "math/rand"
	"os"
	"time"

	"go-btree/pkg/btree"
	"go-btree/util/logger"
)

var seed = time.Now().UnixMilli()
var rand = r.New(r.NewSource(seed))

// Demo driver: runs a randomized insert/remove workload against the
// tree, verifies consistency and dumps the surviving keys in order.
func main() {
	log := logger.L
	log.Infof("seed => %v", seed)

	tree, err := btree.New[int](&btree.Options{Degree: 8})
	if err != nil {
		log.Fatal(err)
	}

	n := 1 << 12
	for i := 0; i < n; i++ {
		tree.Insert(rand.Intn(n))
	}
	log.Infof("inserted %d keys => %s", n, tree)

	min, _ := tree.Min()
	max, _ := tree.Max()
	log.Infof("min => %v, max => %v", min, max)

	removed := 0
	for i := 0; i < n; i++ {
		if tree.Remove(rand.Intn(n)) {
			removed++
		}
	}
	log.Infof("removed %d keys => %s", removed, tree)

	if err := tree.CheckConsistency(); err != nil {
		log.Fatalf("consistency check failed: %v", err)
	}
	log.Info("consistency check passed")

	if err := tree.SerializeInOrder(os.Stdout); err != nil {
		log.Fatalf("failed to serialize tree: %v", err)
	}
}
