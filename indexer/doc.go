// Package indexer provides the ANN indexes driven by the benchmark harness:
// the density-adaptive hierarchical vector routing tree (Tree), its sharded variant
// (ShardedIndex) and an exact linear-scan index (Flat) used for ground truth and tests.
//
// Quick start:
//
//	cfg := indexer.DefaultConfig(960)
//	cfg.Metric = indexer.L2
//	tree, err := indexer.NewTree(cfg)
//	err = tree.Insert(vec, id)           // safe from many goroutines for distinct ids
//	results, err := tree.Search(query, k) // ordered by increasing distance
//	err = tree.SaveToAtomic(path)
//	loaded, err := indexer.NewTreeFromFile(path, nil) // mmap, read-only
package indexer
