// Package store provides the persist file format and mmap-backed block store
// for the indexer. It is used internally by indexer.SaveTo, indexer.LoadFrom,
// and indexer.NewTreeFromFile.
//
// The file format consists of:
//   - Header (64 bytes): magic, version, dimension, metric, counts and offsets
//   - Tree structure: serialized node graph
//   - Routing table: one uint64 file offset per block
//   - Block data (4KB aligned): contiguous float32 vectors (vectorsPerBlock × dim × 4 bytes per block)
package store
