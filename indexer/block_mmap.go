package indexer

import "github.com/ic-timon/annbench/indexer/store"

// DataBlockMmap is a Block backed by a mapped file region (read-only).
type DataBlockMmap struct {
	store           store.BlockStore
	offset          int64
	floats          int
	vectorsPerBlock int
}

// NewDataBlockMmap creates a block view from the store at the given offset.
func NewDataBlockMmap(s store.BlockStore, offset int64, vectorsPerBlock, dim int) *DataBlockMmap {
	return &DataBlockMmap{
		store:           s,
		offset:          offset,
		floats:          vectorsPerBlock * dim,
		vectorsPerBlock: vectorsPerBlock,
	}
}

// VectorsPerBlock returns the number of vector slots in the block.
func (b *DataBlockMmap) VectorsPerBlock() int {
	return b.vectorsPerBlock
}

// Data returns the mapped floats. Nil once the store is closed.
func (b *DataBlockMmap) Data() []float32 {
	return b.store.BlockView(b.offset, b.floats)
}

// SetVector is a no-op for mmap blocks (read-only).
func (b *DataBlockMmap) SetVector(slot int, vec []float32) {}
