package indexer

import "sync/atomic"

// Pool allocates heap Blocks for one tree and counts them.
type Pool struct {
	vectorsPerBlock int
	dim             int
	allocated       atomic.Int64
}

// NewPool creates a block allocator.
func NewPool(vectorsPerBlock, dim int) *Pool {
	if vectorsPerBlock <= 0 {
		vectorsPerBlock = 64
	}
	return &Pool{vectorsPerBlock: vectorsPerBlock, dim: dim}
}

// AllocBlock allocates a new Block.
func (p *Pool) AllocBlock() Block {
	p.allocated.Add(1)
	return NewDataBlock(p.vectorsPerBlock, p.dim)
}

// BlockCount returns the number of allocated blocks.
func (p *Pool) BlockCount() int {
	return int(p.allocated.Load())
}
