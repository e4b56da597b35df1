package indexer

// Block is a fixed-capacity run of vectors, either on the heap or in a mapped file.
type Block interface {
	VectorsPerBlock() int
	Data() []float32
	SetVector(slot int, vec []float32)
}

// DataBlock stores vectorsPerBlock vectors of dim floats in heap memory.
// Layout: [v0_0..v0_dim-1, v1_0..v1_dim-1, ...]
type DataBlock struct {
	data            []float32
	dim             int
	vectorsPerBlock int
}

// NewDataBlock creates a new zeroed block.
func NewDataBlock(vectorsPerBlock, dim int) *DataBlock {
	if vectorsPerBlock <= 0 {
		vectorsPerBlock = 64
	}
	return &DataBlock{
		data:            make([]float32, vectorsPerBlock*dim),
		dim:             dim,
		vectorsPerBlock: vectorsPerBlock,
	}
}

// VectorsPerBlock returns the number of vector slots in the block.
func (b *DataBlock) VectorsPerBlock() int {
	return b.vectorsPerBlock
}

// Data returns the underlying slice for the batch distance kernels.
func (b *DataBlock) Data() []float32 {
	return b.data
}

// SetVector writes the vector at slot (0-based).
func (b *DataBlock) SetVector(slot int, vec []float32) {
	if slot < 0 || slot >= b.vectorsPerBlock || len(vec) != b.dim {
		return
	}
	start := slot * b.dim
	copy(b.data[start:start+b.dim], vec)
}
