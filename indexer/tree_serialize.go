package indexer

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	nodeTagInternal = 0
	nodeTagLeaf     = 1
)

// serializeNode writes the node to w in pre-order and appends leaf blocks to blockData.
// Caller holds the tree write lock.
func serializeNode(w io.Writer, n Node, blockData *bytes.Buffer, nextBlockID *int) error {
	if n.IsLeaf() {
		leaf := n.(*LeafNode)
		firstBlockID := *nextBlockID
		floatsPerBlock := leaf.cfg.VectorsPerBlock * leaf.cfg.Dim
		for _, b := range leaf.blocks {
			d := b.Data()
			if len(d) < floatsPerBlock {
				pad := make([]float32, floatsPerBlock)
				copy(pad, d)
				d = pad
			}
			if err := binary.Write(blockData, binary.LittleEndian, d[:floatsPerBlock]); err != nil {
				return err
			}
			*nextBlockID++
		}
		// tag, centroid, vector_count, block_count, first_block_id, ids
		fields := []any{
			uint8(nodeTagLeaf),
			leaf.centroid,
			uint32(leaf.vectorCount),
			uint32(len(leaf.blocks)),
			uint32(firstBlockID),
			leaf.ids,
		}
		for _, f := range fields {
			if err := binary.Write(w, binary.LittleEndian, f); err != nil {
				return err
			}
		}
		return nil
	}
	internal := n.(*InternalNode)
	if err := binary.Write(w, binary.LittleEndian, uint8(nodeTagInternal)); err != nil {
		return err
	}
	nc := internal.NumChildren()
	if err := binary.Write(w, binary.LittleEndian, uint16(nc)); err != nil {
		return err
	}
	for i := 0; i < nc; i++ {
		if err := binary.Write(w, binary.LittleEndian, internal.centroids[i]); err != nil {
			return err
		}
	}
	for i := 0; i < nc; i++ {
		if err := serializeNode(w, internal.Child(i), blockData, nextBlockID); err != nil {
			return err
		}
	}
	return nil
}
