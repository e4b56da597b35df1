package indexer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ic-timon/annbench/indexer/store"
)

// deserializeNode reads a node from r and reconstructs it using blockStore and routingOffsets.
func deserializeNode(r io.Reader, cfg *Config, blockStore store.BlockStore, routingOffsets []int64) (Node, error) {
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return nil, err
	}
	switch tag {
	case nodeTagLeaf:
		centroid := make([]float32, cfg.Dim)
		if err := binary.Read(r, binary.LittleEndian, centroid); err != nil {
			return nil, err
		}
		var vectorCount, blockCount, firstBlockID uint32
		for _, p := range []*uint32{&vectorCount, &blockCount, &firstBlockID} {
			if err := binary.Read(r, binary.LittleEndian, p); err != nil {
				return nil, err
			}
		}
		vpb := cfg.VectorsPerBlock
		if int(vectorCount) > int(blockCount)*vpb {
			return nil, fmt.Errorf("leaf holds %d vectors in %d blocks", vectorCount, blockCount)
		}
		if int(firstBlockID)+int(blockCount) > len(routingOffsets) {
			return nil, fmt.Errorf("leaf block range %d+%d out of %d", firstBlockID, blockCount, len(routingOffsets))
		}
		ids := make([]uint64, vectorCount)
		if err := binary.Read(r, binary.LittleEndian, ids); err != nil {
			return nil, err
		}
		leaf := &LeafNode{
			cfg:         cfg,
			blocks:      make([]Block, 0, blockCount),
			ids:         ids,
			centroid:    centroid,
			vectorCount: int(vectorCount),
		}
		for i := uint32(0); i < blockCount; i++ {
			offset := routingOffsets[int(firstBlockID)+int(i)]
			leaf.blocks = append(leaf.blocks, NewDataBlockMmap(blockStore, offset, vpb, cfg.Dim))
		}
		return leaf, nil
	case nodeTagInternal:
		var nc uint16
		if err := binary.Read(r, binary.LittleEndian, &nc); err != nil {
			return nil, err
		}
		internal := NewInternalNode()
		centroids := make([][]float32, nc)
		for i := range centroids {
			centroids[i] = make([]float32, cfg.Dim)
			if err := binary.Read(r, binary.LittleEndian, centroids[i]); err != nil {
				return nil, err
			}
		}
		for i := range centroids {
			child, err := deserializeNode(r, cfg, blockStore, routingOffsets)
			if err != nil {
				return nil, err
			}
			internal.addChild(child, centroids[i])
		}
		return internal, nil
	default:
		return nil, fmt.Errorf("unknown node tag %d", tag)
	}
}

// parseTreeStructure reads the tree structure from data and returns the root node.
func parseTreeStructure(data []byte, cfg *Config, blockStore store.BlockStore, routingOffsets []int64) (Node, error) {
	r := bytes.NewReader(data)
	return deserializeNode(r, cfg, blockStore, routingOffsets)
}
