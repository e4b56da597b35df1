package indexer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ic-timon/annbench/indexer/store"
)

const pageAlign = 4096

func alignUp(x, align int64) int64 {
	if x%align == 0 {
		return x
	}
	return (x/align + 1) * align
}

// NewTreeFromFile loads a tree from file (mmap). cfg may be nil; dimension, metric and
// block shape come from the file, the search parameters from cfg.
// The returned tree is read-only; call ClosePersisted (or Close) when done.
func NewTreeFromFile(path string, cfg *Config) (*Tree, error) {
	cfg = cfg.OrDefault()
	t := newTree(cfg)
	if err := t.LoadFrom(path); err != nil {
		return nil, err
	}
	return t, nil
}

// SaveToAtomic writes the tree to a file atomically (write to path+".tmp", then rename).
// On Windows, the target must not exist for Rename to succeed; remove it first.
func (t *Tree) SaveToAtomic(path string) error {
	tmp := path + ".tmp"
	if err := t.SaveTo(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	_ = os.Remove(path) // ignore error if not exists
	return os.Rename(tmp, path)
}

// SaveTo writes the tree to a file. Concurrent inserts are blocked while saving.
func (t *Tree) SaveTo(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cfg := t.cfg

	var treeBuf bytes.Buffer
	var blockBuf bytes.Buffer
	nextBlockID := 0
	if t.root != nil {
		if err := serializeNode(&treeBuf, t.root, &blockBuf, &nextBlockID); err != nil {
			return fmt.Errorf("indexer: serialize: %w", err)
		}
	}

	blockBytes := store.BlockBytes(cfg.VectorsPerBlock, cfg.Dim)
	treeLen := treeBuf.Len()
	numBlocks := nextBlockID
	blockData := blockBuf.Bytes()
	routingStart := int64(store.HeaderSize) + int64(treeLen)
	dataStart := alignUp(routingStart+int64(numBlocks)*8, pageAlign)

	h := &store.Header{
		Metric:          uint8(cfg.Metric),
		Dim:             uint32(cfg.Dim),
		VectorsPerBlock: uint32(cfg.VectorsPerBlock),
		BlockSizeBytes:  uint32(blockBytes),
		NumBlocks:       uint32(numBlocks),
		TreeLen:         uint32(treeLen),
		Count:           uint64(t.count.Load()),
		RoutingOffset:   uint64(routingStart),
		DataOffset:      uint64(dataStart),
	}
	headerBytes, err := store.EncodeHeader(h)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("indexer: save: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(headerBytes); err != nil {
		return err
	}
	if _, err := f.Write(treeBuf.Bytes()); err != nil {
		return err
	}
	// Routing table
	for i := 0; i < numBlocks; i++ {
		off := dataStart + int64(i)*int64(blockBytes)
		if err := binary.Write(f, binary.LittleEndian, uint64(off)); err != nil {
			return err
		}
	}
	// Pad to dataStart (4KB aligned)
	written := int64(store.HeaderSize) + int64(treeLen) + int64(numBlocks)*8
	if padLen := dataStart - written; padLen > 0 {
		if _, err := f.Write(make([]byte, padLen)); err != nil {
			return err
		}
	}
	n, err := f.Write(blockData)
	if err != nil {
		return err
	}
	if n != len(blockData) {
		return io.ErrShortWrite
	}
	return f.Sync()
}

// LoadFrom loads a tree from a file. The tree becomes read-only (mmap-backed).
// Caller must release the mapping via ClosePersisted when done.
func (t *Tree) LoadFrom(path string) error {
	blockStore, err := store.OpenMmap(path)
	if err != nil {
		return fmt.Errorf("indexer: load %s: %w", path, err)
	}
	root, h, err := loadTree(blockStore, t.cfg)
	if err != nil {
		blockStore.Close()
		return fmt.Errorf("indexer: load %s: %w", path, err)
	}

	cfg := *t.cfg
	cfg.Dim = int(h.Dim)
	cfg.Metric = Metric(h.Metric)
	cfg.VectorsPerBlock = int(h.VectorsPerBlock)
	cfg.PersistPath = path

	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = &cfg
	t.root = root
	t.pool = nil
	t.count.Store(int64(h.Count))
	t.persistedStore = blockStore
	return nil
}

func loadTree(blockStore store.BlockStore, base *Config) (Node, *store.Header, error) {
	data := blockStore.Bytes()
	if len(data) < store.HeaderSize {
		return nil, nil, fmt.Errorf("%w: file too small", ErrCorruptFile)
	}
	h, err := store.DecodeHeader(data[:store.HeaderSize])
	if err != nil {
		return nil, nil, err
	}
	if h.Dim == 0 || h.VectorsPerBlock == 0 || Metric(h.Metric) > InnerProduct {
		return nil, nil, fmt.Errorf("%w: bad header", ErrCorruptFile)
	}
	if int(h.BlockSizeBytes) != store.BlockBytes(int(h.VectorsPerBlock), int(h.Dim)) {
		return nil, nil, fmt.Errorf("%w: block size %d", ErrCorruptFile, h.BlockSizeBytes)
	}

	treeStart := int64(store.HeaderSize)
	treeEnd := treeStart + int64(h.TreeLen)
	routingStart := int64(h.RoutingOffset)
	routingEnd := routingStart + int64(h.NumBlocks)*8
	dataEnd := int64(h.DataOffset) + int64(h.NumBlocks)*int64(h.BlockSizeBytes)
	if int64(len(data)) < treeEnd || int64(len(data)) < routingEnd || int64(len(data)) < dataEnd {
		return nil, nil, fmt.Errorf("%w: truncated", ErrCorruptFile)
	}
	if h.TreeLen == 0 {
		return nil, h, nil
	}

	routingOffsets := make([]int64, h.NumBlocks)
	r := bytes.NewReader(data[routingStart:routingEnd])
	for i := range routingOffsets {
		var off uint64
		if err := binary.Read(r, binary.LittleEndian, &off); err != nil {
			return nil, nil, err
		}
		routingOffsets[i] = int64(off)
	}

	cfg := *base
	cfg.Dim = int(h.Dim)
	cfg.Metric = Metric(h.Metric)
	cfg.VectorsPerBlock = int(h.VectorsPerBlock)
	root, err := parseTreeStructure(data[treeStart:treeEnd], &cfg, blockStore, routingOffsets)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	return root, h, nil
}

// ClosePersisted releases the mmap for a tree loaded via LoadFrom. No-op if not loaded from file.
func (t *Tree) ClosePersisted() error {
	if t.persistedStore != nil {
		err := t.persistedStore.Close()
		t.persistedStore = nil
		return err
	}
	return nil
}
