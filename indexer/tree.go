package indexer

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ic-timon/annbench/indexer/store"
)

// maxSplitRetries bounds the split-and-retry loop of Insert.
const maxSplitRetries = 8

// Tree is a dynamic density-adaptive routing tree: leaves hold up to SplitThreshold
// vectors and split in two by k-means when full.
//
// Insert is safe for concurrent use: the node graph is guarded by an RWMutex taken in
// read mode for routing, and each leaf serializes its own appends. Only splits take the
// write lock.
type Tree struct {
	cfg         *Config
	pool        *Pool
	mu          sync.RWMutex
	root        Node
	count       atomic.Int64
	searchWidth atomic.Int32
	rng         *rand.Rand // k-means initialisation, used under mu write lock

	searchPool     *searchPool      // nil unless SearchPoolWorkers > 0
	persistedStore store.BlockStore // set by LoadFrom, used by ClosePersisted
}

// TreeStats describes the shape of a tree.
type TreeStats struct {
	Leaves   int
	Internal int
	Depth    int
	Blocks   int
}

// NewTree creates a tree. Uses DefaultConfig(0) if cfg is nil, which fails validation.
// If cfg.PersistPath is non-empty and the file exists, loads from file (mmap, read-only).
// Otherwise creates an empty heap tree for Insert.
func NewTree(cfg *Config) (*Tree, error) {
	cfg = cfg.OrDefault()
	if cfg.PersistPath != "" {
		if _, err := os.Stat(cfg.PersistPath); err == nil {
			return NewTreeFromFile(cfg.PersistPath, cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := newTree(cfg)
	t.pool = NewPool(cfg.VectorsPerBlock, cfg.Dim)
	return t, nil
}

func newTree(cfg *Config) *Tree {
	t := &Tree{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	t.searchWidth.Store(int32(cfg.SearchWidth))
	if cfg.SearchPoolWorkers > 0 {
		t.searchPool = newSearchPool(cfg.SearchPoolWorkers, 64)
	}
	return t
}

// Config returns the current configuration.
func (t *Tree) Config() *Config {
	return t.cfg
}

// Dim returns the vector dimension.
func (t *Tree) Dim() int {
	return t.cfg.Dim
}

// Len returns the number of vectors in the tree.
func (t *Tree) Len() int {
	return int(t.count.Load())
}

// ReadOnly reports whether the tree was loaded from file.
func (t *Tree) ReadOnly() bool {
	return t.pool == nil
}

// SetSearchWidth sets how many children each internal node may descend into during
// Search. Safe to call between searches from any goroutine.
func (t *Tree) SetSearchWidth(w int) {
	if w <= 0 {
		w = 1
	}
	t.searchWidth.Store(int32(w))
}

// SearchWidth returns the current search width.
func (t *Tree) SearchWidth() int {
	return int(t.searchWidth.Load())
}

// Insert adds a vector under id. Safe for concurrent use with distinct ids.
func (t *Tree) Insert(vec []float32, id uint64) error {
	if t.pool == nil {
		return ErrReadOnly
	}
	if err := checkDim(t.cfg.Dim, vec); err != nil {
		return err
	}

	t.mu.RLock()
	if _, _, leaf := t.route(vec); leaf != nil && leaf.Add(t.pool, vec, id) {
		t.mu.RUnlock()
		t.count.Add(1)
		return nil
	}
	t.mu.RUnlock()

	// 叶子已满：拿写锁重新路由，分裂后重试
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		t.root = NewLeafNode(t.cfg)
	}
	for retry := 0; retry < maxSplitRetries; retry++ {
		parent, idx, leaf := t.route(vec)
		if leaf == nil {
			return fmt.Errorf("indexer: insert %d: no leaf on route", id)
		}
		if leaf.Add(t.pool, vec, id) {
			t.count.Add(1)
			return nil
		}
		internal := SplitLeaf(leaf, t.pool, t.rng)
		if internal == nil {
			return fmt.Errorf("indexer: insert %d: split of full leaf failed", id)
		}
		if parent == nil {
			t.root = internal
		} else {
			parent.replaceChild(idx, internal)
		}
	}
	return fmt.Errorf("indexer: insert %d: no room after %d splits", id, maxSplitRetries)
}

// route descends to the leaf closest to vec. Caller holds mu (read or write).
func (t *Tree) route(vec []float32) (parent *InternalNode, idx int, leaf *LeafNode) {
	idx = -1
	n := t.root
	for n != nil && !n.IsLeaf() {
		internal := n.(*InternalNode)
		i := internal.BestChild(vec, t.cfg.Metric)
		if i < 0 {
			return nil, -1, nil
		}
		parent, idx, n = internal, i, internal.Child(i)
	}
	leaf, _ = n.(*LeafNode)
	return parent, idx, leaf
}

// Stats walks the tree and reports its shape.
func (t *Tree) Stats() TreeStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var s TreeStats
	if t.root != nil {
		walkStats(t.root, 1, &s)
	}
	return s
}

func walkStats(n Node, depth int, s *TreeStats) {
	s.Depth = max(s.Depth, depth)
	if n.IsLeaf() {
		leaf := n.(*LeafNode)
		leaf.mu.Lock()
		s.Blocks += len(leaf.blocks)
		leaf.mu.Unlock()
		s.Leaves++
		return
	}
	s.Internal++
	internal := n.(*InternalNode)
	for i := 0; i < internal.NumChildren(); i++ {
		if child := internal.Child(i); child != nil {
			walkStats(child, depth+1, s)
		}
	}
}

// Pool returns the memory pool. Nil for a tree loaded from file.
func (t *Tree) Pool() *Pool {
	return t.pool
}

// Close stops the search pool and releases a persisted mapping, if any.
func (t *Tree) Close() error {
	if t.searchPool != nil {
		t.searchPool.close()
		t.searchPool = nil
	}
	return t.ClosePersisted()
}
