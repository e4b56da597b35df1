package indexer

import "sync"

// Node is the tree node interface.
type Node interface {
	// IsLeaf returns true if this is a leaf node.
	IsLeaf() bool
	// Centroid returns the centroid vector for routing.
	Centroid() []float32
}

// LeafNode is a leaf node holding Blocks, up to SplitThreshold vectors.
// mu guards every field; inserts and scans on the same leaf serialize on it.
type LeafNode struct {
	mu          sync.Mutex
	cfg         *Config
	blocks      []Block
	ids         []uint64
	centroid    []float32
	vectorCount int
}

// NewLeafNode creates an empty leaf node.
func NewLeafNode(cfg *Config) *LeafNode {
	maxBlocks := (cfg.SplitThreshold + cfg.VectorsPerBlock - 1) / cfg.VectorsPerBlock
	if maxBlocks < 1 {
		maxBlocks = 1
	}
	return &LeafNode{
		cfg:      cfg,
		blocks:   make([]Block, 0, maxBlocks),
		ids:      make([]uint64, 0, cfg.SplitThreshold),
		centroid: make([]float32, cfg.Dim),
	}
}

// IsLeaf implements Node.
func (*LeafNode) IsLeaf() bool { return true }

// Centroid implements Node.
func (n *LeafNode) Centroid() []float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return copyVec(n.centroid)
}

// VectorCount returns the number of vectors in the leaf.
func (n *LeafNode) VectorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.vectorCount
}

// Add appends a vector. Returns false if the leaf is full (split required).
func (n *LeafNode) Add(pool *Pool, vec []float32, id uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addLocked(pool, vec, id)
}

func (n *LeafNode) addLocked(pool *Pool, vec []float32, id uint64) bool {
	vpb := n.cfg.VectorsPerBlock
	if len(vec) != n.cfg.Dim || n.vectorCount >= n.cfg.SplitThreshold {
		return false
	}
	blockIdx := n.vectorCount / vpb
	slot := n.vectorCount % vpb
	if slot == 0 {
		n.blocks = append(n.blocks, pool.AllocBlock())
	}
	n.blocks[blockIdx].SetVector(slot, vec)
	n.ids = append(n.ids, id)
	n.vectorCount++
	// 增量更新质心
	inv := 1 / float32(n.vectorCount)
	for i, x := range vec {
		n.centroid[i] += (x - n.centroid[i]) * inv
	}
	return true
}

// vectors copies out every vector and id of the leaf. Caller must hold mu or own the leaf.
func (n *LeafNode) vectors() ([][]float32, []uint64) {
	dim := n.cfg.Dim
	vpb := n.cfg.VectorsPerBlock
	vecs := make([][]float32, 0, n.vectorCount)
	ids := make([]uint64, 0, n.vectorCount)
	for bi, b := range n.blocks {
		d := b.Data()
		if d == nil {
			continue
		}
		inBlock := min(vpb, n.vectorCount-bi*vpb)
		for s := 0; s < inBlock; s++ {
			vecs = append(vecs, copyVec(d[s*dim:(s+1)*dim]))
			ids = append(ids, n.ids[bi*vpb+s])
		}
	}
	return vecs, ids
}

// scanAndTopK 扫描叶子内全部向量，返回距离最小的 k 个
func (n *LeafNode) scanAndTopK(query []float32, k int, bufs *searchBufs) []SearchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.vectorCount == 0 {
		return nil
	}
	vpb := n.cfg.VectorsPerBlock
	if cap(bufs.scores) < n.vectorCount {
		bufs.scores = make([]float64, n.vectorCount)
	}
	scores := bufs.scores[:n.vectorCount]
	offset := 0
	for _, b := range n.blocks {
		nInBlock := min(vpb, n.vectorCount-offset)
		if nInBlock <= 0 {
			break
		}
		bufs.batch = n.cfg.Metric.batch(bufs.batch, query, b.Data(), nInBlock)
		copy(scores[offset:], bufs.batch)
		offset += nInBlock
	}
	return topKFromScores(n.ids, scores, k, bufs)
}

// InternalNode is an internal node with 2~N children and their centroids.
// Children are only replaced under the tree's write lock.
type InternalNode struct {
	children  []Node
	centroids [][]float32
}

// NewInternalNode creates an internal node.
func NewInternalNode() *InternalNode {
	return &InternalNode{}
}

// IsLeaf implements Node.
func (*InternalNode) IsLeaf() bool { return false }

// Centroid returns the first child's centroid.
func (n *InternalNode) Centroid() []float32 {
	if len(n.centroids) == 0 {
		return nil
	}
	return n.centroids[0]
}

// AddChild adds a child node, snapshotting its centroid for routing.
func (n *InternalNode) AddChild(child Node) {
	n.addChild(child, child.Centroid())
}

func (n *InternalNode) addChild(child Node, centroid []float32) {
	n.children = append(n.children, child)
	n.centroids = append(n.centroids, copyVec(centroid))
}

// NumChildren returns the number of children.
func (n *InternalNode) NumChildren() int {
	return len(n.children)
}

// BestChild returns the index of the child whose centroid is closest to query.
func (n *InternalNode) BestChild(query []float32, m Metric) int {
	if len(n.centroids) == 0 {
		return -1
	}
	best := 0
	bestDist := m.distance(query, n.centroids[0])
	for i := 1; i < len(n.centroids); i++ {
		if d := m.distance(query, n.centroids[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// Child returns the i-th child node.
func (n *InternalNode) Child(i int) Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// replaceChild swaps the i-th child for a split result. Caller holds the tree write lock.
func (n *InternalNode) replaceChild(i int, child Node) {
	n.children[i] = child
}

// topKFromScores returns the k smallest scores as results, closest first.
func topKFromScores(ids []uint64, scores []float64, k int, bufs *searchBufs) []SearchResult {
	if len(ids) != len(scores) || k <= 0 {
		return nil
	}
	k = min(k, len(ids))
	if cap(bufs.indices) < len(ids) {
		bufs.indices = make([]int, len(ids))
	}
	indices := bufs.indices[:len(ids)]
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < k; i++ {
		best := i
		for j := i + 1; j < len(indices); j++ {
			if scores[indices[j]] < scores[indices[best]] {
				best = j
			}
		}
		indices[i], indices[best] = indices[best], indices[i]
	}
	out := make([]SearchResult, k)
	for i := 0; i < k; i++ {
		out[i] = SearchResult{ID: ids[indices[i]], Distance: float32(scores[indices[i]])}
	}
	return out
}

func copyVec(v []float32) []float32 {
	if v == nil {
		return nil
	}
	o := make([]float32, len(v))
	copy(o, v)
	return o
}
