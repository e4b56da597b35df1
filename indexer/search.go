package indexer

import (
	"container/heap"
	"sort"
)

// Search returns up to k results ordered by increasing distance.
//
// At each internal node the search descends into at most SearchWidth children,
// skipping those farther than the PruneEpsilon bound of the closest one, then merges
// the leaf candidates. A width of 1 is the single-path, lowest-latency search.
func (t *Tree) Search(query []float32, k int) ([]SearchResult, error) {
	if err := checkDim(t.cfg.Dim, query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if t.searchPool != nil {
		var res []SearchResult
		t.searchPool.do(func() { res = t.searchMultiPathImpl(query, k) })
		return res, nil
	}
	return t.searchMultiPathImpl(query, k), nil
}

// searchMultiPathImpl 检索主体，pool worker 直接调用（不能再进 pool，否则死锁）
func (t *Tree) searchMultiPathImpl(query []float32, k int) []SearchResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.root == nil {
		return nil
	}
	sw := t.SearchWidth()
	if sw <= 0 {
		sw = 1
	}
	bufs := getSearchBufs()
	defer putSearchBufs(bufs)
	t.searchMultiPathNode(t.root, query, k, sw, t.cfg.PruneEpsilon, bufs)
	return topKFromSeen(bufs.seen, k)
}

func (t *Tree) searchMultiPathNode(n Node, query []float32, k, searchWidth int, pruneEpsilon float64, bufs *searchBufs) {
	if n.IsLeaf() {
		// 叶内 id 唯一，每个叶子最多贡献 k 个候选
		for _, r := range n.(*LeafNode).scanAndTopK(query, k, bufs) {
			bufs.upsert(r.ID, r.Distance)
		}
		return
	}
	internal := n.(*InternalNode)
	for _, idx := range topKIndicesWithPruning(internal.centroids, query, t.cfg.Metric, searchWidth, pruneEpsilon) {
		if child := internal.Child(idx); child != nil {
			t.searchMultiPathNode(child, query, k, searchWidth, pruneEpsilon, bufs)
		}
	}
}

// topKIndicesWithPruning 自适应剪枝：仅进入距离不超过 pruneLimit(best) 的分支，最多 maxK 个
func topKIndicesWithPruning(centroids [][]float32, query []float32, m Metric, maxK int, epsilon float64) []int {
	if len(centroids) == 0 || maxK <= 0 {
		return nil
	}
	dists := make([]float32, len(centroids))
	best := 0
	for i, c := range centroids {
		dists[i] = m.distance(query, c)
		if dists[i] < dists[best] {
			best = i
		}
	}
	limit := m.pruneLimit(dists[best], epsilon)
	passed := make([]int, 0, len(centroids))
	for i, d := range dists {
		if d <= limit || i == best {
			passed = append(passed, i)
		}
	}
	if len(passed) <= maxK {
		return passed
	}
	sort.Slice(passed, func(a, b int) bool { return dists[passed[a]] < dists[passed[b]] })
	return passed[:maxK]
}

// topKFromSeen 从 map[id]distance 中取距离最小的 k 个，按距离升序
func topKFromSeen(seen map[uint64]float32, k int) []SearchResult {
	if len(seen) == 0 || k <= 0 {
		return nil
	}
	h := make(resultHeap, 0, min(k, len(seen))+1)
	for id, d := range seen {
		h.offer(SearchResult{ID: id, Distance: d}, k)
	}
	return h.drain()
}

// resultHeap is a max-heap on distance (ties: larger id on top) holding the k best results.
type resultHeap []SearchResult

func (h resultHeap) Len() int { return len(h) }
func (h resultHeap) Less(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].ID > h[j].ID
}
func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any)   { *h = append(*h, x.(SearchResult)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// offer keeps r if it is among the k best seen so far.
func (h *resultHeap) offer(r SearchResult, k int) {
	if h.Len() < k {
		heap.Push(h, r)
		return
	}
	top := (*h)[0]
	if r.Distance < top.Distance || (r.Distance == top.Distance && r.ID < top.ID) {
		(*h)[0] = r
		heap.Fix(h, 0)
	}
}

// drain empties the heap into a slice ordered by increasing distance.
func (h *resultHeap) drain() []SearchResult {
	out := make([]SearchResult, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(SearchResult)
	}
	return out
}
