package indexer

import "math/rand"

const (
	kMeansK      = 2
	kMeansRounds = 8
)

// SplitLeaf splits a full leaf with K-means K=2 and returns the new InternalNode.
// Returns nil if the leaf is below its split threshold.
func SplitLeaf(leaf *LeafNode, pool *Pool, rng *rand.Rand) *InternalNode {
	cfg := leaf.cfg
	leaf.mu.Lock()
	if leaf.vectorCount < cfg.SplitThreshold {
		leaf.mu.Unlock()
		return nil
	}
	vecs, ids := leaf.vectors()
	leaf.mu.Unlock()

	assign := kMeans2(vecs, kMeansRounds, cfg.Metric, rng)
	children := [kMeansK]*LeafNode{NewLeafNode(cfg), NewLeafNode(cfg)}
	for i, a := range assign {
		children[a].addLocked(pool, vecs[i], ids[i])
	}
	internal := NewInternalNode()
	for _, c := range children {
		internal.addChild(c, c.centroid)
	}
	return internal
}

// kMeans2 对 vectors 做 K=2 聚类，返回每个向量的簇标签 (0 或 1)。两个簇都非空。
func kMeans2(vectors [][]float32, rounds int, m Metric, rng *rand.Rand) []int {
	n := len(vectors)
	assign := make([]int, n)
	if n < 2 {
		return assign
	}
	dim := len(vectors[0])
	// 随机选 c0，c1 取离 c0 最远的点
	c0 := copyVec(vectors[rng.Intn(n)])
	far, farDist := 0, float32(-1)
	for i, v := range vectors {
		if d := m.distance(v, c0); d > farDist {
			far, farDist = i, d
		}
	}
	c1 := copyVec(vectors[far])
	sum0 := make([]float32, dim)
	sum1 := make([]float32, dim)
	var cnt0, cnt1 int
	for r := 0; r < rounds; r++ {
		// 分配
		for i, v := range vectors {
			if m.distance(v, c0) <= m.distance(v, c1) {
				assign[i] = 0
			} else {
				assign[i] = 1
			}
		}
		// 更新中心
		clear(sum0)
		clear(sum1)
		cnt0, cnt1 = 0, 0
		for i, v := range vectors {
			if assign[i] == 0 {
				for j := range v {
					sum0[j] += v[j]
				}
				cnt0++
			} else {
				for j := range v {
					sum1[j] += v[j]
				}
				cnt1++
			}
		}
		if cnt0 == 0 || cnt1 == 0 {
			break
		}
		for j := range sum0 {
			c0[j] = sum0[j] / float32(cnt0)
			c1[j] = sum1[j] / float32(cnt1)
		}
	}
	// 退化（例如全部向量相同）：交替分配，保证分裂后两侧都有空位
	if cnt0 == 0 || cnt1 == 0 {
		for i := range assign {
			assign[i] = i % kMeansK
		}
	}
	return assign
}
