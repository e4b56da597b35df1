// Package gen 提供压测用随机向量生成
package gen

import (
	"math"
	"math/rand"
)

// DefaultSeed is the seed of the reference GIST-sized synthetic corpus.
const DefaultSeed = 47

// Uniform 生成 n 个 dim 维向量，分量服从 [0,1) 均匀分布，按行连续存放。
// 同一 seed 总是产生相同的数据。
func Uniform(n, dim int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float32, n*dim)
	for i := range out {
		out[i] = rng.Float32()
	}
	return out
}

// Unit 生成 n 个 dim 维 L2 归一化随机向量，用于内积/余弦压测
func Unit(n, dim int, seed int64) []float32 {
	out := Uniform(n, dim, seed)
	for i := 0; i < n; i++ {
		v := out[i*dim : (i+1)*dim]
		var norm float64
		for _, x := range v {
			norm += float64(x * x)
		}
		norm = math.Sqrt(norm)
		if norm < 1e-9 {
			v[0] = 1
			norm = 1
		}
		for j := range v {
			v[j] /= float32(norm)
		}
	}
	return out
}
