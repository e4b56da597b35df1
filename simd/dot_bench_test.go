package simd

import (
	"math/rand"
	"runtime"
	"testing"

	"golang.org/x/sys/cpu"
)

const benchDim = 960 // GIST 维度

func initBenchVectors() (va, vb []float32) {
	rng := rand.New(rand.NewSource(42))
	va = make([]float32, benchDim)
	vb = make([]float32, benchDim)
	for i := range va {
		va[i] = rng.Float32()*2 - 1
		vb[i] = rng.Float32()*2 - 1
	}
	return va, vb
}

func BenchmarkDotProduct_Go(b *testing.B) {
	va, vb := initBenchVectors()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dotProductGo(va, vb)
	}
}

func BenchmarkDotProduct_Auto(b *testing.B) {
	va, vb := initBenchVectors()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = DotProduct(va, vb)
	}
}

func BenchmarkSquaredL2_Go(b *testing.B) {
	va, vb := initBenchVectors()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = squaredL2Go(va, vb)
	}
}

func BenchmarkSquaredL2_Auto(b *testing.B) {
	va, vb := initBenchVectors()
	if !canUseAVX2() {
		b.Log("AVX2 不可用，使用 Go 实现")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SquaredL2(va, vb)
	}
}

// 模拟一次 1000 向量叶子扫描
func BenchmarkLeafScan_L2(b *testing.B) {
	va, _ := initBenchVectors()
	const n = 1000
	data := make([]float32, n*benchDim)
	rng := rand.New(rand.NewSource(7))
	for i := range data {
		data[i] = rng.Float32()
	}
	dst := make([]float64, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst = SquaredL2BatchFlat(dst, va, data, n)
	}
}

func canUseAVX2() bool {
	return runtime.GOARCH == "amd64" && cpu.X86.HasAVX2 && cpu.X86.HasFMA
}
