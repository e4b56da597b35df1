//go:build amd64 && cgo

package simd

import "golang.org/x/sys/cpu"

func init() {
	if cpu.X86.HasAVX2 && cpu.X86.HasFMA {
		dotProductImpl = dotProductAVX2
		squaredL2Impl = squaredL2AVX2
		implDesc = "AVX2"
	} else {
		dotProductImpl = dotProductGo
		squaredL2Impl = squaredL2Go
		implDesc = "Go"
	}
}
