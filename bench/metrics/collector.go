// Package metrics 提供延迟记录、召回率计算、结果导出与运行时指标采集
package metrics

import (
	"runtime"
	"runtime/debug"
	"time"
)

// Snapshot 运行时指标快照
type Snapshot struct {
	TS           time.Time
	HeapAlloc    uint64
	HeapSys      uint64
	HeapReleased uint64
	NumGC        uint32
	NumGoroutine int
}

// Take 采集当前运行时指标
func Take() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Snapshot{
		TS:           time.Now(),
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		HeapReleased: m.HeapReleased,
		NumGC:        m.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// HeapAllocMB returns HeapAlloc in MiB.
func (s Snapshot) HeapAllocMB() float64 {
	return float64(s.HeapAlloc) / (1 << 20)
}

// GC 触发 GC 并释放回 OS，建库前后调用使 HeapAlloc 可比
func GC() {
	runtime.GC()
	debug.FreeOSMemory()
}

// BuildFootprint 两次快照间的内存与 GC 变化
type BuildFootprint struct {
	Elapsed      time.Duration
	HeapGrowthMB float64 // HeapAlloc 增量，负值截断为 0
	AllocRateBps float64
	GCCount      uint32
}

// Diff 计算两次快照间的堆增长、分配速率（bytes/s）和 GC 次数差
func Diff(before, after Snapshot) BuildFootprint {
	var fp BuildFootprint
	fp.Elapsed = after.TS.Sub(before.TS)
	allocDelta := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	if allocDelta < 0 {
		allocDelta = 0
	}
	fp.HeapGrowthMB = float64(allocDelta) / (1 << 20)
	if secs := fp.Elapsed.Seconds(); secs > 0 {
		fp.AllocRateBps = float64(allocDelta) / secs
	}
	if after.NumGC >= before.NumGC {
		fp.GCCount = after.NumGC - before.NumGC
	}
	return fp
}
