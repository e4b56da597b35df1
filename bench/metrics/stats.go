package metrics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary 延迟统计（µs）
type Summary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean_us"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"stddev_us"`
	Min      float64 `json:"min_us"`
	P50      float64 `json:"p50_us"`
	P95      float64 `json:"p95_us"`
	P99      float64 `json:"p99_us"`
	Max      float64 `json:"max_us"`
}

// Summarize 跳过前 warmup 个样本后计算均值、方差与分位数。样本不足时返回零值 Summary。
func Summarize(us []uint64, warmup int) Summary {
	warmup = max(warmup, 0)
	if warmup >= len(us) {
		return Summary{}
	}
	x := make([]float64, 0, len(us)-warmup)
	for _, v := range us[warmup:] {
		x = append(x, float64(v))
	}
	slices.Sort(x)
	mean, variance := stat.MeanVariance(x, nil)
	if len(x) == 1 {
		variance = 0
	}
	return Summary{
		N:        len(x),
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      x[0],
		P50:      Percentile(x, 50),
		P95:      Percentile(x, 95),
		P99:      Percentile(x, 99),
		Max:      x[len(x)-1],
	}
}

// Percentile 计算已排序切片的第 p 百分位（0-100），使用经验分布
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p/100, stat.Empirical, sorted, nil)
}
