package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "annbench"

// Collectors holds the Prometheus metrics of a benchmark run on a private registry.
type Collectors struct {
	Registry *prometheus.Registry

	BuildProgress *prometheus.GaugeVec
	BuildSeconds  *prometheus.GaugeVec
	Inserted      *prometheus.CounterVec
	InsertErrors  *prometheus.CounterVec
	QueryLatency  *prometheus.HistogramVec
	Recall        *prometheus.GaugeVec
	HeapBytes     prometheus.Gauge
}

// NewCollectors registers the benchmark metrics plus the Go runtime and process collectors.
func NewCollectors() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		BuildProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_progress_ratio",
			Help:      "Fraction of vectors claimed by the build workers",
		}, []string{"index"}),
		BuildSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall-clock duration of the last index build",
		}, []string{"index"}),
		Inserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inserted_vectors_total",
			Help:      "Vectors inserted into an index",
		}, []string{"index"}),
		InsertErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insert_errors_total",
			Help:      "Failed inserts",
		}, []string{"index"}),
		QueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_latency_seconds",
			Help:      "Latency of measured queries",
			// 10µs .. ~80ms
			Buckets: prometheus.ExponentialBuckets(10e-6, 2, 14),
		}, []string{"stage", "config"}),
		Recall: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recall_ratio",
			Help:      "Mean recall of a measured configuration",
		}, []string{"stage", "config"}),
		HeapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heap_alloc_bytes",
			Help:      "Heap in use after the last index build",
		}),
	}
	c.Registry.MustRegister(
		c.BuildProgress,
		c.BuildSeconds,
		c.Inserted,
		c.InsertErrors,
		c.QueryLatency,
		c.Recall,
		c.HeapBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveQuery records one measured query.
func (c *Collectors) ObserveQuery(stage string, config int, us uint64) {
	c.QueryLatency.WithLabelValues(stage, strconv.Itoa(config)).Observe(float64(us) / 1e6)
}

// SetRecall publishes the mean recall of a configuration.
func (c *Collectors) SetRecall(stage string, config int, recall float64) {
	c.Recall.WithLabelValues(stage, strconv.Itoa(config)).Set(recall)
}

// ObserveBuild publishes the outcome of an index build.
func (c *Collectors) ObserveBuild(index string, inserted int, elapsed time.Duration, heap Snapshot) {
	c.BuildSeconds.WithLabelValues(index).Set(elapsed.Seconds())
	c.Inserted.WithLabelValues(index).Add(float64(inserted))
	c.HeapBytes.Set(float64(heap.HeapAlloc))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{Registry: c.Registry})
}

// WriteTextfile writes the registry for the node_exporter textfile collector.
func (c *Collectors) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.Registry)
}
