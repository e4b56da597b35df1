package indexer

import "sync"

const (
	scoresBufCap  = 512
	indicesBufCap = 512
	seenBufCap    = 256
)

// searchBufs holds reusable per-search buffers so a query does not allocate per leaf.
type searchBufs struct {
	scores  []float64
	batch   []float64
	indices []int
	seen    map[uint64]float32 // id -> best distance, dedup across leaves/shards
}

func newSearchBufs() *searchBufs {
	return &searchBufs{
		scores:  make([]float64, 0, scoresBufCap),
		batch:   make([]float64, 0, scoresBufCap),
		indices: make([]int, 0, indicesBufCap),
		seen:    make(map[uint64]float32, seenBufCap),
	}
}

func (b *searchBufs) reset() {
	clear(b.seen)
	b.scores = b.scores[:0]
	b.batch = b.batch[:0]
	b.indices = b.indices[:0]
}

// upsert keeps the smallest distance seen for id.
func (b *searchBufs) upsert(id uint64, dist float32) {
	if existing, ok := b.seen[id]; !ok || dist < existing {
		b.seen[id] = dist
	}
}

var searchBufsPool = sync.Pool{
	New: func() any { return newSearchBufs() },
}

func getSearchBufs() *searchBufs {
	return searchBufsPool.Get().(*searchBufs)
}

func putSearchBufs(b *searchBufs) {
	b.reset()
	searchBufsPool.Put(b)
}
