package indexer

// SearchResult is one neighbor returned by Search.
type SearchResult struct {
	ID       uint64  // id passed to Insert
	Distance float32 // metric distance to the query; smaller is closer
}

// Index is what the benchmark harness needs from an ANN index.
//
// Insert must be safe to call concurrently for distinct ids. Search is called from a
// single goroutine during measurement and returns at most k results ordered by
// increasing distance.
type Index interface {
	Insert(vec []float32, id uint64) error
	Search(query []float32, k int) ([]SearchResult, error)
	Dim() int
	Len() int
}

var (
	_ Index = (*Tree)(nil)
	_ Index = (*ShardedIndex)(nil)
	_ Index = (*Flat)(nil)
)
