package indexer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ShardedIndex shards vectors across multiple Trees; search queries all shards in parallel and merges results.
type ShardedIndex struct {
	shards  []*Tree
	cfg     *Config
	nShards int
	pool    *searchPool
}

// NewShardedIndex creates a sharded index. nShards is the number of shards.
func NewShardedIndex(cfg *Config, nShards int) (*ShardedIndex, error) {
	if nShards <= 0 {
		nShards = 1
	}
	cfg = cfg.OrDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	shardCfg := *cfg
	shardCfg.PersistPath = ""
	shards := make([]*Tree, nShards)
	for i := 0; i < nShards; i++ {
		c := shardCfg
		c.Seed = cfg.Seed + int64(i)
		t, err := NewTree(&c)
		if err != nil {
			return nil, fmt.Errorf("indexer: shard %d: %w", i, err)
		}
		shards[i] = t
	}
	nWorkers := max(nShards, runtime.NumCPU()/2)
	bufSize := 64
	return &ShardedIndex{
		shards:  shards,
		cfg:     cfg,
		nShards: nShards,
		pool:    newSearchPool(nWorkers, bufSize),
	}, nil
}

// Insert adds a vector, routing to shard by id % nShards.
func (s *ShardedIndex) Insert(vec []float32, id uint64) error {
	idx := id % uint64(s.nShards)
	return s.shards[idx].Insert(vec, id)
}

// Search queries all shards in parallel and merges Top-K results.
func (s *ShardedIndex) Search(query []float32, k int) ([]SearchResult, error) {
	if err := checkDim(s.cfg.Dim, query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	results := make([][]SearchResult, s.nShards)
	errs := make([]error, s.nShards)
	var wg sync.WaitGroup
	wg.Add(s.nShards)
	for i, shard := range s.shards {
		i, shard := i, shard
		s.pool.submit(i, searchTask{
			run:  func() { results[i], errs[i] = shard.Search(query, k) },
			done: &wg,
		})
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	bufs := getSearchBufs()
	defer putSearchBufs(bufs)
	for _, rs := range results {
		for _, r := range rs {
			bufs.upsert(r.ID, r.Distance)
		}
	}
	return topKFromSeen(bufs.seen, k), nil
}

// SetSearchWidth sets the search width of every shard.
func (s *ShardedIndex) SetSearchWidth(w int) {
	for _, t := range s.shards {
		t.SetSearchWidth(w)
	}
}

// Dim returns the vector dimension.
func (s *ShardedIndex) Dim() int {
	return s.cfg.Dim
}

// Len returns the total number of vectors across shards.
func (s *ShardedIndex) Len() int {
	n := 0
	for _, t := range s.shards {
		n += t.Len()
	}
	return n
}

// NumShards returns the shard count.
func (s *ShardedIndex) NumShards() int {
	return s.nShards
}

// Close stops the search workers and every shard.
func (s *ShardedIndex) Close() error {
	s.pool.close()
	var errs []error
	for _, t := range s.shards {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}
