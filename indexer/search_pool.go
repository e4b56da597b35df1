package indexer

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// searchTask is one unit of pool work; run writes its own result slot.
type searchTask struct {
	run  func()
	done *sync.WaitGroup
}

// searchPool 常驻 worker 池：每个 worker 一条 lane，按 key 路由，
// 同一分片总落在同一 goroutine 上
type searchPool struct {
	lanes []chan searchTask
	next  atomic.Uint64 // round-robin key for do
	wg    sync.WaitGroup
	once  sync.Once
}

// newSearchPool starts workers goroutines (NumCPU when <= 0), each with a lane of depth
// queued tasks.
func newSearchPool(workers, depth int) *searchPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &searchPool{lanes: make([]chan searchTask, workers)}
	for i := range p.lanes {
		p.lanes[i] = make(chan searchTask, depth)
		p.wg.Add(1)
		go p.worker(p.lanes[i])
	}
	return p
}

func (p *searchPool) worker(lane <-chan searchTask) {
	defer p.wg.Done()
	for t := range lane {
		t.run()
		t.done.Done()
	}
}

// submit queues t on the lane of key. The caller has already done t.done.Add(1).
func (p *searchPool) submit(key int, t searchTask) {
	p.lanes[key%len(p.lanes)] <- t
}

// do runs fn on the next lane and waits for it.
func (p *searchPool) do(fn func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	p.submit(int(p.next.Add(1)%uint64(len(p.lanes))), searchTask{run: fn, done: &wg})
	wg.Wait()
}

// close stops the workers after the queued tasks ran. Safe to call twice.
func (p *searchPool) close() {
	p.once.Do(func() {
		for _, lane := range p.lanes {
			close(lane)
		}
		p.wg.Wait()
	})
}
