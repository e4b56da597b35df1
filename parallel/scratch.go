package parallel

// Scratch holds one value per worker, indexed by the worker handle passed to WorkFunc.
// A worker owns its slot for the duration of For, so no locking is needed.
type Scratch[T any] struct {
	slots []T
}

// NewScratch allocates workers slots with newFn. workers is resolved like For's numThreads.
func NewScratch[T any](workers int, newFn func() T) *Scratch[T] {
	workers = Workers(workers)
	s := &Scratch[T]{slots: make([]T, workers)}
	for i := range s.slots {
		s.slots[i] = newFn()
	}
	return s
}

// Get returns the slot owned by worker.
func (s *Scratch[T]) Get(worker int) T {
	return s.slots[worker]
}

// Len returns the number of slots.
func (s *Scratch[T]) Len() int {
	return len(s.slots)
}
