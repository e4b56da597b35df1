// Package parallel runs an embarrassingly-parallel index range across a fixed set of
// goroutines.
//
// Quick start:
//
//	err := parallel.For(0, n, 8, func(i, worker int) error {
//		return idx.Insert(vecs.Row(i), uint64(i))
//	}, parallel.WithProgress(time.Second, parallel.LogReporter(log)))
//
// Every unit in [start, end) is claimed exactly once through an atomic cursor. The first
// error returned by the work function halts further claims and is returned by For after
// every worker has exited.
package parallel
