package indexer

import "math/rand"

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}
