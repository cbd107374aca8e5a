// Package workpool fans data-parallel loops out over a bounded set of
// goroutines. Every call joins before it returns, so callers can treat
// it as an ordinary loop.
package workpool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Below this many items, Rows just runs the loop inline.
const minParallel = 64

// Workers resolves a configured worker count; anything <= 0 means one
// worker per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Rows splits [0,n) into contiguous chunks and calls fn(lo, hi) for
// each one, with at most `workers` chunks in flight. fn must only write
// to state owned by its own index range.
func Rows(n, workers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers = Workers(workers)
	if workers == 1 || n < minParallel {
		fn(0, n)
		return
	}

	// A few chunks per worker keeps things balanced when rows cost different amounts
	nChunks := workers * 4
	if nChunks > n {
		nChunks = n
	}
	chunk := (n + nChunks - 1) / nChunks

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	g.Wait()
}

// Each calls fn(i) for every i in [0,n), spread across workers.
func Each(n, workers int, fn func(i int)) {
	Rows(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i)
		}
	})
}
