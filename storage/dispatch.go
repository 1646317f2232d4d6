package storage

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// block is a half-open shard-index range [Start, End) assigned to one
// worker of a partitioned bulk job.
type block struct {
	Index int
	Start int
	End   int
}

// partitionBlocks splits [0, numShards) into up to n roughly equal
// blocks. If n > numShards, excess workers are not spawned — the
// returned slice has at most numShards entries, matching §4.3.5's "if
// blocks would be empty, excess workers are not spawned".
func partitionBlocks(numShards, n int) []block {
	if n > numShards {
		n = numShards
	}
	if n < 1 {
		n = 1
	}
	base := numShards / n
	rem := numShards % n

	blocks := make([]block, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i == n-1 {
			size += rem
		}
		end := start + size
		blocks = append(blocks, block{Index: i, Start: start, End: end})
		start = end
	}
	return blocks
}

// dispatch runs fn once per block of a partition of [0, numShards) into
// n pieces: the first len(blocks)-1 blocks run concurrently via an
// errgroup, the last block runs on the caller's goroutine, and dispatch
// waits for every worker before returning the first observed failure —
// mirroring the original's "spawn N-1, run the last inline, join all,
// surface the first error" worker-dispatch shape (§4.4), re-expressed
// with golang.org/x/sync/errgroup in place of std::async/std::future.
func dispatch(ctx context.Context, numShards, n int, fn func(ctx context.Context, b block) error) error {
	blocks := partitionBlocks(numShards, n)
	if len(blocks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range blocks[:len(blocks)-1] {
		b := b
		g.Go(func() error {
			return fn(gctx, b)
		})
	}

	last := blocks[len(blocks)-1]
	lastErr := fn(gctx, last)
	groupErr := g.Wait()

	if groupErr != nil {
		return groupErr
	}
	return lastErr
}
