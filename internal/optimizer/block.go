package optimizer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/scheduler"
	"jacobianbnb/internal/timer"
)

// BlockOptimizer is the block/batch variant (C9): it runs the same outer
// DFS as BranchAndBoundOptimizer, but instead of scheduling each leaf
// sequence as it is found, it buffers every leaf and hands the whole
// batch to a BatchScheduler once the search finishes.
type BlockOptimizer struct {
	*Base
	BatchScheduler scheduler.BatchScheduler
	Concurrency    int
	TimeToSolve    time.Duration

	bufMu sync.Mutex
	buf   []*jcdp.Sequence
}

func NewBlockOptimizer(chain *jcdp.JacobianChain, machines, upperBound int, batch scheduler.BatchScheduler, logger *logrus.Logger) *BlockOptimizer {
	base := NewBase(machines, upperBound, nil, chain.LongestPossibleSequence(), logger)
	return &BlockOptimizer{Base: base, BatchScheduler: batch}
}

func (o *BlockOptimizer) concurrency() int64 {
	if o.Concurrency > 0 {
		return int64(o.Concurrency)
	}
	return int64(runtime.GOMAXPROCS(0))
}

func (o *BlockOptimizer) Solve(ctx context.Context, chain *jcdp.JacobianChain) (Result, error) {
	start := time.Now()
	t := o.NewTimer(ctx, o.TimeToSolve)
	defer t.Stop()

	root := jcdp.NewSequence()
	choices := eligibleOps(chain)

	g, gctx := errgroup.WithContext(t.Context())
	sem := semaphore.NewWeighted(o.concurrency())

	for _, choice := range choices {
		choice := choice
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			localChain := chain.Clone()
			localSeq := root.Clone()
			if !localChain.Apply(choice) {
				return nil
			}
			localSeq.Push(choice)
			o.collect(gctx, localChain, localSeq, t, 1)
			return nil
		})
	}
	_ = g.Wait()

	bestIdx, bestMakespan := o.BatchScheduler.ScheduleBatch(ctx, o.buf, o.Machines, o.BestMakespan(), t)
	var best *jcdp.Sequence
	if bestIdx >= 0 {
		best = o.buf[bestIdx]
		o.TryUpdate(best, bestMakespan)
	}

	leafs, updates, pruned := o.Stats()
	return Result{
		Sequence:        o.BestSequence(),
		Makespan:        o.BestMakespan(),
		LeafsVisited:    leafs,
		UpdatedMakespan: updates,
		PrunedBranches:  pruned,
		Duration:        time.Since(start),
		TimerExpired:    t.Expired(),
		Meta:            map[string]any{"batch_size": len(o.buf), "batch_best_index": bestIdx},
	}, nil
}

func (o *BlockOptimizer) collect(ctx context.Context, chain *jcdp.JacobianChain, seq *jcdp.Sequence, t *timer.Timer, depth int) {
	if ctx.Err() != nil || t.Expired() {
		return
	}

	root := chain.Block(chain.Q-1, 0)
	if root.IsAccumulated {
		o.RecordLeaf()
		candidate := seq.Clone()
		o.bufMu.Lock()
		o.buf = append(o.buf, candidate)
		o.bufMu.Unlock()
		return
	}

	if cp := seq.CriticalPath(); cp >= o.BestMakespan() {
		o.RecordPrune(depth)
		return
	}

	for _, op := range eligibleOps(chain) {
		if !seq.Push(op) {
			continue
		}
		if !chain.Apply(op) {
			seq.Pop()
			continue
		}
		o.collect(ctx, chain, seq, t, depth+1)
		chain.Revert(op)
		seq.Pop()
	}
}
