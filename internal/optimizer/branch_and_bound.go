package optimizer

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/scheduler"
	"jacobianbnb/internal/timer"
)

// BranchAndBoundOptimizer is the outer search (C7): a depth-first branch
// and bound over elimination sequences, in which every level offers every
// eligible accumulation, elimination and multiplication (there is no
// separate accumulation phase). The root level enumerates every
// operation that is immediately eligible
// against the chain's initial state and runs one of these root branches
// per goroutine, bounded by Concurrency; every deeper level is a
// sequential depth-first search, matching "inner scheduler sequential per
// sequence, outer search task-parallel" from the concurrency model.
type BranchAndBoundOptimizer struct {
	*Base
	Concurrency int           // 0 => runtime.GOMAXPROCS(0)
	TimeToSolve time.Duration // 0 => no deadline
}

// NewBranchAndBoundOptimizer constructs an outer optimizer seeded with
// upperBound (e.g. from a priority-list or DP solve) and scheduling leaves
// with sched.
func NewBranchAndBoundOptimizer(chain *jcdp.JacobianChain, machines, upperBound int, sched scheduler.Scheduler, logger *logrus.Logger) *BranchAndBoundOptimizer {
	base := NewBase(machines, upperBound, sched, chain.LongestPossibleSequence(), logger)
	return &BranchAndBoundOptimizer{Base: base}
}

func (o *BranchAndBoundOptimizer) concurrency() int64 {
	if o.Concurrency > 0 {
		return int64(o.Concurrency)
	}
	return int64(runtime.GOMAXPROCS(0))
}

// Solve runs the outer search to completion or until its timer expires.
func (o *BranchAndBoundOptimizer) Solve(ctx context.Context, chain *jcdp.JacobianChain) (Result, error) {
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
			o.dfs(gctx, localChain, localSeq, t, 1)
			return nil
		})
	}
	_ = g.Wait()

	leafs, updates, pruned := o.Stats()
	return Result{
		Sequence:        o.BestSequence(),
		Makespan:        o.BestMakespan(),
		LeafsVisited:    leafs,
		UpdatedMakespan: updates,
		PrunedBranches:  pruned,
		Duration:        time.Since(start),
		TimerExpired:    t.Expired(),
	}, nil
}

// dfs descends the elimination/accumulation tree sequentially from a
// root-level branch, applying and reverting against chain so each
// goroutine only ever touches its own clone.
func (o *BranchAndBoundOptimizer) dfs(ctx context.Context, chain *jcdp.JacobianChain, seq *jcdp.Sequence, t *timer.Timer, depth int) {
	if ctx.Err() != nil || t.Expired() {
		return
	}

	root := chain.Block(chain.Q-1, 0)
	if root.IsAccumulated {
		o.evaluateLeaf(ctx, seq, t)
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
		o.dfs(ctx, chain, seq, t, depth+1)
		chain.Revert(op)
		seq.Pop()
	}
}

func (o *BranchAndBoundOptimizer) evaluateLeaf(ctx context.Context, seq *jcdp.Sequence, t *timer.Timer) {
	o.RecordLeaf()
	candidate := seq.Clone()
	ms := o.Scheduler.Schedule(ctx, candidate, o.Machines, t)
	if ms < 0 {
		return
	}
	o.TryUpdate(candidate, ms)
}

// eligibleOps enumerates every accumulation, elimination or multiplication
// operation that chain's current block state permits: a direct
// accumulation of any unaccumulated block, in either mode; an elimination
// of block (j,i) through a pivot k combining the already-accumulated
// blocks (j,k+1) and (k,i), offered only when chain.MatrixFree is set;
// and a multiplication of those same two adjacent accumulated blocks,
// always offered regardless of MatrixFree.
func eligibleOps(chain *jcdp.JacobianChain) []jcdp.Operation {
	var ops []jcdp.Operation
	modes := [2]jcdp.Mode{jcdp.ModeTangent, jcdp.ModeAdjoint}

	for j := 0; j < chain.Q; j++ {
		for i := 0; i < j; i++ {
			target := chain.Block(j, i)
			if target == nil || target.IsAccumulated {
				continue
			}

			for _, mode := range modes {
				ops = append(ops, jcdp.Operation{
					Action: jcdp.ActionAccumulation,
					Mode:   mode,
					J:      j, K: -1, I: i,
					FMA: target.FMA(mode),
				})
			}

			for k := i; k < j; k++ {
				left := chain.Block(j, k+1)
				right := chain.Block(k, i)
				if left == nil || right == nil {
					continue
				}
				if !left.IsAccumulated || !right.IsAccumulated {
					continue
				}

				if chain.MatrixFree {
					ops = append(ops, jcdp.Operation{
						Action: jcdp.ActionElimination,
						Mode:   jcdp.ModeTangent,
						J:      j, K: k, I: i,
						FMA: left.FMADirections(jcdp.ModeTangent, right.N),
					})
					ops = append(ops, jcdp.Operation{
						Action: jcdp.ActionElimination,
						Mode:   jcdp.ModeAdjoint,
						J:      j, K: k, I: i,
						FMA: right.FMADirections(jcdp.ModeAdjoint, left.M),
					})
				}

				ops = append(ops, jcdp.Operation{
					Action: jcdp.ActionMultiplication,
					Mode:   jcdp.ModeNone,
					J:      j, K: k, I: i,
					FMA: left.M * right.M * right.N,
				})
			}
		}
	}
	return ops
}
