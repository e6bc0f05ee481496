// Package optimizer implements outer branch-and-bound search over
// elimination sequences of a Jacobian chain: the bracketing problem, as
// opposed to the inner scheduling problem handled by internal/scheduler.
package optimizer

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/scheduler"
	"jacobianbnb/internal/timer"
)

// Result is what every Optimizer implementation returns: the best
// sequence found, its makespan, and the search statistics the original
// tool prints after every run.
type Result struct {
	Sequence *jcdp.Sequence
	Makespan int

	LeafsVisited    int64
	UpdatedMakespan int64
	PrunedBranches  []int64 // indexed by search depth

	Duration     time.Duration
	TimerExpired bool
	Meta         map[string]any
}

// Optimizer solves the outer bracketing problem for a chain.
type Optimizer interface {
	Solve(ctx context.Context, chain *jcdp.JacobianChain) (Result, error)
}

// Base holds the state every branch-and-bound optimizer variant shares:
// the machine count and inner scheduler used to evaluate leaf sequences,
// the mutex-guarded incumbent (its makespan seeded with the upper bound),
// and the atomic search counters. It is not itself an Optimizer; embed it.
type Base struct {
	Machines  int
	Scheduler scheduler.Scheduler
	Logger    *logrus.Logger

	mu           sync.Mutex
	bestSequence *jcdp.Sequence
	bestMakespan int

	leafsVisited    int64
	updatedMakespan int64
	prunedBranches  []int64
}

// NewBase prepares a Base for a chain with the given initial upper bound
// (0 or negative means "no seed", i.e. start from +infinity) and machine
// count. maxDepth should be chain.LongestPossibleSequence(), sizing the
// per-depth pruned-branch counters.
func NewBase(machines, upperBound int, sched scheduler.Scheduler, maxDepth int, logger *logrus.Logger) *Base {
	best := upperBound
	if best <= 0 {
		best = math.MaxInt
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Base{
		Machines:       machines,
		Scheduler:      sched,
		Logger:         logger,
		bestMakespan:   best,
		prunedBranches: make([]int64, maxDepth+1),
	}
}

// BestMakespan returns the current incumbent makespan under lock.
func (b *Base) BestMakespan() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bestMakespan
}

// BestSequence returns a copy of the current incumbent sequence, or nil
// if none has been found yet.
func (b *Base) BestSequence() *jcdp.Sequence {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bestSequence == nil {
		return nil
	}
	return b.bestSequence.Clone()
}

// TryUpdate replaces the incumbent if candidate's makespan improves on it.
// This is the single critical section shared by every concurrent search
// task.
func (b *Base) TryUpdate(candidate *jcdp.Sequence, makespan int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if makespan < b.bestMakespan {
		b.bestMakespan = makespan
		b.bestSequence = candidate.Clone()
		atomic.AddInt64(&b.updatedMakespan, 1)
		return true
	}
	return false
}

func (b *Base) RecordLeaf() {
	atomic.AddInt64(&b.leafsVisited, 1)
}

func (b *Base) RecordPrune(depth int) {
	if depth >= 0 && depth < len(b.prunedBranches) {
		atomic.AddInt64(&b.prunedBranches[depth], 1)
	}
}

// NewTimer builds the shared deadline a Solve call should pass down into
// every concurrent search task, honoring timeToSolve<=0 as "no deadline".
func (b *Base) NewTimer(ctx context.Context, timeToSolve time.Duration) *timer.Timer {
	if timeToSolve <= 0 {
		return timer.NewUnbounded(ctx)
	}
	return timer.New(ctx, timeToSolve)
}

// Stats snapshots the atomic counters into a Result's fields.
func (b *Base) Stats() (leafs, updates int64, pruned []int64) {
	leafs = atomic.LoadInt64(&b.leafsVisited)
	updates = atomic.LoadInt64(&b.updatedMakespan)
	pruned = make([]int64, len(b.prunedBranches))
	for i := range pruned {
		pruned[i] = atomic.LoadInt64(&b.prunedBranches[i])
	}
	return
}

// PrintStats logs the search counters at info level.
func (b *Base) PrintStats() {
	leafs, updates, pruned := b.Stats()
	total := int64(0)
	for _, p := range pruned {
		total += p
	}
	b.Logger.WithFields(logrus.Fields{
		"leafs_visited":       leafs,
		"updated_makespan":    updates,
		"pruned_branches":     total,
		"best_makespan":       b.BestMakespan(),
	}).Info("branch and bound search finished")
}
