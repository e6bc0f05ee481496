package scheduler

import (
	"context"
	"math"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/timer"
)

// BranchAndBoundScheduler finds an optimal machine/start-time assignment
// for a sequence by recursive depth-first search: at each level the
// leftmost currently-schedulable operation is assigned to every
// non-equivalent machine in turn, pruning branches whose lower bound
// already meets or exceeds the best makespan found so far.
type BranchAndBoundScheduler struct{}

// Schedule implements Scheduler.
func (BranchAndBoundScheduler) Schedule(ctx context.Context, seq *jcdp.Sequence, machines int, t *timer.Timer) int {
	machines = UsableThreads(seq, machines)
	n := seq.Len()
	if n == 0 {
		return 0
	}

	remaining := make([]int, n)
	for i := 0; i < n; i++ {
		remaining[i] = len(predecessors(seq, i))
	}

	threadFinish := make([]int, machines)
	seqMakespan := seq.SequentialMakespan()
	critPath := seq.CriticalPath()

	bestMakespan := math.MaxInt
	var bestOps []jcdp.Operation
	scheduledWork := 0

	var rec func(scheduledCount int)
	rec = func(scheduledCount int) {
		if ctx.Err() != nil || (t != nil && t.Expired()) {
			return
		}

		if scheduledCount == n {
			if ms := seq.Makespan(); ms < bestMakespan {
				bestMakespan = ms
				bestOps = append(bestOps[:0], seq.Ops...)
			}
			return
		}

		lb := lowerBound(threadFinish, machines, seqMakespan, scheduledWork, critPath)
		if lb >= bestMakespan {
			return
		}

		readyIdx := -1
		for i := 0; i < n; i++ {
			if !seq.Ops[i].IsScheduled && remaining[i] == 0 {
				readyIdx = i
				break
			}
		}
		if readyIdx < 0 {
			return
		}

		op := seq.Ops[readyIdx]
		earliest := seq.EarliestStart(readyIdx)
		parent := seq.Parent(readyIdx)

		seenEmptyMachine := false
		for m := 0; m < machines; m++ {
			if threadFinish[m] == 0 {
				if seenEmptyMachine {
					continue // symmetric with an already-tried empty machine
				}
				seenEmptyMachine = true
			}

			start := threadFinish[m]
			if earliest > start {
				start = earliest
			}

			savedFinish := threadFinish[m]
			scheduled := op
			scheduled.Thread = m
			scheduled.StartTime = start
			scheduled.IsScheduled = true
			seq.Ops[readyIdx] = scheduled

			threadFinish[m] = start + op.FMA
			scheduledWork += op.FMA
			if parent >= 0 {
				remaining[parent]--
			}

			rec(scheduledCount + 1)

			if parent >= 0 {
				remaining[parent]++
			}
			scheduledWork -= op.FMA
			threadFinish[m] = savedFinish
			seq.Ops[readyIdx] = op
		}
	}

	rec(0)

	if bestOps == nil {
		return -1
	}
	copy(seq.Ops, bestOps)
	return bestMakespan
}

// lowerBound computes max(ceil((idle+seq_makespan)/m), critical_path,
// latest machine finish) where idle+seq_makespan is recovered as
// sum(threadFinish) + remaining work: each machine's finish time already
// equals its busy time plus any idle gaps.
func lowerBound(threadFinish []int, machines, seqMakespan, scheduledWork, critPath int) int {
	sumFinish := 0
	maxFinish := 0
	for _, f := range threadFinish {
		sumFinish += f
		if f > maxFinish {
			maxFinish = f
		}
	}
	remainingWork := seqMakespan - scheduledWork
	lb := (sumFinish + remainingWork + machines - 1) / machines
	if critPath > lb {
		lb = critPath
	}
	if maxFinish > lb {
		lb = maxFinish
	}
	return lb
}
