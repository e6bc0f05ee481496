package scheduler

import (
	"context"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/timer"
)

// BlockScheduler schedules a batch of leaf sequences handed to it at once
// by the block/batch optimizer (C9), returning whichever sub-problem
// achieves the best makespan. Every sub-problem whose critical path
// already meets the incumbent is pruned before its inner scheduler runs,
// and every schedule the inner scheduler returns is checked for
// schedulability — these checks are easy to special-case away when a
// batch is large, which is exactly the shortcut the original
// implementation took; this scheduler does not take it. Sub-problems are
// scheduled one after another.
type BlockScheduler struct {
	Inner Scheduler // defaults to BranchAndBoundScheduler{} when nil
}

func (b BlockScheduler) ScheduleBatch(ctx context.Context, seqs []*jcdp.Sequence, machines, upperBound int, t *timer.Timer) (bestIdx, bestMakespan int) {
	inner := b.Inner
	if inner == nil {
		inner = BranchAndBoundScheduler{}
	}

	bestIdx = -1
	bestMakespan = upperBound

	for i, seq := range seqs {
		if ctx.Err() != nil || (t != nil && t.Expired()) {
			break
		}

		lb := seq.CriticalPath()
		if lb >= bestMakespan {
			continue // pruned: this sub-problem cannot beat the incumbent
		}

		ms := inner.Schedule(ctx, seq, machines, t)
		if ms < 0 {
			continue
		}
		if !seq.IsSchedulable() {
			continue
		}
		if ms < bestMakespan {
			bestMakespan = ms
			bestIdx = i
		}
	}

	return bestIdx, bestMakespan
}
