// Package scheduler assigns operations of a jcdp.Sequence to machines and
// start times, minimizing makespan subject to the sequence's precedence
// order.
package scheduler

import (
	"context"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/timer"
)

// Scheduler schedules a single sequence. Implementations must not mutate
// seq's operation order, only their Thread/StartTime/IsScheduled fields.
type Scheduler interface {
	// Schedule assigns machines/start-times to seq's operations, bounded
	// by the available machine count and by t. It returns the achieved
	// makespan; a negative makespan means no complete schedule was found
	// (the timer expired first, or the implementation could not take the
	// sequence at all).
	Schedule(ctx context.Context, seq *jcdp.Sequence, machines int, t *timer.Timer) int
}

// BatchScheduler schedules many sequences as one unit, as the block/batch
// optimizer (C9) does when it has accumulated a buffer of leaf sequences.
type BatchScheduler interface {
	// ScheduleBatch schedules every sequence in seqs against the same
	// machine count and upper bound, returning the index of the
	// sequence achieving the best (smallest) makespan, and that makespan.
	// It returns -1 if none of the sequences could be scheduled within
	// upperBound before the timer expired.
	ScheduleBatch(ctx context.Context, seqs []*jcdp.Sequence, machines, upperBound int, t *timer.Timer) (bestIdx, bestMakespan int)
}

// UsableThreads clamps a requested machine count to the number of
// accumulations in seq: using more machines than there are operations
// that can ever run independently only wastes search effort.
func UsableThreads(seq *jcdp.Sequence, requested int) int {
	n := seq.CountAccumulations()
	if n < 1 {
		n = 1
	}
	if requested < n {
		return requested
	}
	return n
}
