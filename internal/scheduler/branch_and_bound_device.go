package scheduler

import (
	"context"
	"math"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/timer"
)

// DefaultPassBudget bounds the number of state-machine transitions the
// device scheduler will take before giving up, standing in for the
// original's wall-clock deadline: a SIMT-style device has no convenient
// way to poll a clock mid-kernel, so progress is bounded by an iteration
// count instead.
const DefaultPassBudget = 2_000_000

// deviceFrame is one level of the explicit search stack the device
// scheduler uses in place of call-stack recursion.
type deviceFrame struct {
	readyIdx    int
	machine     int
	seenEmpty   bool
	parent      int
	savedFinish int
}

type deviceState uint8

const (
	stateDescend deviceState = iota
	stateRevertThread
	stateRevertOp
	stateRevertDepth
	stateDone
)

// BranchAndBoundSchedulerDevice is the non-recursive, fixed-stack
// reformulation of BranchAndBoundScheduler: the same search, expressed as
// an explicit DESCEND/REVERT_THREAD/REVERT_OP/REVERT_DEPTH state machine
// over a jcdp.DeviceSequence and a fixed-size frame stack, so the search
// loop itself runs without call-stack recursion, in the shape needed for
// offload to a SIMT-style device. Per-call setup (remaining-predecessor
// counts, machine finish times, the critical path) still allocates.
type BranchAndBoundSchedulerDevice struct {
	PassBudget int // 0 => DefaultPassBudget
}

// Schedule implements Scheduler by staging seq into a fixed-capacity
// DeviceSequence, running the device search, and copying the result back.
// It returns -1 (device offload failure) if the sequence is too long for
// the device's fixed capacity, or if the pass budget ran out (or ctx was
// cancelled) before a complete schedule was found.
func (s BranchAndBoundSchedulerDevice) Schedule(ctx context.Context, seq *jcdp.Sequence, machines int, t *timer.Timer) int {
	if seq.Len() > jcdp.DeviceMaxSequenceLength {
		return -1
	}
	var d jcdp.DeviceSequence
	d.Length = seq.Len()
	copy(d.Ops[:d.Length], seq.Ops)

	makespan, notRunOnDevice := s.scheduleDevice(ctx, &d, machines)
	if notRunOnDevice || makespan < 0 {
		return -1
	}
	copy(seq.Ops, d.Ops[:d.Length])
	return makespan
}

func devicePredecessors(d *jcdp.DeviceSequence, i int) []int {
	op := d.Ops[i]
	var preds []int
	switch op.Action {
	case jcdp.ActionElimination, jcdp.ActionMultiplication:
		if k := deviceProducerIndex(d, i, op.J, op.K+1); k >= 0 {
			preds = append(preds, k)
		}
		if k := deviceProducerIndex(d, i, op.K, op.I); k >= 0 {
			preds = append(preds, k)
		}
	}
	return preds
}

func deviceProducerIndex(d *jcdp.DeviceSequence, until, j, i int) int {
	for k := until - 1; k >= 0; k-- {
		op := d.Ops[k]
		if (op.Action == jcdp.ActionAccumulation || op.Action == jcdp.ActionElimination) && op.J == j && op.I == i {
			return k
		}
	}
	return -1
}

// scheduleDevice runs the iterative search. notRunOnDevice is true exactly
// when the pass budget was exhausted or ctx was cancelled: the depth-0
// frame overflowing its
// machine list on its own transitions cleanly to stateDone instead
// (that infinite-loop failure mode is deliberately not reproduced here).
func (s BranchAndBoundSchedulerDevice) scheduleDevice(ctx context.Context, d *jcdp.DeviceSequence, machines int) (makespan int, notRunOnDevice bool) {
	machines = deviceUsableThreads(d, machines)
	n := d.Length
	if n == 0 {
		return 0, false
	}

	budget := s.PassBudget
	if budget <= 0 {
		budget = DefaultPassBudget
	}

	remaining := make([]int, n)
	for i := 0; i < n; i++ {
		remaining[i] = len(devicePredecessors(d, i))
	}

	threadFinish := make([]int, machines)
	seqMakespan := d.SequentialMakespan()
	critPath := deviceCriticalPath(d)
	scheduledWork := 0

	var stack [jcdp.DeviceMaxSequenceLength]deviceFrame
	depth := 0
	state := stateDescend

	best := math.MaxInt
	var bestOps jcdp.DeviceSequence
	found := false

	undo := func(f deviceFrame) {
		if f.parent >= 0 {
			remaining[f.parent]++
		}
		scheduledWork -= d.Ops[f.readyIdx].FMA
		threadFinish[f.machine] = f.savedFinish
		op := d.Ops[f.readyIdx]
		op.IsScheduled = false
		d.Ops[f.readyIdx] = op
	}

	for iter := 0; state != stateDone; iter++ {
		if iter >= budget {
			return -1, true
		}
		if iter%1024 == 0 && ctx.Err() != nil {
			return -1, true
		}

		switch state {
		case stateDescend:
			if depth == n {
				if ms := d.Makespan(); ms < best {
					best = ms
					bestOps = *d
					found = true
				}
				state = stateRevertOp
				continue
			}

			lb := lowerBound(threadFinish, machines, seqMakespan, scheduledWork, critPath)
			if lb >= best {
				state = stateRevertDepth
				continue
			}

			readyIdx := -1
			for i := 0; i < n; i++ {
				if !d.Ops[i].IsScheduled && remaining[i] == 0 {
					readyIdx = i
					break
				}
			}
			if readyIdx < 0 {
				state = stateRevertDepth
				continue
			}

			stack[depth] = deviceFrame{readyIdx: readyIdx, machine: -1}
			state = stateRevertThread

		case stateRevertThread:
			f := &stack[depth]
			f.machine++
			for f.machine < machines {
				if threadFinish[f.machine] == 0 {
					if f.seenEmpty {
						f.machine++
						continue
					}
					f.seenEmpty = true
				}
				break
			}
			if f.machine >= machines {
				state = stateRevertDepth
				continue
			}

			op := d.Ops[f.readyIdx]
			earliest := d.EarliestStart(f.readyIdx)
			start := threadFinish[f.machine]
			if earliest > start {
				start = earliest
			}
			f.savedFinish = threadFinish[f.machine]
			f.parent = d.Parent(f.readyIdx)

			scheduled := op
			scheduled.Thread = f.machine
			scheduled.StartTime = start
			scheduled.IsScheduled = true
			d.Ops[f.readyIdx] = scheduled

			threadFinish[f.machine] = start + op.FMA
			scheduledWork += op.FMA
			if f.parent >= 0 {
				remaining[f.parent]--
			}

			depth++
			state = stateDescend

		case stateRevertOp:
			depth--
			undo(stack[depth])
			state = stateRevertThread

		case stateRevertDepth:
			if depth == 0 {
				state = stateDone
				continue
			}
			depth--
			undo(stack[depth])
			state = stateRevertThread
		}
	}

	if !found {
		return -1, false
	}
	*d = bestOps
	return best, false
}

func deviceUsableThreads(d *jcdp.DeviceSequence, requested int) int {
	n := d.CountAccumulations()
	if n < 1 {
		n = 1
	}
	if requested < n {
		return requested
	}
	return n
}

func deviceCriticalPath(d *jcdp.DeviceSequence) int {
	n := d.Length
	memo := make([]int, n)
	done := make([]bool, n)
	var costToRoot func(i int) int
	costToRoot = func(i int) int {
		if done[i] {
			return memo[i]
		}
		cost := d.Ops[i].FMA
		if p := d.Parent(i); p >= 0 {
			cost += costToRoot(p)
		}
		memo[i] = cost
		done[i] = true
		return cost
	}
	best := 0
	for i := 0; i < n; i++ {
		if c := costToRoot(i); c > best {
			best = c
		}
	}
	return best
}
