package jcdp

import "sort"

// MaxSequenceLength bounds how many operations a Sequence can hold.
const MaxSequenceLength = 1024

// Sequence is an ordered, fixed-capacity list of operations describing one
// candidate bracketing/elimination/scheduling of a Jacobian chain. Every
// query below recomputes its answer from the current Ops slice; Sequence
// caches nothing, so it is always safe to mutate Ops directly and re-query.
type Sequence struct {
	Ops []Operation
}

// NewSequence returns an empty sequence with MaxSequenceLength capacity
// preallocated.
func NewSequence() *Sequence {
	return &Sequence{Ops: make([]Operation, 0, MaxSequenceLength)}
}

// MakeMax returns an empty sequence with capacity q*q*3 preallocated, room
// for the operations of any sequence over a chain of length q.
func MakeMax(q int) *Sequence {
	return &Sequence{Ops: make([]Operation, 0, q*q*3)}
}

func (s *Sequence) Len() int { return len(s.Ops) }

// Push appends op, reporting false if the sequence is already at capacity.
func (s *Sequence) Push(op Operation) bool {
	if len(s.Ops) >= MaxSequenceLength {
		return false
	}
	s.Ops = append(s.Ops, op)
	return true
}

// Pop removes and returns the last operation. It panics on an empty
// sequence: callers only pop what they themselves pushed during backtracking.
func (s *Sequence) Pop() Operation {
	n := len(s.Ops)
	op := s.Ops[n-1]
	s.Ops = s.Ops[:n-1]
	return op
}

func (s *Sequence) Last() Operation {
	return s.Ops[len(s.Ops)-1]
}

func (s *Sequence) Clone() *Sequence {
	c := &Sequence{Ops: make([]Operation, len(s.Ops))}
	copy(c.Ops, s.Ops)
	return c
}

// Parent returns the index of the operation that directly consumes the
// block produced by Ops[i] — the next operation later in the sequence for
// which Precedes(Ops[i], that op) holds — or -1 if Ops[i] produces the
// chain's root block (or is not a producer at all).
func (s *Sequence) Parent(i int) int {
	for k := i + 1; k < len(s.Ops); k++ {
		if Precedes(s.Ops[i], s.Ops[k]) {
			return k
		}
	}
	return -1
}

// Level returns the number of precedence hops from Ops[i] up to the root
// of the chain's elimination in-tree. Operations further from the root
// (higher level) should be prioritized by a list scheduler.
func (s *Sequence) Level(i int) int {
	level := 0
	cur := i
	for {
		p := s.Parent(cur)
		if p < 0 {
			return level
		}
		level++
		cur = p
	}
}

// CriticalPath returns the length of the longest chain of dependent
// operation costs in the sequence: a lower bound on any valid schedule's
// makespan, since these operations must run strictly in sequence.
func (s *Sequence) CriticalPath() int {
	n := len(s.Ops)
	memo := make([]int, n)
	done := make([]bool, n)
	var costToRoot func(i int) int
	costToRoot = func(i int) int {
		if done[i] {
			return memo[i]
		}
		cost := s.Ops[i].FMA
		if p := s.Parent(i); p >= 0 {
			cost += costToRoot(p)
		}
		memo[i] = cost
		done[i] = true
		return cost
	}
	best := 0
	for i := range s.Ops {
		if c := costToRoot(i); c > best {
			best = c
		}
	}
	return best
}

// CountAccumulations returns how many operations in the sequence are
// accumulations.
func (s *Sequence) CountAccumulations() int {
	n := 0
	for _, op := range s.Ops {
		if op.Action == ActionAccumulation {
			n++
		}
	}
	return n
}

// producerFinish returns the finish time of the scheduled operation,
// among Ops[:until], that produces block (j,i), or 0 if no such operation
// exists or it is not yet scheduled (the block is then assumed available
// from the start, as for an un-eliminated elemental Jacobian).
func (s *Sequence) producerFinish(until, j, i int) int {
	for k := until - 1; k >= 0; k-- {
		op := s.Ops[k]
		if (op.Action == ActionAccumulation || op.Action == ActionElimination) && op.J == j && op.I == i {
			if !op.IsScheduled {
				return 0
			}
			return op.StartTime + op.FMA
		}
	}
	return 0
}

// EarliestStart returns the earliest time Ops[i] could start given the
// finish times of the operations that produce the blocks it reads, purely
// from data dependency (ignoring which machine is free when).
func (s *Sequence) EarliestStart(i int) int {
	op := s.Ops[i]
	earliest := 0
	switch op.Action {
	case ActionElimination, ActionMultiplication:
		if f := s.producerFinish(i, op.J, op.K+1); f > earliest {
			earliest = f
		}
		if f := s.producerFinish(i, op.K, op.I); f > earliest {
			earliest = f
		}
	}
	return earliest
}

// SequentialMakespan returns the total FMA cost of every operation in the
// sequence: the makespan of running the whole sequence on a single machine.
func (s *Sequence) SequentialMakespan() int {
	total := 0
	for _, op := range s.Ops {
		total += op.FMA
	}
	return total
}

// Makespan returns the completion time of the last-finishing scheduled
// operation. Unscheduled operations do not contribute.
func (s *Sequence) Makespan() int {
	best := 0
	for _, op := range s.Ops {
		if op.IsScheduled {
			if end := op.StartTime + op.FMA; end > best {
				best = end
			}
		}
	}
	return best
}

// IsSchedulable reports whether every scheduled operation starts no
// earlier than its data dependencies allow, and no two operations
// assigned to the same thread overlap in time.
func (s *Sequence) IsSchedulable() bool {
	for i, op := range s.Ops {
		if !op.IsScheduled {
			continue
		}
		if op.StartTime < s.EarliestStart(i) {
			return false
		}
	}

	byThread := make(map[int][]Operation)
	for _, op := range s.Ops {
		if op.IsScheduled {
			byThread[op.Thread] = append(byThread[op.Thread], op)
		}
	}
	for _, ops := range byThread {
		sort.Slice(ops, func(a, b int) bool { return ops[a].StartTime < ops[b].StartTime })
		for k := 1; k < len(ops); k++ {
			if ops[k].StartTime < ops[k-1].StartTime+ops[k-1].FMA {
				return false
			}
		}
	}
	return true
}
