package jcdp

import "sort"

// DeviceMaxSequenceLength bounds DeviceSequence: a much smaller cap than
// MaxSequenceLength so the iterative device scheduler (C6) can keep the
// operations it searches over in a fixed array. See DESIGN.md for why 40
// was chosen over the original's test-only constant.
const DeviceMaxSequenceLength = 40

// DeviceSequence is the fixed-array twin of Sequence used by the device
// scheduler. Semantics of
// every query match Sequence exactly; only the storage differs.
type DeviceSequence struct {
	Ops    [DeviceMaxSequenceLength]Operation
	Length int
}

// DeviceMakeMax returns an empty DeviceSequence; the name mirrors
// Sequence.MakeMax for parity with the CPU scheduler's API.
func DeviceMakeMax() DeviceSequence {
	return DeviceSequence{}
}

func (d *DeviceSequence) Push(op Operation) bool {
	if d.Length >= DeviceMaxSequenceLength {
		return false
	}
	d.Ops[d.Length] = op
	d.Length++
	return true
}

func (d *DeviceSequence) Pop() Operation {
	d.Length--
	return d.Ops[d.Length]
}

func (d *DeviceSequence) slice() []Operation {
	return d.Ops[:d.Length]
}

func (d *DeviceSequence) Parent(i int) int {
	for k := i + 1; k < d.Length; k++ {
		if Precedes(d.Ops[i], d.Ops[k]) {
			return k
		}
	}
	return -1
}

func (d *DeviceSequence) producerFinish(until, j, i int) int {
	for k := until - 1; k >= 0; k-- {
		op := d.Ops[k]
		if (op.Action == ActionAccumulation || op.Action == ActionElimination) && op.J == j && op.I == i {
			if !op.IsScheduled {
				return 0
			}
			return op.StartTime + op.FMA
		}
	}
	return 0
}

func (d *DeviceSequence) EarliestStart(i int) int {
	op := d.Ops[i]
	earliest := 0
	switch op.Action {
	case ActionElimination, ActionMultiplication:
		if f := d.producerFinish(i, op.J, op.K+1); f > earliest {
			earliest = f
		}
		if f := d.producerFinish(i, op.K, op.I); f > earliest {
			earliest = f
		}
	}
	return earliest
}

func (d *DeviceSequence) SequentialMakespan() int {
	total := 0
	for _, op := range d.slice() {
		total += op.FMA
	}
	return total
}

func (d *DeviceSequence) CountAccumulations() int {
	n := 0
	for _, op := range d.slice() {
		if op.Action == ActionAccumulation {
			n++
		}
	}
	return n
}

func (d *DeviceSequence) Makespan() int {
	best := 0
	for _, op := range d.slice() {
		if op.IsScheduled {
			if end := op.StartTime + op.FMA; end > best {
				best = end
			}
		}
	}
	return best
}

func (d *DeviceSequence) IsSchedulable() bool {
	for i := 0; i < d.Length; i++ {
		op := d.Ops[i]
		if !op.IsScheduled {
			continue
		}
		if op.StartTime < d.EarliestStart(i) {
			return false
		}
	}
	byThread := make(map[int][]Operation)
	for i := 0; i < d.Length; i++ {
		if d.Ops[i].IsScheduled {
			byThread[d.Ops[i].Thread] = append(byThread[d.Ops[i].Thread], d.Ops[i])
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

// ToSequence copies a DeviceSequence into a heap-backed Sequence for
// callers (tests, CLI output) that want the richer type.
func (d *DeviceSequence) ToSequence() *Sequence {
	s := NewSequence()
	s.Ops = append(s.Ops, d.slice()...)
	return s
}
