package jcdp

import "testing"

func buildSimpleDeviceSequence() *DeviceSequence {
	// accumulate (1,0) and (3,2) directly, then eliminate (3,0) through
	// pivot 1: the elimination's two operands are block (3,2) (=(J,K+1))
	// and block (1,0) (=(K,I)), so both accumulations feed it directly.
	d := DeviceMakeMax()
	d.Push(Operation{Action: ActionAccumulation, Mode: ModeTangent, J: 1, K: -1, I: 0, FMA: 4})
	d.Push(Operation{Action: ActionAccumulation, Mode: ModeTangent, J: 3, K: -1, I: 2, FMA: 5})
	d.Push(Operation{Action: ActionElimination, Mode: ModeTangent, J: 3, K: 1, I: 0, FMA: 6})
	return &d
}

func TestDeviceSequencePushPopCapacity(t *testing.T) {
	d := DeviceMakeMax()
	if d.Length != 0 {
		t.Fatalf("new device sequence should be empty, got len %d", d.Length)
	}
	op := Operation{Action: ActionAccumulation, J: 1, K: -1, I: 0}
	if !d.Push(op) {
		t.Fatal("expected push to succeed under capacity")
	}
	if d.Length != 1 {
		t.Fatalf("expected len 1 after push, got %d", d.Length)
	}
	got := d.Pop()
	if !Equal(got, op) {
		t.Errorf("Pop returned %v, want %v", got, op)
	}
	if d.Length != 0 {
		t.Fatalf("expected len 0 after pop, got %d", d.Length)
	}
}

func TestDeviceSequencePushRespectsCapacity(t *testing.T) {
	d := DeviceMakeMax()
	for i := 0; i < DeviceMaxSequenceLength; i++ {
		if !d.Push(Operation{Action: ActionAccumulation, J: i + 1, K: -1, I: i}) {
			t.Fatalf("push %d should have succeeded under capacity", i)
		}
	}
	if d.Push(Operation{Action: ActionAccumulation, J: 100, K: -1, I: 0}) {
		t.Fatal("push beyond DeviceMaxSequenceLength should fail")
	}
}

func TestDeviceSequenceParentMatchesSequence(t *testing.T) {
	d := buildSimpleDeviceSequence()

	if p := d.Parent(0); p != 2 {
		t.Errorf("Parent(0) = %d, want 2", p)
	}
	if p := d.Parent(1); p != 2 {
		t.Errorf("Parent(1) = %d, want 2", p)
	}
	if p := d.Parent(2); p != -1 {
		t.Errorf("Parent(2) = %d, want -1", p)
	}
}

func TestDeviceSequenceCountAccumulations(t *testing.T) {
	d := buildSimpleDeviceSequence()
	if got, want := d.CountAccumulations(), 2; got != want {
		t.Errorf("CountAccumulations() = %d, want %d", got, want)
	}
}

func TestDeviceSequenceSequentialMakespan(t *testing.T) {
	d := buildSimpleDeviceSequence()
	if got, want := d.SequentialMakespan(), 4+5+6; got != want {
		t.Errorf("SequentialMakespan() = %d, want %d", got, want)
	}
}

func TestDeviceSequenceEarliestStart(t *testing.T) {
	d := buildSimpleDeviceSequence()
	d.Ops[0].IsScheduled = true
	d.Ops[0].StartTime = 0
	d.Ops[1].IsScheduled = true
	d.Ops[1].StartTime = 0

	if got, want := d.EarliestStart(2), 5; got != want {
		t.Errorf("EarliestStart(2) = %d, want %d (max of operand finishes 4 and 5)", got, want)
	}
}

func TestDeviceSequenceIsSchedulableDetectsOverlap(t *testing.T) {
	d := DeviceMakeMax()
	d.Push(Operation{Action: ActionAccumulation, J: 1, K: -1, I: 0, FMA: 4, Thread: 0, StartTime: 0, IsScheduled: true})
	d.Push(Operation{Action: ActionAccumulation, J: 2, K: -1, I: 1, FMA: 5, Thread: 0, StartTime: 2, IsScheduled: true})

	if d.IsSchedulable() {
		t.Fatal("expected overlapping same-thread operations to be flagged unschedulable")
	}
}

func TestDeviceSequenceIsSchedulableRespectsEarliestStart(t *testing.T) {
	d := DeviceMakeMax()
	d.Push(Operation{Action: ActionAccumulation, J: 1, K: -1, I: 0, FMA: 4, Thread: 0, StartTime: 0, IsScheduled: true})
	d.Push(Operation{Action: ActionAccumulation, J: 2, K: -1, I: 1, FMA: 5, Thread: 1, StartTime: 0, IsScheduled: true})
	d.Push(Operation{Action: ActionElimination, J: 2, K: 1, I: 0, FMA: 6, Thread: 0, StartTime: 3, IsScheduled: true})

	if d.IsSchedulable() {
		t.Fatal("expected elimination starting before its operand (1,0) finishes to be flagged unschedulable")
	}

	d.Ops[2].StartTime = 5
	if !d.IsSchedulable() {
		t.Fatal("expected schedule starting after its operand (1,0) finishes to be valid")
	}
}

func TestDeviceSequenceMakespanIgnoresUnscheduledOps(t *testing.T) {
	d := DeviceMakeMax()
	d.Push(Operation{FMA: 100, IsScheduled: false, StartTime: 0})
	d.Push(Operation{FMA: 10, IsScheduled: true, StartTime: 5})
	if got, want := d.Makespan(), 15; got != want {
		t.Errorf("Makespan() = %d, want %d", got, want)
	}
}

func TestDeviceSequenceToSequence(t *testing.T) {
	d := buildSimpleDeviceSequence()
	s := d.ToSequence()
	if s.Len() != d.Length {
		t.Fatalf("ToSequence length = %d, want %d", s.Len(), d.Length)
	}
	for i := 0; i < d.Length; i++ {
		if !Equal(s.Ops[i], d.Ops[i]) {
			t.Errorf("ToSequence op %d = %v, want %v", i, s.Ops[i], d.Ops[i])
		}
	}
}
