package scheduler

import (
	"context"
	"testing"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/timer"
)

func buildCheapSequence() *jcdp.Sequence {
	s := jcdp.NewSequence()
	s.Push(jcdp.Operation{Action: jcdp.ActionAccumulation, J: 1, K: -1, I: 0, FMA: 1})
	s.Push(jcdp.Operation{Action: jcdp.ActionAccumulation, J: 3, K: -1, I: 2, FMA: 1})
	s.Push(jcdp.Operation{Action: jcdp.ActionElimination, J: 3, K: 1, I: 0, FMA: 1})
	return s
}

func TestBlockScheduleBatchPicksBestOfMany(t *testing.T) {
	cheap := buildCheapSequence()     // critical path 2
	expensive := buildChainSequence() // critical path 11

	bs := BlockScheduler{}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	idx, ms := bs.ScheduleBatch(context.Background(), []*jcdp.Sequence{expensive, cheap}, 2, 1000, tm)
	if idx != 1 {
		t.Errorf("ScheduleBatch() picked index %d, want 1 (the cheaper sequence)", idx)
	}
	if ms != 3 {
		t.Errorf("ScheduleBatch() makespan = %d, want 3", ms)
	}
}

func TestBlockScheduleBatchPrunesAboveUpperBound(t *testing.T) {
	expensive := buildChainSequence() // critical path 11
	bs := BlockScheduler{}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	idx, ms := bs.ScheduleBatch(context.Background(), []*jcdp.Sequence{expensive}, 2, 5, tm)
	if idx != -1 {
		t.Errorf("ScheduleBatch() idx = %d, want -1 (pruned by critical path >= upper bound)", idx)
	}
	if ms != 5 {
		t.Errorf("ScheduleBatch() makespan = %d, want unchanged upper bound 5", ms)
	}
}

func TestBlockScheduleBatchEmptyInput(t *testing.T) {
	bs := BlockScheduler{}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	idx, ms := bs.ScheduleBatch(context.Background(), nil, 2, 42, tm)
	if idx != -1 || ms != 42 {
		t.Errorf("ScheduleBatch() on empty input = (%d, %d), want (-1, 42)", idx, ms)
	}
}

func TestBlockScheduleBatchDefaultsInnerScheduler(t *testing.T) {
	s := buildChainSequence()
	bs := BlockScheduler{} // Inner left nil
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	idx, ms := bs.ScheduleBatch(context.Background(), []*jcdp.Sequence{s}, 2, 1000, tm)
	if idx != 0 || ms != 11 {
		t.Errorf("ScheduleBatch() with nil Inner = (%d, %d), want (0, 11)", idx, ms)
	}
}
