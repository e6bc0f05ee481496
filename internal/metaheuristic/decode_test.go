package metaheuristic

import (
	"context"
	"testing"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/scheduler"
	"jacobianbnb/internal/timer"
)

func TestBlockCount(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 3, 4: 6}
	for q, want := range cases {
		if got := BlockCount(q); got != want {
			t.Errorf("BlockCount(%d) = %d, want %d", q, got, want)
		}
	}
}

func TestDecodeProducesACompleteSequence(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{2, 3, 2, 4}, []int{3, 4, 2})
	order := []int{0, 1, 2} // one priority slot per off-diagonal block

	seq := Decode(chain, order)

	fresh := jcdp.NewJacobianChain([]int{2, 3, 2, 4}, []int{3, 4, 2})
	for i, op := range seq.Ops {
		if !fresh.Apply(op) {
			t.Fatalf("decoded op %d (%v) failed to apply in order", i, op)
		}
	}
	if !fresh.Block(fresh.Q-1, 0).IsAccumulated {
		t.Error("expected the decoded sequence to fully accumulate the root block")
	}
}

func TestDecodeTwoStageChainYieldsSingleOperation(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{1, 1, 1}, []int{1, 1})
	// q=2 has a single off-diagonal block (1,0): any order decodes to one
	// operation producing it (the cheapest candidate, an elimination).
	seq := Decode(chain, []int{0})
	if seq.Len() != 1 {
		t.Fatalf("Decode() sequence length = %d, want 1", seq.Len())
	}
	if seq.Ops[0].J != 1 || seq.Ops[0].I != 0 {
		t.Errorf("unexpected decoded op %+v", seq.Ops[0])
	}
}

func TestEvaluatorMustMakespanMatchesDirectSchedule(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{2, 3, 2, 4}, []int{3, 4, 2})
	sched := scheduler.BranchAndBoundScheduler{}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	eval := NewEvaluator(chain, 2, sched, context.Background(), tm)
	if eval.N() != BlockCount(chain.Q) {
		t.Errorf("Evaluator.N() = %d, want %d", eval.N(), BlockCount(chain.Q))
	}

	order := []int{2, 1, 0}
	ms := eval.MustMakespan(order)

	seq := Decode(chain, order)
	want := sched.Schedule(context.Background(), seq, 2, tm)
	if ms != want {
		t.Errorf("MustMakespan(order) = %d, want %d (direct schedule of the same decode)", ms, want)
	}
}
