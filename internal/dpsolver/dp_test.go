package dpsolver

import (
	"testing"

	"jacobianbnb/internal/jcdp"
)

func TestSolveTwoStageChainIsDirectAccumulation(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{2, 2, 2}, []int{3, 4})
	seq, cost := Solver{}.Solve(chain)

	if seq.Len() != 1 {
		t.Fatalf("Solve() sequence length = %d, want 1", seq.Len())
	}
	op := seq.Ops[0]
	if op.Action != jcdp.ActionAccumulation || op.J != 1 || op.I != 0 {
		t.Errorf("unexpected single operation %+v", op)
	}
	if cost != op.FMA {
		t.Errorf("total cost %d should equal the single operation's FMA %d", cost, op.FMA)
	}
}

func TestSolveSequenceIsPrecedenceOrdered(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{2, 2, 2, 2, 2}, []int{3, 4, 2, 5})
	seq, _ := Solver{}.Solve(chain)

	if seq.Len() == 0 {
		t.Fatal("expected a non-empty sequence for a 4-stage chain")
	}
	for i, op := range seq.Ops {
		for k := i + 1; k < seq.Len(); k++ {
			if jcdp.Precedes(seq.Ops[k], op) {
				t.Errorf("op %d (%v) appears before its producer op %d (%v)", i, op, k, seq.Ops[k])
			}
		}
	}
}

func TestSolveAppliesCleanlyToAFreshChain(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{2, 3, 2, 4}, []int{3, 4, 2})
	seq, _ := Solver{}.Solve(chain)

	fresh := jcdp.NewJacobianChain([]int{2, 3, 2, 4}, []int{3, 4, 2})
	for i, op := range seq.Ops {
		if !fresh.Apply(op) {
			t.Fatalf("operation %d (%v) failed to apply against a fresh chain in sequence order", i, op)
		}
	}
	root := fresh.Block(fresh.Q-1, 0)
	if !root.IsAccumulated {
		t.Error("expected the root block to be accumulated after applying the whole DP sequence")
	}
}

func TestSolveCostNeverExceedsDirectAccumulation(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{2, 3, 2, 4}, []int{3, 4, 2})
	_, cost := Solver{}.Solve(chain)

	root := chain.Block(chain.Q-1, 0)
	directCost := root.FMA(jcdp.ModeTangent)
	if adj := root.FMA(jcdp.ModeAdjoint); adj < directCost {
		directCost = adj
	}
	if cost > directCost {
		t.Errorf("DP cost %d should never exceed direct accumulation cost %d", cost, directCost)
	}
}
