// Package dpsolver provides a fast, non-exhaustive bracketing solver used
// only to seed the outer branch-and-bound search's initial upper bound.
// It is treated as a black box by everything above it: the optimizer
// never inspects the sequence it returns beyond feeding it to a
// scheduler.
package dpsolver

import "jacobianbnb/internal/jcdp"

// Solver computes a contiguous-bracketing sequence for a chain via
// bottom-up dynamic programming, the same structure as matrix-chain
// multiplication: the cost of accumulating block (j,i) is the minimum,
// over every split point between i and j, of the cost of the two
// sub-blocks plus the cost of combining them. Unlike the outer search,
// it never considers non-contiguous combinations and never backtracks,
// so it runs in O(q^3) and is unconditionally fast enough to seed every
// other solver's upper bound.
type Solver struct{}

type cell struct {
	cost  int
	pivot int // -1 => direct accumulation, no elimination pivot
	mode  jcdp.Mode
}

// Solve returns a complete elimination sequence for chain, built bottom-up
// by span length, along with its total FMA cost (the sum of every
// operation's fma, not a scheduled makespan — scheduling is left to a
// Scheduler).
func (Solver) Solve(chain *jcdp.JacobianChain) (*jcdp.Sequence, int) {
	q := chain.Q
	// table[i][j] holds the best way to accumulate block (j,i), for i<=j.
	table := make([][]cell, q)
	for i := range table {
		table[i] = make([]cell, q)
	}

	for j := 0; j < q; j++ {
		table[j][j] = cell{cost: 0, pivot: -1}
	}

	for span := 1; span < q; span++ {
		for i := 0; i+span < q; i++ {
			j := i + span
			target := chain.Block(j, i)

			best := cell{cost: -1}
			for _, mode := range [2]jcdp.Mode{jcdp.ModeTangent, jcdp.ModeAdjoint} {
				c := target.FMA(mode)
				if best.cost < 0 || c < best.cost {
					best = cell{cost: c, pivot: -1, mode: mode}
				}
			}

			for k := i; k < j; k++ {
				left := chain.Block(j, k+1)
				right := chain.Block(k, i)
				subCost := table[k+1][j].cost + table[i][k].cost

				tangentCost := subCost + left.FMADirections(jcdp.ModeTangent, right.N)
				if tangentCost < best.cost {
					best = cell{cost: tangentCost, pivot: k, mode: jcdp.ModeTangent}
				}
				adjointCost := subCost + right.FMADirections(jcdp.ModeAdjoint, left.M)
				if adjointCost < best.cost {
					best = cell{cost: adjointCost, pivot: k, mode: jcdp.ModeAdjoint}
				}
			}

			table[i][j] = best
		}
	}

	seq := jcdp.NewSequence()
	emit(chain, table, q-1, 0, seq)
	return seq, table[0][q-1].cost
}

// emit walks the DP table's choices for block (j,i) in post-order
// (children before parents, the only order a precedence-respecting
// sequence can be built in) and appends the resulting operations to seq.
func emit(chain *jcdp.JacobianChain, table [][]cell, j, i int, seq *jcdp.Sequence) {
	if i == j {
		return
	}
	c := table[i][j]
	if c.pivot < 0 {
		seq.Push(jcdp.Operation{
			Action: jcdp.ActionAccumulation,
			Mode:   c.mode,
			J:      j, K: -1, I: i,
			FMA: c.cost,
		})
		return
	}

	k := c.pivot
	emit(chain, table, j, k+1, seq)
	emit(chain, table, k, i, seq)

	left := chain.Block(j, k+1)
	right := chain.Block(k, i)
	var fma int
	if c.mode == jcdp.ModeTangent {
		fma = left.FMADirections(jcdp.ModeTangent, right.N)
	} else {
		fma = right.FMADirections(jcdp.ModeAdjoint, left.M)
	}
	seq.Push(jcdp.Operation{
		Action: jcdp.ActionElimination,
		Mode:   c.mode,
		J:      j, K: k, I: i,
		FMA: fma,
	})
}
