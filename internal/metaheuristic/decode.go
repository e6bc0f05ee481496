package metaheuristic

import (
	"context"
	"math"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/scheduler"
	"jacobianbnb/internal/timer"
)

// BlockCount returns the number of off-diagonal blocks in a chain of
// length q: the permutation length every solver in this package searches
// over, one priority slot per block that needs accumulating.
func BlockCount(q int) int { return q * (q - 1) / 2 }

// blockIndex maps an off-diagonal block (j,i), i<j, to its canonical
// position in a length-BlockCount(q) permutation. The mapping does not
// depend on chain state, so a permutation keeps the same meaning across
// the whole search.
func blockIndex(j, i int) int {
	return j*(j-1)/2 + i
}

// Decode greedily builds a complete elimination sequence for chain: at
// each step it looks at every operation currently eligible against the
// chain's block state, and picks the one whose target block ranks
// highest in order (lowest index = highest priority), breaking ties by
// cheapest fma. This is the priority-list scheduling idea from
// internal/scheduler applied to pick the bracketing itself rather than
// just the machine assignment.
func Decode(chain *jcdp.JacobianChain, order []int) *jcdp.Sequence {
	rank := make([]int, len(order))
	for pos, idx := range order {
		rank[idx] = pos
	}

	c := chain.Clone()
	seq := jcdp.NewSequence()

	for {
		root := c.Block(c.Q-1, 0)
		if root.IsAccumulated {
			break
		}

		var best jcdp.Operation
		haveBest := false
		bestRank := -1

		for j := 0; j < c.Q; j++ {
			for i := 0; i < j; i++ {
				target := c.Block(j, i)
				if target.IsAccumulated {
					continue
				}
				r := rank[blockIndex(j, i)]

				for _, op := range accumulationCandidates(c, j, i) {
					if !haveBest || r < bestRank || (r == bestRank && op.FMA < best.FMA) {
						best, bestRank, haveBest = op, r, true
					}
				}
				for _, op := range eliminationCandidates(c, j, i) {
					if !haveBest || r < bestRank || (r == bestRank && op.FMA < best.FMA) {
						best, bestRank, haveBest = op, r, true
					}
				}
			}
		}

		if !haveBest {
			// Every remaining block is waiting on an operand that is not
			// yet accumulated and has no eligible pivot either; this
			// cannot happen for a well-formed chain, since the diagonal
			// is always accumulated and every span reduces to adjacent
			// pairs, but guard against looping forever regardless.
			break
		}

		c.Apply(best)
		seq.Push(best)
	}

	return seq
}

func accumulationCandidates(c *jcdp.JacobianChain, j, i int) []jcdp.Operation {
	target := c.Block(j, i)
	return []jcdp.Operation{
		{Action: jcdp.ActionAccumulation, Mode: jcdp.ModeTangent, J: j, K: -1, I: i, FMA: target.FMA(jcdp.ModeTangent)},
		{Action: jcdp.ActionAccumulation, Mode: jcdp.ModeAdjoint, J: j, K: -1, I: i, FMA: target.FMA(jcdp.ModeAdjoint)},
	}
}

func eliminationCandidates(c *jcdp.JacobianChain, j, i int) []jcdp.Operation {
	var ops []jcdp.Operation
	for k := i; k < j; k++ {
		left := c.Block(j, k+1)
		right := c.Block(k, i)
		if !left.IsAccumulated || !right.IsAccumulated {
			continue
		}
		ops = append(ops,
			jcdp.Operation{Action: jcdp.ActionElimination, Mode: jcdp.ModeTangent, J: j, K: k, I: i, FMA: left.FMADirections(jcdp.ModeTangent, right.N)},
			jcdp.Operation{Action: jcdp.ActionElimination, Mode: jcdp.ModeAdjoint, J: j, K: k, I: i, FMA: right.FMADirections(jcdp.ModeAdjoint, left.M)},
		)
	}
	return ops
}

// Evaluator decodes a permutation into a sequence and schedules it,
// mirroring flowshop.Evaluator.MustMakespan's role as the single fitness
// function every solver below calls once per candidate.
type Evaluator struct {
	chain    *jcdp.JacobianChain
	machines int
	sched    scheduler.Scheduler
	ctx      context.Context
	timer    *timer.Timer
}

// NewEvaluator binds one chain, machine count and scheduler to one
// search run's context and timer.
func NewEvaluator(chain *jcdp.JacobianChain, machines int, sched scheduler.Scheduler, ctx context.Context, t *timer.Timer) *Evaluator {
	return &Evaluator{chain: chain, machines: machines, sched: sched, ctx: ctx, timer: t}
}

// N is the permutation length this evaluator's chain requires.
func (e *Evaluator) N() int { return BlockCount(e.chain.Q) }

// MustMakespan decodes order and schedules it, returning math.MaxInt32
// if the scheduler could not produce a complete schedule (deadline
// exceeded or capacity overflow) rather than propagating an error, since
// every caller here treats makespan as a plain fitness value.
func (e *Evaluator) MustMakespan(order []int) int {
	seq := Decode(e.chain, order)
	ms := e.sched.Schedule(e.ctx, seq, e.machines, e.timer)
	if ms < 0 {
		return math.MaxInt32
	}
	return ms
}
