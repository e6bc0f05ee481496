// Package generator builds random Jacobian chains from a config.Params,
// the way internal/flowshop.RandomInstance built random flowshop
// instances for the teacher's metaheuristic benchmarks.
package generator

import (
	"math/rand"

	"jacobianbnb/internal/config"
	"jacobianbnb/internal/jcdp"
)

// Chain produces a random chain of params.Length stages, sampling each
// stage's dimension from size_range and each diagonal block's elemental
// DAG edge count from dag_size_range. rng must not be nil: callers are
// expected to seed it explicitly (from params.Seed or a per-run seed in
// batch mode), never to reach for a package-global generator.
func Chain(params config.Params, rng *rand.Rand) *jcdp.JacobianChain {
	if rng == nil {
		panic("generator: rng must not be nil")
	}
	if err := params.Validate(); err != nil {
		panic(err)
	}

	dims := make([]int, params.Length+1)
	for i := range dims {
		dims[i] = intn(rng, params.SizeMin, params.SizeMax)
	}

	edgeCounts := make([]int, params.Length)
	for j := range edgeCounts {
		edgeCounts[j] = intn(rng, params.DAGSizeMin, params.DAGSizeMax)
	}

	chain := jcdp.NewJacobianChain(dims, edgeCounts)
	chain.MatrixFree = params.MatrixFree
	return chain
}

func intn(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
