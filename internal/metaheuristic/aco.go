package metaheuristic

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/optimizer"
	"jacobianbnb/internal/scheduler"
)

type ACOConfig struct {
	Iterations       int
	IterationsPerJob int

	Ants int

	Alpha float64
	Beta  float64

	Rho float64
	Q   float64

	Tau0 float64

	CandidateK int
}

func DefaultACOConfig() ACOConfig {
	return ACOConfig{
		IterationsPerJob: 120,
		Ants:             35,
		Alpha:            1.0,
		Beta:             2.0,
		Rho:              0.20,
		Q:                1000.0,
		Tau0:             1.0,
	}
}

func (c ACOConfig) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerJob <= 0 {
		return fmt.Errorf("должно быть задано Iterations > 0 или IterationsPerJob > 0")
	}
	if c.Ants <= 0 {
		return fmt.Errorf("ants должно быть > 0 (получено %d)", c.Ants)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("alpha должно быть >= 0 (получено %f)", c.Alpha)
	}
	if c.Beta < 0 {
		return fmt.Errorf("beta должно быть >= 0 (получено %f)", c.Beta)
	}
	if c.Rho <= 0 || c.Rho >= 1 {
		return fmt.Errorf("rho должно лежать в интервале (0,1) (получено %f)", c.Rho)
	}
	if c.Q <= 0 {
		return fmt.Errorf("Q должно быть > 0 (получено %f)", c.Q)
	}
	if c.Tau0 <= 0 {
		return fmt.Errorf("tau0 должно быть > 0 (получено %f)", c.Tau0)
	}
	if c.CandidateK < 0 {
		return fmt.Errorf("CandidateK должно быть >= 0 (получено %d)", c.CandidateK)
	}
	return nil
}

// ACOSolver — реализация муравьиного алгоритма над пермутацией блоков
// Якобиана. Эвристическая привлекательность блока (eta) берётся обратно
// пропорциональной его дешёвой (tangent) стоимости накопления, вместо
// суммарного времени обработки работы на станках.
type ACOSolver struct {
	Cfg         ACOConfig
	Rng         *rand.Rand
	Machines    int
	Scheduler   scheduler.Scheduler
	TimeToSolve time.Duration
}

func NewACOSolver(cfg ACOConfig, machines int, sched scheduler.Scheduler, rng *rand.Rand) (*ACOSolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler не инициализирован (nil)")
	}
	return &ACOSolver{Cfg: cfg, Rng: rng, Machines: machines, Scheduler: sched}, nil
}

func (s *ACOSolver) Solve(ctx context.Context, chain *jcdp.JacobianChain) (optimizer.Result, error) {
	startTime := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return optimizer.Result{}, err
	}

	base := optimizer.NewBase(s.Machines, 0, s.Scheduler, 0, nil)
	t := base.NewTimer(ctx, s.TimeToSolve)
	defer t.Stop()
	eval := NewEvaluator(chain, s.Machines, s.Scheduler, ctx, t)

	n := eval.N()
	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerJob * n
	}

	ants := s.Cfg.Ants
	if ants < 1 {
		ants = 1
	}

	// eta[idx]: чем дешевле блок накопить напрямую, тем привлекательнее
	// поставить его раньше в очереди.
	eta := make([]float64, n)
	for j := 0; j < chain.Q; j++ {
		for i := 0; i < j; i++ {
			cost := chain.Block(j, i).FMA(jcdp.ModeTangent)
			eta[blockIndex(j, i)] = 1.0 / float64(cost+1)
		}
	}

	tau := make([]float64, (n+1)*n)
	for i := range tau {
		tau[i] = s.Cfg.Tau0
	}

	perm := make([]int, n)
	available := make([]int, n)
	weights := make([]float64, n)

	bestPerm := make([]int, n)
	bestCost := math.MaxInt
	evals := 0

	alpha := s.Cfg.Alpha
	beta := s.Cfg.Beta
	rho := s.Cfg.Rho
	Q := s.Cfg.Q

	iter := 0
	for ; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return finishMeta(chain, bestPerm, bestCost, evals, iter, startTime, map[string]any{"stopped": "context"}), err
		}
		if t.Expired() {
			return finishMeta(chain, bestPerm, bestCost, evals, iter, startTime, map[string]any{"stopped": "timer"}), nil
		}

		iterBestCost := math.MaxInt
		iterBestPerm := make([]int, n)

		for a := 0; a < ants; a++ {
			constructPermutation(n, tau, eta, alpha, beta, s.Cfg.CandidateK, s.Rng, perm, available, weights)

			cost := eval.MustMakespan(perm)
			evals++

			if cost < iterBestCost {
				iterBestCost = cost
				copy(iterBestPerm, perm)
			}
			if cost < bestCost {
				bestCost = cost
				copy(bestPerm, perm)
			}
		}

		ev := 1.0 - rho
		for i := range tau {
			tau[i] *= ev
			if tau[i] < 1e-12 {
				tau[i] = 1e-12
			}
		}

		dep := Q / float64(iterBestCost)
		addPheromonePath(tau, n, iterBestPerm, dep)
	}

	return finishMeta(chain, bestPerm, bestCost, evals, iter, startTime, map[string]any{
		"ants":        ants,
		"alpha":       alpha,
		"beta":        beta,
		"rho":         rho,
		"Q":           Q,
		"tau0":        s.Cfg.Tau0,
		"candidate_k": s.Cfg.CandidateK,
	}), nil
}

func tauIdx(n, from, to int) int {
	return from*n + to
}

// addPheromonePath усиливает феромон вдоль полного пути перестановки,
// от фиктивного старта до последнего блока.
func addPheromonePath(tau []float64, n int, perm []int, delta float64) {
	if len(perm) == 0 {
		return
	}
	start := n
	first := perm[0]
	tau[tauIdx(n, start, first)] += delta
	for i := 0; i < len(perm)-1; i++ {
		from := perm[i]
		to := perm[i+1]
		tau[tauIdx(n, from, to)] += delta
	}
}

// constructPermutation строит одну перестановку блоков: на каждом шаге
// следующий блок выбирается вероятностно по формуле ACO.
func constructPermutation(
	n int,
	tau []float64,
	eta []float64,
	alpha float64,
	beta float64,
	candidateK int,
	rng *rand.Rand,
	outPerm []int,
	available []int,
	weights []float64,
) {
	for i := 0; i < n; i++ {
		available[i] = i
	}
	rem := n
	prev := n

	for pos := 0; pos < n; pos++ {
		k := rem
		if candidateK > 0 && candidateK < rem {
			k = candidateK
			for tpos := 0; tpos < k; tpos++ {
				r := tpos + rng.Intn(rem-tpos)
				available[tpos], available[r] = available[r], available[tpos]
			}
		}

		sumW := 0.0
		for i := 0; i < k; i++ {
			j := available[i]
			tv := tau[tauIdx(n, prev, j)]
			w := fastPow(tv, alpha) * fastPow(eta[j], beta)
			weights[i] = w
			sumW += w
		}

		var chosenIdx int
		if sumW <= 0 {
			chosenIdx = rng.Intn(k)
		} else {
			r := rng.Float64() * sumW
			acc := 0.0
			chosenIdx = k - 1
			for i := 0; i < k; i++ {
				acc += weights[i]
				if r <= acc {
					chosenIdx = i
					break
				}
			}
		}

		item := available[chosenIdx]
		outPerm[pos] = item
		prev = item

		available[chosenIdx], available[rem-1] = available[rem-1], available[chosenIdx]
		rem--
	}
}
