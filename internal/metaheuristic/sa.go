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

// SANeighborhood определяет тип окрестности для имитации отжига.
type SANeighborhood string

const (
	SANeighborhoodSwap   SANeighborhood = "swap"
	SANeighborhoodInsert SANeighborhood = "insert"
)

type SAConfig struct {
	Iterations       int
	IterationsPerJob int

	InitialTemp float64
	FinalTemp   float64
	Alpha       float64

	Neighborhood SANeighborhood
}

func DefaultSAConfig() SAConfig {
	return SAConfig{
		IterationsPerJob: 2500,
		InitialTemp:      2000.0,
		FinalTemp:        0.5,
		Alpha:            0.995,
		Neighborhood:     SANeighborhoodSwap,
	}
}

func (c SAConfig) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerJob <= 0 {
		return fmt.Errorf("должно быть задано Iterations > 0 или IterationsPerJob > 0")
	}
	if c.InitialTemp <= 0 {
		return fmt.Errorf("InitialTemp должно быть > 0 (получено %f)", c.InitialTemp)
	}
	if c.FinalTemp <= 0 {
		return fmt.Errorf("FinalTemp должно быть > 0 (получено %f)", c.FinalTemp)
	}
	if c.FinalTemp >= c.InitialTemp {
		return fmt.Errorf("FinalTemp должно быть < InitialTemp (получено %f >= %f)", c.FinalTemp, c.InitialTemp)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("alpha должно лежать в интервале (0,1) (получено %f)", c.Alpha)
	}
	switch c.Neighborhood {
	case SANeighborhoodSwap, SANeighborhoodInsert:
	default:
		return fmt.Errorf("неизвестный тип окрестности %q", c.Neighborhood)
	}
	return nil
}

// SASolver — реализация алгоритма имитации отжига над пермутацией блоков
// Якобиана.
type SASolver struct {
	Cfg         SAConfig
	Rng         *rand.Rand
	Machines    int
	Scheduler   scheduler.Scheduler
	TimeToSolve time.Duration
}

func NewSASolver(cfg SAConfig, machines int, sched scheduler.Scheduler, rng *rand.Rand) (*SASolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler не инициализирован (nil)")
	}
	return &SASolver{Cfg: cfg, Rng: rng, Machines: machines, Scheduler: sched}, nil
}

func (s *SASolver) Solve(ctx context.Context, chain *jcdp.JacobianChain) (optimizer.Result, error) {
	start := time.Now()

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

	curr := make([]int, n)
	cand := make([]int, n)

	initPermutation(curr)
	shufflePermutation(curr, s.Rng)

	currCost := eval.MustMakespan(curr)
	bestCost := currCost
	best := make([]int, n)
	copy(best, curr)

	evals := 1
	T := s.Cfg.InitialTemp

	iter := 0
	for ; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		if err := ctx.Err(); err != nil {
			return finishMeta(chain, best, bestCost, evals, iter, start, map[string]any{"stopped": "context", "T": T}), err
		}
		if t.Expired() {
			return finishMeta(chain, best, bestCost, evals, iter, start, map[string]any{"stopped": "timer", "T": T}), nil
		}

		copy(cand, curr)
		switch s.Cfg.Neighborhood {
		case SANeighborhoodInsert:
			neighborInsert(cand, s.Rng)
		default:
			neighborSwap(cand, s.Rng)
		}

		candCost := eval.MustMakespan(cand)
		evals++

		delta := candCost - currCost
		accept := false
		if delta <= 0 {
			accept = true
		} else {
			p := math.Exp(-float64(delta) / T)
			if s.Rng.Float64() < p {
				accept = true
			}
		}

		if accept {
			curr, cand = cand, curr
			currCost = candCost
			if currCost < bestCost {
				bestCost = currCost
				copy(best, curr)
			}
		}

		T *= s.Cfg.Alpha
	}

	return finishMeta(chain, best, bestCost, evals, iter, start, map[string]any{
		"initial_temp": s.Cfg.InitialTemp,
		"final_temp":   s.Cfg.FinalTemp,
		"alpha":        s.Cfg.Alpha,
		"neighborhood": string(s.Cfg.Neighborhood),
	}), nil
}

func finishMeta(chain *jcdp.JacobianChain, bestPerm []int, bestMakespan, evals, iters int, start time.Time, meta map[string]any) optimizer.Result {
	return optimizer.Result{
		Sequence:     Decode(chain, bestPerm),
		Makespan:     bestMakespan,
		LeafsVisited: int64(evals),
		Duration:     time.Since(start),
		TimerExpired: meta["stopped"] == "timer",
		Meta:         meta,
	}
}
