package metaheuristic

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/optimizer"
	"jacobianbnb/internal/scheduler"
)

// GAConfig задаёт параметры генетического алгоритма.
type GAConfig struct {
	Population     int
	Generations    int
	Elite          int
	TournamentSize int
	CrossoverRate  float64
	MutationRate   float64
}

func DefaultGAConfig() GAConfig {
	return GAConfig{
		Population:     150,
		Generations:    400,
		Elite:          4,
		TournamentSize: 5,
		CrossoverRate:  0.90,
		MutationRate:   0.15,
	}
}

func (c GAConfig) Validate() error {
	if c.Population <= 1 {
		return fmt.Errorf("размер популяции должен быть > 1 (получено %d)", c.Population)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("количество поколений должно быть > 0 (получено %d)", c.Generations)
	}
	if c.Elite < 0 || c.Elite >= c.Population {
		return fmt.Errorf("число элитных особей должно быть в диапазоне [0, population) (получено %d)", c.Elite)
	}
	if c.TournamentSize <= 0 {
		return fmt.Errorf("размер турнира должен быть > 0 (получено %d)", c.TournamentSize)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("вероятность кроссовера должна быть в диапазоне [0,1] (получено %f)", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("вероятность мутации должна быть в диапазоне [0,1] (получено %f)", c.MutationRate)
	}
	return nil
}

// GASolver — реализация генетического алгоритма над пермутацией блоков
// Якобиана, decode'd через Evaluator в полную последовательность.
type GASolver struct {
	Cfg         GAConfig
	Rng         *rand.Rand
	Machines    int
	Scheduler   scheduler.Scheduler
	TimeToSolve time.Duration
}

func NewGASolver(cfg GAConfig, machines int, sched scheduler.Scheduler, rng *rand.Rand) (*GASolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler не инициализирован (nil)")
	}
	return &GASolver{Cfg: cfg, Rng: rng, Machines: machines, Scheduler: sched}, nil
}

// Solve — реализация эвристики.
func (s *GASolver) Solve(ctx context.Context, chain *jcdp.JacobianChain) (optimizer.Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return optimizer.Result{}, err
	}
	if s.Rng == nil {
		return optimizer.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	base := optimizer.NewBase(s.Machines, 0, s.Scheduler, 0, nil)
	t := base.NewTimer(ctx, s.TimeToSolve)
	defer t.Stop()
	eval := NewEvaluator(chain, s.Machines, s.Scheduler, ctx, t)

	n := eval.N()
	popSize := s.Cfg.Population

	makePerms := func() [][]int {
		backing := make([]int, popSize*n)
		perms := make([][]int, popSize)
		for i := 0; i < popSize; i++ {
			perms[i] = backing[i*n : (i+1)*n]
		}
		return perms
	}

	permsA := makePerms()
	permsB := makePerms()
	scoresA := make([]int, popSize)
	scoresB := make([]int, popSize)

	for i := 0; i < popSize; i++ {
		initPermutation(permsA[i])
		shufflePermutation(permsA[i], s.Rng)
		scoresA[i] = eval.MustMakespan(permsA[i])
	}
	evaluations := popSize

	bestPerm := make([]int, n)
	bestMakespan := scoresA[0]
	copy(bestPerm, permsA[0])
	for i := 1; i < popSize; i++ {
		if scoresA[i] < bestMakespan {
			bestMakespan = scoresA[i]
			copy(bestPerm, permsA[i])
		}
	}

	mark := make([]int, n)
	stamp := 1
	scratchChild := make([]int, n)

	idxs := make([]int, popSize)
	for i := range idxs {
		idxs[i] = i
	}

	gen := 0
	for ; gen < s.Cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return finishGA(bestPerm, bestMakespan, evaluations, gen, chain, eval, start, "context"), err
		}
		if t.Expired() {
			return finishGA(bestPerm, bestMakespan, evaluations, gen, chain, eval, start, "timer"), nil
		}

		sort.Slice(idxs, func(i, j int) bool {
			return scoresA[idxs[i]] < scoresA[idxs[j]]
		})

		write := 0
		for e := 0; e < s.Cfg.Elite; e++ {
			src := idxs[e]
			copy(permsB[write], permsA[src])
			scoresB[write] = scoresA[src]
			write++
		}

		for write < popSize {
			p1 := tournamentSelect(scoresA, s.Cfg.TournamentSize, s.Rng)
			p2 := tournamentSelect(scoresA, s.Cfg.TournamentSize, s.Rng)
			if popSize > 1 {
				for p2 == p1 {
					p2 = tournamentSelect(scoresA, s.Cfg.TournamentSize, s.Rng)
				}
			}

			child1 := permsB[write]
			hasSecond := write+1 < popSize
			child2 := scratchChild
			if hasSecond {
				child2 = permsB[write+1]
			}

			if s.Rng.Float64() < s.Cfg.CrossoverRate {
				orderCrossoverOX(permsA[p1], permsA[p2], child1, child2, s.Rng, mark, &stamp)
			} else {
				copy(child1, permsA[p1])
				if hasSecond {
					copy(child2, permsA[p2])
				}
			}

			if s.Rng.Float64() < s.Cfg.MutationRate {
				mutateSwap(child1, s.Rng)
			}
			if hasSecond && s.Rng.Float64() < s.Cfg.MutationRate {
				mutateSwap(child2, s.Rng)
			}

			ms1 := eval.MustMakespan(child1)
			scoresB[write] = ms1
			evaluations++
			if ms1 < bestMakespan {
				bestMakespan = ms1
				copy(bestPerm, child1)
			}
			write++

			if hasSecond {
				ms2 := eval.MustMakespan(child2)
				scoresB[write] = ms2
				evaluations++
				if ms2 < bestMakespan {
					bestMakespan = ms2
					copy(bestPerm, child2)
				}
				write++
			}
		}

		permsA, permsB = permsB, permsA
		scoresA, scoresB = scoresB, scoresA
	}

	res := finishGA(bestPerm, bestMakespan, evaluations, gen, chain, eval, start, "")
	return res, nil
}

func finishGA(bestPerm []int, bestMakespan, evals, gens int, chain *jcdp.JacobianChain, eval *Evaluator, start time.Time, stopped string) optimizer.Result {
	meta := map[string]any{}
	if stopped != "" {
		meta["stopped"] = stopped
	}
	return optimizer.Result{
		Sequence:     Decode(chain, bestPerm),
		Makespan:     bestMakespan,
		LeafsVisited: int64(evals),
		Duration:     time.Since(start),
		TimerExpired: stopped == "timer",
		Meta:         meta,
	}
}
