package metaheuristic

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/optimizer"
	"jacobianbnb/internal/scheduler"
)

// tsMaxInt используется как бесконечность для стоимостей.
const tsMaxInt = int(^uint(0) >> 1)

// TSNeighborhood определяет тип окрестности для поиска с запретами.
type TSNeighborhood string

const (
	TSNeighborhoodInsert TSNeighborhood = "insert"
	TSNeighborhoodSwap   TSNeighborhood = "swap"
)

type TSConfig struct {
	Iterations       int
	IterationsPerJob int

	TabuTenure     int
	TabuTenureRand int

	NeighborsPerIter int

	Neighborhood TSNeighborhood
}

func DefaultTSConfig() TSConfig {
	return TSConfig{
		IterationsPerJob: 250,
		TabuTenure:       7,
		TabuTenureRand:   3,
		NeighborsPerIter: 90,
		Neighborhood:     TSNeighborhoodInsert,
	}
}

func (c TSConfig) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerJob <= 0 {
		return fmt.Errorf("должно быть задано Iterations > 0 или IterationsPerJob > 0")
	}
	if c.TabuTenure <= 0 {
		return fmt.Errorf("TabuTenure должно быть > 0 (получено %d)", c.TabuTenure)
	}
	if c.TabuTenureRand < 0 {
		return fmt.Errorf("TabuTenureRand должно быть >= 0 (получено %d)", c.TabuTenureRand)
	}
	if c.NeighborsPerIter <= 0 {
		return fmt.Errorf("NeighborsPerIter должно быть > 0 (получено %d)", c.NeighborsPerIter)
	}
	switch c.Neighborhood {
	case TSNeighborhoodInsert, TSNeighborhoodSwap:
	default:
		return fmt.Errorf("неизвестный тип окрестности %q", c.Neighborhood)
	}
	return nil
}

// TSSolver — реализация поиска с запретами (tabu search) над пермутацией
// блоков Якобиана.
type TSSolver struct {
	Cfg         TSConfig
	Rng         *rand.Rand
	Machines    int
	Scheduler   scheduler.Scheduler
	TimeToSolve time.Duration
}

func NewTSSolver(cfg TSConfig, machines int, sched scheduler.Scheduler, rng *rand.Rand) (*TSSolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler не инициализирован (nil)")
	}
	return &TSSolver{Cfg: cfg, Rng: rng, Machines: machines, Scheduler: sched}, nil
}

func (s *TSSolver) Solve(ctx context.Context, chain *jcdp.JacobianChain) (optimizer.Result, error) {
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
	evals := 1

	best := make([]int, n)
	copy(best, curr)
	bestCost := currCost

	tabu := newTabuList(max(32, (s.Cfg.TabuTenure+s.Cfg.TabuTenureRand)*4))

	neighbors := s.Cfg.NeighborsPerIter
	if neighbors < 1 {
		neighbors = 1
	}

	iter := 0
	for ; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return finishMeta(chain, best, bestCost, evals, iter, start, map[string]any{"stopped": "context"}), err
		}
		if t.Expired() {
			return finishMeta(chain, best, bestCost, evals, iter, start, map[string]any{"stopped": "timer"}), nil
		}

		bestMoveFrom, bestMoveTo := -1, -1
		bestMoveCost := tsMaxInt
		bestMoveItem := -1

		fallbackFrom, fallbackTo := -1, -1
		fallbackCost := tsMaxInt
		fallbackItem := -1

		for k := 0; k < neighbors; k++ {
			from := s.Rng.Intn(n)
			to := s.Rng.Intn(n - 1)
			if to >= from {
				to++
			}

			item := curr[from]
			key := moveKey(item, from, to)

			copy(cand, curr)
			switch s.Cfg.Neighborhood {
			case TSNeighborhoodSwap:
				applySwap(cand, from, to)
			default:
				applyInsert(cand, from, to)
			}

			cost := eval.MustMakespan(cand)
			evals++

			if cost < fallbackCost {
				fallbackCost = cost
				fallbackFrom, fallbackTo = from, to
				fallbackItem = item
			}

			isTabu := tabu.IsTabu(key, iter)
			aspiration := cost < bestCost

			if isTabu && !aspiration {
				continue
			}

			if cost < bestMoveCost {
				bestMoveCost = cost
				bestMoveFrom, bestMoveTo = from, to
				bestMoveItem = item
			}
		}

		chosenFrom, chosenTo := bestMoveFrom, bestMoveTo
		chosenCost := bestMoveCost
		chosenItem := bestMoveItem

		if chosenFrom < 0 {
			chosenFrom, chosenTo = fallbackFrom, fallbackTo
			chosenCost = fallbackCost
			chosenItem = fallbackItem
		}

		if chosenFrom < 0 {
			break
		}

		switch s.Cfg.Neighborhood {
		case TSNeighborhoodSwap:
			applySwap(curr, chosenFrom, chosenTo)
		default:
			applyInsert(curr, chosenFrom, chosenTo)
		}
		currCost = chosenCost

		tenure := s.Cfg.TabuTenure
		if s.Cfg.TabuTenureRand > 0 {
			tenure += s.Rng.Intn(s.Cfg.TabuTenureRand + 1)
		}
		reverseKey := moveKey(chosenItem, chosenTo, chosenFrom)
		tabu.Add(reverseKey, iter+tenure)

		if currCost < bestCost {
			bestCost = currCost
			copy(best, curr)
		}
	}

	return finishMeta(chain, best, bestCost, evals, iter, start, map[string]any{
		"tabu_tenure":        s.Cfg.TabuTenure,
		"tabu_tenure_rand":   s.Cfg.TabuTenureRand,
		"neighbors_per_iter": s.Cfg.NeighborsPerIter,
		"neighborhood":       string(s.Cfg.Neighborhood),
	}), nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
