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

type PSOConfig struct {
	Iterations       int
	IterationsPerJob int

	Particles int

	W  float64
	C1 float64
	C2 float64

	VMax float64

	PosMin float64
	PosMax float64
}

func DefaultPSOConfig() PSOConfig {
	return PSOConfig{
		IterationsPerJob: 180,
		Particles:        60,
		W:                0.729,
		C1:               1.49445,
		C2:               1.49445,
		VMax:             0.25,
		PosMin:           0.0,
		PosMax:           1.0,
	}
}

func (c PSOConfig) Validate() error {
	if c.Iterations <= 0 && c.IterationsPerJob <= 0 {
		return fmt.Errorf("должно быть задано Iterations > 0 или IterationsPerJob > 0")
	}
	if c.Particles <= 0 {
		return fmt.Errorf("Particles должно быть > 0 (получено %d)", c.Particles)
	}
	if c.W < 0 {
		return fmt.Errorf("W должно быть >= 0 (получено %f)", c.W)
	}
	if c.C1 < 0 || c.C2 < 0 {
		return fmt.Errorf("C1 и C2 должны быть >= 0 (получено %f, %f)", c.C1, c.C2)
	}
	if c.PosMin >= c.PosMax {
		if !(c.PosMin == 0 && c.PosMax == 0) {
			return fmt.Errorf("для ограничения PosMin должно быть < PosMax (получено %f >= %f)", c.PosMin, c.PosMax)
		}
	}
	return nil
}

// psoParticle описывает одну частицу роя: позиция/скорость в R^n, декодируемые
// в перестановку блоков через decodeRandomKeys.
type psoParticle struct {
	pos []float64
	vel []float64

	pBestPos  []float64
	pBestCost int

	permScratch []int
	idxScratch  []int
}

// PSOSolver — реализация алгоритма роя частиц над пермутацией блоков
// Якобиана (позиция частицы — вектор random-keys, decode'd в перестановку).
type PSOSolver struct {
	Cfg         PSOConfig
	Rng         *rand.Rand
	Machines    int
	Scheduler   scheduler.Scheduler
	TimeToSolve time.Duration
}

func NewPSOSolver(cfg PSOConfig, machines int, sched scheduler.Scheduler, rng *rand.Rand) (*PSOSolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	if sched == nil {
		return nil, fmt.Errorf("scheduler не инициализирован (nil)")
	}
	return &PSOSolver{Cfg: cfg, Rng: rng, Machines: machines, Scheduler: sched}, nil
}

func (s *PSOSolver) Solve(ctx context.Context, chain *jcdp.JacobianChain) (optimizer.Result, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return optimizer.Result{}, err
	}

	base := optimizer.NewBase(s.Machines, 0, s.Scheduler, 0, nil)
	t := base.NewTimer(ctx, s.TimeToSolve)
	defer t.Stop()
	eval := NewEvaluator(chain, s.Machines, s.Scheduler, ctx, t)

	n := eval.N()
	iters := s.Cfg.Iterations
	if iters <= 0 {
		iters = s.Cfg.IterationsPerJob * n
	}

	ps := make([]psoParticle, s.Cfg.Particles)
	for i := range ps {
		ps[i] = psoParticle{
			pos:         make([]float64, n),
			vel:         make([]float64, n),
			pBestPos:    make([]float64, n),
			pBestCost:   math.MaxInt,
			permScratch: make([]int, n),
			idxScratch:  make([]int, n),
		}
	}

	posMin, posMax := s.Cfg.PosMin, s.Cfg.PosMax
	doPosClamp := posMin < posMax

	for i := range ps {
		for d := 0; d < n; d++ {
			if doPosClamp {
				ps[i].pos[d] = posMin + s.Rng.Float64()*(posMax-posMin)
			} else {
				ps[i].pos[d] = s.Rng.Float64()
			}
			if s.Cfg.VMax > 0 {
				ps[i].vel[d] = (s.Rng.Float64()*2 - 1) * s.Cfg.VMax
			} else {
				ps[i].vel[d] = (s.Rng.Float64()*2 - 1) * 0.1
			}
		}

		decodeRandomKeys(ps[i].pos, ps[i].permScratch, ps[i].idxScratch)
		cost := eval.MustMakespan(ps[i].permScratch)

		ps[i].pBestCost = cost
		copy(ps[i].pBestPos, ps[i].pos)
	}

	evals := s.Cfg.Particles

	gBestPos := make([]float64, n)
	gBestPerm := make([]int, n)
	gBestCost := math.MaxInt

	for i := range ps {
		if ps[i].pBestCost < gBestCost {
			gBestCost = ps[i].pBestCost
			copy(gBestPos, ps[i].pBestPos)
			decodeRandomKeys(gBestPos, gBestPerm, make([]int, n))
		}
	}

	w, c1, c2 := s.Cfg.W, s.Cfg.C1, s.Cfg.C2
	vMax := s.Cfg.VMax

	iter := 0
	for ; iter < iters; iter++ {
		if err := ctx.Err(); err != nil {
			return finishMeta(chain, gBestPerm, gBestCost, evals, iter, start, map[string]any{"stopped": "context"}), err
		}
		if t.Expired() {
			return finishMeta(chain, gBestPerm, gBestCost, evals, iter, start, map[string]any{"stopped": "timer"}), nil
		}

		for i := range ps {
			p := &ps[i]

			for d := 0; d < n; d++ {
				r1 := s.Rng.Float64()
				r2 := s.Rng.Float64()

				v := w*p.vel[d] +
					c1*r1*(p.pBestPos[d]-p.pos[d]) +
					c2*r2*(gBestPos[d]-p.pos[d])

				if vMax > 0 {
					if v > vMax {
						v = vMax
					} else if v < -vMax {
						v = -vMax
					}
				}
				p.vel[d] = v

				x := p.pos[d] + v
				if doPosClamp {
					if x < posMin {
						x = posMin
						p.vel[d] = 0
					} else if x > posMax {
						x = posMax
						p.vel[d] = 0
					}
				}
				p.pos[d] = x
			}

			decodeRandomKeys(p.pos, p.permScratch, p.idxScratch)
			cost := eval.MustMakespan(p.permScratch)
			evals++

			if cost < p.pBestCost {
				p.pBestCost = cost
				copy(p.pBestPos, p.pos)
			}

			if cost < gBestCost {
				gBestCost = cost
				copy(gBestPos, p.pos)
				copy(gBestPerm, p.permScratch)
			}
		}
	}

	return finishMeta(chain, gBestPerm, gBestCost, evals, iter, start, map[string]any{
		"particles": s.Cfg.Particles,
		"w":         w,
		"c1":        c1,
		"c2":        c2,
		"vmax":      vMax,
		"pos_min":   posMin,
		"pos_max":   posMax,
	}), nil
}

