package metaheuristic

import (
	"context"
	"math/rand"
	"testing"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/scheduler"
)

func smokeChain() *jcdp.JacobianChain {
	return jcdp.NewJacobianChain([]int{2, 3, 2, 4}, []int{3, 4, 2})
}

func TestGASolverSmoke(t *testing.T) {
	cfg := DefaultGAConfig()
	cfg.Population = 8
	cfg.Generations = 5
	cfg.Elite = 1
	cfg.TournamentSize = 3

	s, err := NewGASolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewGASolver returned error: %v", err)
	}
	chain := smokeChain()
	res, err := s.Solve(context.Background(), chain)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.Sequence == nil || res.Makespan <= 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !res.Sequence.IsSchedulable() {
		t.Error("GA result sequence should be internally consistent")
	}
}

func TestGASolverRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultGAConfig()
	cfg.Population = 1
	if _, err := NewGASolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for Population <= 1")
	}
}

func TestGASolverRejectsNilRngAndScheduler(t *testing.T) {
	cfg := DefaultGAConfig()
	if _, err := NewGASolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, nil); err == nil {
		t.Fatal("expected an error for a nil rng")
	}
	if _, err := NewGASolver(cfg, 2, nil, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for a nil scheduler")
	}
}

func TestSASolverSmoke(t *testing.T) {
	cfg := DefaultSAConfig()
	cfg.Iterations = 20
	cfg.IterationsPerJob = 0

	s, err := NewSASolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("NewSASolver returned error: %v", err)
	}
	res, err := s.Solve(context.Background(), smokeChain())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.Sequence == nil || res.Makespan <= 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSASolverRejectsInvertedTemperatures(t *testing.T) {
	cfg := DefaultSAConfig()
	cfg.InitialTemp = 1
	cfg.FinalTemp = 2
	if _, err := NewSASolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error when FinalTemp >= InitialTemp")
	}
}

func TestTSSolverSmoke(t *testing.T) {
	cfg := DefaultTSConfig()
	cfg.Iterations = 10
	cfg.IterationsPerJob = 0
	cfg.NeighborsPerIter = 6

	s, err := NewTSSolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("NewTSSolver returned error: %v", err)
	}
	res, err := s.Solve(context.Background(), smokeChain())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.Sequence == nil || res.Makespan <= 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestTSSolverRejectsUnknownNeighborhood(t *testing.T) {
	cfg := DefaultTSConfig()
	cfg.Neighborhood = "bogus"
	if _, err := NewTSSolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for an unknown neighborhood")
	}
}

func TestACOSolverSmoke(t *testing.T) {
	cfg := DefaultACOConfig()
	cfg.Iterations = 5
	cfg.IterationsPerJob = 0
	cfg.Ants = 4

	s, err := NewACOSolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("NewACOSolver returned error: %v", err)
	}
	res, err := s.Solve(context.Background(), smokeChain())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.Sequence == nil || res.Makespan <= 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestACOSolverRejectsZeroAnts(t *testing.T) {
	cfg := DefaultACOConfig()
	cfg.Ants = 0
	if _, err := NewACOSolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for Ants <= 0")
	}
}

func TestPSOSolverSmoke(t *testing.T) {
	cfg := DefaultPSOConfig()
	cfg.Iterations = 5
	cfg.IterationsPerJob = 0
	cfg.Particles = 6

	s, err := NewPSOSolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("NewPSOSolver returned error: %v", err)
	}
	res, err := s.Solve(context.Background(), smokeChain())
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if res.Sequence == nil || res.Makespan <= 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPSOSolverRejectsInvertedPositionBounds(t *testing.T) {
	cfg := DefaultPSOConfig()
	cfg.PosMin = 1
	cfg.PosMax = 0
	if _, err := NewPSOSolver(cfg, 2, scheduler.BranchAndBoundScheduler{}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected an error for PosMin >= PosMax")
	}
}
