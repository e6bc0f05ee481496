package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jacobianbnb/internal/config"
	"jacobianbnb/internal/dot"
	"jacobianbnb/internal/dpsolver"
	"jacobianbnb/internal/generator"
	"jacobianbnb/internal/optimizer"
	"jacobianbnb/internal/scheduler"
	"jacobianbnb/internal/timer"
)

var (
	solveDotPath string
	solveBlock   bool
)

func init() {
	solveCmd.Flags().StringVar(&solveDotPath, "dot", "", "write the best BnB+BnB sequence's precedence tree to this DOT file")
	solveCmd.Flags().BoolVar(&solveBlock, "block", false, "also run the block/batch optimizer variant (buffers leaves, schedules them as one batch)")
	rootCmd.AddCommand(solveCmd)
}

var solveCmd = &cobra.Command{
	Use:   "solve <config>",
	Short: "Generate one chain and run every solver combination against it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := config.Load(args[0])
		if err != nil {
			logger.WithError(err).Error("failed to load config")
			os.Exit(1)
		}
		if err := runSolve(context.Background(), params); err != nil {
			logger.WithError(err).Error("solve failed")
			os.Exit(1)
		}
	},
}

// runSolve runs the five combinations the original tool always prints:
// DP alone, DP scheduled with the list and with the branch-and-bound
// scheduler, and the full outer search with each of the list and
// branch-and-bound schedulers seeded from DP's bound. It then runs the
// outer search with the device scheduler and, with --block, the
// block/batch optimizer.
func runSolve(ctx context.Context, params config.Params) error {
	rng := rand.New(rand.NewSource(params.Seed))
	chain := generator.Chain(params, rng)

	timeToSolve := time.Duration(params.TimeToSolve * float64(time.Second))

	dp := dpsolver.Solver{}
	listSched := scheduler.PriorityListScheduler{}
	bnbSched := scheduler.BranchAndBoundScheduler{}
	deviceSched := scheduler.BranchAndBoundSchedulerDevice{}

	start := time.Now()
	dpSeq, dpFMA := dp.Solve(chain)
	logger.WithFields(logrus.Fields{
		"makespan": dpFMA,
		"duration": time.Since(start),
	}).Info("DP")

	t := timer.NewUnbounded(ctx)
	start = time.Now()
	dpListMS := listSched.Schedule(ctx, dpSeq.Clone(), params.Threads, t)
	logger.WithFields(logrus.Fields{
		"makespan": dpListMS,
		"duration": time.Since(start),
	}).Info("DP+List")

	start = time.Now()
	dpBnBMS := bnbSched.Schedule(ctx, dpSeq.Clone(), params.Threads, t)
	t.Stop()
	logger.WithFields(logrus.Fields{
		"makespan": dpBnBMS,
		"duration": time.Since(start),
	}).Info("DP+BnB")

	upperBound := dpListMS
	if dpBnBMS >= 0 && (upperBound < 0 || dpBnBMS < upperBound) {
		upperBound = dpBnBMS
	}

	listOpt := optimizer.NewBranchAndBoundOptimizer(chain, params.Threads, upperBound, listSched, logger)
	listOpt.TimeToSolve = timeToSolve
	start = time.Now()
	listRes, err := listOpt.Solve(ctx, chain)
	if err != nil {
		return fmt.Errorf("BnB+List: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"makespan":      listRes.Makespan,
		"duration":      time.Since(start),
		"timer_expired": listRes.TimerExpired,
	}).Info("BnB+List")
	listOpt.PrintStats()

	bnbOpt := optimizer.NewBranchAndBoundOptimizer(chain, params.Threads, upperBound, bnbSched, logger)
	bnbOpt.TimeToSolve = timeToSolve
	start = time.Now()
	bnbRes, err := bnbOpt.Solve(ctx, chain)
	if err != nil {
		return fmt.Errorf("BnB+BnB: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"makespan":      bnbRes.Makespan,
		"duration":      time.Since(start),
		"timer_expired": bnbRes.TimerExpired,
	}).Info("BnB+BnB")
	bnbOpt.PrintStats()

	if solveDotPath != "" && bnbRes.Sequence != nil {
		if err := dot.Write(bnbRes.Sequence, solveDotPath); err != nil {
			return fmt.Errorf("writing DOT file: %w", err)
		}
		logger.WithField("path", solveDotPath).Info("wrote DOT file")
	}

	gpuOpt := optimizer.NewBranchAndBoundOptimizer(chain, params.Threads, upperBound, deviceSched, logger)
	gpuOpt.TimeToSolve = timeToSolve
	start = time.Now()
	gpuRes, err := gpuOpt.Solve(ctx, chain)
	if err != nil {
		return fmt.Errorf("BnB+BnB_GPU: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"makespan":      gpuRes.Makespan,
		"duration":      time.Since(start),
		"timer_expired": gpuRes.TimerExpired,
	}).Info("BnB+BnB_GPU")
	gpuOpt.PrintStats()

	if solveBlock {
		blockOpt := optimizer.NewBlockOptimizer(chain, params.Threads, upperBound, scheduler.BlockScheduler{Inner: bnbSched}, logger)
		blockOpt.TimeToSolve = timeToSolve
		start = time.Now()
		blockRes, err := blockOpt.Solve(ctx, chain)
		if err != nil {
			return fmt.Errorf("BnB+Block: %w", err)
		}
		logger.WithFields(logrus.Fields{
			"makespan":      blockRes.Makespan,
			"duration":      time.Since(start),
			"timer_expired": blockRes.TimerExpired,
		}).Info("BnB+Block")
		blockOpt.PrintStats()
	}

	return nil
}
