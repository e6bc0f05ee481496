package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jacobianbnb/internal/bench"
	"jacobianbnb/internal/config"
	"jacobianbnb/internal/generator"
)

func init() {
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <config> [prefix]",
	Short: "Generate amount chains and write one CSV of solver comparisons",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := config.Load(args[0])
		if err != nil {
			logger.WithError(err).Error("failed to load config")
			os.Exit(1)
		}
		prefix := "artifacts/batch"
		if len(args) == 2 {
			prefix = args[1]
		}
		if err := runBatch(context.Background(), params, prefix); err != nil {
			logger.WithError(err).Error("batch failed")
			os.Exit(1)
		}
	},
}

// runBatch generates params.Amount chains of params.Length stages and
// writes one CSV with a row per chain, named after prefix, the chain
// length, and a run identifier so concurrent batch invocations never
// collide on output paths.
func runBatch(ctx context.Context, params config.Params, prefix string) error {
	if params.Amount <= 0 {
		return fmt.Errorf("batch: amount must be > 0 (got %d)", params.Amount)
	}

	runner := bench.Runner{
		TimeToSolve: time.Duration(params.TimeToSolve * float64(time.Second)),
		Logger:      logger,
	}

	records := make([]bench.ChainRecord, 0, params.Amount)
	for i := 0; i < params.Amount; i++ {
		rng := rand.New(rand.NewSource(params.Seed + int64(i)))
		chain := generator.Chain(params, rng)

		logger.WithFields(logrus.Fields{"index": i, "length": chain.Q}).Info("batch: running chain")
		rec, err := runner.RunChain(ctx, chain)
		if err != nil {
			return fmt.Errorf("batch: chain %d: %w", i, err)
		}
		records = append(records, rec)
	}

	runID := uuid.New().String()
	path := fmt.Sprintf("%s_len%d_%s.csv", prefix, params.Length, runID)

	if err := bench.WriteCSV(path, records); err != nil {
		return fmt.Errorf("batch: writing csv: %w", err)
	}
	logger.WithField("path", path).Info("batch: wrote csv")
	return nil
}
