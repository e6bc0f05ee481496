// Package bench drives repeated solver runs over generated chains and
// writes the results as CSV, the way internal/bench always has; only the
// domain underneath (chains instead of flowshop instances) and the
// column layout (the batch comparison table of every solver/thread-count
// combination) have changed.
package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"jacobianbnb/internal/dpsolver"
	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/optimizer"
	"jacobianbnb/internal/scheduler"
	"jacobianbnb/internal/timer"
)

// ChainRecord holds one generated chain's results across every thread
// count t in [1, chain.Q], one value per solver/thread-count column.
type ChainRecord struct {
	Length int

	BnBBnBFinished    []bool
	BnBBnB            []int
	BnBBnBGPUFinished []bool
	BnBBnBGPU         []int
	BnBList           []int
	DP                []int
	DPBnB             []int
}

// Runner drives the five-solver comparison pipeline against one chain at
// a time, the batch counterpart to the single-chain "solve" pipeline.
type Runner struct {
	TimeToSolve time.Duration // per-(solver,t) deadline; 0 = no deadline
	Logger      *logrus.Logger
}

// RunChain runs DP, DP+BnB-schedule, BnB-optimizer+list-schedule,
// BnB-optimizer+BnB-schedule and BnB-optimizer+device-schedule against
// chain for every thread count from 1 to chain.Q, and returns one
// ChainRecord holding every column.
func (r Runner) RunChain(ctx context.Context, chain *jcdp.JacobianChain) (ChainRecord, error) {
	q := chain.Q
	rec := ChainRecord{
		Length:            q,
		BnBBnBFinished:    make([]bool, q),
		BnBBnB:            make([]int, q),
		BnBBnBGPUFinished: make([]bool, q),
		BnBBnBGPU:         make([]int, q),
		BnBList:           make([]int, q),
		DP:                make([]int, q),
		DPBnB:             make([]int, q),
	}

	dpSeq, _ := dpsolver.Solver{}.Solve(chain)

	listSched := scheduler.PriorityListScheduler{}
	bnbSched := scheduler.BranchAndBoundScheduler{}
	deviceSched := scheduler.BranchAndBoundSchedulerDevice{}

	for i := 0; i < q; i++ {
		t := i + 1

		scheduleTimer := timer.NewUnbounded(ctx)

		dpListMS := listSched.Schedule(ctx, dpSeq.Clone(), t, scheduleTimer)
		rec.DP[i] = dpListMS

		dpBnBMS := bnbSched.Schedule(ctx, dpSeq.Clone(), t, scheduleTimer)
		rec.DPBnB[i] = dpBnBMS
		scheduleTimer.Stop()

		upperBound := dpListMS
		if dpBnBMS >= 0 && (upperBound < 0 || dpBnBMS < upperBound) {
			upperBound = dpBnBMS
		}

		listOpt := optimizer.NewBranchAndBoundOptimizer(chain, t, upperBound, listSched, r.Logger)
		listOpt.TimeToSolve = r.TimeToSolve
		listRes, err := listOpt.Solve(ctx, chain)
		if err != nil && ctx.Err() != nil {
			return ChainRecord{}, fmt.Errorf("chain length %d, t=%d: %w", q, t, err)
		}
		rec.BnBList[i] = listRes.Makespan

		bnbOpt := optimizer.NewBranchAndBoundOptimizer(chain, t, upperBound, bnbSched, r.Logger)
		bnbOpt.TimeToSolve = r.TimeToSolve
		bnbRes, err := bnbOpt.Solve(ctx, chain)
		if err != nil && ctx.Err() != nil {
			return ChainRecord{}, fmt.Errorf("chain length %d, t=%d: %w", q, t, err)
		}
		rec.BnBBnB[i] = bnbRes.Makespan
		rec.BnBBnBFinished[i] = !bnbRes.TimerExpired

		gpuOpt := optimizer.NewBranchAndBoundOptimizer(chain, t, upperBound, deviceSched, r.Logger)
		gpuOpt.TimeToSolve = r.TimeToSolve
		gpuRes, err := gpuOpt.Solve(ctx, chain)
		if err != nil && ctx.Err() != nil {
			return ChainRecord{}, fmt.Errorf("chain length %d, t=%d: %w", q, t, err)
		}
		rec.BnBBnBGPU[i] = gpuRes.Makespan
		rec.BnBBnBGPUFinished[i] = !gpuRes.TimerExpired
	}

	return rec, nil
}

// WriteCSV writes one row per record to path, with the exact column
// layout batch mode promises: for t in [1..length],
// BnB_BnB/t/finished, BnB_BnB/t, BnB_BnB_GPU/t/finished, BnB_BnB_GPU/t,
// BnB_List/t, DP/t, DP_BnB/t.
func WriteCSV(path string, records []ChainRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("bench: no records to write")
	}
	length := records[0].Length

	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := make([]string, 0, length*7)
	for t := 1; t <= length; t++ {
		ts := strconv.Itoa(t)
		header = append(header,
			"BnB_BnB/"+ts+"/finished", "BnB_BnB/"+ts,
			"BnB_BnB_GPU/"+ts+"/finished", "BnB_BnB_GPU/"+ts,
			"BnB_List/"+ts, "DP/"+ts, "DP_BnB/"+ts,
		)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		if rec.Length != length {
			return fmt.Errorf("bench: record length %d does not match file length %d", rec.Length, length)
		}
		row := make([]string, 0, length*7)
		for i := 0; i < length; i++ {
			row = append(row,
				boolStr(rec.BnBBnBFinished[i]), itoa(rec.BnBBnB[i]),
				boolStr(rec.BnBBnBGPUFinished[i]), itoa(rec.BnBBnBGPU[i]),
				itoa(rec.BnBList[i]), itoa(rec.DP[i]), itoa(rec.DPBnB[i]),
			)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
