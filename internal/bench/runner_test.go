package bench

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"jacobianbnb/internal/jcdp"
)

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestRunChainProducesOneRowPerThreadCount(t *testing.T) {
	chain := jcdp.NewJacobianChain([]int{2, 3, 2}, []int{3, 4})
	runner := Runner{Logger: discardLogger()}

	rec, err := runner.RunChain(context.Background(), chain)
	if err != nil {
		t.Fatalf("RunChain returned error: %v", err)
	}
	if rec.Length != chain.Q {
		t.Errorf("rec.Length = %d, want %d", rec.Length, chain.Q)
	}
	for _, col := range [][]int{rec.BnBBnB, rec.BnBBnBGPU, rec.BnBList, rec.DP, rec.DPBnB} {
		if len(col) != chain.Q {
			t.Errorf("expected column length %d, got %d", chain.Q, len(col))
		}
	}
	if len(rec.BnBBnBFinished) != chain.Q || len(rec.BnBBnBGPUFinished) != chain.Q {
		t.Errorf("expected finished-flag columns of length %d", chain.Q)
	}
	for i, ms := range rec.BnBBnB {
		if ms <= 0 {
			t.Errorf("BnBBnB[%d] = %d, want > 0", i, ms)
		}
	}
}

func TestWriteCSVRoundTrips(t *testing.T) {
	records := []ChainRecord{
		{
			Length:            2,
			BnBBnBFinished:    []bool{true, false},
			BnBBnB:            []int{10, 8},
			BnBBnBGPUFinished: []bool{true, true},
			BnBBnBGPU:         []int{11, 9},
			BnBList:           []int{12, 10},
			DP:                []int{13, 11},
			DPBnB:             []int{12, 10},
		},
	}

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	if err := WriteCSV(path, records); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written CSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header row and one data row, got %d lines", len(lines))
	}
	header := lines[0]
	for _, want := range []string{"BnB_BnB/1/finished", "BnB_BnB/1", "BnB_BnB_GPU/1/finished", "BnB_List/1", "DP/1", "DP_BnB/1"} {
		if !strings.Contains(header, want) {
			t.Errorf("header %q missing column %q", header, want)
		}
	}
	if !strings.Contains(lines[1], "10") || !strings.Contains(lines[1], "8") {
		t.Errorf("data row %q missing expected makespan values", lines[1])
	}
}

func TestWriteCSVRejectsEmptyInput(t *testing.T) {
	if err := WriteCSV(filepath.Join(t.TempDir(), "out.csv"), nil); err == nil {
		t.Fatal("expected an error writing an empty record set")
	}
}

func TestWriteCSVRejectsMismatchedLength(t *testing.T) {
	records := []ChainRecord{
		{Length: 2, BnBBnBFinished: []bool{true, true}, BnBBnB: []int{1, 2}, BnBBnBGPUFinished: []bool{true, true}, BnBBnBGPU: []int{1, 2}, BnBList: []int{1, 2}, DP: []int{1, 2}, DPBnB: []int{1, 2}},
		{Length: 3, BnBBnBFinished: []bool{true, true, true}, BnBBnB: []int{1, 2, 3}, BnBBnBGPUFinished: []bool{true, true, true}, BnBBnBGPU: []int{1, 2, 3}, BnBList: []int{1, 2, 3}, DP: []int{1, 2, 3}, DPBnB: []int{1, 2, 3}},
	}
	if err := WriteCSV(filepath.Join(t.TempDir(), "out.csv"), records); err == nil {
		t.Fatal("expected an error when records have mismatched lengths")
	}
}

func TestBoolStr(t *testing.T) {
	if boolStr(true) != "1" {
		t.Errorf("boolStr(true) = %q, want %q", boolStr(true), "1")
	}
	if boolStr(false) != "0" {
		t.Errorf("boolStr(false) = %q, want %q", boolStr(false), "0")
	}
}
