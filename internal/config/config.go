// Package config parses the line-oriented key-value configuration format
// used by the jcdp CLI: one directive per line, "key v1 v2 ...".
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Params holds one chain-generation/solve configuration.
type Params struct {
	Length        int // q, the chain length
	SizeMin       int
	SizeMax       int
	DAGSizeMin    int
	DAGSizeMax    int
	Threads       int
	Memory        int
	MatrixFree    bool
	TimeToSolve   float64 // seconds; 0 => no deadline
	Seed          int64
	Amount        int // number of chains for batch mode
}

// Validate mirrors the Config.Validate() convention used throughout the
// teacher's metaheuristic solvers: return a descriptive error instead of
// panicking on bad input from outside the program.
func (p Params) Validate() error {
	if p.Length <= 0 {
		return fmt.Errorf("length must be > 0 (got %d)", p.Length)
	}
	if p.SizeMin <= 0 || p.SizeMax < p.SizeMin {
		return fmt.Errorf("size_range must be 0 < lo <= hi (got %d %d)", p.SizeMin, p.SizeMax)
	}
	if p.DAGSizeMin <= 0 || p.DAGSizeMax < p.DAGSizeMin {
		return fmt.Errorf("dag_size_range must be 0 < lo <= hi (got %d %d)", p.DAGSizeMin, p.DAGSizeMax)
	}
	if p.Threads <= 0 {
		return fmt.Errorf("available_threads must be > 0 (got %d)", p.Threads)
	}
	if p.Memory < 0 {
		return fmt.Errorf("available_memory must be >= 0 (got %d)", p.Memory)
	}
	if p.TimeToSolve < 0 {
		return fmt.Errorf("time_to_solve must be >= 0 (got %f)", p.TimeToSolve)
	}
	if p.Amount < 0 {
		return fmt.Errorf("amount must be >= 0 (got %d)", p.Amount)
	}
	return nil
}

// Load reads a Params from path.
func Load(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("opening config %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads key-value directives from r into a Params.
func Parse(r io.Reader) (Params, error) {
	p := Params{Amount: 1}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		key := fields[0]
		args := fields[1:]

		var err error
		switch key {
		case "length":
			p.Length, err = intArg(args, 0)
		case "size_range":
			p.SizeMin, err = intArg(args, 0)
			if err == nil {
				p.SizeMax, err = intArg(args, 1)
			}
		case "dag_size_range":
			p.DAGSizeMin, err = intArg(args, 0)
			if err == nil {
				p.DAGSizeMax, err = intArg(args, 1)
			}
		case "available_threads":
			p.Threads, err = intArg(args, 0)
		case "available_memory":
			p.Memory, err = intArg(args, 0)
		case "matrix_free":
			var v int
			v, err = intArg(args, 0)
			p.MatrixFree = v != 0
		case "time_to_solve":
			p.TimeToSolve, err = floatArg(args, 0)
		case "seed":
			var v int
			v, err = intArg(args, 0)
			p.Seed = int64(v)
		case "amount":
			p.Amount, err = intArg(args, 0)
		default:
			return Params{}, fmt.Errorf("config line %d: unknown key %q", lineNo, key)
		}
		if err != nil {
			return Params{}, fmt.Errorf("config line %d (%s): %w", lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Params{}, fmt.Errorf("reading config: %w", err)
	}
	return p, nil
}

func intArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	return strconv.Atoi(args[i])
}

func floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	return strconv.ParseFloat(args[i], 64)
}
