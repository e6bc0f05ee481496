package scheduler

import (
	"context"
	"testing"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/timer"
)

func TestDeviceScheduleMatchesCPUMakespan(t *testing.T) {
	s := buildChainSequence()
	sched := BranchAndBoundSchedulerDevice{}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	ms := sched.Schedule(context.Background(), s, 2, tm)
	if ms != 11 {
		t.Errorf("device Schedule() makespan = %d, want 11", ms)
	}
	if !s.IsSchedulable() {
		t.Error("resulting schedule should be internally consistent")
	}
}

func TestDeviceScheduleRejectsOversizedSequence(t *testing.T) {
	s := jcdp.NewSequence()
	for i := 0; i < jcdp.DeviceMaxSequenceLength+1; i++ {
		s.Push(jcdp.Operation{Action: jcdp.ActionAccumulation, J: i + 1, K: -1, I: i, FMA: 1})
	}
	sched := BranchAndBoundSchedulerDevice{}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	if ms := sched.Schedule(context.Background(), s, 4, tm); ms != -1 {
		t.Errorf("Schedule() of an oversized sequence = %d, want -1", ms)
	}
}

func TestDeviceScheduleEmptySequence(t *testing.T) {
	s := jcdp.NewSequence()
	sched := BranchAndBoundSchedulerDevice{}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	if ms := sched.Schedule(context.Background(), s, 2, tm); ms != 0 {
		t.Errorf("Schedule() of empty sequence = %d, want 0", ms)
	}
}

func TestDeviceScheduleRespectsPassBudget(t *testing.T) {
	s := buildChainSequence()
	sched := BranchAndBoundSchedulerDevice{PassBudget: 1}
	tm := timer.NewUnbounded(context.Background())
	defer tm.Stop()

	if ms := sched.Schedule(context.Background(), s, 2, tm); ms != -1 {
		t.Errorf("Schedule() with a tiny pass budget = %d, want -1 (budget exhausted)", ms)
	}
}
