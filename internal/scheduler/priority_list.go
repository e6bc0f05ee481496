package scheduler

import (
	"container/heap"
	"context"

	"jacobianbnb/internal/jcdp"
	"jacobianbnb/internal/timer"
)

// PriorityListScheduler is a single-pass greedy list scheduler: whenever an
// operation becomes eligible (all of its data dependencies are scheduled)
// it is pushed onto a priority queue keyed by (Level descending, FMA
// ascending), and the queue's head is always placed on whichever machine
// lets it start earliest, ties going to the lowest machine index. Each heap
// operation costs O(log L) for a sequence of length L; the Level, Parent
// and EarliestStart lookups each rescan the sequence.
type PriorityListScheduler struct{}

type readyItem struct {
	index int
	level int
	fma   int
}

type readyHeap []readyItem

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(a, b int) bool {
	if h[a].level != h[b].level {
		return h[a].level > h[b].level // higher level (farther from root) first
	}
	return h[a].fma < h[b].fma
}
func (h readyHeap) Swap(a, b int)      { h[a], h[b] = h[b], h[a] }
func (h *readyHeap) Push(x any)        { *h = append(*h, x.(readyItem)) }
func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func predecessors(seq *jcdp.Sequence, i int) []int {
	op := seq.Ops[i]
	var preds []int
	switch op.Action {
	case jcdp.ActionElimination, jcdp.ActionMultiplication:
		if k := producerIndex(seq, i, op.J, op.K+1); k >= 0 {
			preds = append(preds, k)
		}
		if k := producerIndex(seq, i, op.K, op.I); k >= 0 {
			preds = append(preds, k)
		}
	}
	return preds
}

func producerIndex(seq *jcdp.Sequence, until, j, i int) int {
	for k := until - 1; k >= 0; k-- {
		op := seq.Ops[k]
		if (op.Action == jcdp.ActionAccumulation || op.Action == jcdp.ActionElimination) && op.J == j && op.I == i {
			return k
		}
	}
	return -1
}

func (PriorityListScheduler) Schedule(ctx context.Context, seq *jcdp.Sequence, machines int, t *timer.Timer) int {
	n := seq.Len()
	if n == 0 {
		return 0
	}
	if machines < 1 {
		machines = 1
	}
	machines = UsableThreads(seq, machines)

	remaining := make([]int, n)
	for i := 0; i < n; i++ {
		remaining[i] = len(predecessors(seq, i))
	}

	h := &readyHeap{}
	heap.Init(h)
	for i := 0; i < n; i++ {
		if remaining[i] == 0 {
			heap.Push(h, readyItem{index: i, level: seq.Level(i), fma: seq.Ops[i].FMA})
		}
	}

	threadFinish := make([]int, machines)
	scheduled := 0

	for h.Len() > 0 {
		if t != nil && t.Expired() {
			return -1
		}
		if ctx.Err() != nil {
			return -1
		}

		item := heap.Pop(h).(readyItem)
		i := item.index
		op := seq.Ops[i]

		earliest := seq.EarliestStart(i)
		bestM, bestStart := 0, -1
		for m := 0; m < machines; m++ {
			start := threadFinish[m]
			if earliest > start {
				start = earliest
			}
			if bestStart < 0 || start < bestStart {
				bestStart, bestM = start, m
			}
		}

		op.Thread = bestM
		op.StartTime = bestStart
		op.IsScheduled = true
		seq.Ops[i] = op
		threadFinish[bestM] = bestStart + op.FMA
		scheduled++

		if p := seq.Parent(i); p >= 0 {
			remaining[p]--
			if remaining[p] == 0 {
				heap.Push(h, readyItem{index: p, level: seq.Level(p), fma: seq.Ops[p].FMA})
			}
		}
	}

	if scheduled != n {
		return -1
	}
	return seq.Makespan()
}
