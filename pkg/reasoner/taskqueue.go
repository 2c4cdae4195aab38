package reasoner

import (
	"container/heap"
	"sync"
)

// taskHeap is a max-heap by Task.Priority (highest priority pops first),
// the ordering container/heap's default min-heap must be inverted for.
type taskHeap []Task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].Priority() > h[j].Priority() }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)         { *h = append(*h, x.(Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// TaskQueue is the engine's bounded inference task queue: priority order
// on pop (highest first, per the design), condition-variable-gated
// blocking pop, non-blocking bounded push (a full queue drops the task,
// per the design's "no per-enqueue timeout, excess submissions may be
// dropped by the submitter's policy").
type TaskQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    taskHeap
	capacity int
	closed   bool
}

// NewTaskQueue constructs a TaskQueue bounded at capacity.
func NewTaskQueue(capacity int) *TaskQueue {
	q := &TaskQueue{capacity: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues t, returning false (and dropping it) if the queue is at
// capacity or has been closed.
func (q *TaskQueue) Push(t Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.items) >= q.capacity {
		return false
	}
	heap.Push(&q.items, t)
	q.cond.Signal()
	return true
}

// Pop blocks until a task is available or the queue is closed, returning
// (nil, false) in the latter case once drained.
func (q *TaskQueue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(Task), true
}

// Close stops the queue: every blocked and future Pop returns (nil,
// false) once drained.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len reports the current queue depth.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
