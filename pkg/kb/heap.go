package kb

import "container/heap"

// evictionEntry is one (priority, id) pair tracked by the eviction heap.
// No library in the retrieval pack's application code (as opposed to an
// unused transitive dependency) supplies a priority min-heap, so this
// uses container/heap directly — see DESIGN.md.
type evictionEntry struct {
	priority float64
	id       string
	index    int // maintained by container/heap, used for O(log n) removal
}

// evictionHeap is a min-heap ordered by priority, lowest first, so that
// popping it always yields the eviction policy's "lowest priority wins
// eviction" choice. It also supports removing an arbitrary entry by id
// (needed when an assertion is retracted directly, not evicted).
type evictionHeap struct {
	entries []*evictionEntry
	byID    map[string]*evictionEntry
}

func newEvictionHeap() *evictionHeap {
	return &evictionHeap{byID: make(map[string]*evictionEntry)}
}

func (h *evictionHeap) Len() int { return len(h.entries) }

func (h *evictionHeap) Less(i, j int) bool {
	if h.entries[i].priority != h.entries[j].priority {
		return h.entries[i].priority < h.entries[j].priority
	}
	return h.entries[i].id < h.entries[j].id
}

func (h *evictionHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].index = i
	h.entries[j].index = j
}

func (h *evictionHeap) Push(x any) {
	e := x.(*evictionEntry)
	e.index = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *evictionHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	h.entries = old[:n-1]
	return e
}

// Insert adds id at priority, keeping the heap invariant.
func (h *evictionHeap) Insert(id string, priority float64) {
	e := &evictionEntry{priority: priority, id: id}
	h.byID[id] = e
	heap.Push(h, e)
}

// Remove deletes id from the heap if present, restoring the invariant.
func (h *evictionHeap) Remove(id string) {
	e, ok := h.byID[id]
	if !ok {
		return
	}
	heap.Remove(h, e.index)
	delete(h.byID, id)
}

// PopLowest removes and returns the id with the lowest priority, or ""
// and false if the heap is empty.
func (h *evictionHeap) PopLowest() (string, bool) {
	if h.Len() == 0 {
		return "", false
	}
	e := heap.Pop(h).(*evictionEntry)
	delete(h.byID, e.id)
	return e.id, true
}
