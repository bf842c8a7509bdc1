package search

import (
	"container/heap"
	"errors"
)

// ErrEmptyQueue is returned by Pop when no active entries remain.
var ErrEmptyQueue = errors.New("priority queue is empty")

// Key identifies a queued vertex: its node id and the graph generation it
// belongs to.
type Key struct {
	ID         int
	Generation uint64
}

// entry is one heap slot. Removed entries stay in the heap until popped.
type entry struct {
	key      Key
	priority float64
	seq      uint64
	removed  bool
	index    int
}

// entryHeap implements heap.Interface ordered by priority, then insertion order.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x interface{}) {
	item := x.(*entry)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // for safety
	*h = old[0 : n-1]
	return item
}

// PriorityQueue is a min-priority queue with lazy deletion. Updating a key
// invalidates its previous entry instead of reordering the heap.
type PriorityQueue struct {
	entries entryHeap
	active  map[Key]*entry
	seq     uint64
}

// NewPriorityQueue creates an empty queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{active: make(map[Key]*entry)}
}

// AddOrUpdate queues key with priority, replacing any active entry for it.
func (pq *PriorityQueue) AddOrUpdate(key Key, priority float64) {
	pq.Remove(key)
	e := &entry{key: key, priority: priority, seq: pq.seq}
	pq.seq++
	pq.active[key] = e
	heap.Push(&pq.entries, e)
}

// Remove invalidates the active entry for key. It reports whether one existed.
func (pq *PriorityQueue) Remove(key Key) bool {
	e, ok := pq.active[key]
	if !ok {
		return false
	}
	e.removed = true
	delete(pq.active, key)
	return true
}

// Pop removes and returns the active key with the lowest priority. Equal
// priorities pop in insertion order.
func (pq *PriorityQueue) Pop() (Key, error) {
	for pq.entries.Len() > 0 {
		e := heap.Pop(&pq.entries).(*entry)
		if e.removed {
			continue
		}
		delete(pq.active, e.key)
		return e.key, nil
	}
	return Key{}, ErrEmptyQueue
}

// Contains reports whether key has an active entry.
func (pq *PriorityQueue) Contains(key Key) bool {
	_, ok := pq.active[key]
	return ok
}

// Len returns the number of active entries.
func (pq *PriorityQueue) Len() int {
	return len(pq.active)
}

// IsEmpty reports whether no active entries remain.
func (pq *PriorityQueue) IsEmpty() bool {
	return len(pq.active) == 0
}
