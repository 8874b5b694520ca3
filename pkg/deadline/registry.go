package deadline

import (
	"container/heap"
	"sync"
	"time"

	qderrors "github.com/vnykmshr/querydeadline/pkg/common/errors"
)

// Registry is a concurrent collection of armed deadlines ordered by
// expiry. Create one with NewRegistry; the zero value is not usable.
type Registry struct {
	mu       sync.Mutex
	byExpiry expiryHeap
	byID     map[string]*Deadline
	capacity int
}

// NewRegistry creates a Registry holding at most capacity armed
// deadlines. capacity <= 0 means unbounded.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		byID:     make(map[string]*Deadline),
		capacity: capacity,
	}
}

// Add registers an armed deadline. It returns ErrCapacityExceeded when
// the registry is full; the deadline is not registered in that case.
func (r *Registry) Add(d *Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capacity > 0 && len(r.byID) >= r.capacity {
		return qderrors.ErrCapacityExceeded
	}
	r.byID[d.id] = d
	heap.Push(&r.byExpiry, d)
	return nil
}

// Remove disarms and removes the deadline with the given id. It returns
// false when the id is unknown or the deadline already fired, so calling
// Remove twice for the same id is a safe no-op.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	heap.Remove(&r.byExpiry, d.heapIdx)
	return d.Disarm()
}

// PopExpired removes and returns every deadline whose expiry is at or
// before now, transitioning each to Fired. The result is ordered by
// expiry. Cancellation delivery is the caller's job; the registry lock
// is never held around a cancel.
func (r *Registry) PopExpired(now time.Time) []*Deadline {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*Deadline
	for r.byExpiry.Len() > 0 {
		d := r.byExpiry[0]
		if d.expiry.After(now) {
			break
		}
		heap.Pop(&r.byExpiry)
		delete(r.byID, d.id)
		if d.Fire() {
			expired = append(expired, d)
		}
	}
	return expired
}

// NextExpiry returns the earliest expiry among armed deadlines. The
// second return is false when the registry is empty.
func (r *Registry) NextExpiry() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byExpiry.Len() == 0 {
		return time.Time{}, false
	}
	return r.byExpiry[0].expiry, true
}

// Len returns the number of armed deadlines.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Drain disarms and removes every deadline without firing it, returning
// the number disarmed. Used on shutdown so guarded operations keep
// running without their timeouts.
func (r *Registry) Drain() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.byID {
		if d.Disarm() {
			n++
		}
	}
	r.byID = make(map[string]*Deadline)
	for i := range r.byExpiry {
		r.byExpiry[i].heapIdx = -1
		r.byExpiry[i] = nil
	}
	r.byExpiry = r.byExpiry[:0]
	return n
}

// expiryHeap is a min-heap of deadlines keyed by expiry. The earliest
// expiry sits at index 0.
type expiryHeap []*Deadline

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	return h[i].expiry.Before(h[j].expiry)
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *expiryHeap) Push(x interface{}) {
	d := x.(*Deadline)
	d.heapIdx = len(*h)
	*h = append(*h, d)
}

func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	d := old[n-1]
	old[n-1] = nil // allow GC
	d.heapIdx = -1
	*h = old[:n-1]
	return d
}
