// Package seq discards out-of-order responses: each request takes a ticket
// for its query key and only the holder of the latest ticket may apply its
// result.
package seq

import "sync"

// Ticket identifies one dispatched request.
type Ticket struct {
	key string
	n   uint64
}

// Tracker issues monotonically increasing tickets per query key.
type Tracker struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]uint64)}
}

// Begin records a new request for key and returns its ticket.
func (t *Tracker) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest[key]++
	return Ticket{key: key, n: t.latest[key]}
}

// IsLatest reports whether no newer request for the same key was dispatched
// after tk.
func (t *Tracker) IsLatest(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest[tk.key] == tk.n
}

// Apply runs fn while holding the tracker lock if tk is still the latest
// ticket, so no newer result can be applied in between. It reports whether
// fn ran.
func (t *Tracker) Apply(tk Ticket, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[tk.key] != tk.n {
		return false
	}
	fn()
	return true
}
