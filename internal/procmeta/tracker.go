package procmeta

// DefaultMaxTracked is the size past which a Tracker is cleared.
const DefaultMaxTracked = 10000

// Tracker remembers which processes have already been handled.
type Tracker struct {
	known map[Process]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{known: make(map[Process]struct{})}
}

// Observe records p and reports whether it was not seen before (command).
func (t *Tracker) Observe(p Process) bool {
	if _, ok := t.known[p]; ok {
		return false
	}
	t.known[p] = struct{}{}
	return true
}

// Known reports whether p has been observed (query).
func (t *Tracker) Known(p Process) bool {
	_, ok := t.known[p]
	return ok
}

// Len returns the number of tracked processes (query).
func (t *Tracker) Len() int {
	return len(t.known)
}

// Reset forgets every tracked process (command).
func (t *Tracker) Reset() {
	clear(t.known)
}

// Prune resets the tracker once it holds more than limit entries and
// reports whether it did. Still-running processes are captured again after
// a reset.
func (t *Tracker) Prune(limit int) bool {
	if len(t.known) <= limit {
		return false
	}
	t.Reset()
	return true
}
