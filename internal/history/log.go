package history

import "sync"

// DefaultCapacity bounds the in-memory log. Large enough that a session
// of fallback activity never evicts within a test run, small enough to
// cap memory in long-lived embeddings.
const DefaultCapacity = 1024

// Log is a bounded in-memory append-only event log. When capacity is
// exceeded the oldest events are evicted first.
//
// Thread-safety: all methods are safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	events   []Event
	capacity int
}

// NewLog creates a log holding at most capacity events. A non-positive
// capacity selects DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Record appends an event, evicting the oldest if the log is full.
func (l *Log) Record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, e)
	if len(l.events) > l.capacity {
		overflow := len(l.events) - l.capacity
		l.events = append(l.events[:0], l.events[overflow:]...)
	}
}

// Stats folds the current log into its aggregate view.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Stats
	for _, e := range l.events {
		s.fold(e)
	}
	return s
}

// Recent returns up to limit events, most recent first. A non-positive
// limit returns everything.
func (l *Log) Recent(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.events)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Event, limit)
	for i := 0; i < limit; i++ {
		out[i] = l.events[n-1-i]
	}
	return out
}

// Len returns the number of resident events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
