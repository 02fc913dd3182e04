// Package history keeps the rolling log of served tracks.
package history

import (
	"sync"

	"github.com/osa030/blindtest/internal/domain/history"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 10

// Log is a process-wide, most-recent-first log of served tracks.
type Log struct {
	mu       sync.RWMutex
	entries  []history.Entry
	capacity int
}

// NewLog creates a new history log holding at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]history.Entry, 0, capacity),
		capacity: capacity,
	}
}

// Record prepends entry, evicting the oldest entry on overflow.
func (l *Log) Record(entry history.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, history.Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
}

// List returns a copy of the entries, newest first.
func (l *Log) List() []history.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]history.Entry, len(l.entries))
	copy(result, l.entries)
	return result
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
