// Package history keeps the session-lifetime conversation record.
package history

import (
	"sync"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// Compile-time interface check.
var _ domain.EntryLog = (*Log)(nil)

// Log is an append-only, in-memory chat entry record. Entries are never
// mutated or removed once appended. Safe for concurrent access.
//
// Subscribers registered with OnAppend are invoked synchronously after
// each append, outside the lock; the view uses this to refresh itself.
type Log struct {
	mu      sync.RWMutex
	entries []domain.Entry
	subs    []func(domain.Entry)
	log     *logger.Logger
}

// NewLog creates an empty conversation record.
func NewLog(log *logger.Logger) *Log {
	return &Log{log: log}
}

// OnAppend registers a callback fired after every append. Not safe to
// call concurrently with Append; register subscribers during wiring.
func (l *Log) OnAppend(fn func(domain.Entry)) {
	l.subs = append(l.subs, fn)
}

// Append records a new entry at the end of the log.
func (l *Log) Append(e domain.Entry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	n := len(l.entries)
	l.mu.Unlock()

	l.log.Debug("history: appended %s entry #%d (%d chars)", e.Sender, n, len(e.Text))

	for _, fn := range l.subs {
		fn(e)
	}
}

// Entries returns a snapshot of all entries in arrival order.
func (l *Log) Entries() []domain.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
