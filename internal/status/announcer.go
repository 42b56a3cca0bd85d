// Package status manages the single-slot transient status notice.
package status

import (
	"sync"
	"time"

	"github.com/echomind-ai/echomind/internal/domain"
	"github.com/echomind-ai/echomind/internal/logger"
)

// Compile-time interface check.
var _ domain.Announcer = (*Announcer)(nil)

// RenderFunc receives the notice to display, or nil when the slot is
// cleared. Implementations must be safe to call from any goroutine.
type RenderFunc func(n *domain.Notice)

// Option configures the Announcer.
type Option func(*Announcer)

// WithTTL sets how long informational notices stay before self-expiring.
func WithTTL(d time.Duration) Option {
	return func(a *Announcer) { a.ttl = d }
}

// Announcer owns the one live status notice. Announcing replaces any
// existing notice immediately; informational notices expire on their
// own, while listening and error notices persist until replaced or
// cleared by the next lifecycle transition.
type Announcer struct {
	render RenderFunc
	log    *logger.Logger
	ttl    time.Duration

	mu      sync.Mutex
	current *domain.Notice
	seq     uint64 // bumped on every change so stale expiries are ignored
}

// New creates an announcer that pushes updates through render.
func New(render RenderFunc, log *logger.Logger, opts ...Option) *Announcer {
	a := &Announcer{
		render: render,
		log:    log,
		ttl:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Announce replaces the live notice with a new one.
func (a *Announcer) Announce(message string, severity domain.Severity) {
	n := &domain.Notice{Message: message, Severity: severity}

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.current = n
	a.mu.Unlock()

	a.log.Debug("status: %s notice: %s", severity, message)
	a.render(n)

	if severity == domain.SeverityInfo {
		time.AfterFunc(a.ttl, func() { a.expire(seq) })
	}
}

// Clear removes the live notice, if any.
func (a *Announcer) Clear() {
	a.mu.Lock()
	had := a.current != nil
	a.seq++
	a.current = nil
	a.mu.Unlock()

	if had {
		a.log.Debug("status: cleared")
		a.render(nil)
	}
}

// Current returns the live notice, or nil when the slot is empty.
func (a *Announcer) Current() *domain.Notice {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// expire clears the slot only if no newer notice has replaced the one
// the timer was armed for.
func (a *Announcer) expire(seq uint64) {
	a.mu.Lock()
	if a.seq != seq {
		a.mu.Unlock()
		return
	}
	a.current = nil
	a.mu.Unlock()

	a.log.Debug("status: info notice expired")
	a.render(nil)
}
