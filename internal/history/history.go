// Package history keeps the ordered in-memory record of one scan's traffic.
package history

import (
	"sync"

	"github.com/Yashwin-i/NetWatch/internal/shared/types"
)

// Session is an append-only, resettable log of annotated traffic events for
// the current scan. It is safe for concurrent use; append order is the order
// classification completed, which may differ from request initiation order.
type Session struct {
	mu     sync.RWMutex
	events []types.TrafficEvent
}

// New returns an empty session history.
func New() *Session {
	return &Session{events: make([]types.TrafficEvent, 0)}
}

// Reset empties the history. Called exactly once at the start of each scan,
// before any event is appended.
func (s *Session) Reset() {
	s.mu.Lock()
	s.events = s.events[:0]
	s.mu.Unlock()
}

// Append adds an event to the end of the log.
func (s *Session) Append(ev types.TrafficEvent) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

// Snapshot returns a copy of the full ordered sequence, for late-joining
// observers.
func (s *Session) Snapshot() []types.TrafficEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.TrafficEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the current event count.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
