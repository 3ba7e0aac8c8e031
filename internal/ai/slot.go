package ai

import "sync"

// Slots hands out request identity tokens per logical slot (one slot per
// book cover, per chat pane, ...). A response whose token is no longer
// current belongs to a superseded request and must be discarded instead of
// overwriting newer state.
type Slots struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewSlots creates an empty token registry.
func NewSlots() *Slots {
	return &Slots{latest: make(map[string]uint64)}
}

// Begin marks a new in-flight request for slot and returns its token,
// superseding any earlier request for the same slot.
func (s *Slots) Begin(slot string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[slot]++
	return s.latest[slot]
}

// Current reports whether token still identifies the newest request for slot.
func (s *Slots) Current(slot string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[slot] == token
}
