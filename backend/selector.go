package backend

import "sync"

// Selector holds the process-wide active mode. Every conversation shares it,
// so the last Set wins for everyone.
type Selector struct {
	mu   sync.RWMutex
	mode Mode
}

func NewSelector(initial Mode) *Selector {
	if !initial.Valid() {
		initial = DefaultMode
	}
	return &Selector{mode: initial}
}

func (s *Selector) Get() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Set overwrites the active mode. Callers only pass values offered to users.
func (s *Selector) Set(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}
