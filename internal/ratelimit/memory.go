package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

// MemoryStore keeps per-principal windows in a process-local map. The map
// itself is guarded briefly on lookup; pruning and counting lock only the
// principal's own window, so concurrent requests for different principals
// never serialize on each other.
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string]*window
}

// NewMemoryStore creates an empty in-memory window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

func (s *MemoryStore) windowFor(principalID string) *window {
	s.mu.RLock()
	w, ok := s.windows[principalID]
	s.mu.RUnlock()
	if ok {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok = s.windows[principalID]; ok {
		return w
	}
	w = &window{}
	s.windows[principalID] = w
	return w
}

// Admit implements Store.
func (s *MemoryStore) Admit(principalID string, cutoff, now time.Time, limit int) bool {
	w := s.windowFor(principalID)
	w.mu.Lock()
	defer w.mu.Unlock()

	// Lazy purge: drop everything older than the window start.
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= limit {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}
