package tvstate

import (
	"bytes"
	"sync"
)

// Store owns the single State instance and serializes all access to it.
// Merge applies a shallow key-by-key replace; Snapshot returns a copy safe
// to hand out. Both are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	state   State
	version uint64
}

// NewStore creates a Store with startup defaults: power unknown, home
// screen, volume 50.
func NewStore() *Store {
	return &Store{
		state: State{
			Power:  PowerUnknown,
			Screen: "home",
			Volume: 50,
		},
	}
}

// Merge applies the present fields of partial onto the current state and
// reports whether anything changed. Applying the same partial twice yields
// the same state as applying it once. Volume is clamped to [0, 100].
func (s *Store) Merge(partial Partial) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if partial.Power != nil && s.state.Power != *partial.Power {
		s.state.Power = *partial.Power
		changed = true
	}
	if partial.ActiveApp != nil && s.state.ActiveApp != *partial.ActiveApp {
		s.state.ActiveApp = *partial.ActiveApp
		changed = true
	}
	if partial.Screen != nil && s.state.Screen != *partial.Screen {
		s.state.Screen = *partial.Screen
		changed = true
	}
	if partial.Volume != nil {
		v := clampVolume(*partial.Volume)
		if s.state.Volume != v {
			s.state.Volume = v
			changed = true
		}
	}
	if partial.NowPlaying != nil {
		// JSON null clears the descriptor; anything else replaces it wholesale.
		next := bytes.Clone(partial.NowPlaying)
		if isJSONNull(next) {
			next = nil
		}
		if !bytes.Equal(s.state.NowPlaying, next) {
			s.state.NowPlaying = next
			changed = true
		}
	}
	if changed {
		s.version++
	}
	return changed
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Version returns the number of state-changing merges applied so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func isJSONNull(b []byte) bool {
	return string(bytes.TrimSpace(b)) == "null"
}
