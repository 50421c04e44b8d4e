package hub

import "sync"

// registry tracks the connected sessions: an unbounded remote set and at
// most one display. All operations are safe for concurrent use.
type registry struct {
	mu      sync.RWMutex
	remotes map[string]*remoteSession
	display *displaySession
}

func newRegistry() registry {
	return registry{remotes: make(map[string]*remoteSession)}
}

// addRemote inserts s and, still under the transition, runs onAdd with the
// current display connectivity. Broadcasts take the same lock, so whatever
// onAdd sends reaches the session before any broadcast-triggered message.
func (r *registry) addRemote(s *remoteSession, onAdd func(tvConnected bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remotes[s.id] = s
	if onAdd != nil {
		onAdd(r.display != nil)
	}
}

// removeRemote removes s if present.
func (r *registry) removeRemote(s *remoteSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remotes[s.id] == s {
		delete(r.remotes, s.id)
	}
}

// setDisplay installs s and returns the evicted previous display, if any.
func (r *registry) setDisplay(s *displaySession) (evicted *displaySession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted = r.display
	r.display = s
	return evicted
}

// clearDisplay clears the display only if s is still the registered one,
// guarding against the disconnect callback of an evicted session racing the
// replacement.
func (r *registry) clearDisplay(s *displaySession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.display != s {
		return false
	}
	r.display = nil
	return true
}

func (r *registry) getDisplay() *displaySession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.display
}

func (r *registry) isDisplayConnected() bool {
	return r.getDisplay() != nil
}

func (r *registry) remoteCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.remotes)
}

// snapshotRemotes returns the current remote set for iteration outside the
// lock.
func (r *registry) snapshotRemotes() []*remoteSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*remoteSession, 0, len(r.remotes))
	for _, s := range r.remotes {
		out = append(out, s)
	}
	return out
}
