package journal

import (
	"context"
	"sync"
	"time"
)

var _ Journal = (*Memory)(nil)

// Memory is an in-process Journal for tests and single-run tooling.
type Memory struct {
	mu        sync.Mutex
	bySession map[string][]Exchange
	order     []string
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{bySession: make(map[string][]Exchange)}
}

// Record implements Journal.
func (m *Memory) Record(_ context.Context, x Exchange) error {
	if x.At == 0 {
		x.At = time.Now().UnixNano()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySession[x.SessionID]; !ok {
		m.order = append(m.order, x.SessionID)
	}
	m.bySession[x.SessionID] = append(m.bySession[x.SessionID], x)
	return nil
}

// Recent implements Journal.
func (m *Memory) Recent(_ context.Context, sessionID string, n int) ([]Exchange, error) {
	if n <= 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.bySession[sessionID]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]Exchange, len(all))
	copy(out, all)
	return out, nil
}

// Sessions implements Journal.
func (m *Memory) Sessions(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

// Close implements Journal.
func (m *Memory) Close() error { return nil }
