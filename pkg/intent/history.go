package intent

// DefaultHistoryWindow is the conversation window used when no bound is
// configured.
const DefaultHistoryWindow = 20

// History is a fixed-capacity conversation window. The bound is enforced at
// insertion: appending to a full window drops the oldest turn, so the
// history can never exceed its capacity between operations. History is not
// safe for concurrent use; each remote session owns exactly one and touches
// it only from its own handler.
type History struct {
	turns []Turn
	max   int
}

// NewHistory creates a window holding at most max turns. A non-positive max
// falls back to DefaultHistoryWindow.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistoryWindow
	}
	return &History{
		turns: make([]Turn, 0, max),
		max:   max,
	}
}

// Append inserts a turn, evicting the oldest if the window is full.
func (h *History) Append(role Role, content string) {
	if len(h.turns) == h.max {
		copy(h.turns, h.turns[1:])
		h.turns = h.turns[:h.max-1]
	}
	h.turns = append(h.turns, Turn{Role: role, Content: content})
}

// Turns returns a copy of the window, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns currently held.
func (h *History) Len() int {
	return len(h.turns)
}

// Cap returns the window bound.
func (h *History) Cap() int {
	return h.max
}
