package cli

import (
	"strings"
	"sync"
)

// lineRing keeps the most recent lines, overwriting the oldest once full.
type lineRing struct {
	mu         sync.Mutex
	buf        []string
	head, tail int64
}

func newLineRing(size int) *lineRing {
	if size <= 0 {
		size = 1
	}
	return &lineRing{buf: make([]string, size)}
}

func (r *lineRing) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.tail%int64(len(r.buf))] = line
	r.tail++
	if r.tail-r.head > int64(len(r.buf)) {
		r.head++
	}
}

func (r *lineRing) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, r.tail-r.head)
	for i := r.head; i < r.tail; i++ {
		out = append(out, r.buf[i%int64(len(r.buf))])
	}
	return out
}

func (r *lineRing) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.tail - r.head)
}

// LogWriter is an io.Writer that captures log output for display inside a
// Frame. It keeps the most recent lines and notifies a channel on each new
// line so render loops can redraw promptly.
type LogWriter struct {
	ring *lineRing
	ch   chan string
}

// NewLogWriter creates a log writer keeping at most maxLines lines.
func NewLogWriter(maxLines int) *LogWriter {
	return &LogWriter{
		ring: newLineRing(maxLines),
		ch:   make(chan string, 100),
	}
}

// Write splits p into lines and buffers each one. Never blocks: channel
// notifications are dropped when the consumer lags.
func (w *LogWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.ring.add(line)
		select {
		case w.ch <- line:
		default:
		}
	}
	return len(p), nil
}

// Lines returns the buffered lines, oldest first.
func (w *LogWriter) Lines() []string {
	return w.ring.lines()
}

// Len returns the number of buffered lines.
func (w *LogWriter) Len() int {
	return w.ring.len()
}

// Channel delivers new lines as they are written.
func (w *LogWriter) Channel() <-chan string {
	return w.ch
}
