package logger

import (
	"strings"
	"sync"
)

// RingBuffer is a fixed-capacity buffer of log lines. Writes past the
// capacity overwrite the oldest line, so memory use is bounded no matter
// how long the process runs.
type RingBuffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewRingBuffer creates a ring buffer holding up to capacity lines
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{lines: make([]string, capacity)}
}

// Write implements io.Writer for use as a zap sync target. Each write is
// one encoded log entry.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")

	rb.mu.Lock()
	rb.lines[rb.next] = line
	rb.next = (rb.next + 1) % len(rb.lines)
	if rb.next == 0 {
		rb.full = true
	}
	rb.mu.Unlock()

	return len(p), nil
}

// Entries returns the buffered lines, oldest first
func (rb *RingBuffer) Entries() []string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var out []string
	if rb.full {
		out = append(out, rb.lines[rb.next:]...)
	}
	out = append(out, rb.lines[:rb.next]...)
	return out
}

// Tail returns up to n of the most recent lines, oldest first
func (rb *RingBuffer) Tail(n int) []string {
	all := rb.Entries()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}
