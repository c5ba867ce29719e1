package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Sink is the durable side of a deployment log stream.
type Sink interface {
	AppendLogLine(ctx context.Context, deploymentID, line string) error
}

// Log is the append-only log stream for one deployment: an in-memory
// ordered buffer dual-written to a durable sink. Single writer (the
// scheduler), safe for concurrent readers.
type Log struct {
	deploymentID string
	sink         Sink

	mu    sync.RWMutex
	lines []string
}

// NewLog creates a log stream for a deployment. sink may be nil.
func NewLog(deploymentID string, sink Sink) *Log {
	return &Log{deploymentID: deploymentID, sink: sink}
}

// Appendf formats and appends one log line. The durable write is
// best-effort: a sink failure is reported to the process log but never
// drops the in-memory line.
func (l *Log) Appendf(level, format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] [%s] %s",
		time.Now().UTC().Format(time.RFC3339), level, fmt.Sprintf(format, args...))

	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.AppendLogLine(context.Background(), l.deploymentID, line); err != nil {
			log.Printf("ERROR: failed to persist log line for %s: %v", l.deploymentID, err)
		}
	}
}

// Len returns the number of lines appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

// Last returns the most recent n lines, oldest first.
func (l *Log) Last(n int) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if n > 0 && len(l.lines) > n {
		start = len(l.lines) - n
	}
	out := make([]string, len(l.lines)-start)
	copy(out, l.lines[start:])
	return out
}

// Since returns all lines appended at or after index i, for tail polling.
func (l *Log) Since(i int) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i < 0 {
		i = 0
	}
	if i >= len(l.lines) {
		return nil
	}
	out := make([]string, len(l.lines)-i)
	copy(out, l.lines[i:])
	return out
}
