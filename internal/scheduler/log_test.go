package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type captureSink struct {
	lines []string
	fail  bool
}

func (c *captureSink) AppendLogLine(ctx context.Context, deploymentID, line string) error {
	if c.fail {
		return errors.New("sink unavailable")
	}
	c.lines = append(c.lines, line)
	return nil
}

func TestLogAppendFormatsLine(t *testing.T) {
	sink := &captureSink{}
	l := NewLog("kw-1", sink)

	l.Appendf("INFO", "Email sent by %s", "Workforce Worker 1")

	if l.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", l.Len())
	}
	line := l.Last(1)[0]
	if !strings.Contains(line, "[INFO] Email sent by Workforce Worker 1") {
		t.Fatalf("unexpected line format: %s", line)
	}
	if !strings.HasPrefix(line, "[") {
		t.Fatalf("line missing timestamp prefix: %s", line)
	}
	if len(sink.lines) != 1 || sink.lines[0] != line {
		t.Fatalf("sink did not receive the same line")
	}
}

func TestLogSinkFailureKeepsMemoryLine(t *testing.T) {
	l := NewLog("kw-1", &captureSink{fail: true})

	l.Appendf("INFO", "still recorded")

	if l.Len() != 1 {
		t.Fatalf("in-memory line dropped on sink failure")
	}
}

func TestLogLastAndSince(t *testing.T) {
	l := NewLog("kw-1", nil)
	l.Appendf("INFO", "one")
	l.Appendf("INFO", "two")
	l.Appendf("INFO", "three")

	last := l.Last(2)
	if len(last) != 2 || !strings.Contains(last[0], "two") || !strings.Contains(last[1], "three") {
		t.Fatalf("Last(2) wrong window: %v", last)
	}

	since := l.Since(1)
	if len(since) != 2 || !strings.Contains(since[0], "two") {
		t.Fatalf("Since(1) wrong window: %v", since)
	}
	if got := l.Since(10); got != nil {
		t.Fatalf("Since past end should be nil, got %v", got)
	}
}
