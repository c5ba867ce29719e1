package service

import (
	"context"
	"time"
)

// tailPollInterval is how often a follow stream checks for new lines.
const tailPollInterval = 200 * time.Millisecond

// GetLogs returns the last n log lines for a deployment, from the live
// buffer when the scheduler exists, else from durable storage.
func (s *Service) GetLogs(ctx context.Context, deploymentID string, n int) ([]string, error) {
	if _, err := s.GetStatus(ctx, deploymentID); err != nil {
		return nil, err
	}

	if sched := s.liveScheduler(deploymentID); sched != nil {
		return sched.Log().Last(n), nil
	}
	return s.store.GetLogLines(ctx, deploymentID, n)
}

// TailLogs emits the last n lines and then follows new lines until the
// scheduler stops or ctx is cancelled. Delivery is in-order and
// at-least-once; polling the buffer never blocks the scheduler's writes.
func (s *Service) TailLogs(ctx context.Context, deploymentID string, n int) (<-chan string, error) {
	if _, err := s.GetStatus(ctx, deploymentID); err != nil {
		return nil, err
	}

	ch := make(chan string, 64)
	sched := s.liveScheduler(deploymentID)

	if sched == nil {
		// No live loop to follow; replay stored lines and finish.
		lines, err := s.store.GetLogLines(ctx, deploymentID, n)
		if err != nil {
			return nil, err
		}
		go func() {
			defer close(ch)
			for _, line := range lines {
				select {
				case ch <- line:
				case <-ctx.Done():
					return
				}
			}
		}()
		return ch, nil
	}

	go func() {
		defer close(ch)

		lg := sched.Log()
		next := lg.Len() - n
		if n <= 0 || next < 0 {
			next = 0
		}

		emit := func() bool {
			for _, line := range lg.Since(next) {
				select {
				case ch <- line:
					next++
				case <-ctx.Done():
					return false
				}
			}
			return true
		}

		if !emit() {
			return
		}

		ticker := time.NewTicker(tailPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !emit() {
					return
				}
				if !sched.Running() {
					// Final drain so the stop line is delivered.
					emit()
					return
				}
			}
		}
	}()

	return ch, nil
}
