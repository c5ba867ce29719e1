// Package scheduler runs the per-deployment activity cycle: once per fixed
// interval it evaluates every worker against the current UTC hour and
// samples which activities fire.
//
// Sampling is three independent Bernoulli trials per worker per cycle, one
// per activity kind. Hourly rates become a per-cycle probability by
// dividing by 60 (the cycle interval is one minute); daily rates are first
// spread over 8 work hours. A Poisson arrival process would model rare
// daily events more faithfully, but the per-cycle trial keeps observable
// behavior identical across runs and restarts with the same rates.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/workforce/internal/content"
	"github.com/xiaot623/workforce/internal/domain"
)

// workHoursSpread is the fixed number of work hours daily rates are
// spread across before per-minute conversion.
const workHoursSpread = 8

// Notifier receives every fired activity.
type Notifier interface {
	Publish(activity domain.Activity)
}

// Options tune the scheduler; zero values select production defaults.
type Options struct {
	// Interval between cycles. Defaults to one minute.
	Interval time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// RandFloat returns a uniform value in [0, 1). Defaults to math/rand.
	RandFloat func() float64
}

// Scheduler drives the activity loop for one deployment. One background
// goroutine per deployment; all counters are single-writer.
type Scheduler struct {
	deploymentID string
	workers      []domain.WorkerIdentity
	duration     *time.Duration
	generator    content.Generator
	log          *Log
	notifier     Notifier

	interval  time.Duration
	clock     func() time.Time
	randFloat func() float64

	mu       sync.Mutex
	started  bool
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	count atomic.Int64
}

// New creates a scheduler bound to a fixed worker set. duration nil means
// the deployment runs until stopped.
func New(deploymentID string, workers []domain.WorkerIdentity, duration *time.Duration,
	generator content.Generator, logStream *Log, notifier Notifier, opts Options) *Scheduler {

	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.RandFloat == nil {
		opts.RandFloat = defaultRandFloat
	}

	return &Scheduler{
		deploymentID: deploymentID,
		workers:      workers,
		duration:     duration,
		generator:    generator,
		log:          logStream,
		notifier:     notifier,
		interval:     opts.Interval,
		clock:        opts.Clock,
		randFloat:    opts.RandFloat,
		done:         make(chan struct{}),
	}
}

// Start launches the background cycle loop. A second call while already
// started is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.started = true
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	s.log.Appendf("INFO", "Starting activity orchestration for %d workers", len(s.workers))
	go s.run(ctx, cancel)
}

// Stop halts future cycles and waits for the in-flight cycle to finish.
// Idempotent; no activity fires after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if !started {
		return
	}

	s.stopOnce.Do(func() {
		s.log.Appendf("INFO", "Stopping activity orchestration")
		cancel()
	})
	<-s.done
}

// Running reports whether the cycle loop is still active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Done is closed when the cycle loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// ActivityCount returns the total number of activities fired so far.
// Monotonically non-decreasing; frozen once Stop returns.
func (s *Scheduler) ActivityCount() int64 {
	return s.count.Load()
}

// Log returns the deployment's log stream.
func (s *Scheduler) Log() *Log {
	return s.log
}

// run drives the cycle loop. cancel is released on every exit path, so a
// duration expiry does not leave the context pinned until Stop.
func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(s.done)
	}()

	var end *time.Time
	if s.duration != nil {
		t := s.clock().Add(*s.duration)
		end = &t
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if end != nil && !s.clock().Before(*end) {
			s.log.Appendf("INFO", "Duration limit reached")
			break
		}

		s.runCycle(ctx)

		select {
		case <-ctx.Done():
			s.log.Appendf("INFO", "Activity orchestration cancelled")
			return
		case <-ticker.C:
		}
	}

	s.log.Appendf("INFO", "Activity orchestration completed")
}

// runCycle evaluates every worker against the current simulated hour.
func (s *Scheduler) runCycle(ctx context.Context) {
	now := s.clock().UTC()
	hour := now.Hour()

	for _, worker := range s.workers {
		if !worker.Pattern.InWorkHours(hour) {
			continue
		}
		s.performWorkerActivities(ctx, worker, now)
	}
}

// performWorkerActivities runs the independent per-kind trials for one worker.
func (s *Scheduler) performWorkerActivities(ctx context.Context, worker domain.WorkerIdentity, now time.Time) {
	p := worker.Pattern

	if s.shouldPerform(float64(p.EmailPerHour)) {
		s.sendEmail(ctx, worker, now)
	}
	if s.shouldPerform(float64(p.TeamsMessagesPerHour)) {
		s.fire(domain.ActivityKindTeamsMessage, worker, now, "")
		s.log.Appendf("INFO", "Teams message sent by %s", worker.DisplayName)
	}
	if s.shouldPerform(float64(p.DocumentsPerDay) / workHoursSpread) {
		s.fire(domain.ActivityKindDocument, worker, now, "")
		s.log.Appendf("INFO", "Document created by %s", worker.DisplayName)
	}
}

// sendEmail resolves a subject through the content generator; a generation
// failure is logged and the event is recorded without a subject.
func (s *Scheduler) sendEmail(ctx context.Context, worker domain.WorkerIdentity, now time.Time) {
	var subject string
	generated, err := s.generator.Generate(ctx, worker.Department, worker.DisplayName)
	if err != nil {
		s.log.Appendf("WARNING", "Email generation failed for %s: %v", worker.DisplayName, err)
	} else {
		subject = generated.Subject
	}

	s.fire(domain.ActivityKindEmail, worker, now, subject)
	if subject != "" {
		s.log.Appendf("INFO", "Email sent by %s: %q", worker.DisplayName, subject)
	} else {
		s.log.Appendf("INFO", "Email sent by %s", worker.DisplayName)
	}
}

// fire records one activity decision and notifies subscribers.
func (s *Scheduler) fire(kind domain.ActivityKind, worker domain.WorkerIdentity, now time.Time, subject string) {
	s.count.Add(1)

	if s.notifier != nil {
		s.notifier.Publish(domain.Activity{
			ActivityID:   "act_" + uuid.New().String()[:8],
			DeploymentID: s.deploymentID,
			Kind:         kind,
			WorkerID:     worker.WorkerID,
			Department:   worker.Department,
			Ts:           now,
			Subject:      subject,
		})
	}
}

// shouldPerform converts an hourly rate to a per-minute probability and
// samples one Bernoulli trial.
func (s *Scheduler) shouldPerform(perHourRate float64) bool {
	return s.randFloat() < perHourRate/60.0
}

func defaultRandFloat() float64 {
	return rand.Float64()
}
