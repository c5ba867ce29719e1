package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xiaot623/workforce/internal/content"
	"github.com/xiaot623/workforce/internal/domain"
)

// recordingNotifier captures published activities for assertions.
type recordingNotifier struct {
	mu         sync.Mutex
	activities []domain.Activity
}

func (r *recordingNotifier) Publish(a domain.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, a)
}

func (r *recordingNotifier) all() []domain.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Activity, len(r.activities))
	copy(out, r.activities)
	return out
}

func clockAt(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 4, hour, 30, 0, 0, time.UTC)
	}
}

func testWorkers(deploymentID string, dept domain.Department, n int) []domain.WorkerIdentity {
	workers := make([]domain.WorkerIdentity, 0, n)
	for i := 1; i <= n; i++ {
		cfg := domain.WorkerConfig{Department: dept, WorkerNumber: i, DeploymentID: deploymentID}
		workers = append(workers, domain.NewWorkerIdentity(cfg, "obj", cfg.WorkerID()+"@example.test"))
	}
	return workers
}

func newTestScheduler(workers []domain.WorkerIdentity, duration *time.Duration,
	notifier Notifier, opts Options) *Scheduler {
	return New("kw-test", workers, duration, content.NewTemplateGenerator(),
		NewLog("kw-test", nil), notifier, opts)
}

func TestOffHoursNoActivity(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(testWorkers("kw-test", domain.DepartmentSales, 3), nil, notifier, Options{
		Clock:     clockAt(3), // outside the 8-17 window
		RandFloat: func() float64 { return 0 },
	})

	s.runCycle(context.Background())

	if got := s.ActivityCount(); got != 0 {
		t.Fatalf("expected 0 activities off hours, got %d", got)
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("expected no notifications off hours")
	}
}

func TestWorkHoursActivitiesFire(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(testWorkers("kw-test", domain.DepartmentEngineering, 2), nil, notifier, Options{
		Clock:     clockAt(10),
		RandFloat: func() float64 { return 0 }, // every trial succeeds
	})

	s.runCycle(context.Background())

	// Three activity kinds per worker when every trial fires.
	if got := s.ActivityCount(); got != 6 {
		t.Fatalf("expected 6 activities, got %d", got)
	}

	byKind := map[domain.ActivityKind]int{}
	for _, a := range notifier.all() {
		byKind[a.Kind]++
		if a.DeploymentID != "kw-test" {
			t.Fatalf("activity carries wrong deployment id: %s", a.DeploymentID)
		}
		if a.Kind == domain.ActivityKindEmail && a.Subject == "" {
			t.Fatalf("email activity missing subject")
		}
	}
	for _, kind := range []domain.ActivityKind{domain.ActivityKindEmail, domain.ActivityKindTeamsMessage, domain.ActivityKindDocument} {
		if byKind[kind] != 2 {
			t.Fatalf("expected 2 %s activities, got %d", kind, byKind[kind])
		}
	}
}

func TestNoTrialSucceedsNoActivity(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(testWorkers("kw-test", domain.DepartmentEngineering, 2), nil, notifier, Options{
		Clock:     clockAt(10),
		RandFloat: func() float64 { return 0.99 }, // above every per-minute probability
	})

	s.runCycle(context.Background())

	if got := s.ActivityCount(); got != 0 {
		t.Fatalf("expected 0 activities when no trial succeeds, got %d", got)
	}
}

func TestZeroDurationExpiresBeforeFirstCycle(t *testing.T) {
	d := time.Duration(0)
	notifier := &recordingNotifier{}
	s := newTestScheduler(testWorkers("kw-test", domain.DepartmentSales, 5), &d, notifier, Options{
		Interval:  5 * time.Millisecond,
		Clock:     clockAt(10),
		RandFloat: func() float64 { return 0 },
	})

	s.Start()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not complete an expired deployment")
	}

	if got := s.ActivityCount(); got != 0 {
		t.Fatalf("expected no activities for a zero-duration run, got %d", got)
	}
	if s.Running() {
		t.Fatal("scheduler still reports running after completion")
	}

	joined := strings.Join(s.Log().Last(0), "\n")
	if !strings.Contains(joined, "Duration limit reached") {
		t.Fatalf("missing duration log line:\n%s", joined)
	}
	if !strings.Contains(joined, "Activity orchestration completed") {
		t.Fatalf("missing completion log line:\n%s", joined)
	}
}

func TestStopIsIdempotentAndFreezesCount(t *testing.T) {
	notifier := &recordingNotifier{}
	s := newTestScheduler(testWorkers("kw-test", domain.DepartmentEngineering, 2), nil, notifier, Options{
		Interval:  2 * time.Millisecond,
		Clock:     clockAt(10),
		RandFloat: func() float64 { return 0 },
	})

	s.Start()
	time.Sleep(20 * time.Millisecond)

	s.Stop()
	frozen := s.ActivityCount()
	s.Stop()

	time.Sleep(20 * time.Millisecond)
	if got := s.ActivityCount(); got != frozen {
		t.Fatalf("count moved after Stop: %d -> %d", frozen, got)
	}
	if frozen == 0 {
		t.Fatal("expected at least one activity before Stop")
	}
	if s.Running() {
		t.Fatal("scheduler still reports running after Stop")
	}

	stops := 0
	for _, line := range s.Log().Last(0) {
		if strings.Contains(line, "Stopping activity orchestration") {
			stops++
		}
	}
	if stops != 1 {
		t.Fatalf("expected exactly one stop log line, got %d", stops)
	}
}

// ctxCaptureGenerator records the context the cycle loop passes in.
type ctxCaptureGenerator struct {
	mu  sync.Mutex
	ctx context.Context
}

func (g *ctxCaptureGenerator) Generate(ctx context.Context, department domain.Department, workerName string) (content.Generated, error) {
	g.mu.Lock()
	g.ctx = ctx
	g.mu.Unlock()
	return content.Generated{Subject: "Status", Body: "Hi"}, nil
}

func (g *ctxCaptureGenerator) captured() context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctx
}

func TestDurationExpiryReleasesContext(t *testing.T) {
	// Advancing clock pinned inside the work window so cycles run until
	// the duration elapses.
	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	t0 := time.Now()
	clock := func() time.Time { return base.Add(time.Since(t0)) }

	gen := &ctxCaptureGenerator{}
	d := 30 * time.Millisecond
	s := New("kw-test", testWorkers("kw-test", domain.DepartmentSales, 1), &d, gen,
		NewLog("kw-test", nil), nil, Options{
			Interval:  5 * time.Millisecond,
			Clock:     clock,
			RandFloat: func() float64 { return 0 },
		})

	s.Start()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not expire")
	}

	ctx := gen.captured()
	if ctx == nil {
		t.Fatal("no cycle ran before expiry")
	}
	if ctx.Err() == nil {
		t.Fatal("loop context still live after duration expiry")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	s := newTestScheduler(testWorkers("kw-test", domain.DepartmentSales, 1), nil, nil, Options{
		Interval:  2 * time.Millisecond,
		Clock:     clockAt(3),
		RandFloat: func() float64 { return 0.99 },
	})

	s.Start()
	s.Start()
	s.Stop()

	starts := 0
	for _, line := range s.Log().Last(0) {
		if strings.Contains(line, "Starting activity orchestration") {
			starts++
		}
	}
	if starts != 1 {
		t.Fatalf("expected exactly one start log line, got %d", starts)
	}
}
