package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/workforce/internal/adapter/directory"
	"github.com/xiaot623/workforce/internal/adapter/llm"
	"github.com/xiaot623/workforce/internal/config"
	"github.com/xiaot623/workforce/internal/domain"
	"github.com/xiaot623/workforce/internal/notify"
	"github.com/xiaot623/workforce/policy"
	"github.com/xiaot623/workforce/tests/helpers"
)

func newTestService(t *testing.T) (*Service, *directory.MockClient) {
	t.Helper()

	st := helpers.NewTestSQLiteStore(t)
	dir := directory.NewMockClient()

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	cfg := &config.Config{
		CycleInterval:     5 * time.Millisecond,
		DisplayNamePrefix: "Workforce",
	}

	svc := New(st, dir, llm.NewMockClient(), cfg, engine, notify.NewHub())
	return svc, dir
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

// waitForStatus polls until the deployment reaches the wanted status.
func waitForStatus(t *testing.T, svc *Service, deploymentID string, want domain.DeploymentStatus) *domain.Deployment {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		d, err := svc.GetStatus(context.Background(), deploymentID)
		require.NoError(t, err)
		if d.Status == want {
			return d
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("deployment %s never reached %s", deploymentID, want)
	return nil
}

func TestDeployValidationError(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Deploy(context.Background(), domain.DeployRequest{Workers: intp(0)})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Violations)
}

func TestDeployPolicyBlocked(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.Deploy(context.Background(), domain.DeployRequest{
		Workers:    intp(50),
		Department: "executive",
	})

	require.ErrorIs(t, err, domain.ErrPolicyBlocked)
	assert.Equal(t, 0, dir.UserCount(), "blocked deployments must not touch the directory")
}

func TestDeployZeroDurationExpiresImmediately(t *testing.T) {
	svc, dir := newTestService(t)

	id, err := svc.Deploy(context.Background(), domain.DeployRequest{
		Workers:       intp(5),
		Department:    "sales",
		DurationHours: floatp(0),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "kw-"))

	d := waitForStatus(t, svc, id, domain.DeploymentStatusStopped)
	assert.Equal(t, 5, d.WorkersCreated)
	assert.Equal(t, int64(0), d.ActivityCount, "an expired deployment runs zero cycles")
	assert.NotNil(t, d.StoppedAt)
	assert.Equal(t, 5, dir.UserCount(), "stop does not delete directory users")
}

func TestStopIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(3), Department: "engineering"})
	require.NoError(t, err)

	ok, err := svc.Stop(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	d, err := svc.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusStopped, d.Status)
	frozen := d.ActivityCount

	ok, err = svc.Stop(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	d, err = svc.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, frozen, d.ActivityCount, "activity count must freeze after stop")
}

func TestCleanupSuccess(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(5), Department: "hr"})
	require.NoError(t, err)

	report, err := svc.Cleanup(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 5, report.ResourcesDeleted)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 0, dir.UserCount())

	d, err := svc.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusCompleted, d.Status)
	assert.Equal(t, "cleaned_up", d.Phase)
	assert.NotNil(t, d.CompletedAt)
}

func TestCleanupFailure(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(2), Department: "finance"})
	require.NoError(t, err)

	dir.FailDelete = true
	report, err := svc.Cleanup(ctx, id)
	require.NoError(t, err, "cleanup failures are reported, not propagated")

	assert.NotEmpty(t, report.Errors)
	assert.Equal(t, 0, report.ResourcesDeleted)

	d, err := svc.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusFailed, d.Status)
	assert.NotEmpty(t, d.Error)
}

func TestCleanupResultOutlivesSchedulerWatcher(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(2), Department: "operations"})
	require.NoError(t, err)

	// Cleanup stops the scheduler itself, which also wakes the background
	// watcher; the watcher's STOPPED write must never land on top of the
	// terminal state cleanup persists.
	_, err = svc.Cleanup(ctx, id)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	d, err := svc.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusCompleted, d.Status)
	assert.Equal(t, "cleaned_up", d.Phase)
}

func TestCleanupIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(1), Department: "sales"})
	require.NoError(t, err)

	_, err = svc.Cleanup(ctx, id)
	require.NoError(t, err)

	// A second cleanup finds no live registry entries and deletes nothing.
	report, err := svc.Cleanup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ResourcesDeleted)
}

func TestGetStatusNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetStatus(context.Background(), "kw-missing")
	require.ErrorIs(t, err, domain.ErrDeploymentNotFound)
}

func TestListDeployments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id1, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(1), Department: "sales"})
	require.NoError(t, err)
	id2, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(1), Department: "hr"})
	require.NoError(t, err)

	list, err := svc.ListDeployments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	ids := []string{list[0].DeploymentID, list[1].DeploymentID}
	assert.Contains(t, ids, id1)
	assert.Contains(t, ids, id2)

	for _, id := range ids {
		_, err := svc.Stop(ctx, id)
		require.NoError(t, err)
	}
}

func TestGetLogs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(2), Department: "operations"})
	require.NoError(t, err)
	defer svc.Stop(ctx, id)

	lines, err := svc.GetLogs(ctx, id, 100)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Contains(t, strings.Join(lines, "\n"), "Starting activity orchestration for 2 workers")
}

func TestGetLogsSurvivesStop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(1), Department: "sales"})
	require.NoError(t, err)
	_, err = svc.Cleanup(ctx, id)
	require.NoError(t, err)

	// The live buffer is gone; lines come back from the store.
	lines, err := svc.GetLogs(ctx, id, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, lines)
}

func TestTailLogsStoppedDeploymentReplays(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(1), Department: "sales"})
	require.NoError(t, err)
	_, err = svc.Cleanup(ctx, id)
	require.NoError(t, err)

	ch, err := svc.TailLogs(ctx, id, 100)
	require.NoError(t, err)

	var got []string
	for line := range ch {
		got = append(got, line)
	}
	assert.NotEmpty(t, got)
}

func TestTailLogsFollowsUntilStop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(1), Department: "engineering"})
	require.NoError(t, err)

	ch, err := svc.TailLogs(ctx, id, 100)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = svc.Stop(context.Background(), id)
	}()

	var got []string
	deadline := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-ch:
			if !ok {
				require.NotEmpty(t, got)
				joined := strings.Join(got, "\n")
				assert.Contains(t, joined, "Stopping activity orchestration")
				return
			}
			got = append(got, line)
		case <-deadline:
			t.Fatal("tail did not terminate after stop")
		}
	}
}

func TestRecoverOrphans(t *testing.T) {
	st := helpers.NewTestSQLiteStore(t)
	dir := directory.NewMockClient()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	cfg := &config.Config{CycleInterval: 5 * time.Millisecond}
	svc := New(st, dir, llm.NewMockClient(), cfg, engine, notify.NewHub())

	ctx := context.Background()
	orphan := &domain.Deployment{
		DeploymentID: "kw-orphan01",
		Status:       domain.DeploymentStatusRunning,
		Phase:        "executing",
		Config:       domain.DeploymentConfig{Workers: 3, Department: domain.DepartmentSales},
		StartedAt:    time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, st.CreateDeployment(ctx, orphan))

	require.NoError(t, svc.RecoverOrphans(ctx))

	d, err := svc.GetStatus(ctx, "kw-orphan01")
	require.NoError(t, err)
	assert.Equal(t, domain.DeploymentStatusStopped, d.Status)
	assert.Equal(t, "orphaned", d.Phase)
	assert.NotNil(t, d.StoppedAt)
}

func TestActivitiesArePersisted(t *testing.T) {
	st := helpers.NewTestSQLiteStore(t)
	dir := directory.NewMockClient()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	cfg := &config.Config{CycleInterval: 5 * time.Millisecond}
	svc := New(st, dir, llm.NewMockClient(), cfg, engine, notify.NewHub())

	ctx := context.Background()
	id, err := svc.Deploy(ctx, domain.DeployRequest{Workers: intp(3), Department: "sales"})
	require.NoError(t, err)
	defer svc.Stop(ctx, id)

	// Activities only fire inside the 8-17 UTC work window; outside it the
	// deployment legitimately records zero.
	hour := time.Now().UTC().Hour()
	if hour < 8 || hour >= 17 {
		t.Skip("outside simulated work hours")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		n, err := st.CountActivities(ctx, id)
		require.NoError(t, err)
		if n > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	// Each cycle is a probabilistic trial; absence within the window is
	// unlikely but not impossible, so do not hard-fail.
	t.Log("no activity fired within the polling window")
}

func TestDeployAIEnabledUsesMockLLM(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.Deploy(ctx, domain.DeployRequest{
		Workers:            intp(2),
		Department:         "engineering",
		EnableAIGeneration: true,
	})
	require.NoError(t, err)

	_, err = svc.Stop(ctx, id)
	require.NoError(t, err)
}

var errNotReady = errors.New("directory credentials missing")

type notReadyDirectory struct{ directory.MockClient }

func (n *notReadyDirectory) Ready() error { return errNotReady }

func TestDeployDirectoryNotReady(t *testing.T) {
	st := helpers.NewTestSQLiteStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	cfg := &config.Config{CycleInterval: 5 * time.Millisecond}
	svc := New(st, &notReadyDirectory{}, llm.NewMockClient(), cfg, engine, notify.NewHub())

	_, err = svc.Deploy(context.Background(), domain.DeployRequest{Workers: intp(1)})
	require.ErrorIs(t, err, errNotReady)

	list, err := svc.ListDeployments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "a not-ready directory must fail before any record is created")
}
