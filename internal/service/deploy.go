package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/workforce/internal/content"
	"github.com/xiaot623/workforce/internal/domain"
	"github.com/xiaot623/workforce/internal/identity"
	"github.com/xiaot623/workforce/internal/observability"
	"github.com/xiaot623/workforce/internal/scheduler"
)

// Deploy validates the request, provisions workers and starts the cycle
// scheduler. Per-worker provisioning failures are logged and skipped; only
// a fully failed provisioning pass fails the deployment.
func (s *Service) Deploy(ctx context.Context, req domain.DeployRequest) (string, error) {
	if violations := req.Validate(); len(violations) > 0 {
		return "", &domain.ValidationError{Violations: violations}
	}
	cfg := req.Normalize()

	decision, reason, err := s.policyEngine.Evaluate(ctx, map[string]interface{}{
		"workers":              cfg.Workers,
		"department":           string(cfg.Department),
		"enable_ai_generation": cfg.EnableAIGeneration,
	})
	if err != nil {
		return "", fmt.Errorf("failed to evaluate admission policy: %w", err)
	}
	if decision == "block" {
		if reason != "" {
			return "", fmt.Errorf("%w: %s", domain.ErrPolicyBlocked, reason)
		}
		return "", domain.ErrPolicyBlocked
	}

	// Credential problems surface here, before any identity is created.
	if err := s.dirClient.Ready(); err != nil {
		return "", err
	}

	deploymentID := "kw-" + uuid.New().String()[:8]
	d := &domain.Deployment{
		DeploymentID: deploymentID,
		Status:       domain.DeploymentStatusPending,
		Phase:        "initializing",
		Config:       cfg,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateDeployment(ctx, d); err != nil {
		return "", fmt.Errorf("failed to create deployment: %w", err)
	}

	manager := identity.NewManager(deploymentID, s.dirClient, s.config.WorkerDomain)
	logStream := scheduler.NewLog(deploymentID, s.store)

	d.Phase = "creating_workers"
	if err := s.store.UpdateDeployment(ctx, d); err != nil {
		log.Printf("ERROR: failed to update deployment %s: %v", deploymentID, err)
	}

	workers := s.provisionWorkers(ctx, manager, cfg, deploymentID, logStream)
	if len(workers) == 0 {
		d.Status = domain.DeploymentStatusFailed
		d.Phase = "failed"
		d.Error = "no workers provisioned"
		if err := s.store.UpdateDeployment(ctx, d); err != nil {
			log.Printf("ERROR: failed to update deployment %s: %v", deploymentID, err)
		}
		return "", fmt.Errorf("deployment %s: no workers provisioned", deploymentID)
	}

	generator := content.NewGenerator(cfg.EnableAIGeneration, cfg.EmailDirective, s.llmClient)
	sched := scheduler.New(deploymentID, workers, cfg.Duration(), generator, logStream, s.hub,
		scheduler.Options{Interval: s.config.CycleInterval})

	s.mu.Lock()
	s.schedulers[deploymentID] = sched
	s.managers[deploymentID] = manager
	s.mu.Unlock()

	d.Status = domain.DeploymentStatusRunning
	d.Phase = "executing"
	d.WorkersCreated = len(workers)
	if err := s.store.UpdateDeployment(ctx, d); err != nil {
		log.Printf("ERROR: failed to update deployment %s: %v", deploymentID, err)
	}

	sched.Start()
	observability.DeploymentStarted()
	go s.watch(deploymentID, sched)

	return deploymentID, nil
}

// provisionWorkers creates worker identities one by one. A failure excludes
// that worker and never aborts the deployment.
func (s *Service) provisionWorkers(ctx context.Context, manager *identity.Manager,
	cfg domain.DeploymentConfig, deploymentID string, logStream *scheduler.Log) []domain.WorkerIdentity {

	var workers []domain.WorkerIdentity
	for i := 1; i <= cfg.Workers; i++ {
		worker, err := manager.CreateWorker(ctx, domain.WorkerConfig{
			Department:        cfg.Department,
			WorkerNumber:      i,
			DeploymentID:      deploymentID,
			DisplayNamePrefix: s.config.DisplayNamePrefix,
		})
		if err != nil {
			logStream.Appendf("ERROR", "Failed to create worker %d: %v", i, err)
			continue
		}
		workers = append(workers, worker)
		observability.WorkerProvisioned()
	}
	return workers
}

// watch persists the terminal scheduler state once its loop exits, whether
// by stop, cancellation or duration expiry.
func (s *Service) watch(deploymentID string, sched *scheduler.Scheduler) {
	<-sched.Done()
	observability.DeploymentStopped()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil || d == nil {
		log.Printf("ERROR: failed to load deployment %s after scheduler exit: %v", deploymentID, err)
		return
	}
	if d.Status != domain.DeploymentStatusRunning {
		return
	}

	now := time.Now().UTC()
	d.Status = domain.DeploymentStatusStopped
	d.Phase = "stopped"
	d.StoppedAt = &now
	d.ActivityCount = sched.ActivityCount()
	// Conditional on RUNNING: a stop or cleanup that persisted its
	// transition between our read and this write must not be reverted.
	if _, err := s.store.UpdateDeploymentIf(ctx, d, domain.DeploymentStatusRunning); err != nil {
		log.Printf("ERROR: failed to persist stop for %s: %v", deploymentID, err)
	}
}
