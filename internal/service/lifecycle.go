package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xiaot623/workforce/internal/domain"
)

// GetStatus returns the deployment record, with the activity count read
// from the live scheduler when one exists.
func (s *Service) GetStatus(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	d, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("deployment %s: %w", deploymentID, domain.ErrDeploymentNotFound)
	}

	if sched := s.liveScheduler(deploymentID); sched != nil {
		d.ActivityCount = sched.ActivityCount()
	}
	return d, nil
}

// Stop halts a running deployment. Idempotent: stopping an already stopped
// deployment succeeds without effect.
func (s *Service) Stop(ctx context.Context, deploymentID string) (bool, error) {
	d, err := s.GetStatus(ctx, deploymentID)
	if err != nil {
		return false, err
	}

	if sched := s.liveScheduler(deploymentID); sched != nil {
		sched.Stop()
		d.ActivityCount = sched.ActivityCount()
	}

	if d.Status == domain.DeploymentStatusPending || d.Status == domain.DeploymentStatusRunning {
		now := time.Now().UTC()
		d.Status = domain.DeploymentStatusStopped
		d.Phase = "stopped"
		if d.StoppedAt == nil {
			d.StoppedAt = &now
		}
	}
	if err := s.store.UpdateDeployment(ctx, d); err != nil {
		return false, fmt.Errorf("failed to persist stop: %w", err)
	}
	return true, nil
}

// Cleanup stops the scheduler if still running and deletes every
// provisioned worker. Failures are recorded in the report and the
// deployment ends FAILED instead of propagating.
func (s *Service) Cleanup(ctx context.Context, deploymentID string) (*domain.CleanupReport, error) {
	d, err := s.GetStatus(ctx, deploymentID)
	if err != nil {
		return nil, err
	}

	report := &domain.CleanupReport{
		DeploymentID: deploymentID,
		Details:      []string{},
		Errors:       []string{},
	}

	sched := s.liveScheduler(deploymentID)
	manager := s.liveManager(deploymentID)

	cleanupErr := func() error {
		if sched != nil && sched.Running() {
			sched.Stop()
		}
		if sched != nil {
			d.ActivityCount = sched.ActivityCount()
		}

		d.Status = domain.DeploymentStatusCleaningUp
		d.Phase = "cleanup"
		if err := s.store.UpdateDeployment(ctx, d); err != nil {
			return fmt.Errorf("failed to persist cleanup state: %w", err)
		}

		if manager != nil {
			deleted, err := manager.DeleteAllWorkers(ctx)
			report.ResourcesDeleted += deleted
			report.Details = append(report.Details, fmt.Sprintf("Deleted %d directory users", deleted))
			if err != nil {
				return err
			}
		}
		return nil
	}()

	now := time.Now().UTC()
	if cleanupErr != nil {
		report.Errors = append(report.Errors, cleanupErr.Error())
		d.Status = domain.DeploymentStatusFailed
		d.Error = cleanupErr.Error()
	} else {
		d.Status = domain.DeploymentStatusCompleted
		d.Phase = "cleaned_up"
		d.CompletedAt = &now
	}
	if err := s.store.UpdateDeployment(ctx, d); err != nil {
		log.Printf("ERROR: failed to persist cleanup result for %s: %v", deploymentID, err)
	}

	s.mu.Lock()
	delete(s.schedulers, deploymentID)
	delete(s.managers, deploymentID)
	s.mu.Unlock()

	return report, nil
}

// ListDeployments returns all deployments with live activity counts
// overlaid where schedulers are still running.
func (s *Service) ListDeployments(ctx context.Context) ([]domain.Deployment, error) {
	deployments, err := s.store.ListDeployments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	for i := range deployments {
		if sched := s.liveScheduler(deployments[i].DeploymentID); sched != nil {
			deployments[i].ActivityCount = sched.ActivityCount()
		}
	}
	return deployments, nil
}

// RecoverOrphans marks deployments left RUNNING by a previous process as
// STOPPED. Background cycles are not resumed after a restart; callers
// redeploy instead.
func (s *Service) RecoverOrphans(ctx context.Context) error {
	deployments, err := s.store.ListDeployments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list deployments: %w", err)
	}

	for i := range deployments {
		d := &deployments[i]
		if d.Status != domain.DeploymentStatusRunning && d.Status != domain.DeploymentStatusPending {
			continue
		}
		if s.liveScheduler(d.DeploymentID) != nil {
			continue
		}

		now := time.Now().UTC()
		d.Status = domain.DeploymentStatusStopped
		d.Phase = "orphaned"
		d.StoppedAt = &now
		if err := s.store.UpdateDeployment(ctx, d); err != nil {
			log.Printf("ERROR: failed to mark deployment %s orphaned: %v", d.DeploymentID, err)
			continue
		}
		log.Printf("WARN: deployment %s was running at last shutdown, marked STOPPED", d.DeploymentID)
	}
	return nil
}
