// Package store defines the storage interface and its SQLite implementation.
package store

import (
	"context"

	"github.com/xiaot623/workforce/internal/domain"
)

// Store is the persistence interface for deployments, their log streams,
// and fired activities.
type Store interface {
	CreateDeployment(ctx context.Context, d *domain.Deployment) error
	// GetDeployment returns (nil, nil) when the deployment does not exist.
	GetDeployment(ctx context.Context, deploymentID string) (*domain.Deployment, error)
	UpdateDeployment(ctx context.Context, d *domain.Deployment) error
	// UpdateDeploymentIf rewrites the record only while its stored status
	// still equals expect. Returns false when another transition won.
	UpdateDeploymentIf(ctx context.Context, d *domain.Deployment, expect domain.DeploymentStatus) (bool, error)
	ListDeployments(ctx context.Context) ([]domain.Deployment, error)

	AppendLogLine(ctx context.Context, deploymentID, line string) error
	// GetLogLines returns the last n log lines for a deployment, oldest first.
	GetLogLines(ctx context.Context, deploymentID string, n int) ([]string, error)

	CreateActivity(ctx context.Context, a *domain.Activity) error
	CountActivities(ctx context.Context, deploymentID string) (int64, error)

	Close() error
}
