// Package identity manages the directory accounts backing a deployment's
// simulated workers.
package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"github.com/xiaot623/workforce/internal/adapter/directory"
	"github.com/xiaot623/workforce/internal/domain"
)

const defaultDomain = "contoso.onmicrosoft.com"

// Manager creates, tracks and deletes worker identities for one deployment.
type Manager struct {
	deploymentID string
	client       directory.Client
	domainName   string

	mu      sync.Mutex
	workers map[string]domain.WorkerIdentity
}

// NewManager creates a manager bound to one deployment.
func NewManager(deploymentID string, client directory.Client, domainName string) *Manager {
	if domainName == "" {
		domainName = defaultDomain
	}
	return &Manager{
		deploymentID: deploymentID,
		client:       client,
		domainName:   domainName,
		workers:      make(map[string]domain.WorkerIdentity),
	}
}

// CreateWorker provisions one worker account and binds its department
// activity pattern.
func (m *Manager) CreateWorker(ctx context.Context, cfg domain.WorkerConfig) (domain.WorkerIdentity, error) {
	upn := fmt.Sprintf("kworker-%s-%d@%s", cfg.DeploymentID, cfg.WorkerNumber, m.domainName)
	if cfg.Domain != "" {
		upn = fmt.Sprintf("kworker-%s-%d@%s", cfg.DeploymentID, cfg.WorkerNumber, cfg.Domain)
	}

	password, err := generatePassword(16)
	if err != nil {
		return domain.WorkerIdentity{}, fmt.Errorf("failed to generate password: %w", err)
	}

	user, err := m.client.CreateUser(ctx, directory.CreateUserRequest{
		DisplayName:       cfg.DisplayName(),
		UserPrincipalName: upn,
		Password:          password,
	})
	if err != nil {
		return domain.WorkerIdentity{}, fmt.Errorf("failed to create worker %d: %w", cfg.WorkerNumber, err)
	}

	worker := domain.NewWorkerIdentity(cfg, user.ObjectID, user.UserPrincipalName)

	m.mu.Lock()
	m.workers[worker.WorkerID] = worker
	m.mu.Unlock()

	return worker, nil
}

// DeleteWorker deletes one tracked worker. Returns false when the worker
// is not tracked by this manager.
func (m *Manager) DeleteWorker(ctx context.Context, workerID string) (bool, error) {
	m.mu.Lock()
	worker, ok := m.workers[workerID]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}

	if err := m.client.DeleteUser(ctx, worker.ObjectID); err != nil {
		return false, err
	}

	m.mu.Lock()
	delete(m.workers, workerID)
	m.mu.Unlock()
	return true, nil
}

// DeleteAllWorkers deletes every tracked worker, returning the number
// successfully deleted. A directory failure stops the pass and is
// returned alongside the partial count.
func (m *Manager) DeleteAllWorkers(ctx context.Context) (int, error) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.workers))
	for id := range m.workers {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	count := 0
	for _, id := range ids {
		deleted, err := m.DeleteWorker(ctx, id)
		if err != nil {
			return count, err
		}
		if deleted {
			count++
		}
	}
	return count, nil
}

// Workers returns all currently tracked workers.
func (m *Manager) Workers() []domain.WorkerIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.WorkerIdentity, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w)
	}
	return out
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
