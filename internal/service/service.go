// Package service implements the deployment lifecycle controller.
package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/xiaot623/workforce/internal/adapter/directory"
	"github.com/xiaot623/workforce/internal/adapter/llm"
	"github.com/xiaot623/workforce/internal/config"
	"github.com/xiaot623/workforce/internal/domain"
	"github.com/xiaot623/workforce/internal/identity"
	"github.com/xiaot623/workforce/internal/notify"
	store "github.com/xiaot623/workforce/internal/repository"
	"github.com/xiaot623/workforce/internal/scheduler"
	"github.com/xiaot623/workforce/policy"
)

// Service owns deployment lifecycle state. The live scheduler and identity
// manager registries are fields here, never package state, so multiple
// service instances stay isolated.
type Service struct {
	store        store.Store
	dirClient    directory.Client
	llmClient    llm.Client
	config       *config.Config
	policyEngine *policy.Engine
	hub          *notify.Hub

	mu         sync.RWMutex
	schedulers map[string]*scheduler.Scheduler
	managers   map[string]*identity.Manager
}

// New creates the lifecycle controller and registers the activity
// persistence subscriber on the hub.
func New(st store.Store, dirClient directory.Client, llmClient llm.Client,
	cfg *config.Config, policyEngine *policy.Engine, hub *notify.Hub) *Service {

	if hub == nil {
		hub = notify.NewHub()
	}

	s := &Service{
		store:        st,
		dirClient:    dirClient,
		llmClient:    llmClient,
		config:       cfg,
		policyEngine: policyEngine,
		hub:          hub,
		schedulers:   make(map[string]*scheduler.Scheduler),
		managers:     make(map[string]*identity.Manager),
	}

	hub.Subscribe(notify.SubscriberFunc(s.persistActivity))
	return s
}

// Hub returns the activity notification hub, for additional subscribers.
func (s *Service) Hub() *notify.Hub {
	return s.hub
}

// persistActivity writes every fired activity to the store.
func (s *Service) persistActivity(a domain.Activity) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.CreateActivity(ctx, &a); err != nil {
		log.Printf("ERROR: failed to persist activity for %s: %v", a.DeploymentID, err)
	}
}

// liveScheduler returns the running scheduler for a deployment, if any.
func (s *Service) liveScheduler(deploymentID string) *scheduler.Scheduler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedulers[deploymentID]
}

// liveManager returns the identity manager for a deployment, if any.
func (s *Service) liveManager(deploymentID string) *identity.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managers[deploymentID]
}
