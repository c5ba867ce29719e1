package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/workforce/internal/adapter/directory"
	"github.com/xiaot623/workforce/internal/adapter/llm"
	"github.com/xiaot623/workforce/internal/config"
	"github.com/xiaot623/workforce/internal/domain"
	"github.com/xiaot623/workforce/internal/notify"
	"github.com/xiaot623/workforce/internal/observability"
	store "github.com/xiaot623/workforce/internal/repository"
	"github.com/xiaot623/workforce/internal/service"
	handler "github.com/xiaot623/workforce/internal/transport/http"
	"github.com/xiaot623/workforce/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting workforce simulator...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize directory client
	dirClient := directory.NewDirectoryClient(directory.Credentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.AppID,
		ClientSecret: cfg.ClientSecret,
	}, cfg.GraphBaseURL, cfg.GraphAuthorityURL, 30*time.Second)

	// Initialize LLM client
	llmClient := llm.NewLLMClient(cfg.LiteLLMURL, cfg.LiteLLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)

	// Initialize admission policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize notification hub with metrics subscriber
	hub := notify.NewHub()
	hub.Subscribe(observability.ActivityMetrics{})

	// Initialize service
	svc := service.New(db, dirClient, llmClient, cfg, policyEngine, hub)

	// Deployments left running by a previous process are not resumed.
	if err := svc.RecoverOrphans(ctx); err != nil {
		log.Printf("WARN: orphan recovery failed: %v", err)
	}

	// Create HTTP server
	e := handler.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Deployment API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down workforce simulator...")

	// Stop all live deployments so no activity outlives the process
	deployments, err := svc.ListDeployments(ctx)
	if err != nil {
		log.Printf("WARN: failed to list deployments for shutdown: %v", err)
	}
	for _, d := range deployments {
		if d.Status == domain.DeploymentStatusRunning {
			if _, err := svc.Stop(ctx, d.DeploymentID); err != nil {
				log.Printf("WARN: failed to stop deployment %s: %v", d.DeploymentID, err)
			}
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Workforce simulator stopped")
}
