// Package v1 provides HTTP handlers for the deployment API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/workforce/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers deployment routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/deployments", h.CreateDeployment)
	e.GET("/v1/deployments", h.ListDeployments)
	e.GET("/v1/deployments/:deployment_id", h.GetDeployment)
	e.POST("/v1/deployments/:deployment_id/stop", h.StopDeployment)
	e.POST("/v1/deployments/:deployment_id/cleanup", h.CleanupDeployment)
	e.GET("/v1/deployments/:deployment_id/logs", h.GetDeploymentLogs)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
