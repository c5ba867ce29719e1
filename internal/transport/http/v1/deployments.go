package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/workforce/internal/domain"
)

// CreateDeployment creates and starts a new deployment.
// POST /v1/deployments
func (h *Handler) CreateDeployment(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.DeployRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	deploymentID, err := h.service.Deploy(ctx, req)
	if err != nil {
		var validationErr *domain.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":  "invalid deployment config",
				"errors": validationErr.Violations,
			})
		case errors.Is(err, domain.ErrPolicyBlocked):
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"deployment_id": deploymentID,
		"status":        domain.DeploymentStatusRunning,
	})
}

// ListDeployments lists all deployments.
// GET /v1/deployments
func (h *Handler) ListDeployments(c echo.Context) error {
	ctx := c.Request().Context()

	deployments, err := h.service.ListDeployments(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"deployments": deployments,
	})
}

// GetDeployment gets a specific deployment by ID.
// GET /v1/deployments/:deployment_id
func (h *Handler) GetDeployment(c echo.Context) error {
	ctx := c.Request().Context()
	deploymentID := c.Param("deployment_id")

	deployment, err := h.service.GetStatus(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, domain.ErrDeploymentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "deployment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, deployment)
}

// StopDeployment stops a running deployment.
// POST /v1/deployments/:deployment_id/stop
func (h *Handler) StopDeployment(c echo.Context) error {
	ctx := c.Request().Context()
	deploymentID := c.Param("deployment_id")

	stopped, err := h.service.Stop(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, domain.ErrDeploymentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "deployment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"deployment_id": deploymentID,
		"stopped":       stopped,
		"status":        domain.DeploymentStatusStopped,
	})
}

// CleanupDeployment deletes all resources for a deployment.
// POST /v1/deployments/:deployment_id/cleanup
func (h *Handler) CleanupDeployment(c echo.Context) error {
	ctx := c.Request().Context()
	deploymentID := c.Param("deployment_id")

	report, err := h.service.Cleanup(ctx, deploymentID)
	if err != nil {
		if errors.Is(err, domain.ErrDeploymentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "deployment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, report)
}
