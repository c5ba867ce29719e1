package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/workforce/internal/domain"
)

// GetDeploymentLogs returns the last N log lines, or streams them via SSE
// when follow=true.
// GET /v1/deployments/:deployment_id/logs?lines=100&follow=false
func (h *Handler) GetDeploymentLogs(c echo.Context) error {
	ctx := c.Request().Context()
	deploymentID := c.Param("deployment_id")

	lines := 100
	if raw := c.QueryParam("lines"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			lines = n
		}
	}
	follow := c.QueryParam("follow") == "true"

	if !follow {
		logLines, err := h.service.GetLogs(ctx, deploymentID, lines)
		if err != nil {
			if errors.Is(err, domain.ErrDeploymentNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "deployment not found"})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if logLines == nil {
			logLines = []string{}
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"deployment_id": deploymentID,
			"lines":         logLines,
		})
	}

	tail, err := h.service.TailLogs(ctx, deploymentID, lines)
	if err != nil {
		if errors.Is(err, domain.ErrDeploymentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "deployment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	// SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	flusher, _ := c.Response().Writer.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for line := range tail {
		if _, err := fmt.Fprintf(c.Response().Writer, "data: %s\n\n", line); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return nil
}
