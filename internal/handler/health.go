package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	gen         ProblemGenerator
	environment string
	version     string
	now         func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(gen ProblemGenerator, environment, version string) *HealthHandler {
	return &HealthHandler{
		gen:         gen,
		environment: environment,
		version:     version,
		now:         time.Now,
	}
}

// Check returns the health status of the server.
func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "OK",
		"timestamp":    h.now().UTC().Format(time.RFC3339Nano),
		"ai_available": h.gen.Available(),
		"provider":     h.gen.Provider(),
		"environment":  h.environment,
		"version":      h.version,
	})
}
