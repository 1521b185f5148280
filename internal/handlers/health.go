package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	started time.Time
	check   func(ctx context.Context) error
}

// NewHealthHandler reports degraded whenever check fails.
func NewHealthHandler(check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{started: time.Now(), check: check}
}

type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"` // seconds
	Error     string    `json:"error,omitempty"`
}

// Health godoc
// @Summary		Health
// @Tags			ops
// @Produce		json
// @Success		200	{object}	HealthResponse
// @Failure		503	{object}	HealthResponse
// @Router			/api/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Seconds(),
	}
	if h.check != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			resp.Status, resp.Error = "degraded", err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
