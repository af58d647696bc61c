package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	version string
	db      Pinger
	now     func() time.Time
}

func NewHealthHandler(version string, db Pinger) *HealthHandler {
	return &HealthHandler{version: version, db: db, now: time.Now}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
		"version":   h.version,
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, model.Fail("database unavailable", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
