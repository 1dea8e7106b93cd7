package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker is satisfied by the store
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db HealthChecker
}

func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health
//
//	@Summary		Health check
//	@Description	Ping the database
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	object{status=string,database=string}	"Healthy"
//	@Failure		503	{object}	object{status=string,database=string}	"Database unreachable"
//	@Router			/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.db.Health(c.Request.Context()); err != nil {
		log.Printf("[Health] database ping failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}
