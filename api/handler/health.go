package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kell-C/amazon-scraper/models"
	"github.com/Kell-C/amazon-scraper/session"
)

// Health returns a handler for GET /api/v1/health.
func Health(sessions *session.Manager, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:      "healthy",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			SessionLive: sessions.Live(),
			Version:     "0.1.0",
		})
	}
}
