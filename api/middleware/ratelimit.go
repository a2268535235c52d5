package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kell-C/amazon-scraper/gate"
	"github.com/Kell-C/amazon-scraper/models"
)

// RateLimit returns per-identity (API key or IP) admission middleware backed
// by the fixed-window gate. Denied requests never reach the extraction core.
func RateLimit(g *gate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity, exists := c.Get("api_key")
		if !exists {
			identity = c.ClientIP()
		}

		if !g.Admit(identity.(string)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}

		c.Next()
	}
}
