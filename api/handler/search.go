package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kell-C/amazon-scraper/cache"
	"github.com/Kell-C/amazon-scraper/models"
	"github.com/Kell-C/amazon-scraper/scraper"
)

// Searcher runs the extraction pipeline for a keyword with a retry budget.
type Searcher interface {
	Run(ctx context.Context, keyword string, retry int) (*scraper.Outcome, error)
}

// Search returns a handler for GET/POST /api/v1/search.
//
// Flow:
//  1. Parse & validate request (GET query params or POST JSON body).
//  2. Cache lookup when the caller allows stale results.
//  3. Orchestrator.Run → products or terminal failure.
//  4. Serialize; internal error kinds collapse into details + solution.
func Search(orch Searcher, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		var bindErr error
		if c.Request.Method == http.MethodGet {
			bindErr = c.ShouldBindQuery(&req)
		} else {
			bindErr = c.ShouldBindJSON(&req)
		}
		if bindErr != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: bindErr.Error(),
				},
			})
			return
		}

		req.Defaults()
		if verr := req.Validate(); verr != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error:   verr.ToDetail(),
			})
			return
		}

		cacheKey := cache.Key(req.Keyword)
		if cc != nil && req.MaxAgeMs > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAgeMs); hit {
				out := *cached
				out.CacheStatus = "hit"
				c.JSON(http.StatusOK, &out)
				return
			}
		}

		outcome, err := orch.Run(c.Request.Context(), req.Keyword, req.Retry)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := &models.SearchResponse{
			Success:  true,
			Count:    len(outcome.Products),
			Products: outcome.Products,
			Backend:  outcome.Backend,
			Attempts: outcome.Attempts,
		}
		if cc != nil && req.MaxAgeMs > 0 {
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response with a generic remediation hint. The
// details string stays short: the last cause, nothing internal.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	details := scrapeErr.Message
	var cause *models.ScrapeError
	if errors.As(scrapeErr.Unwrap(), &cause) {
		details += ": " + cause.Message
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.SearchResponse{
		Success:  false,
		Error:    scrapeErr.ToDetail(),
		Details:  details,
		Solution: scrapeErr.Solution(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeBlocked,
		models.ErrCodeChallenge, models.ErrCodeNoResults:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
