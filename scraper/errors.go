package scraper

import (
	"context"
	"errors"

	"github.com/Kell-C/amazon-scraper/models"
)

// categorizeError wraps raw errors into typed ScrapeErrors so the retry
// policy and the API layer can react to the error kind.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
