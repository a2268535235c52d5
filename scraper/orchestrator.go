package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kell-C/amazon-scraper/models"
)

// Extractor is a single extraction backend. Implementations return only
// valid records; an empty slice with a nil error means the page was reached
// but held nothing usable.
type Extractor interface {
	Extract(ctx context.Context, keyword string) ([]models.Product, error)
}

// Outcome is the result of one orchestrated extraction run. Ephemeral:
// created per invocation, discarded once the transport shell serializes it.
type Outcome struct {
	Products []models.Product
	Attempts int
	Backend  models.Backend
}

// Orchestrator sequences extraction attempts across the two backends.
//
// The rendering backend is authoritative but expensive and more likely to be
// flagged over repeated attempts; the raw-fetch backend is cheap and
// stateless but can neither solve challenges nor wait for client-side
// rendering. It is therefore only a fallback, never tried first.
type Orchestrator struct {
	render  Extractor
	raw     Extractor
	backoff time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator wires the two backends with the linear backoff unit.
func NewOrchestrator(render, raw Extractor, backoff time.Duration) *Orchestrator {
	return &Orchestrator{render: render, raw: raw, backoff: backoff, sleep: sleepCtx}
}

// Run attempts the rendering backend up to retry+1 times with linear backoff
// (backoff*i before attempt i), then falls back once to the raw-fetch
// backend. The first non-empty result set wins; total exhaustion yields a
// terminal no-results error carrying the last underlying cause.
func (o *Orchestrator) Run(ctx context.Context, keyword string, retry int) (*Outcome, error) {
	if retry < 0 {
		retry = 0
	}
	if retry > models.MaxRetry {
		retry = models.MaxRetry
	}

	var lastErr error
	attempts := 0

	for i := 0; i <= retry; i++ {
		if i > 0 {
			// Linear, not exponential: the goal is to give the remote
			// side progressively more time to stop flagging the
			// identity, not to spread load.
			if err := o.sleep(ctx, o.backoff*time.Duration(i)); err != nil {
				return nil, categorizeError(err, "retry backoff interrupted")
			}
		}

		attempts++
		products, err := o.render.Extract(ctx, keyword)
		if err != nil {
			lastErr = err
			slog.Warn("rendering attempt failed", "keyword", keyword, "attempt", i, "error", err)
			continue
		}
		if len(products) > 0 {
			return &Outcome{Products: products, Attempts: attempts, Backend: models.BackendRendering}, nil
		}
		lastErr = models.NewScrapeError(models.ErrCodeNoResults, "rendering produced no valid records", nil)
	}

	// Last resort: exactly one raw fetch.
	attempts++
	products, err := o.raw.Extract(ctx, keyword)
	if err != nil {
		lastErr = err
		slog.Warn("raw-fetch fallback failed", "keyword", keyword, "error", err)
	} else if len(products) > 0 {
		return &Outcome{Products: products, Attempts: attempts, Backend: models.BackendRawFetch}, nil
	}

	return nil, models.NewScrapeError(models.ErrCodeNoResults,
		fmt.Sprintf("no results for %q after %d attempts", keyword, attempts), lastErr)
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
