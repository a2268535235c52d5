package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/Kell-C/amazon-scraper/config"
	"github.com/Kell-C/amazon-scraper/identity"
	"github.com/Kell-C/amazon-scraper/models"
	"github.com/Kell-C/amazon-scraper/session"
)

// RenderBackend extracts product records by fully rendering the search page
// in the shared browser session. It is the authoritative backend: it handles
// client-side rendered content and can attempt challenge remediation, at the
// cost of being expensive and easier to flag over repeated attempts.
type RenderBackend struct {
	sessions *session.Manager
	solver   *Solver
	cfg      config.ScraperConfig
	base     *url.URL
}

// NewRenderBackend creates a RenderBackend bound to the shared session manager.
func NewRenderBackend(sessions *session.Manager, solver *Solver, cfg config.ScraperConfig) (*RenderBackend, error) {
	base, err := url.Parse(cfg.SearchBaseURL)
	if err != nil {
		return nil, fmt.Errorf("render: parse search base URL: %w", err)
	}
	return &RenderBackend{sessions: sessions, solver: solver, cfg: cfg, base: base}, nil
}

// Extract renders the search results page for a keyword and returns the
// valid records found on it.
//
// Lifecycle:
//
//  1. Acquire session        – shared browser, launched on first demand
//  2. Open page              – one isolated tab per request, never shared
//  3. DEFER: close page      – every exit path, the session stays alive
//  4. Stealth + identity     – must happen before navigation
//  5. Hijack mount           – abort Image/Font/Stylesheet before navigation
//  6. Navigate               – waits for DOM parsed only, 30s bound
//  7. Challenge check        – one remediation pass, then give up
//  8. Selector wait          – first result item, 10s bound
//  9. Extract + filter       – only valid records leave
func (b *RenderBackend) Extract(ctx context.Context, keyword string) ([]models.Product, error) {
	browser, err := b.sessions.Acquire()
	if err != nil {
		return nil, err
	}

	profile := identity.Generate()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	// The tab is discarded after extraction, not reused. Closing uses the
	// original page reference so cleanup succeeds even when the request
	// context has already expired.
	defer func() { _ = page.Close() }()

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent:      profile.UserAgent,
		AcceptLanguage: profile.AcceptLanguage,
	}).Call(page); err != nil {
		slog.Warn("user agent override failed", "error", err)
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(profile.ClientHints)}.Call(page)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		slog.Warn("viewport override failed", "error", err)
	}

	router := setupHijack(page)
	defer func() { _ = router.Stop() }()

	// Navigation waits only until the DOM is parsed, not full resource load.
	navCtx, cancelNav := context.WithTimeout(ctx, b.cfg.NavigationTimeout)
	defer cancelNav()

	p := page.Context(navCtx)
	waitDOM := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(searchURL(b.base, keyword)); err != nil {
		return nil, categorizeError(err, "navigation to search page failed")
	}
	waitDOM()
	if navCtx.Err() != nil {
		return nil, categorizeError(navCtx.Err(), "page never reached DOM ready")
	}

	p = page.Context(ctx)

	// Challenge detection: one automated remediation pass, no more.
	if hasChallenge(p) {
		slog.Warn("challenge page detected", "keyword", keyword)
		if err := b.solver.Remediate(ctx, p); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeChallenge, "challenge remediation failed", err)
		}
		if hasChallenge(p) {
			return nil, models.NewScrapeError(models.ErrCodeChallenge, "challenge page persisted after remediation", nil)
		}
	}

	selCtx, cancelSel := context.WithTimeout(ctx, b.cfg.SelectorTimeout)
	defer cancelSel()
	if err := page.Context(selCtx).WaitElementsMoreThan(resultItemSelector, 0); err != nil {
		return nil, categorizeError(err, "search results never appeared")
	}

	return b.extractRecords(p)
}

// hasChallenge reports whether the bot-check marker element is present.
func hasChallenge(p *rod.Page) bool {
	has, _, err := p.Has(challengeSelector)
	return err == nil && has
}

// extractRecords pulls structured fields out of every result item in one
// evaluation round trip, then canonicalizes links and filters validity on
// the Go side.
func (b *RenderBackend) extractRecords(p *rod.Page) ([]models.Product, error) {
	res, err := p.Eval(extractJS())
	if err != nil {
		return nil, categorizeError(err, "result extraction failed")
	}

	items := res.Value.Arr()
	out := make([]models.Product, 0, len(items))
	for _, item := range items {
		rec := models.Product{
			Title:    strings.TrimSpace(item.Get("title").Str()),
			Price:    strings.TrimSpace(item.Get("price").Str()),
			Rating:   strings.TrimSpace(item.Get("rating").Str()),
			ImageURL: item.Get("image").Str(),
		}
		rec.Link = resolveLink(b.base, item.Get("href").Str(), item.Get("asin").Str())
		if rec.Valid() {
			out = append(out, rec)
		}
	}
	return out, nil
}

// extractJS builds the in-page extraction function from the shared selector
// constants, so both backends stay on identical field-selection rules.
func extractJS() string {
	return fmt.Sprintf(`() => {
		const pick = (root, sel) => {
			const el = root.querySelector(sel);
			return el ? el.textContent.trim() : "";
		};
		const out = [];
		for (const item of document.querySelectorAll(%q)) {
			const img = item.querySelector(%q);
			const anchor = item.querySelector(%q);
			out.push({
				title:  pick(item, %q),
				price:  pick(item, %q),
				rating: pick(item, %q),
				image:  img ? img.getAttribute("src") || "" : "",
				href:   anchor ? anchor.getAttribute("href") || "" : "",
				asin:   item.getAttribute("data-asin") || "",
			});
		}
		return out;
	}`, resultItemSelector, imageSelector, linkSelector, titleSelector, priceSelector, ratingSelector)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
