package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/Kell-C/amazon-scraper/config"
	"github.com/Kell-C/amazon-scraper/identity"
	"github.com/Kell-C/amazon-scraper/models"
)

// RawFetchBackend extracts product records from a single direct HTTP request.
// It is cheap and fully independent of the rendering engine, but cannot
// solve challenges or wait for client-side rendering, so the orchestrator
// only uses it as a last resort.
type RawFetchBackend struct {
	cfg     config.ScraperConfig
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
}

// NewRawFetchBackend creates a RawFetchBackend with a Chrome TLS fingerprint
// and outbound pacing. proxy, when non-empty, routes requests through the
// same upstream the browser session uses.
func NewRawFetchBackend(cfg config.ScraperConfig, proxy string) (*RawFetchBackend, error) {
	base, err := url.Parse(cfg.SearchBaseURL)
	if err != nil {
		return nil, fmt.Errorf("rawfetch: parse search base URL: %w", err)
	}

	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr)
		},
	}
	if proxy != "" {
		if proxyURL, perr := url.Parse(proxy); perr == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &RawFetchBackend{
		cfg:     cfg,
		base:    base,
		client:  &http.Client{Transport: transport},
		limiter: rate.NewLimiter(rate.Limit(cfg.FetchRPS), cfg.FetchBurst),
	}, nil
}

// Extract issues one paced GET with generated identity headers and parses
// the returned markup. A block marker or a 503 maps to a blocked error
// without any parsing attempt; a challenge response is indistinguishable
// from a block here and is treated the same way.
func (b *RawFetchBackend) Extract(ctx context.Context, keyword string) ([]models.Product, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, categorizeError(err, "outbound pacing interrupted")
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.FetchTimeout)
	defer cancel()

	profile := identity.Generate()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL(b.base, keyword), nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "build search request", err)
	}
	for k, v := range profile.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, categorizeError(err, "search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, models.NewScrapeError(models.ErrCodeBlocked, "service unavailable: request flagged as automated", nil)
	}
	if resp.StatusCode >= 400 {
		return nil, models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("HTTP %d from search endpoint", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10 MB cap
	if err != nil {
		return nil, categorizeError(err, "read response body")
	}

	if isBlockPage(body) {
		return nil, models.NewScrapeError(models.ErrCodeBlocked, "block marker present in response", nil)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNavigation, "parse response markup", err)
	}
	return parseResults(doc, b.base), nil
}

// isBlockPage scans the visible body text for block markers. Markup is
// tokenized rather than substring-matched so marker text buried in scripts
// or attributes doesn't trigger false positives.
func isBlockPage(body []byte) bool {
	text := extractVisibleText(body)
	for _, marker := range blockMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via
// utls, so the raw-fetch path doesn't present Go's default ClientHello.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
