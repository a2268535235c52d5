package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Kell-C/amazon-scraper/config"
)

// solveDeadline caps a single remediation pass regardless of the caller's
// context, so a stuck provider cannot pin a page open indefinitely.
const solveDeadline = 90 * time.Second

// Solver performs the single automated challenge-remediation pass. With a
// provider credential configured it solves the image captcha through the
// provider's HTTP API; without one, the only lever is a fresh page load.
type Solver struct {
	cfg    config.CaptchaConfig
	client *http.Client
}

// NewSolver creates a Solver. The provider is disabled when no API key is
// configured.
func NewSolver(cfg config.CaptchaConfig) *Solver {
	return &Solver{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Remediate attempts to clear the challenge page currently shown on p.
// Exactly one pass; the caller re-checks the marker and decides.
func (s *Solver) Remediate(ctx context.Context, p *rod.Page) error {
	ctx, cancel := context.WithTimeout(ctx, solveDeadline)
	defer cancel()

	if s.cfg.APIKey == "" {
		if err := p.Context(ctx).Reload(); err != nil {
			return fmt.Errorf("solver: reload: %w", err)
		}
		return p.Context(ctx).WaitDOMStable(300*time.Millisecond, 0.1)
	}

	answer, err := s.solveImage(ctx, p)
	if err != nil {
		return err
	}
	return submitAnswer(ctx, p, answer)
}

// solveImage downloads the captcha image from the page and runs it through
// the provider's submit-then-poll API.
func (s *Solver) solveImage(ctx context.Context, p *rod.Page) (string, error) {
	has, img, err := p.Has(captchaImageSelector)
	if err != nil || !has {
		return "", fmt.Errorf("solver: captcha image not found: %w", err)
	}
	src, err := img.Attribute("src")
	if err != nil || src == nil || *src == "" {
		return "", fmt.Errorf("solver: captcha image has no src")
	}

	raw, err := s.download(ctx, *src)
	if err != nil {
		return "", err
	}

	id, err := s.submitTask(ctx, raw)
	if err != nil {
		return "", err
	}
	return s.pollAnswer(ctx, id)
}

func (s *Solver) download(ctx context.Context, imgURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, fmt.Errorf("solver: build image request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solver: fetch captcha image: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// submitTask uploads the captcha image and returns the provider task id.
func (s *Solver) submitTask(ctx context.Context, image []byte) (string, error) {
	form := url.Values{
		"key":    {s.cfg.APIKey},
		"method": {"base64"},
		"body":   {base64.StdEncoding.EncodeToString(image)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/in.php", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("solver: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := s.do(req)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(body, "OK|") {
		return "", fmt.Errorf("solver: provider rejected task: %s", body)
	}
	return strings.TrimPrefix(body, "OK|"), nil
}

// pollAnswer polls the provider until the task resolves or ctx expires.
func (s *Solver) pollAnswer(ctx context.Context, id string) (string, error) {
	resURL := fmt.Sprintf("%s/res.php?key=%s&action=get&id=%s",
		s.cfg.BaseURL, url.QueryEscape(s.cfg.APIKey), url.QueryEscape(id))

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("solver: answer poll: %w", ctx.Err())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, resURL, nil)
			if err != nil {
				return "", fmt.Errorf("solver: build poll request: %w", err)
			}
			body, err := s.do(req)
			if err != nil {
				return "", err
			}
			switch {
			case body == "CAPCHA_NOT_READY":
				continue
			case strings.HasPrefix(body, "OK|"):
				return strings.TrimPrefix(body, "OK|"), nil
			default:
				return "", fmt.Errorf("solver: provider error: %s", body)
			}
		}
	}
}

func (s *Solver) do(req *http.Request) (string, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("solver: provider request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("solver: read provider response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// submitAnswer types the solved text into the challenge form and submits it,
// waiting for the resulting navigation to parse.
func submitAnswer(ctx context.Context, p *rod.Page, answer string) error {
	page := p.Context(ctx)

	has, input, err := page.Has(captchaInputSelector)
	if err != nil || !has {
		return fmt.Errorf("solver: captcha input not found: %w", err)
	}
	if err := input.Input(answer); err != nil {
		return fmt.Errorf("solver: type answer: %w", err)
	}

	has, submit, err := page.Has(captchaSubmitSel)
	if err != nil || !has {
		return fmt.Errorf("solver: submit button not found: %w", err)
	}

	waitDOM := page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("solver: submit form: %w", err)
	}
	waitDOM()
	return nil
}
