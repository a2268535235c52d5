// Package session owns the process-wide rendering session: a single headless
// browser created lazily on first demand, shared by all requests, and torn
// down exactly once on shutdown.
package session

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/Kell-C/amazon-scraper/config"
	"github.com/Kell-C/amazon-scraper/models"
)

// ErrClosed is returned by Acquire after Release has begun. Once shutdown
// starts the session is never relaunched; a clean restart is required.
var ErrClosed = errors.New("session manager closed")

// Manager guards the create-once browser session. Safe for concurrent use:
// simultaneous first acquires serialize on the mutex, exactly one launch
// wins and the rest reuse it.
type Manager struct {
	cfg config.BrowserConfig

	mu      sync.Mutex
	browser *rod.Browser
	closed  bool

	// launch is swapped out in tests.
	launch func(config.BrowserConfig) (*rod.Browser, error)
}

// NewManager creates a Manager. The browser is not launched until the first
// Acquire.
func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{cfg: cfg, launch: launchBrowser}
}

// Acquire returns the live browser, launching it on first call. A failed
// launch leaves the manager intact, so a later Acquire retries cleanly.
func (m *Manager) Acquire() (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "session manager is shut down", ErrClosed)
	}
	if m.browser != nil {
		return m.browser, nil
	}

	// Wipe the scratch profile so fingerprint state accumulated by a
	// previous run never leaks into the new session.
	if err := resetWorkDir(m.cfg.UserDataDir); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to reset browser work dir", err)
	}

	browser, err := m.launch(m.cfg)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	m.browser = browser
	slog.Info("render session created", "userDataDir", m.cfg.UserDataDir)
	return m.browser, nil
}

// Live reports whether a browser session currently exists.
func (m *Manager) Live() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil
}

// Release closes the browser and marks the manager closed. Idempotent and
// safe to call when no session was ever created.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	if m.browser != nil {
		slog.Info("render session shutting down")
		if err := m.browser.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
		m.browser = nil
	}
}

// resetWorkDir deletes and recreates the scratch directory.
func resetWorkDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// launchBrowser starts a headless Chromium and connects to it. Sandboxing is
// disabled for containerized environments; GPU is off and the window size is
// fixed so rendering is deterministic across hosts.
func launchBrowser(cfg config.BrowserConfig) (*rod.Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		UserDataDir(cfg.UserDataDir)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return browser, nil
}
