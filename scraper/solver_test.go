package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kell-C/amazon-scraper/config"
)

func newTestSolver(t *testing.T, handler http.HandlerFunc) *Solver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSolver(config.CaptchaConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		PollInterval: 5 * time.Millisecond,
	})
}

func TestSubmitTask_ReturnsTaskID(t *testing.T) {
	s := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/in.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("key") != "test-key" || r.PostForm.Get("method") != "base64" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		_, _ = w.Write([]byte("OK|12345"))
	})

	id, err := s.submitTask(context.Background(), []byte("image-bytes"))
	if err != nil {
		t.Fatalf("submitTask: %v", err)
	}
	if id != "12345" {
		t.Errorf("id = %q, want 12345", id)
	}
}

func TestSubmitTask_ProviderRejection(t *testing.T) {
	s := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ERROR_ZERO_BALANCE"))
	})

	if _, err := s.submitTask(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error on provider rejection")
	}
}

func TestPollAnswer_WaitsUntilReady(t *testing.T) {
	var polls int
	s := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/res.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		polls++
		if polls < 3 {
			_, _ = w.Write([]byte("CAPCHA_NOT_READY"))
			return
		}
		_, _ = w.Write([]byte("OK|XK7P9M"))
	})

	answer, err := s.pollAnswer(context.Background(), "12345")
	if err != nil {
		t.Fatalf("pollAnswer: %v", err)
	}
	if answer != "XK7P9M" {
		t.Errorf("answer = %q", answer)
	}
	if polls != 3 {
		t.Errorf("polls = %d, want 3", polls)
	}
}

func TestPollAnswer_ProviderError(t *testing.T) {
	s := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ERROR_CAPTCHA_UNSOLVABLE"))
	})

	_, err := s.pollAnswer(context.Background(), "12345")
	if err == nil || !strings.Contains(err.Error(), "ERROR_CAPTCHA_UNSOLVABLE") {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestPollAnswer_ContextCancellation(t *testing.T) {
	s := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("CAPCHA_NOT_READY"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := s.pollAnswer(ctx, "12345"); err == nil {
		t.Fatal("expected error when context expires")
	}
}
