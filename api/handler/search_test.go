package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Kell-C/amazon-scraper/cache"
	"github.com/Kell-C/amazon-scraper/models"
	"github.com/Kell-C/amazon-scraper/scraper"
)

type fakeSearcher struct {
	calls   int
	outcome *scraper.Outcome
	err     error
}

func (f *fakeSearcher) Run(ctx context.Context, keyword string, retry int) (*scraper.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

func newTestRouter(orch Searcher, cc *cache.Cache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/search", Search(orch, cc))
	r.POST("/api/v1/search", Search(orch, cc))
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, models.SearchResponse) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp models.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v (body: %s)", err, w.Body.String())
	}
	return w, resp
}

func TestSearch_Success(t *testing.T) {
	orch := &fakeSearcher{outcome: &scraper.Outcome{
		Products: []models.Product{{Title: "Laptop", Price: "$999.00"}},
		Attempts: 1,
		Backend:  models.BackendRendering,
	}}
	r := newTestRouter(orch, nil)

	w, resp := doRequest(t, r, http.MethodGet, "/api/v1/search?keyword=laptop&retry=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !resp.Success || resp.Count != 1 {
		t.Errorf("success=%v count=%d, want true/1", resp.Success, resp.Count)
	}
	if resp.Backend != models.BackendRendering {
		t.Errorf("backend = %s", resp.Backend)
	}
}

func TestSearch_MissingKeywordIsBadRequest(t *testing.T) {
	orch := &fakeSearcher{}
	r := newTestRouter(orch, nil)

	w, resp := doRequest(t, r, http.MethodGet, "/api/v1/search", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("error = %+v, want %s", resp.Error, models.ErrCodeInvalidInput)
	}
	if orch.calls != 0 {
		t.Error("orchestrator must not run on invalid input")
	}
}

func TestSearch_TerminalFailureIsGenericToCaller(t *testing.T) {
	inner := models.NewScrapeError(models.ErrCodeBlocked, "block marker present in response", nil)
	orch := &fakeSearcher{err: models.NewScrapeError(models.ErrCodeNoResults, `no results for "laptop" after 3 attempts`, inner)}
	r := newTestRouter(orch, nil)

	w, resp := doRequest(t, r, http.MethodGet, "/api/v1/search?keyword=laptop", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if resp.Success {
		t.Error("success should be false")
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeNoResults {
		t.Errorf("error = %+v", resp.Error)
	}
	if resp.Solution == "" {
		t.Error("terminal failure should carry a remediation hint")
	}
	// Short cause string only — no stack traces or wrapped chains.
	if strings.Contains(resp.Details, "goroutine") || strings.Contains(resp.Details, "%!") {
		t.Errorf("details leaked internals: %q", resp.Details)
	}
}

func TestSearch_PostBody(t *testing.T) {
	orch := &fakeSearcher{outcome: &scraper.Outcome{
		Products: []models.Product{{Title: "Hub", Price: "$29.99"}},
		Attempts: 2,
		Backend:  models.BackendRawFetch,
	}}
	r := newTestRouter(orch, nil)

	w, resp := doRequest(t, r, http.MethodPost, "/api/v1/search", `{"keyword":"usb hub","retry":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp.Backend != models.BackendRawFetch || resp.Attempts != 2 {
		t.Errorf("backend=%s attempts=%d", resp.Backend, resp.Attempts)
	}
}

func TestSearch_CacheHitSkipsOrchestrator(t *testing.T) {
	orch := &fakeSearcher{outcome: &scraper.Outcome{
		Products: []models.Product{{Title: "Lamp", Price: "$25.49"}},
		Attempts: 1,
		Backend:  models.BackendRendering,
	}}
	cc := cache.New(10)
	r := newTestRouter(orch, cc)

	_, first := doRequest(t, r, http.MethodGet, "/api/v1/search?keyword=lamp&max_age_ms=60000", "")
	if first.CacheStatus != "miss" {
		t.Errorf("first response cache_status = %q, want miss", first.CacheStatus)
	}

	_, second := doRequest(t, r, http.MethodGet, "/api/v1/search?keyword=lamp&max_age_ms=60000", "")
	if second.CacheStatus != "hit" {
		t.Errorf("second response cache_status = %q, want hit", second.CacheStatus)
	}
	if orch.calls != 1 {
		t.Errorf("orchestrator ran %d times, want 1", orch.calls)
	}
}
