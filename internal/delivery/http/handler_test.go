package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vervegrand/sentos-sync/config"
	"github.com/vervegrand/sentos-sync/internal/domain"
	"github.com/vervegrand/sentos-sync/internal/infrastructure/shopify"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeSyncRunner struct {
	report *domain.SyncReport
	err    error
	block  chan struct{} // when set, Run waits until closed
}

func (f *fakeSyncRunner) Run(ctx context.Context) (*domain.SyncReport, error) {
	if f.block != nil {
		<-f.block
	}
	return f.report, f.err
}

type fakeAnalyzer struct {
	analysis *domain.FeedAnalysis
	err      error
}

func (f *fakeAnalyzer) AnalyzeFeed(ctx context.Context) (*domain.FeedAnalysis, error) {
	return f.analysis, f.err
}

type fakeConnection struct {
	info *shopify.ShopInfo
	err  error
}

func (f *fakeConnection) TestConnection(ctx context.Context) (*shopify.ShopInfo, error) {
	return f.info, f.err
}

type fakeReports struct {
	byID   map[string]*domain.SyncReport
	recent []*domain.SyncReport
}

func (f *fakeReports) Save(report *domain.SyncReport) {}
func (f *fakeReports) Get(runID string) (*domain.SyncReport, error) {
	if r, ok := f.byID[runID]; ok {
		return r, nil
	}
	return nil, domain.ErrReportNotFound
}
func (f *fakeReports) Recent(n int) []*domain.SyncReport {
	if n < len(f.recent) {
		return f.recent[:n]
	}
	return f.recent
}

func setupTestRouter(handler *Handler) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
	}
	return SetupRouter(cfg, handler)
}

func TestHealthCheck(t *testing.T) {
	handler := NewHandler(&fakeSyncRunner{}, &fakeAnalyzer{}, &fakeConnection{}, &fakeReports{})
	router := setupTestRouter(handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" || body["service"] != "sentos-sync" {
		t.Errorf("body = %v", body)
	}
}

func TestAnalyzeFeedEndpoint(t *testing.T) {
	t.Run("returns the analysis", func(t *testing.T) {
		handler := NewHandler(&fakeSyncRunner{}, &fakeAnalyzer{
			analysis: &domain.FeedAnalysis{EstimatedProducts: 120, Method: "fast-analysis"},
		}, &fakeConnection{}, &fakeReports{})
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/feed/analyze", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var analysis domain.FeedAnalysis
		if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if analysis.EstimatedProducts != 120 {
			t.Errorf("EstimatedProducts = %d, want 120", analysis.EstimatedProducts)
		}
	})

	t.Run("feed timeout maps to 504", func(t *testing.T) {
		handler := NewHandler(&fakeSyncRunner{}, &fakeAnalyzer{err: domain.ErrFeedTimeout}, &fakeConnection{}, &fakeReports{})
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/feed/analyze", nil))

		if w.Code != http.StatusGatewayTimeout {
			t.Errorf("status = %d, want 504", w.Code)
		}
	})

	t.Run("feed unavailable maps to 502", func(t *testing.T) {
		handler := NewHandler(&fakeSyncRunner{}, &fakeAnalyzer{err: domain.ErrFeedUnavailable}, &fakeConnection{}, &fakeReports{})
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/feed/analyze", nil))

		if w.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", w.Code)
		}
	})
}

func TestRunSyncEndpoint(t *testing.T) {
	t.Run("returns the completed report", func(t *testing.T) {
		handler := NewHandler(&fakeSyncRunner{
			report: &domain.SyncReport{RunID: "run-1", Created: 2, Skipped: 1},
		}, &fakeAnalyzer{}, &fakeConnection{}, &fakeReports{})
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/sync", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var report domain.SyncReport
		if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if report.RunID != "run-1" || report.Created != 2 {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("missing config maps to 400", func(t *testing.T) {
		handler := NewHandler(&fakeSyncRunner{err: domain.ErrInvalidConfig}, &fakeAnalyzer{}, &fakeConnection{}, &fakeReports{})
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/sync", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("concurrent run is rejected with 409", func(t *testing.T) {
		block := make(chan struct{})
		handler := NewHandler(&fakeSyncRunner{
			report: &domain.SyncReport{RunID: "run-1"},
			block:  block,
		}, &fakeAnalyzer{}, &fakeConnection{}, &fakeReports{})
		router := setupTestRouter(handler)

		firstDone := make(chan int)
		go func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/sync", nil))
			firstDone <- w.Code
		}()

		// Wait for the first request to take the lock
		deadline := time.After(2 * time.Second)
		for {
			if !handler.syncMu.TryLock() {
				break // first request holds it
			}
			handler.syncMu.Unlock()
			select {
			case <-deadline:
				t.Fatal("first request never started")
			case <-time.After(5 * time.Millisecond):
			}
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/sync", nil))
		if w.Code != http.StatusConflict {
			t.Errorf("second request status = %d, want 409", w.Code)
		}

		close(block)
		if code := <-firstDone; code != http.StatusOK {
			t.Errorf("first request status = %d, want 200", code)
		}
	})
}

func TestReportEndpoints(t *testing.T) {
	reports := &fakeReports{
		byID: map[string]*domain.SyncReport{
			"run-1": {RunID: "run-1", Updated: 4},
		},
		recent: []*domain.SyncReport{
			{RunID: "run-2"}, {RunID: "run-1"},
		},
	}
	handler := NewHandler(&fakeSyncRunner{}, &fakeAnalyzer{}, &fakeConnection{}, reports)
	router := setupTestRouter(handler)

	t.Run("list recent", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sync/reports", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var body struct {
			Reports []domain.SyncReport `json:"reports"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(body.Reports) != 2 || body.Reports[0].RunID != "run-2" {
			t.Errorf("reports = %+v", body.Reports)
		}
	})

	t.Run("limit is honored", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sync/reports?limit=1", nil))

		var body struct {
			Reports []domain.SyncReport `json:"reports"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(body.Reports) != 1 {
			t.Errorf("reports = %d, want 1", len(body.Reports))
		}
	})

	t.Run("bad limit maps to 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sync/reports?limit=abc", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sync/reports/run-1", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var report domain.SyncReport
		if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if report.Updated != 4 {
			t.Errorf("Updated = %d, want 4", report.Updated)
		}
	})

	t.Run("unknown id maps to 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/sync/reports/nope", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestShopifyConnectionEndpoint(t *testing.T) {
	t.Run("reports shop info on success", func(t *testing.T) {
		handler := NewHandler(&fakeSyncRunner{}, &fakeAnalyzer{}, &fakeConnection{
			info: &shopify.ShopInfo{Name: "Verve", Domain: "verve.myshopify.com", Currency: "TRY"},
		}, &fakeReports{})
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/connections/shopify", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var body struct {
			Connected bool             `json:"connected"`
			Shop      shopify.ShopInfo `json:"shop"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !body.Connected || body.Shop.Currency != "TRY" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("failed check maps to 502", func(t *testing.T) {
		handler := NewHandler(&fakeSyncRunner{}, &fakeAnalyzer{}, &fakeConnection{
			err: domain.ErrWriteRejected,
		}, &fakeReports{})
		router := setupTestRouter(handler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/connections/shopify", nil))

		if w.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", w.Code)
		}
	})
}
