package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vervegrand/sentos-sync/internal/domain"
	"github.com/vervegrand/sentos-sync/internal/infrastructure/shopify"
)

// SyncRunner executes one reconciliation run.
type SyncRunner interface {
	Run(ctx context.Context) (*domain.SyncReport, error)
}

// FeedAnalyzer answers the lightweight feed size check.
type FeedAnalyzer interface {
	AnalyzeFeed(ctx context.Context) (*domain.FeedAnalysis, error)
}

// ConnectionTester verifies the destination store credentials.
type ConnectionTester interface {
	TestConnection(ctx context.Context) (*shopify.ShopInfo, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	syncService     SyncRunner
	analysisService FeedAnalyzer
	connection      ConnectionTester
	reports         domain.ReportRepository

	// Only one reconciliation run at a time; a second request gets 409.
	syncMu sync.Mutex
}

// NewHandler creates a new HTTP handler
func NewHandler(syncService SyncRunner, analysisService FeedAnalyzer, connection ConnectionTester, reports domain.ReportRepository) *Handler {
	return &Handler{
		syncService:     syncService,
		analysisService: analysisService,
		connection:      connection,
		reports:         reports,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sentos-sync",
		"version": "1.0.0",
	})
}

// AnalyzeFeed handles fast feed analysis requests
func (h *Handler) AnalyzeFeed(c *gin.Context) {
	analysis, err := h.analysisService.AnalyzeFeed(c.Request.Context())
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// RunSync executes a full reconciliation run and returns its report.
// Runs are serialized: a request arriving mid-run is rejected.
func (h *Handler) RunSync(c *gin.Context) {
	if !h.syncMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a sync run is already in progress"})
		return
	}
	defer h.syncMu.Unlock()

	report, err := h.syncService.Run(c.Request.Context())
	if err != nil {
		status, msg := mapError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListReports returns recent sync reports, newest first
func (h *Handler) ListReports(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"reports": h.reports.Recent(limit)})
}

// GetReport returns one sync report by run id
func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.reports.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// TestShopifyConnection verifies the configured store credentials
func (h *Handler) TestShopifyConnection(c *gin.Context) {
	info, err := h.connection.TestConnection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"connected": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "shop": info})
}

// mapError translates domain errors into HTTP status codes.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrFeedTimeout):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, domain.ErrFeedUnavailable),
		errors.Is(err, domain.ErrFeedStatus),
		errors.Is(err, domain.ErrCatalogUnavailable):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
