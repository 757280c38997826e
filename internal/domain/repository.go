package domain

import (
	"context"
	"time"
)

// FetchOptions bound a single feed fetch. MaxBytes > 0 requests a byte
// range (sampling); Timeout > 0 overrides the caller's deadline.
type FetchOptions struct {
	MaxBytes int64
	Timeout  time.Duration
}

// FeedFetcher retrieves the raw vendor feed.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, opts FetchOptions) (string, error)
}

// CatalogClient is the destination store collaborator: a paginated read
// of the existing catalog plus the create/update write endpoints.
type CatalogClient interface {
	ListAllProducts(ctx context.Context) ([]CatalogEntry, error)
	CreateProduct(ctx context.Context, payload *ProductCreate) (int64, error)
	UpdateProduct(ctx context.Context, payload *ProductUpdate) error
}

// ReportRepository keeps recent sync reports for the history endpoints.
type ReportRepository interface {
	Save(report *SyncReport)
	Get(runID string) (*SyncReport, error)
	Recent(n int) []*SyncReport
}
