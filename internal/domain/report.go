package domain

import "time"

// Sync actions recorded per product in a report.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionSkipped = "skipped"
	ActionError   = "error"
)

// SyncDetail is the per-record outcome line of a reconciliation run.
type SyncDetail struct {
	Action        string   `json:"action"`
	VendorID      string   `json:"vendorId"`
	DestinationID int64    `json:"destinationId,omitempty"`
	Title         string   `json:"title"`
	Changes       []string `json:"changes,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// SyncReport is the sole externally consumed output of a reconciliation
// run. A completed run always carries counts and the error list, even
// when every record failed.
type SyncReport struct {
	RunID            string       `json:"runId"`
	XMLProductsFound int          `json:"xmlProductsFound"`
	UniqueProducts   int          `json:"uniqueProducts"`
	DuplicateCount   int          `json:"duplicateCount"`
	Created          int          `json:"created"`
	Updated          int          `json:"updated"`
	Skipped          int          `json:"skipped"`
	Errors           []string     `json:"errors"`
	DurationSeconds  float64      `json:"durationSeconds"`
	Details          []SyncDetail `json:"details"`
	CompletedAt      time.Time    `json:"completedAt"`
}

// SampleProduct is the first record of a sampled feed, used by the
// fast analysis path.
type SampleProduct struct {
	StockCode string `json:"stockCode"`
	Title     string `json:"title"`
	Price     string `json:"price"`
}

// FeedAnalysis is the result of the lightweight feed check: counts from
// a byte-range sample, without touching the catalog.
type FeedAnalysis struct {
	EstimatedProducts int            `json:"estimatedProducts"`
	SampleSize        int            `json:"sampleSize"`
	SampleProduct     *SampleProduct `json:"sampleProduct,omitempty"`
	Method            string         `json:"method"`
	Timestamp         time.Time      `json:"timestamp"`
}
