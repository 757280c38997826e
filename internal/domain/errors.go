package domain

import "errors"

var (
	// ErrFeedTimeout is returned when the feed fetch exceeds its deadline
	ErrFeedTimeout = errors.New("feed fetch timed out")

	// ErrFeedUnavailable is returned when the feed host cannot be reached
	ErrFeedUnavailable = errors.New("feed unreachable")

	// ErrFeedStatus is returned when the feed host answers with a non-success status
	ErrFeedStatus = errors.New("feed returned error status")

	// ErrInvalidConfig is returned when required run parameters are missing
	ErrInvalidConfig = errors.New("invalid sync configuration")

	// ErrCatalogUnavailable is returned when the catalog listing cannot be started at all
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrWriteRejected is returned when a create/update call is refused by the store API
	ErrWriteRejected = errors.New("catalog write rejected")

	// ErrReportNotFound is returned when a sync report is not in the history store
	ErrReportNotFound = errors.New("sync report not found")
)
