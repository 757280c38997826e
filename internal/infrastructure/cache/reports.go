package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/vervegrand/sentos-sync/internal/domain"
)

// storedReport pairs a report with its expiration time.
type storedReport struct {
	report     *domain.SyncReport
	expiration time.Time
}

// ReportStore is a thread-safe in-memory store of recent sync reports
// with TTL-based eviction. Reports are small and runs are infrequent,
// so a map plus a periodic sweep is enough.
type ReportStore struct {
	data  map[string]storedReport
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewReportStore creates a report store. Reports older than ttl are
// evicted; ttl <= 0 falls back to one week.
func NewReportStore(ttl time.Duration) *ReportStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	store := &ReportStore{
		data: make(map[string]storedReport),
		ttl:  ttl,
	}

	// Cleanup goroutine removes expired reports every 10 minutes
	go store.cleanupExpired()

	return store
}

// Save stores a completed report under its run id.
func (s *ReportStore) Save(report *domain.SyncReport) {
	if report == nil || report.RunID == "" {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[report.RunID] = storedReport{
		report:     report,
		expiration: time.Now().Add(s.ttl),
	}
}

// Get returns the report for a run id, or ErrReportNotFound when the
// id is unknown or the report has expired.
func (s *ReportStore) Get(runID string) (*domain.SyncReport, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.data[runID]
	if !exists || time.Now().After(item.expiration) {
		return nil, domain.ErrReportNotFound
	}
	return item.report, nil
}

// Recent returns up to n unexpired reports, newest first.
func (s *ReportStore) Recent(n int) []*domain.SyncReport {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := time.Now()
	reports := make([]*domain.SyncReport, 0, len(s.data))
	for _, item := range s.data {
		if now.After(item.expiration) {
			continue
		}
		reports = append(reports, item.report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CompletedAt.After(reports[j].CompletedAt)
	})

	if n > 0 && len(reports) > n {
		reports = reports[:n]
	}
	return reports
}

// Size returns the current number of stored reports (for debugging/monitoring)
func (s *ReportStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// cleanupExpired removes expired reports periodically
func (s *ReportStore) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		now := time.Now()
		for runID, item := range s.data {
			if now.After(item.expiration) {
				delete(s.data, runID)
			}
		}
		s.mutex.Unlock()
	}
}
