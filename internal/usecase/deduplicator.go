package usecase

import "github.com/vervegrand/sentos-sync/internal/domain"

// Duplicate records where in the feed a vendor id re-occurred.
type Duplicate struct {
	VendorID string
	Position int // ordinal index in the feed, 0-based
}

// Dedup collapses records sharing a vendor id: the first occurrence is
// kept, later ones are diverted to the duplicates list. The invariant
// len(unique) + len(duplicates) == len(records) always holds.
func Dedup(records []domain.FeedRecord) (unique []domain.FeedRecord, duplicates []Duplicate) {
	seen := make(map[string]bool, len(records))
	unique = make([]domain.FeedRecord, 0, len(records))

	for i, rec := range records {
		if seen[rec.VendorID] {
			duplicates = append(duplicates, Duplicate{VendorID: rec.VendorID, Position: i})
			continue
		}
		seen[rec.VendorID] = true
		unique = append(unique, rec)
	}
	return unique, duplicates
}
