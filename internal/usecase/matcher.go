package usecase

import (
	"strings"

	"github.com/vervegrand/sentos-sync/internal/domain"
)

// Match types, in priority order.
const (
	MatchSKU          = "sku"
	MatchTitle        = "title"
	MatchTitleSimilar = "title-similar"
)

type skuHit struct {
	entry   *domain.CatalogEntry
	variant *domain.CatalogVariant
}

// CatalogIndex holds the two lookups built once per reconciliation run:
// SKU to (entry, variant) and normalized title to entry. The titles
// slice keeps catalog order so similarity scans are deterministic.
// It is treated as immutable for the rest of the run.
type CatalogIndex struct {
	bySKU   map[string]skuHit
	byTitle map[string]*domain.CatalogEntry
	titles  []string
}

// BuildCatalogIndex indexes a catalog listing. First hit wins for both
// keys, mirroring how the destination would resolve the conflict.
func BuildCatalogIndex(entries []domain.CatalogEntry) *CatalogIndex {
	idx := &CatalogIndex{
		bySKU:   make(map[string]skuHit),
		byTitle: make(map[string]*domain.CatalogEntry),
	}

	for i := range entries {
		entry := &entries[i]

		if title := normalizeTitle(entry.Title); title != "" {
			if _, ok := idx.byTitle[title]; !ok {
				idx.byTitle[title] = entry
				idx.titles = append(idx.titles, title)
			}
		}

		for j := range entry.Variants {
			variant := &entry.Variants[j]
			sku := strings.TrimSpace(variant.SKU)
			if sku == "" {
				continue
			}
			if _, ok := idx.bySKU[sku]; !ok {
				idx.bySKU[sku] = skuHit{entry: entry, variant: variant}
			}
		}
	}
	return idx
}

// Size returns the number of indexed SKUs and titles.
func (idx *CatalogIndex) Size() (skus, titles int) {
	return len(idx.bySKU), len(idx.byTitle)
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// MatchResult names the catalog entry a product corresponds to, if any.
type MatchResult struct {
	Matched bool
	Entry   *domain.CatalogEntry
	Variant *domain.CatalogVariant
	Type    string
}

// MatchConfig holds configuration for the matcher.
type MatchConfig struct {
	// SimilarityThreshold enables fuzzy title matching when > 0:
	// a Levenshtein ratio at or above the threshold counts as a match.
	// 0 keeps the exact-title baseline.
	SimilarityThreshold float64
}

// Matcher decides whether a normalized product corresponds to an
// existing catalog entry. Pure lookup, no I/O.
type Matcher struct {
	similarityThreshold float64
}

// NewMatcher creates a matcher with the given configuration.
func NewMatcher(config MatchConfig) *Matcher {
	return &Matcher{similarityThreshold: config.SimilarityThreshold}
}

// Match resolves a product against the index. SKU always wins over
// title; only one catalog entry is ever selected.
func (m *Matcher) Match(product *domain.NormalizedProduct, idx *CatalogIndex) MatchResult {
	if hit, ok := idx.bySKU[product.SKU]; ok {
		return MatchResult{Matched: true, Entry: hit.entry, Variant: hit.variant, Type: MatchSKU}
	}

	title := normalizeTitle(product.Title)
	if entry, ok := idx.byTitle[title]; ok {
		return MatchResult{Matched: true, Entry: entry, Type: MatchTitle}
	}

	if m.similarityThreshold > 0 {
		if entry := m.findSimilarTitle(title, idx); entry != nil {
			return MatchResult{Matched: true, Entry: entry, Type: MatchTitleSimilar}
		}
	}

	return MatchResult{}
}

// findSimilarTitle returns the first indexed title, in catalog order,
// whose similarity ratio clears the threshold. No ranking across
// candidates: the exact and similar modes deliberately share
// first-hit-wins semantics.
func (m *Matcher) findSimilarTitle(title string, idx *CatalogIndex) *domain.CatalogEntry {
	if title == "" {
		return nil
	}
	for _, candidate := range idx.titles {
		if similarityRatio(title, candidate) >= m.similarityThreshold {
			return idx.byTitle[candidate]
		}
	}
	return nil
}

// similarityRatio is 1 - dist/maxLen over runes, 1.0 for identical strings.
func similarityRatio(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	longest := len([]rune(s1))
	if l2 := len([]rune(s2)); l2 > longest {
		longest = l2
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshteinDistance(s1, s2))/float64(longest)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	n := len(r2)

	// Two rows instead of the full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
