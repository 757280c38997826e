package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vervegrand/sentos-sync/internal/domain"
)

// Destination platform limits.
const (
	maxTitleLength       = 255
	maxDescriptionLength = 5000
	skuPrefix            = "FEED_"
	defaultCategory      = "Genel"
)

// Package-level compiled regex patterns for performance
var (
	priceCharsRegex     = regexp.MustCompile(`[^0-9,.\-]`)
	htmlTagRegex        = regexp.MustCompile(`(?s)<[^>]*>`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
	nonDigitRegex       = regexp.MustCompile(`[^0-9\-]`)
)

// ParsePrice converts a raw feed price into a two-decimal value. The
// feed uses the comma as decimal separator; dots appear both as decimal
// points and thousands separators. Returns nil on empty or unparseable
// input, never an error.
func ParsePrice(raw string) *float64 {
	cleaned := priceCharsRegex.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return nil
	}

	// "1.249,90" -> "1249.90"; "249,90" -> "249.90"
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}

	rounded := math.Round(value*100) / 100
	return &rounded
}

// ParseStock parses a stock quantity. Invalid or missing input yields 0,
// and negative quantities are clamped to 0: the destination API only
// accepts non-negative inventory levels.
func ParseStock(raw string) int {
	cleaned := nonDigitRegex.ReplaceAllString(strings.TrimSpace(raw), "")
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseWeight parses a weight value, tolerating comma decimals.
// Unparseable input yields 0.
func ParseWeight(raw string) float64 {
	cleaned := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// CleanDescription strips markup, collapses whitespace runs, and caps
// the text at the platform's description limit with an ellipsis marker.
// The cap counts runes, not bytes: Turkish feed text is full of
// multi-byte characters and a byte slice could split one in half.
func CleanDescription(html string) string {
	text := htmlTagRegex.ReplaceAllString(html, " ")
	text = multipleSpacesRegex.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if runes := []rune(text); len(runes) > maxDescriptionLength {
		text = string(runes[:maxDescriptionLength-3]) + "..."
	}
	return text
}

// TruncateTitle caps a title at the platform limit, counting runes.
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if runes := []rune(title); len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength])
	}
	return title
}

// ExtractMainCategory returns the first non-empty segment of a
// ">"-delimited category path, or the default label for empty paths.
func ExtractMainCategory(path string) string {
	for _, segment := range strings.Split(path, ">") {
		if s := strings.TrimSpace(segment); s != "" {
			return s
		}
	}
	return defaultCategory
}

// ExtractTags splits the category path into trimmed segments and appends
// the brand, deduplicated in first-occurrence order.
func ExtractTags(path, brand string) []string {
	var tags []string
	seen := make(map[string]bool)

	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, segment := range strings.Split(path, ">") {
		add(segment)
	}
	add(brand)

	return tags
}

// BuildSku returns the stock code, or a synthesized FEED_<vendor id>
// identifier so every normalized product carries a non-empty SKU.
func BuildSku(stockCode, vendorID string) string {
	if code := strings.TrimSpace(stockCode); code != "" {
		return code
	}
	return skuPrefix + strings.TrimSpace(vendorID)
}

// Normalize folds a FeedRecord into its canonical product attributes.
func Normalize(rec *domain.FeedRecord) *domain.NormalizedProduct {
	return &domain.NormalizedProduct{
		VendorID:     rec.VendorID,
		SKU:          BuildSku(rec.StockCode, rec.VendorID),
		Title:        TruncateTitle(rec.Title),
		Description:  CleanDescription(rec.Description),
		Price:        ParsePrice(rec.RawPrice),
		ComparePrice: ParsePrice(rec.RawComparePrice),
		Stock:        ParseStock(rec.RawStock),
		Weight:       ParseWeight(rec.RawWeight),
		MainCategory: ExtractMainCategory(rec.CategoryPath),
		Tags:         ExtractTags(rec.CategoryPath, rec.Brand),
		Brand:        rec.Brand,
		Supplier:     rec.Supplier,
		Images:       rec.Images,
		Variants:     rec.Variants,
	}
}
