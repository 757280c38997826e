package sentos

import (
	"log"
	"regexp"
	"strings"
	"sync"

	"github.com/vervegrand/sentos-sync/internal/domain"
)

// DefaultBoundaryTag is the repeating element wrapping each product in
// the Sentos feed dialect.
const DefaultBoundaryTag = "Urun"

// Per-field ordered candidate tag names. Feeds from different Sentos
// installations name the same logical field differently; the first
// candidate with a non-empty value wins.
var (
	vendorIDTags     = []string{"UrunId", "Id"}
	stockCodeTags    = []string{"StokKodu", "UrunKodu"}
	barcodeTags      = []string{"Barkod", "Barcode"}
	titleTags        = []string{"UrunAdi", "Baslik"}
	subTitleTags     = []string{"AltBaslik"}
	descriptionTags  = []string{"Aciklama", "Detay", "UrunAciklamasi"}
	priceTags        = []string{"SatisFiyati1", "Fiyat", "BirimFiyat"}
	comparePriceTags = []string{"PiyasaFiyati", "IndirimsizFiyat"}
	stockTags        = []string{"StokMiktari", "Stok", "Miktar"}
	weightTags       = []string{"Desi", "Agirlik"}
	brandTags        = []string{"Marka", "Brand"}
	supplierTags     = []string{"Tedarikci"}
	categoryTags     = []string{"KategoriAgaci", "Kategori"}
	imageTags        = []string{"Resim", "Gorsel", "Image"}

	variantBoundaryTag = "Varyant"
	colorTags          = []string{"Renk", "Color"}
	sizeTags           = []string{"Beden", "Ebat"}
	materialTags       = []string{"Kumas", "Material"}
	patternTags        = []string{"Desen", "Pattern"}
)

// Compiled pattern caches, keyed by tag name. The feed is scanned with
// tolerant regular expressions rather than an XML decoder: vendor feeds
// are routinely not well-formed (unescaped entities, records cut off by
// ranged fetches), and a strict decoder rejects exactly the inputs the
// analyzer has to accept.
var (
	patternMu      sync.RWMutex
	recordPatterns = make(map[string]*regexp.Regexp)
	openPatterns   = make(map[string]*regexp.Regexp)
	plainPatterns  = make(map[string]*regexp.Regexp)
	cdataPatterns  = make(map[string]*regexp.Regexp)
)

func cachedPattern(cache map[string]*regexp.Regexp, tag, expr string) *regexp.Regexp {
	patternMu.RLock()
	re, ok := cache[tag]
	patternMu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(expr)
	patternMu.Lock()
	cache[tag] = re
	patternMu.Unlock()
	return re
}

// recordPattern matches one <tag>...</tag> block non-greedily, so a
// nested similarly-named tag cannot over-capture.
func recordPattern(tag string) *regexp.Regexp {
	q := regexp.QuoteMeta(tag)
	return cachedPattern(recordPatterns, tag, `(?is)<`+q+`(?:\s[^>]*)?>.*?</`+q+`>`)
}

func openPattern(tag string) *regexp.Regexp {
	q := regexp.QuoteMeta(tag)
	return cachedPattern(openPatterns, tag, `(?i)<`+q+`[\s>]`)
}

func plainPattern(tag string) *regexp.Regexp {
	q := regexp.QuoteMeta(tag)
	return cachedPattern(plainPatterns, tag, `(?is)<`+q+`(?:\s[^>]*)?>(.*?)</`+q+`>`)
}

func cdataPattern(tag string) *regexp.Regexp {
	q := regexp.QuoteMeta(tag)
	return cachedPattern(cdataPatterns, tag, `(?is)<`+q+`(?:\s[^>]*)?>\s*<!\[CDATA\[(.*?)\]\]>\s*</`+q+`>`)
}

// SplitRecords returns the raw record substrings between paired
// boundary tags, in feed order. One pass, finite.
func SplitRecords(feed, boundaryTag string) []string {
	return recordPattern(boundaryTag).FindAllString(feed, -1)
}

// CountOpenTags counts boundary-tag openings in a (possibly truncated)
// feed sample. Used by the fast analysis path, where the trailing record
// is usually cut off mid-tag.
func CountOpenTags(sample, boundaryTag string) int {
	return len(openPattern(boundaryTag).FindAllString(sample, -1))
}

// ExtractPlain returns the trimmed inner text of <tag>...</tag>,
// case-insensitively, or "" when the tag is absent.
func ExtractPlain(record, tag string) string {
	m := plainPattern(tag).FindStringSubmatch(record)
	if m == nil {
		return ""
	}
	inner := strings.TrimSpace(m[1])
	// Tolerate stray CDATA markers on the plain path
	if strings.HasPrefix(inner, "<![CDATA[") && strings.HasSuffix(inner, "]]>") {
		inner = strings.TrimSpace(inner[9 : len(inner)-3])
	}
	return inner
}

// ExtractCDATA returns the CDATA-wrapped inner text of a tag, falling
// back to ExtractPlain when the field is not wrapped. Fields in this
// feed are inconsistently wrapped.
func ExtractCDATA(record, tag string) string {
	if m := cdataPattern(tag).FindStringSubmatch(record); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ExtractPlain(record, tag)
}

// firstMatch evaluates the candidate tags in priority order and returns
// the first non-empty value.
func firstMatch(record string, candidates []string) string {
	for _, tag := range candidates {
		if v := ExtractCDATA(record, tag); v != "" {
			return v
		}
	}
	return ""
}

// extractImages collects all values of the highest-priority image tag
// that yields any match, preserving feed order.
func extractImages(record string) []string {
	for _, tag := range imageTags {
		var urls []string
		for _, m := range cdataPattern(tag).FindAllStringSubmatch(record, -1) {
			if u := strings.TrimSpace(m[1]); u != "" {
				urls = append(urls, u)
			}
		}
		if urls == nil {
			for _, m := range plainPattern(tag).FindAllStringSubmatch(record, -1) {
				if u := strings.TrimSpace(m[1]); u != "" {
					urls = append(urls, u)
				}
			}
		}
		if urls != nil {
			return urls
		}
	}
	return nil
}

func extractVariants(record string) []domain.FeedVariant {
	var variants []domain.FeedVariant
	for _, block := range SplitRecords(record, variantBoundaryTag) {
		v := domain.FeedVariant{
			StockCode: firstMatch(block, stockCodeTags),
			Barcode:   firstMatch(block, barcodeTags),
			Color:     firstMatch(block, colorTags),
			Size:      firstMatch(block, sizeTags),
			Material:  firstMatch(block, materialTags),
			Pattern:   firstMatch(block, patternTags),
		}
		if v != (domain.FeedVariant{}) {
			variants = append(variants, v)
		}
	}
	return variants
}

// ParseRecord pulls the typed fields out of one record substring.
// Returns nil when the record lacks a vendor id or a title.
func ParseRecord(record string) *domain.FeedRecord {
	vendorID := firstMatch(record, vendorIDTags)
	title := firstMatch(record, titleTags)
	if vendorID == "" || title == "" {
		return nil
	}

	return &domain.FeedRecord{
		VendorID:        vendorID,
		StockCode:       firstMatch(record, stockCodeTags),
		Barcode:         firstMatch(record, barcodeTags),
		CategoryPath:    firstMatch(record, categoryTags),
		Title:           title,
		SubTitle:        firstMatch(record, subTitleTags),
		Description:     firstMatch(record, descriptionTags),
		RawPrice:        firstMatch(record, priceTags),
		RawComparePrice: firstMatch(record, comparePriceTags),
		RawStock:        firstMatch(record, stockTags),
		RawWeight:       firstMatch(record, weightTags),
		Brand:           firstMatch(record, brandTags),
		Supplier:        firstMatch(record, supplierTags),
		Images:          extractImages(record),
		Variants:        extractVariants(record),
	}
}

// ExtractRecords splits the feed and parses every record. A record that
// fails to parse is logged and skipped; it never aborts the extraction.
func ExtractRecords(feed, boundaryTag string) []domain.FeedRecord {
	if boundaryTag == "" {
		boundaryTag = DefaultBoundaryTag
	}

	raw := SplitRecords(feed, boundaryTag)
	records := make([]domain.FeedRecord, 0, len(raw))
	dropped := 0

	for i, r := range raw {
		rec := safeParse(r, i)
		if rec == nil {
			dropped++
			continue
		}
		records = append(records, *rec)
	}

	if dropped > 0 {
		log.Printf("[SENTOS] Extraction dropped %d of %d records (missing id/title or parse failure)", dropped, len(raw))
	}
	return records
}

// safeParse guards ParseRecord so one malformed record cannot take down
// the whole extraction pass.
func safeParse(record string, index int) (rec *domain.FeedRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SENTOS] Record %d parse panic: %v", index, r)
			rec = nil
		}
	}()
	return ParseRecord(record)
}

// SampleFirstRecord parses the first complete record of a feed sample
// into the analysis summary shape.
func SampleFirstRecord(sample, boundaryTag string) *domain.SampleProduct {
	raw := SplitRecords(sample, boundaryTag)
	if len(raw) == 0 {
		return nil
	}
	return &domain.SampleProduct{
		StockCode: firstMatch(raw[0], stockCodeTags),
		Title:     firstMatch(raw[0], titleTags),
		Price:     firstMatch(raw[0], priceTags),
	}
}
