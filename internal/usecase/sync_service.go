package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vervegrand/sentos-sync/internal/domain"
	"github.com/vervegrand/sentos-sync/internal/infrastructure/sentos"
)

// Option axis names on created products, fixed order.
var optionAxes = []string{"Color", "Size", "Material"}

const maxErrorLength = 200

// SyncServiceConfig holds configuration for a reconciliation run.
type SyncServiceConfig struct {
	BoundaryTag         string
	FetchTimeout        time.Duration
	WritesPerSecond     float64
	SimilarityThreshold float64
	EnableDebugLogging  bool
}

// SyncService runs the feed-to-catalog reconciliation pipeline:
// fetch, extract, normalize, dedup, index, match, diff, write.
// Strictly sequential; writes are paced to the destination rate limit.
type SyncService struct {
	fetcher      domain.FeedFetcher
	catalog      domain.CatalogClient
	reports      domain.ReportRepository
	matcher      *Matcher
	writeLimiter *rate.Limiter
	boundaryTag  string
	fetchTimeout time.Duration
	debug        bool
}

// NewSyncService creates a sync service with dependencies. The report
// repository may be nil when run history is not wanted.
func NewSyncService(
	fetcher domain.FeedFetcher,
	catalog domain.CatalogClient,
	reports domain.ReportRepository,
	config SyncServiceConfig,
) *SyncService {
	boundaryTag := config.BoundaryTag
	if boundaryTag == "" {
		boundaryTag = sentos.DefaultBoundaryTag
	}

	writesPerSecond := config.WritesPerSecond
	if writesPerSecond <= 0 {
		writesPerSecond = 2.0
	}

	return &SyncService{
		fetcher:      fetcher,
		catalog:      catalog,
		reports:      reports,
		matcher:      NewMatcher(MatchConfig{SimilarityThreshold: config.SimilarityThreshold}),
		writeLimiter: rate.NewLimiter(rate.Limit(writesPerSecond), 1),
		boundaryTag:  boundaryTag,
		fetchTimeout: config.FetchTimeout,
		debug:        config.EnableDebugLogging,
	}
}

// Run executes one reconciliation run. Only a failed feed fetch, a
// fully unavailable catalog, or missing collaborators abort the run;
// everything else degrades into the report's error list.
func (s *SyncService) Run(ctx context.Context) (*domain.SyncReport, error) {
	if s.fetcher == nil || s.catalog == nil {
		return nil, fmt.Errorf("%w: feed fetcher and catalog client are required", domain.ErrInvalidConfig)
	}

	start := time.Now()

	feed, err := s.fetcher.FetchFeed(ctx, domain.FetchOptions{Timeout: s.fetchTimeout})
	if err != nil {
		return nil, err
	}

	records := sentos.ExtractRecords(feed, s.boundaryTag)
	unique, duplicates := Dedup(records)

	products := make([]*domain.NormalizedProduct, 0, len(unique))
	for i := range unique {
		products = append(products, Normalize(&unique[i]))
	}

	entries, err := s.catalog.ListAllProducts(ctx)
	if err != nil {
		return nil, err
	}
	index := BuildCatalogIndex(entries)

	if s.debug {
		skus, titles := index.Size()
		log.Printf("[SYNC] %d feed records, %d unique, %d duplicates; catalog index: %d SKUs, %d titles",
			len(records), len(products), len(duplicates), skus, titles)
	}

	report := &domain.SyncReport{
		RunID:            uuid.NewString(),
		XMLProductsFound: len(records),
		UniqueProducts:   len(products),
		DuplicateCount:   len(duplicates),
		Errors:           []string{},
		Details:          []domain.SyncDetail{},
	}

	for _, product := range products {
		if ctx.Err() != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("run aborted: %v", ctx.Err()))
			break
		}
		s.processProduct(ctx, product, index, report)
	}

	report.DurationSeconds = time.Since(start).Seconds()
	report.CompletedAt = time.Now()

	if s.reports != nil {
		s.reports.Save(report)
	}

	log.Printf("[SYNC] Run %s done in %.1fs: created=%d updated=%d skipped=%d errors=%d",
		report.RunID, report.DurationSeconds, report.Created, report.Updated, report.Skipped, len(report.Errors))
	return report, nil
}

// processProduct walks one product through match, diff, and write. A
// panic during payload construction becomes a per-record error, never
// an aborted run.
func (s *SyncService) processProduct(ctx context.Context, product *domain.NormalizedProduct, index *CatalogIndex, report *domain.SyncReport) {
	defer func() {
		if r := recover(); r != nil {
			s.recordError(report, product, 0, fmt.Sprintf("payload construction panic: %v", r))
		}
	}()

	match := s.matcher.Match(product, index)
	if !match.Matched {
		s.createProduct(ctx, product, report)
		return
	}

	update, changes := buildUpdate(product, match)
	if update.IsEmpty() {
		report.Skipped++
		report.Details = append(report.Details, domain.SyncDetail{
			Action:        domain.ActionSkipped,
			VendorID:      product.VendorID,
			DestinationID: match.Entry.ID,
			Title:         product.Title,
			Reason:        "no changes",
		})
		if s.debug {
			log.Printf("[SYNC] %q unchanged (match: %s)", product.Title, match.Type)
		}
		return
	}

	if err := s.writeLimiter.Wait(ctx); err != nil {
		s.recordError(report, product, match.Entry.ID, err.Error())
		return
	}
	if err := s.catalog.UpdateProduct(ctx, update); err != nil {
		s.recordError(report, product, match.Entry.ID, err.Error())
		return
	}

	report.Updated++
	report.Details = append(report.Details, domain.SyncDetail{
		Action:        domain.ActionUpdated,
		VendorID:      product.VendorID,
		DestinationID: match.Entry.ID,
		Title:         product.Title,
		Changes:       changes,
	})
	if s.debug {
		log.Printf("[SYNC] Updated %q (%v)", product.Title, changes)
	}
}

func (s *SyncService) createProduct(ctx context.Context, product *domain.NormalizedProduct, report *domain.SyncReport) {
	payload := buildCreate(product)

	if err := s.writeLimiter.Wait(ctx); err != nil {
		s.recordError(report, product, 0, err.Error())
		return
	}
	id, err := s.catalog.CreateProduct(ctx, payload)
	if err != nil {
		s.recordError(report, product, 0, err.Error())
		return
	}

	report.Created++
	report.Details = append(report.Details, domain.SyncDetail{
		Action:        domain.ActionCreated,
		VendorID:      product.VendorID,
		DestinationID: id,
		Title:         product.Title,
		Changes:       []string{fmt.Sprintf("created with %d variant(s)", len(payload.Variants))},
	})
	if s.debug {
		log.Printf("[SYNC] Created %q as %d", product.Title, id)
	}
}

func (s *SyncService) recordError(report *domain.SyncReport, product *domain.NormalizedProduct, destinationID int64, msg string) {
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength] + "..."
	}
	report.Errors = append(report.Errors, fmt.Sprintf("%s (%s): %s", product.VendorID, product.Title, msg))
	report.Details = append(report.Details, domain.SyncDetail{
		Action:        domain.ActionError,
		VendorID:      product.VendorID,
		DestinationID: destinationID,
		Title:         product.Title,
		Reason:        msg,
	})
	log.Printf("[SYNC] Record %s failed: %s", product.VendorID, msg)
}

// priceTolerance absorbs float rounding between the feed and the store.
const priceTolerance = 0.01

// buildUpdate computes the minimal field diff between a normalized
// product and its matched catalog entry.
func buildUpdate(product *domain.NormalizedProduct, match MatchResult) (*domain.ProductUpdate, []string) {
	update := &domain.ProductUpdate{ProductID: match.Entry.ID}
	var changes []string

	variant := match.Variant
	if variant == nil && len(match.Entry.Variants) > 0 {
		variant = &match.Entry.Variants[0]
	}
	if variant != nil {
		update.VariantID = variant.ID
	}

	if product.Price != nil && variant != nil {
		existing, err := strconv.ParseFloat(variant.Price, 64)
		if err != nil || abs(existing-*product.Price) > priceTolerance {
			update.Price = product.Price
			changes = append(changes, fmt.Sprintf("price: %s -> %.2f", variant.Price, *product.Price))
		}
	}

	if product.Description != "" && product.Description != CleanDescription(match.Entry.BodyHTML) {
		description := product.Description
		update.BodyHTML = &description
		changes = append(changes, "description updated")
	}

	if len(product.Tags) > 0 && !sameTagSet(product.Tags, splitTags(match.Entry.Tags)) {
		update.Tags = product.Tags
		changes = append(changes, "tags updated")
	}

	return update, changes
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// splitTags undoes the comma-joined tag string the destination stores.
func splitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// sameTagSet compares tag lists order-independently.
func sameTagSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sortedA := append([]string(nil), a...)
	sortedB := append([]string(nil), b...)
	sort.Strings(sortedA)
	sort.Strings(sortedB)
	for i := range sortedA {
		if sortedA[i] != sortedB[i] {
			return false
		}
	}
	return true
}

// buildCreate assembles the full creation payload for a product absent
// from the catalog.
func buildCreate(product *domain.NormalizedProduct) *domain.ProductCreate {
	payload := &domain.ProductCreate{
		Title:       product.Title,
		BodyHTML:    product.Description,
		Vendor:      product.Brand,
		ProductType: product.MainCategory,
		Tags:        product.Tags,
		Images:      product.Images,
	}

	if len(product.Variants) == 0 {
		price := product.Price
		payload.Variants = []domain.VariantCreate{{
			SKU:      product.SKU,
			Barcode:  "",
			Price:    price,
			Quantity: product.Stock,
		}}
		return payload
	}

	// Axis declared when any variant carries the attribute; order is
	// fixed: color, size, material.
	hasAxis := [3]bool{}
	for _, v := range product.Variants {
		hasAxis[0] = hasAxis[0] || v.Color != ""
		hasAxis[1] = hasAxis[1] || v.Size != ""
		hasAxis[2] = hasAxis[2] || v.Material != ""
	}
	for i, present := range hasAxis {
		if present {
			payload.Options = append(payload.Options, optionAxes[i])
		}
	}

	// Total stock apportioned evenly, remainder dropped
	perVariant := product.Stock / len(product.Variants)

	for i, v := range product.Variants {
		sku := v.StockCode
		if sku == "" {
			sku = fmt.Sprintf("%s-%d", product.SKU, i+1)
		}
		variant := domain.VariantCreate{
			SKU:      sku,
			Barcode:  v.Barcode,
			Price:    product.Price,
			Quantity: perVariant,
		}
		attrs := [3]string{v.Color, v.Size, v.Material}
		for axis, present := range hasAxis {
			if present {
				variant.Options = append(variant.Options, attrs[axis])
			}
		}
		payload.Variants = append(payload.Variants, variant)
	}

	return payload
}
