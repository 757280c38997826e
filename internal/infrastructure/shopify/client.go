package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vervegrand/sentos-sync/internal/domain"
)

const (
	apiVersion  = "2024-04"
	pageSize    = 250
	maxAttempts = 3
)

// Client talks to the Shopify Admin REST API: one paginated catalog
// read plus the product create/update writes.
type Client struct {
	httpClient  *http.Client
	storeURL    string
	accessToken string
	restBase    string
	pageLimiter *rate.Limiter
	maxPages    int
	debug       bool
}

// NewClient creates a Shopify client for the given store. The page
// limiter spaces catalog-listing requests; write pacing is the
// reconciler's responsibility because it must also cover failed calls.
func NewClient(storeURL, accessToken string) *Client {
	normalized := strings.TrimSpace(storeURL)
	if normalized != "" && !strings.HasPrefix(normalized, "http") {
		normalized = "https://" + normalized
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		storeURL:    normalized,
		accessToken: accessToken,
		restBase:    fmt.Sprintf("%s/admin/api/%s", normalized, apiVersion),
		pageLimiter: rate.NewLimiter(rate.Limit(2), 1),
		maxPages:    200,
	}
}

// SetPagePacing overrides the inter-page request rate.
func (c *Client) SetPagePacing(pagesPerSecond float64) {
	if pagesPerSecond > 0 {
		c.pageLimiter = rate.NewLimiter(rate.Limit(pagesPerSecond), 1)
	}
}

// SetMaxPages overrides the pagination safety cap.
func (c *Client) SetMaxPages(n int) {
	if n > 0 {
		c.maxPages = n
	}
}

// SetDebug enables request logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

func (c *Client) checkCredentials() error {
	if c.storeURL == "" || c.accessToken == "" {
		return fmt.Errorf("%w: shopify store URL and access token are required", domain.ErrInvalidConfig)
	}
	return nil
}

// doRequest executes one HTTP call with auth headers, retrying 429 and
// 5xx answers with backoff. Returns the status code and the body.
func (c *Client) doRequest(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "SentosSync/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			time.Sleep(backoff(attempt))
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp, attempt)
			log.Printf("[SHOPIFY] Rate limited (attempt %d), waiting %s", attempt, wait)
			lastErr = fmt.Errorf("status 429")
			time.Sleep(wait)
			continue
		}

		if resp.StatusCode >= 500 && attempt < maxAttempts {
			if c.debug {
				log.Printf("[SHOPIFY] Server error %d (attempt %d): %s", resp.StatusCode, attempt, truncate(string(respBody), 200))
			}
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			time.Sleep(backoff(attempt))
			continue
		}

		return resp.StatusCode, respBody, nil
	}

	return 0, nil, lastErr
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 500 * time.Millisecond
}

func retryAfter(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return backoff(attempt)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// listPage is the wire shape of one catalog page.
type listPage struct {
	Products []domain.CatalogEntry `json:"products"`
}

// ListAllProducts pages through the whole store catalog with a since_id
// cursor. A failure on the first page surfaces ErrCatalogUnavailable; a
// failure on a later page stops pagination and returns the partial
// accumulation, which the caller must treat as possibly short.
func (c *Client) ListAllProducts(ctx context.Context) ([]domain.CatalogEntry, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	var all []domain.CatalogEntry
	var sinceID int64

	for page := 1; page <= c.maxPages; page++ {
		if err := c.pageLimiter.Wait(ctx); err != nil {
			return all, err
		}

		url := fmt.Sprintf("%s/products.json?limit=%d&since_id=%d&fields=id,title,body_html,tags,variants",
			c.restBase, pageSize, sinceID)

		status, body, err := c.doRequest(ctx, "GET", url, nil)
		if err != nil || status != http.StatusOK {
			if err == nil {
				err = fmt.Errorf("status %d: %s", status, truncate(string(body), 200))
			}
			if page == 1 {
				return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
			}
			log.Printf("[SHOPIFY] Page %d fetch failed, using partial catalog of %d products: %v", page, len(all), err)
			return all, nil
		}

		var parsed listPage
		if err := json.Unmarshal(body, &parsed); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("%w: decoding page: %v", domain.ErrCatalogUnavailable, err)
			}
			log.Printf("[SHOPIFY] Page %d decode failed, using partial catalog of %d products: %v", page, len(all), err)
			return all, nil
		}

		if len(parsed.Products) == 0 {
			break
		}

		all = append(all, parsed.Products...)
		sinceID = parsed.Products[len(parsed.Products)-1].ID

		if c.debug {
			log.Printf("[SHOPIFY] Loaded page %d, %d products so far", page, len(all))
		}

		if len(parsed.Products) < pageSize {
			break
		}
	}

	log.Printf("[SHOPIFY] Catalog listing complete: %d products", len(all))
	return all, nil
}

// Wire shapes for the write endpoints.

type restImage struct {
	Src string `json:"src"`
}

type restOption struct {
	Name string `json:"name"`
}

type restVariant struct {
	ID                int64  `json:"id,omitempty"`
	SKU               string `json:"sku,omitempty"`
	Barcode           string `json:"barcode,omitempty"`
	Price             string `json:"price,omitempty"`
	InventoryQuantity *int   `json:"inventory_quantity,omitempty"`
	Option1           string `json:"option1,omitempty"`
	Option2           string `json:"option2,omitempty"`
	Option3           string `json:"option3,omitempty"`
}

type restProduct struct {
	ID          int64         `json:"id,omitempty"`
	Title       string        `json:"title,omitempty"`
	BodyHTML    *string       `json:"body_html,omitempty"`
	Vendor      string        `json:"vendor,omitempty"`
	ProductType string        `json:"product_type,omitempty"`
	Tags        *string       `json:"tags,omitempty"`
	Images      []restImage   `json:"images,omitempty"`
	Options     []restOption  `json:"options,omitempty"`
	Variants    []restVariant `json:"variants,omitempty"`
}

type productEnvelope struct {
	Product restProduct `json:"product"`
}

type createdEnvelope struct {
	Product struct {
		ID int64 `json:"id"`
	} `json:"product"`
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func buildCreateBody(payload *domain.ProductCreate) productEnvelope {
	p := restProduct{
		Title:       payload.Title,
		Vendor:      payload.Vendor,
		ProductType: payload.ProductType,
	}
	if payload.BodyHTML != "" {
		body := payload.BodyHTML
		p.BodyHTML = &body
	}
	if len(payload.Tags) > 0 {
		tags := strings.Join(payload.Tags, ", ")
		p.Tags = &tags
	}
	for _, src := range payload.Images {
		p.Images = append(p.Images, restImage{Src: src})
	}
	for _, name := range payload.Options {
		p.Options = append(p.Options, restOption{Name: name})
	}
	for _, v := range payload.Variants {
		qty := v.Quantity
		rv := restVariant{
			SKU:               v.SKU,
			Barcode:           v.Barcode,
			Price:             formatPrice(v.Price),
			InventoryQuantity: &qty,
		}
		if len(v.Options) > 0 {
			rv.Option1 = v.Options[0]
		}
		if len(v.Options) > 1 {
			rv.Option2 = v.Options[1]
		}
		if len(v.Options) > 2 {
			rv.Option3 = v.Options[2]
		}
		p.Variants = append(p.Variants, rv)
	}
	return productEnvelope{Product: p}
}

func buildUpdateBody(payload *domain.ProductUpdate) productEnvelope {
	p := restProduct{
		ID:       payload.ProductID,
		BodyHTML: payload.BodyHTML,
	}
	if payload.Tags != nil {
		tags := strings.Join(payload.Tags, ", ")
		p.Tags = &tags
	}
	if payload.Price != nil && payload.VariantID != 0 {
		p.Variants = []restVariant{{
			ID:    payload.VariantID,
			Price: formatPrice(payload.Price),
		}}
	}
	return productEnvelope{Product: p}
}

// CreateProduct creates a new store product and returns its id.
func (c *Client) CreateProduct(ctx context.Context, payload *domain.ProductCreate) (int64, error) {
	if err := c.checkCredentials(); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/products.json", c.restBase)

	status, body, err := c.doRequest(ctx, "POST", url, buildCreateBody(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrWriteRejected, err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d: %s", domain.ErrWriteRejected, status, truncate(string(body), 200))
	}

	var created createdEnvelope
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("%w: decoding create response: %v", domain.ErrWriteRejected, err)
	}

	if c.debug {
		log.Printf("[SHOPIFY] Created product %d (%s)", created.Product.ID, payload.Title)
	}
	return created.Product.ID, nil
}

// UpdateProduct applies a minimal field diff to an existing product.
func (c *Client) UpdateProduct(ctx context.Context, payload *domain.ProductUpdate) error {
	if err := c.checkCredentials(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/products/%d.json", c.restBase, payload.ProductID)

	status, body, err := c.doRequest(ctx, "PUT", url, buildUpdateBody(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteRejected, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", domain.ErrWriteRejected, status, truncate(string(body), 200))
	}

	if c.debug {
		log.Printf("[SHOPIFY] Updated product %d", payload.ProductID)
	}
	return nil
}

// ShopInfo is the connection-test summary shown on the dashboard.
type ShopInfo struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Currency string `json:"currency"`
}

// TestConnection verifies the credentials by reading the shop resource.
func (c *Client) TestConnection(ctx context.Context) (*ShopInfo, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/shop.json", c.restBase)

	status, body, err := c.doRequest(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrCatalogUnavailable, status, truncate(string(body), 200))
	}

	var parsed struct {
		Shop struct {
			Name     string `json:"name"`
			Domain   string `json:"myshopify_domain"`
			Currency string `json:"currency"`
		} `json:"shop"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding shop response: %v", domain.ErrCatalogUnavailable, err)
	}

	return &ShopInfo{
		Name:     parsed.Shop.Name,
		Domain:   parsed.Shop.Domain,
		Currency: parsed.Shop.Currency,
	}, nil
}
