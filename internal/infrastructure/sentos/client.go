package sentos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/vervegrand/sentos-sync/internal/domain"
)

// Client fetches the vendor XML feed over HTTP.
type Client struct {
	httpClient *http.Client
	feedURL    string
	debug      bool
}

// NewClient creates a feed client for the given URL. The transport-level
// timeout is a backstop; per-fetch deadlines come through FetchOptions.
func NewClient(feedURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		feedURL: feedURL,
	}
}

// SetDebug enables request logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// FetchFeed retrieves the raw feed text. With MaxBytes set, only the
// leading byte range is requested, which the fast-analysis path uses to
// sample very large feeds. Timeout and connection failures surface as
// distinct error kinds so callers can tell "feed too slow" from
// "feed unreachable".
func (c *Client) FetchFeed(ctx context.Context, opts domain.FetchOptions) (string, error) {
	if c.feedURL == "" {
		return "", fmt.Errorf("%w: feed URL is not configured", domain.ErrInvalidConfig)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.feedURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "SentosSync/1.0")
	if opts.MaxBytes > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", opts.MaxBytes))
	}

	if c.debug {
		log.Printf("[SENTOS] Fetching feed %s (maxBytes=%d)", c.feedURL, opts.MaxBytes)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrFeedTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	// 206 is the expected answer to a ranged request
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", fmt.Errorf("%w: status %d", domain.ErrFeedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrFeedTimeout, err)
		}
		return "", fmt.Errorf("%w: reading feed body: %v", domain.ErrFeedUnavailable, err)
	}

	if c.debug {
		log.Printf("[SENTOS] Fetched %d bytes (status %d)", len(body), resp.StatusCode)
	}

	return string(body), nil
}

// isTimeout reports whether the error came from a deadline rather than
// a connection problem.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
