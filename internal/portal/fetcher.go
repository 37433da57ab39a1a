package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	httpc "imagedl/internal/http"
	"imagedl/internal/logger"
)

// listingPath is the portal endpoint that lists the seller photos for
// an order.
const listingPath = "/backend/general/photos/seller"

// ErrListingUnavailable wraps terminal listing failures. Without a
// listing page there is nothing to download, so callers abort the run.
var ErrListingUnavailable = errors.New("portal: listing unavailable")

// Client fetches order listing pages from the portal.
type Client struct {
	base  *url.URL
	http  *httpc.Client
	retry httpc.RetryPolicy
	log   *logger.Logger
}

// NewClient creates a portal client for the given base URL, e.g.
// "https://portal.diakrit.com".
func NewClient(baseURL string, client *httpc.Client, retry httpc.RetryPolicy, log *logger.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	if log == nil {
		log = logger.New("portal")
	}

	return &Client{base: base, http: client, retry: retry, log: log}, nil
}

// Base returns the portal base URL image links are resolved against.
func (c *Client) Base() *url.URL {
	return c.base
}

// ListingURL returns the listing page URL for an order id.
func (c *Client) ListingURL(orderID string) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + listingPath
	u.RawQuery = url.Values{"orderid": []string{orderID}}.Encode()
	return u.String()
}

// FetchListing retrieves the listing page body for an order id.
//
// Transient failures (network errors, 5xx, 429) are retried with
// backoff per the client's policy. A terminal failure, including any
// other 4xx, is wrapped in ErrListingUnavailable: the listing page is
// the root of the whole run and its loss is fatal.
func (c *Client) FetchListing(ctx context.Context, orderID string) (string, error) {
	pageURL := c.ListingURL(orderID)
	c.log.Info().Str("url", pageURL).Str("order_id", orderID).Msg("fetching listing page")

	var lastErr error
	for attempt := 1; attempt <= c.retry.Attempts(); attempt++ {
		if err := c.retry.Wait(ctx, attempt); err != nil {
			break
		}

		body, err := c.http.GetString(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !c.retry.ShouldRetry(err) {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Msg("listing fetch failed, retrying")
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return "", fmt.Errorf("%w: order %s: %v", ErrListingUnavailable, orderID, lastErr)
}
