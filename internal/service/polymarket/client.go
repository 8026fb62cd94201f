// Package polymarket wraps the venue's public data-api and gamma-api.
package polymarket

import (
	"context"
	"fmt"
	"strconv"

	"WhaleWatch/internal/domain/models"
	drepo "WhaleWatch/internal/domain/repository"
	xhttp "WhaleWatch/pkg/http"
)

// Client implements the MarketFeed backed by the Polymarket HTTP APIs.
type Client struct {
	dataAPIURL  string
	gammaAPIURL string
	http        *xhttp.Client
}

// New creates a new Polymarket MarketFeed.
func New(dataAPIURL, gammaAPIURL string, httpClient *xhttp.Client) drepo.MarketFeed {
	return &Client{
		dataAPIURL:  dataAPIURL,
		gammaAPIURL: gammaAPIURL,
		http:        httpClient,
	}
}

// Trades fetches one page of the trade feed, filtered to taker fills at
// or above minAmount cash value. Non-2xx answers surface unwrapped so
// the caller can classify 4xx as soft end-of-data.
func (c *Client) Trades(ctx context.Context, limit, offset int, minAmount float64, takerOnly bool) ([]models.RawTrade, error) {
	query := map[string]string{
		"limit":        strconv.Itoa(limit),
		"offset":       strconv.Itoa(offset),
		"takerOnly":    strconv.FormatBool(takerOnly),
		"filterType":   "CASH",
		"filterAmount": strconv.FormatFloat(minAmount, 'f', -1, 64),
	}

	var trades []models.RawTrade
	if err := c.http.GetJSON(ctx, c.dataAPIURL+"/trades", query, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// MarketBySlug looks up one market descriptor by slug. Returns
// (nil, nil) when the upstream has no market for the slug.
func (c *Client) MarketBySlug(ctx context.Context, slug string) (*models.MarketDescriptor, error) {
	var markets []models.MarketDescriptor
	err := c.http.GetJSON(ctx, c.gammaAPIURL+"/markets", map[string]string{"slug": slug}, &markets)
	if xhttp.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market by slug %q: %w", slug, err)
	}
	if len(markets) == 0 {
		return nil, nil
	}
	return &markets[0], nil
}

// MarketsByConditionIDs looks up descriptors for one or many condition ids.
func (c *Client) MarketsByConditionIDs(ctx context.Context, ids []string) ([]models.MarketDescriptor, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	opts := &xhttp.RequestOptions{
		Method: "GET",
		URL:    c.gammaAPIURL + "/markets" + conditionIDQuery(ids),
	}
	var markets []models.MarketDescriptor
	err := c.http.SendAndParse(ctx, opts, &markets)
	if xhttp.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("markets by condition ids: %w", err)
	}
	return markets, nil
}

// EventBySlug looks up the event descriptor (with its nested markets).
// Returns (nil, nil) when the event does not exist.
func (c *Client) EventBySlug(ctx context.Context, slug string) (*models.EventDescriptor, error) {
	var events []models.EventDescriptor
	err := c.http.GetJSON(ctx, c.gammaAPIURL+"/events", map[string]string{"slug": slug}, &events)
	if xhttp.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("event by slug %q: %w", slug, err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// conditionIDQuery builds the repeated condition_ids parameter the
// gamma API expects.
func conditionIDQuery(ids []string) string {
	q := ""
	for i, id := range ids {
		if i == 0 {
			q += "?condition_ids=" + id
		} else {
			q += "&condition_ids=" + id
		}
	}
	return q
}
