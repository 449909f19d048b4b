// Package jikan is the client for the Jikan v4 API, the remote fuzzy-search
// provider used as an alternative to local title matching.
package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production endpoint of the Jikan v4 API.
const DefaultBaseURL = "https://api.jikan.moe/v4"

// Result is one ranked search candidate. IDs share the MyAnimeList namespace.
type Result struct {
	ID       int
	Title    string
	ImageURL string
}

type searchResponse struct {
	Data []struct {
		MalID  int    `json:"mal_id"`
		Title  string `json:"title"`
		Images struct {
			JPG struct {
				ImageURL string `json:"image_url"`
			} `json:"jpg"`
		} `json:"images"`
	} `json:"data"`
}

// Client is the Jikan v4 API client.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// NewClient creates a Jikan client. Jikan is a public API with an enforced
// server-side limit of 3 req/sec, matched here on the client side.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(3), 1),
		baseURL: baseURL,
	}
}

// SearchAnime returns up to limit safe-for-work candidates for the query.
func (c *Client) SearchAnime(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	searchURL := fmt.Sprintf("%s/anime?q=%s&limit=%d&sfw=true",
		c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jikan: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		results = append(results, Result{
			ID:       item.MalID,
			Title:    item.Title,
			ImageURL: item.Images.JPG.ImageURL,
		})
	}
	return results, nil
}

// FetchImage downloads the image bytes for one search result.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jikan: image fetch status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
