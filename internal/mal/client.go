package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production endpoint of the MyAnimeList v2 API.
const DefaultBaseURL = "https://api.myanimelist.net/v2"

// detailFields is the field list requested from the detail endpoint.
var detailFields = []string{
	"id",
	"title",
	"main_picture",
	"alternative_titles",
	"start_date",
	"end_date",
	"synopsis",
	"rank",
	"media_type",
	"status",
	"num_episodes",
	"start_season",
	"broadcast",
	"source",
	"average_episode_duration",
	"background",
	"studios",
	"statistics",
}

// APIError carries the provider's raw error body for a non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myanimelist: unexpected status %d: %s", e.StatusCode, e.Body)
}

// NotFound reports whether the error is a provider 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ClientConfig holds MyAnimeList client configuration.
type ClientConfig struct {
	ClientID  string
	BaseURL   string
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// Client is the MyAnimeList v2 API client.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	headers map[string]string
}

// NewClient creates a MyAnimeList client with a pooled transport and a
// client-side rate limiter.
func NewClient(cfg *ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		baseURL: baseURL,
		headers: map[string]string{"X-MAL-CLIENT-ID": cfg.ClientID},
	}
}

// GetSeasonalAnime fetches the full seasonal listing for one quarter.
func (c *Client) GetSeasonalAnime(ctx context.Context, year int, season string) (*SeasonalAnime, error) {
	url := fmt.Sprintf("%s/anime/season/%d/%s?limit=500", c.baseURL, year, season)

	var listing SeasonalAnime
	if err := c.getJSON(ctx, url, &listing); err != nil {
		return nil, fmt.Errorf("failed to get seasonal anime %d/%s: %w", year, season, err)
	}
	return &listing, nil
}

// GetAnimeDetail fetches the full detail record for one title.
func (c *Client) GetAnimeDetail(ctx context.Context, animeID int) (*AnimeDetail, error) {
	url := fmt.Sprintf("%s/anime/%d?fields=%s", c.baseURL, animeID, strings.Join(detailFields, ","))

	var detail AnimeDetail
	if err := c.getJSON(ctx, url, &detail); err != nil {
		return nil, fmt.Errorf("failed to get anime detail %d: %w", animeID, err)
	}
	return &detail, nil
}

// getJSON performs a rate-limited GET and decodes the JSON response.
// A non-200 status yields an *APIError wrapping the raw body.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
