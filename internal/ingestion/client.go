// Package ingestion fetches recent posts for tracked accounts from the
// external scraping provider.
package ingestion

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wnt/memetrack/internal/utils"
)

// Post is one raw post attributed to a tracked handle.
type Post struct {
	ID   string `json:"id_str"`
	Text string `json:"text"`
}

// Source is the ingestion collaborator contract consumed by the monitor.
// Implementations may return an empty slice on rate limits or provider
// errors; ordering beyond recency is not guaranteed.
type Source interface {
	FetchRecentPosts(ctx context.Context, handle string) ([]Post, error)
}

// Config holds provider connection settings.
type Config struct {
	APIBase  string
	APIToken string
	MaxPosts int

	// RequestsPerSecond throttles provider calls across all accounts.
	// Zero disables throttling.
	RequestsPerSecond float64
}

// Run completion polling cadence. A scrape run takes a few seconds to
// populate its dataset; collecting earlier yields an empty result.
const (
	defaultRunPollInterval = 2 * time.Second
	defaultRunWaitTimeout  = 60 * time.Second
)

// Client fetches posts from an Apify-style scraping provider.
type Client struct {
	httpClient *utils.HTTPClient
	token      string
	maxPosts   int
	limiter    *rate.Limiter
	logger     zerolog.Logger

	runPollInterval time.Duration
	runWaitTimeout  time.Duration
}

// NewClient creates an ingestion client.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("ingestion API token is not set")
	}

	maxPosts := cfg.MaxPosts
	if maxPosts <= 0 {
		maxPosts = 10
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: utils.NewHTTPClient(
			utils.WithBaseURL(cfg.APIBase),
			utils.WithTimeout(30*time.Second),
			utils.WithRetries(2, 500*time.Millisecond),
		),
		token:           cfg.APIToken,
		maxPosts:        maxPosts,
		limiter:         limiter,
		logger:          logger.With().Str("component", "ingestion").Logger(),
		runPollInterval: defaultRunPollInterval,
		runWaitTimeout:  defaultRunWaitTimeout,
	}, nil
}

// searchRequest is the provider's scrape-run payload.
type searchRequest struct {
	SearchTerms []string `json:"searchTerms"`
	MaxPosts    int      `json:"maxTweets"`
	Sort        string   `json:"sort"`
}

type runResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type runStatusResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

// waitForRun blocks until the scrape run reports a terminal status. The
// dataset stays empty until the run finishes, so collecting earlier would
// silently yield zero posts.
func (c *Client) waitForRun(ctx context.Context, runID string, query url.Values) error {
	deadline := time.Now().Add(c.runWaitTimeout)
	statusPath := fmt.Sprintf("/actor-runs/%s", runID)

	for {
		var status runStatusResponse
		if err := c.httpClient.GetJSON(ctx, statusPath, query, &status); err != nil {
			return fmt.Errorf("failed to check run status: %w", err)
		}

		switch status.Data.Status {
		case "SUCCEEDED":
			return nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return fmt.Errorf("scrape run %s ended with status %s", runID, status.Data.Status)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("scrape run %s did not finish within %s", runID, c.runWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.runPollInterval):
		}
	}
}

// rawPost carries the provider fields we read, including the demo flag on
// placeholder results.
type rawPost struct {
	ID   string `json:"id_str"`
	Text string `json:"text"`
	Demo bool   `json:"demo"`
}

// FetchRecentPosts starts a scrape run for the handle and collects its
// results. Placeholder demo results are dropped.
func (c *Client) FetchRecentPosts(ctx context.Context, handle string) ([]Post, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	query := url.Values{"token": {c.token}}
	payload := searchRequest{
		SearchTerms: []string{fmt.Sprintf("from:%s", handle)},
		MaxPosts:    c.maxPosts,
		Sort:        "Latest",
	}

	resp, err := c.httpClient.Post(ctx, "/acts/61RPP7dywgiy0JPD0/runs", query, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to start scrape run for %s: %w", handle, err)
	}

	var run runResponse
	if err := resp.DecodeJSON(&run); err != nil {
		return nil, fmt.Errorf("failed to decode scrape run response: %w", err)
	}
	if run.Data.ID == "" {
		return nil, fmt.Errorf("no run id returned for %s", handle)
	}

	if err := c.waitForRun(ctx, run.Data.ID, query); err != nil {
		return nil, err
	}

	var raw []rawPost
	resultsPath := fmt.Sprintf("/actor-runs/%s/dataset/items", run.Data.ID)
	if err := c.httpClient.GetJSON(ctx, resultsPath, query, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch scrape results for %s: %w", handle, err)
	}

	real := utils.Filter(raw, func(p rawPost) bool { return !p.Demo })
	if len(real) < len(raw) && len(real) == 0 {
		c.logger.Warn().Str("handle", handle).Msg("Only demo results returned by provider")
	}

	posts := make([]Post, 0, len(real))
	for _, p := range real {
		posts = append(posts, Post{ID: p.ID, Text: p.Text})
	}

	c.logger.Debug().Str("handle", handle).Int("posts", len(posts)).Msg("Fetched recent posts")
	return posts, nil
}
