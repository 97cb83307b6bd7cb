// Package client talks to the archive API from the dashboard CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/telibelly/telibelly/internal/models"
	"github.com/telibelly/telibelly/internal/repository"
	"github.com/telibelly/telibelly/internal/scraper"
)

// errors
var (
	ErrScrapeBusy = errors.New("a scrape pass is already in progress")
)

// Client is a thin HTTP client for the archive API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Query narrows a message listing request.
type Query struct {
	Channel string
	Search  string
	Trash   bool
	Limit   int
	Offset  int
}

// HealthStatus is the health probe response.
type HealthStatus struct {
	Status             string `json:"status"`
	Database           string `json:"database"`
	NextCheckInSeconds int    `json:"next_check_in_seconds"`
}

// envelope is the common response wrapper of the API.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
	Status  json.RawMessage `json:"status"`
	Liked   *bool           `json:"liked"`
	Action  string          `json:"action"`
	Tags    string          `json:"tags"`
}

// Messages fetches one page of messages.
func (c *Client) Messages(ctx context.Context, q Query) ([]models.Message, error) {
	params := url.Values{}
	if q.Channel != "" {
		params.Set("channel", q.Channel)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Trash {
		params.Set("filter_trash", "true")
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	env, err := c.do(ctx, http.MethodGet, "/api/messages?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var messages []models.Message
	if err := json.Unmarshal(env.Data, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

// Channels fetches the channel list.
func (c *Client) Channels(ctx context.Context) ([]models.Channel, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/channels", nil)
	if err != nil {
		return nil, err
	}

	var channels []models.Channel
	if err := json.Unmarshal(env.Data, &channels); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	return channels, nil
}

// Stats fetches archive statistics.
func (c *Client) Stats(ctx context.Context) (*repository.ArchiveStats, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats repository.ArchiveStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &stats, nil
}

// ScrapeStatus fetches the current scrape state.
func (c *Client) ScrapeStatus(ctx context.Context) (scraper.Status, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/scrape/status", nil)
	if err != nil {
		return scraper.Status{}, err
	}

	var st scraper.Status
	if err := json.Unmarshal(env.Status, &st); err != nil {
		return scraper.Status{}, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// StartScrape asks the server to begin a scrape pass.
// Returns ErrScrapeBusy when one is already running.
func (c *Client) StartScrape(ctx context.Context, req scraper.StartRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/api/scrape/start", req)
	return err
}

// MarkRead flags a message as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/messages/%d/read", id), nil)
	return err
}

// ToggleLike flips the like flag and returns the new value.
func (c *Client) ToggleLike(ctx context.Context, id int64) (bool, error) {
	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/messages/%d/like", id), nil)
	if err != nil {
		return false, err
	}
	if env.Liked == nil {
		return false, fmt.Errorf("liked flag missing in response")
	}
	return *env.Liked, nil
}

// ToggleTrash moves a message in or out of the trash and returns the action taken.
func (c *Client) ToggleTrash(ctx context.Context, id int64) (string, error) {
	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/messages/%d/trash", id), nil)
	if err != nil {
		return "", err
	}
	return env.Action, nil
}

// SetTags replaces a message's tags and returns the normalized set as stored.
func (c *Client) SetTags(ctx context.Context, id int64, tags string) (string, error) {
	payload := map[string]string{"tags": tags}
	env, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/messages/%d/tags", id), payload)
	if err != nil {
		return "", err
	}
	return env.Tags, nil
}

// Health probes the health endpoint. Unlike the other calls it decodes the
// body even on a non-2xx status or success:false, the unhealthy payload is
// still meaningful.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env struct {
		Data HealthStatus `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &env.Data, nil
}

// do performs a request and unwraps the response envelope.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrScrapeBusy
	}
	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("api: %s", msg)
	}

	return &env, nil
}
