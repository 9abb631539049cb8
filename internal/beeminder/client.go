// Package beeminder talks to the Beeminder HTTP API.
package beeminder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rezmoss/beefocus/internal/core"
)

const DefaultBaseURL = "https://www.beeminder.com/api/v1"

// maxErrorBody caps how much of a failed response is quoted back to the user.
const maxErrorBody = 4 << 10

type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
}

var _ core.Tracker = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type goalPayload struct {
	Slug   string  `json:"slug"`
	Title  *string `json:"title"`
	GUnits string  `json:"gunits"`
}

func (c *Client) ListGoals(ctx context.Context, username, token string) ([]core.Goal, error) {
	endpoint := fmt.Sprintf("%s/users/%s/goals.json?%s",
		c.baseURL, url.PathEscape(username), url.Values{"auth_token": {token}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build goals request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		c.log.Error("list goals failed", "user", username, "status", resp.StatusCode)
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var payload []goalPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode goals: %w", err)
	}

	goals := make([]core.Goal, 0, len(payload))
	for _, p := range payload {
		goals = append(goals, core.Goal{Slug: p.Slug, Title: p.Title, Unit: p.GUnits})
	}
	c.log.Debug("goals listed", "user", username, "count", len(goals))
	return goals, nil
}

func (c *Client) PostDatapoint(ctx context.Context, username, token string, dp core.Datapoint) error {
	endpoint := fmt.Sprintf("%s/users/%s/goals/%s/datapoints.json",
		c.baseURL, url.PathEscape(username), url.PathEscape(dp.Goal))

	form := url.Values{
		"auth_token": {token},
		"value":      {core.FormatValue(dp.Value)},
		"comment":    {dp.Comment},
		"timestamp":  {strconv.FormatInt(dp.Timestamp.Unix(), 10)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build datapoint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post datapoint: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		c.log.Error("post datapoint failed", "goal", dp.Goal, "status", resp.StatusCode)
		return fmt.Errorf("post datapoint: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.Info("datapoint posted", "goal", dp.Goal, "value", dp.Value)
	return nil
}

// checkResponse turns any non-2xx answer into core.ErrRemote carrying the
// response body text.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(body))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%w: %d: %s", core.ErrRemote, resp.StatusCode, text)
}
