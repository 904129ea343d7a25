// Package slack implements the status-setting collaborator: a minimal
// client for a Slack-style profile API (users.profile.set). It is the
// only component that ever sees the bearer credential; the rule engine
// receives neither the token nor this client's transport details.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "statuscal/internal/log"
)

const defaultBaseURL = "https://slack.com/api"

// Client sets and clears the profile status over HTTP. Retry is bounded
// and fixed-delay, configured from the schedule document's
// retryAttempts/retryDelayMs options; the engine above never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	retryAttempts int
	retryDelay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client (tests use an
// httptest server's client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRetry sets the bounded retry policy: attempts additional tries
// after the first, delay between them.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts < 0 {
			attempts = 0
		}
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// New returns a Client for the given bearer token.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("slack token is empty")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// profile is the users.profile.set payload. A zero expiration means the
// status does not expire on its own.
type profile struct {
	StatusText       string `json:"status_text"`
	StatusEmoji      string `json:"status_emoji"`
	StatusExpiration int64  `json:"status_expiration"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// SetStatus applies text and icon to the profile, expiring at expiresAt
// (zero time = no expiry).
func (c *Client) SetStatus(ctx context.Context, text, icon string, expiresAt time.Time) error {
	var expiration int64
	if !expiresAt.IsZero() {
		expiration = expiresAt.Unix()
	}
	return c.setProfile(ctx, profile{
		StatusText:       text,
		StatusEmoji:      icon,
		StatusExpiration: expiration,
	})
}

// ClearStatus removes any current status by setting empty fields, which
// is how the profile API models "no status".
func (c *Client) ClearStatus(ctx context.Context) error {
	return c.setProfile(ctx, profile{})
}

func (c *Client) setProfile(ctx context.Context, p profile) error {
	var lastErr error

	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if attempt > 0 {
			appLog.Warn("slack: retrying profile update",
				"attempt", attempt,
				"max", c.retryAttempts,
				"err", lastErr,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		lastErr = c.postProfile(ctx, p)
		if lastErr == nil {
			return nil
		}
		// Context cancellation is final; more attempts cannot help.
		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}

func (c *Client) postProfile(ctx context.Context, p profile) error {
	body, err := json.Marshal(struct {
		Profile profile `json:"profile"`
	}{Profile: p})
	if err != nil {
		return err
	}

	url := c.baseURL + "/users.profile.set"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("slack: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack: %s", appLog.Redact(resp.Status))
	}

	var api apiResponse
	if err := json.Unmarshal(data, &api); err != nil {
		return fmt.Errorf("slack: decoding response: %w", err)
	}
	if !api.OK {
		return fmt.Errorf("slack: api error: %s", api.Error)
	}

	appLog.Debug("slack: profile updated", "text", p.StatusText, "emoji", p.StatusEmoji)
	return nil
}
