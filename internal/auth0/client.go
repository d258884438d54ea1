package auth0

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPageSize    = 20
	DefaultLogsPerUser = 100

	// maxErrorBody caps how much of a failed response body ends up in logs.
	maxErrorBody = 64 << 10
)

// Client reads users and user logs from the management API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *zap.SugaredLogger
	pageSize    int
	logsPerUser int
	now         func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.logger = l } }

func WithPageSize(n int) Option { return func(c *Client) { c.pageSize = n } }

func WithLogsPerUser(n int) Option { return func(c *Client) { c.logsPerUser = n } }

// NewClient returns a client for the tenant rooted at baseURL, e.g.
// https://oxide.auth0.com.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      zap.NewNop().Sugar(),
		pageSize:    DefaultPageSize,
		logsPerUser: DefaultLogsPerUser,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListUsersPage returns one zero-based page of users sorted by last login,
// newest first. An empty slice with a nil error means there are no more pages.
// A non-success status yields a *StatusError.
func (c *Client) ListUsersPage(ctx context.Context, token *Token, page int) ([]User, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.pageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("sort", "last_login:-1")

	resp, err := c.get(ctx, token, "/api/v2/users", q)
	if err != nil {
		return nil, fmt.Errorf("get users page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("getting auth0 users", resp)
	}
	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users page %d: %w", page, err)
	}
	return users, nil
}

// ListUserLogs returns the most recent log events for a user, newest first.
// A 429 yields a *RateLimitError and other non-success statuses a *StatusError;
// neither is retried.
func (c *Client) ListUserLogs(ctx context.Context, token *Token, userID string) ([]LogEntry, error) {
	q := url.Values{}
	q.Set("sort", "date:-1")
	q.Set("per_page", strconv.Itoa(c.logsPerUser))

	resp, err := c.get(ctx, token, "/api/v2/users/"+url.PathEscape(userID)+"/logs", q)
	if err != nil {
		return nil, fmt.Errorf("get logs for %s: %w", userID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseRateLimit("getting auth0 user logs", resp.Header)
	default:
		return nil, statusError("getting auth0 user logs", resp)
	}

	var logs []LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		return nil, fmt.Errorf("decode logs for %s: %w", userID, err)
	}
	return logs, nil
}

func (c *Client) get(ctx context.Context, token *Token, path string, q url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debugw("auth0 request",
		"method", req.Method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", float64(c.now().Sub(start).Microseconds())/1000.0,
	)
	return resp, nil
}

func statusError(op string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

// parseRateLimit reads the x-ratelimit-* headers. The reset header is epoch seconds.
func parseRateLimit(op string, h http.Header) *RateLimitError {
	e := &RateLimitError{Op: op}
	if v, err := strconv.ParseInt(h.Get("x-ratelimit-limit"), 10, 64); err == nil {
		e.Limit = v
	}
	if v, err := strconv.ParseInt(h.Get("x-ratelimit-remaining"), 10, 64); err == nil {
		e.Remaining = v
	}
	if v, err := strconv.ParseInt(h.Get("x-ratelimit-reset"), 10, 64); err == nil {
		e.Reset = time.Unix(v, 0).UTC()
	}
	return e
}
