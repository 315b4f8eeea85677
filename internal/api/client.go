package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors.
var (
	ErrRateLimited  = errors.New("api: rate limited")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: access forbidden")
	ErrServerError  = errors.New("api: server error")
)

const (
	enqueueTaskPath = "/api/v3/enqueueTask"
	getTasksPath    = "/api/v3/getTasks"

	exportSpaceEvent = "exportSpace"

	authCookie       = "token_v2"
	activeUserHeader = "x-notion-active-user-header"

	// FileTokenCookie is the cookie carrying the download credential on a
	// getTasks response that reports success.
	FileTokenCookie = "file_token"
)

// Options configures the API client.
type Options struct {
	// BaseURL of the export service.
	// Default: https://www.notion.so
	BaseURL string

	// Token is the token_v2 auth cookie value.
	Token string

	// UserID is the acting-user identifier sent with every request.
	UserID string

	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 8
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults. Token and UserID
// still have to be set by the caller.
func DefaultOptions() Options {
	return Options{
		BaseURL:             "https://www.notion.so",
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 8,
	}
}

// Client talks to the export service. It is safe for concurrent use.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new API client with the given options.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOptions().BaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = DefaultOptions().MaxIdleConnsPerHost
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// SubmitExport submits a full-workspace export task and returns the task id
// assigned by the service. Submission is a single request with no retry.
func (c *Client) SubmitExport(ctx context.Context, req ExportRequest) (string, error) {
	body := enqueueTaskRequest{
		Task: taskSpec{
			EventName: exportSpaceEvent,
			Request:   req,
		},
	}

	var out enqueueTaskResponse
	if _, err := c.post(ctx, enqueueTaskPath, body, &out); err != nil {
		return "", err
	}
	return out.TaskID, nil
}

// GetTasks fetches the task records for the given ids. The returned page
// carries the file token cookie from this exact response, if the service
// set one. Returns ErrRateLimited on HTTP 429.
func (c *Client) GetTasks(ctx context.Context, ids []string) (*TaskPage, error) {
	var out getTasksResponse
	resp, err := c.post(ctx, getTasksPath, getTasksRequest{TaskIDs: ids}, &out)
	if err != nil {
		return nil, err
	}

	page := &TaskPage{Results: out.Results}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == FileTokenCookie {
			page.FileToken = cookie.Value
			break
		}
	}
	return page, nil
}

// post issues an authenticated JSON POST and decodes the response body into
// out. The *http.Response is returned with its body already consumed so
// callers can inspect transport metadata such as cookies.
func (c *Client) post(ctx context.Context, path string, body, out any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(activeUserHeader, c.opts.UserID)
	req.AddCookie(&http.Cookie{Name: authCookie, Value: c.opts.Token})

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatusCode(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", path, err)
	}
	return resp, nil
}

// checkStatusCode returns an appropriate error for non-success status codes.
func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code >= 500:
		return fmt.Errorf("%w: %d", ErrServerError, code)
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
