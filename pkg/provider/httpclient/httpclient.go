package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"email-onboarding-be/pkg/provider"

	"golang.org/x/oauth2"
)

// Client is a JSON client rooted at a base URL. Authentication comes from the
// wrapped *http.Client, normally one built by oauth2.NewClient. It makes a
// single attempt per call; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a Client. A nil httpClient gets a plain client with a 30s timeout.
func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const maxErrorBody = 512

// DoJSON sends body (if any) as JSON and decodes a 2xx response into dest (if
// any). path may be absolute, which is how paging links are followed. Every
// failure comes back as *provider.ProviderError tagged with op.
func (c *Client) DoJSON(ctx context.Context, op, method, path string, query url.Values, body, dest any) error {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		fullURL = c.baseURL + path
	}
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &provider.ProviderError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return &provider.ProviderError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, op, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if dest == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, dest); err != nil {
			return &provider.ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	bodyStr := string(data)
	if len(bodyStr) > maxErrorBody {
		bodyStr = bodyStr[:maxErrorBody]
	}
	return &provider.ProviderError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Retriable:  retriableStatus(resp.StatusCode),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		Err:        errors.New(bodyStr),
	}
}

func retriableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// transportError classifies failures that never produced a response.
func transportError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return &provider.ProviderError{Op: op, Err: ctx.Err()}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return &provider.ProviderError{Op: op, StatusCode: status, Retriable: status >= 500, Err: err}
	}

	var netErr net.Error
	retriable := errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
	return &provider.ProviderError{Op: op, Retriable: retriable, Err: err}
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
