package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// defaultCacheTTL is how long a GET payload stays fresh.
	defaultCacheTTL = 30 * time.Second

	userAgent = "Shelfdesk/1.0"
)

// TokenSource supplies the bearer token for outgoing requests and is told
// when the server proves the token invalid. The session manager implements
// it; any 401 on any request invalidates the whole session.
type TokenSource interface {
	AccessToken() string
	Invalidate()
}

// cacheEntry stores a cached GET payload with its write timestamp.
type cacheEntry struct {
	payload   []byte
	fetchedAt time.Time
}

// Client is the HTTP client for the catalog REST API. GET responses are
// cached for 30 seconds; a 429 is answered from the (possibly stale) cache
// as a degraded success instead of propagating the error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger

	cacheMu  sync.Mutex
	cache    map[string]cacheEntry
	cacheTTL time.Duration
}

// NewClient creates a client for the API at baseURL. tokens may be nil for
// a client that never authenticates.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		tokens:   tokens,
		logger:   logger,
		cache:    make(map[string]cacheEntry),
		cacheTTL: defaultCacheTTL,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs a GET, served from cache when a fresh entry exists.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	key := cacheKey(path, params)

	stale, fresh := c.lookup(key)
	if fresh != nil {
		c.logger.Debug("cache hit", "path", path)
		return fresh, nil
	}

	body, status, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusTooManyRequests && stale != nil {
		c.logger.Warn("rate limited, serving cached payload", "path", path)
		return stale, nil
	}

	if err := c.checkStatus(http.MethodGet, path, status, body); err != nil {
		c.evict(key)
		return nil, err
	}

	c.store(key, body)
	return body, nil
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.write(ctx, http.MethodPost, path, payload)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	return c.write(ctx, http.MethodPut, path, payload)
}

// Delete performs a DELETE.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.write(ctx, http.MethodDelete, path, nil)
}

func (c *Client) write(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	body, status, err := c.do(ctx, method, path, nil, payload)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(method, path, status, body); err != nil {
		return nil, err
	}
	return body, nil
}

// do performs the request and returns the raw body and status. Transport
// failures surface as an APIError with status 0.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, int, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		c.logger.Error("api request failed", "method", method, "url", reqURL, "error", err)
		return nil, 0, &domain.APIError{Status: 0, Message: "api server is unreachable"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// checkStatus classifies non-2xx responses. A 401 invalidates the whole
// session before the error propagates.
func (c *Client) checkStatus(method, path string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	message := extractMessage(body, method, path)

	switch status {
	case http.StatusUnauthorized:
		if c.tokens != nil {
			c.tokens.Invalidate()
		}
		return &domain.AuthError{Message: message}
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", message, domain.ErrNotFound)
	default:
		c.logger.Error("api request error", "method", method, "path", path, "status", status)
		return &domain.APIError{Status: status, Message: message}
	}
}

// extractMessage pulls an error message out of a response body: an object's
// message field first, a plain JSON string next, a generic fallback naming
// the failed verb last.
func extractMessage(body []byte, method, path string) string {
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil && s != "" {
		return s
	}

	return fmt.Sprintf("failed to %s %s", method, path)
}

// === Response cache ===

func cacheKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// lookup returns the cached payload for key. fresh is non-nil only within
// the TTL; stale is whatever entry exists regardless of age.
func (c *Client) lookup(key string) (stale, fresh []byte) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	entry, ok := c.cache[key]
	if !ok {
		return nil, nil
	}
	if time.Since(entry.fetchedAt) < c.cacheTTL {
		return entry.payload, entry.payload
	}
	return entry.payload, nil
}

func (c *Client) store(key string, payload []byte) {
	c.cacheMu.Lock()
	c.cache[key] = cacheEntry{payload: payload, fetchedAt: time.Now()}
	c.cacheMu.Unlock()
}

func (c *Client) evict(key string) {
	c.cacheMu.Lock()
	delete(c.cache, key)
	c.cacheMu.Unlock()
}

// InvalidateCache drops every cached GET payload. Called after writes so
// list views refetch.
func (c *Client) InvalidateCache() {
	c.cacheMu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.cacheMu.Unlock()
}
