package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/rshade/pageturn/internal/cache"
	"github.com/rshade/pageturn/internal/logging"
)

// Client defaults.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 5 * 1024 * 1024
	DefaultUserAgent    = "pageturn/1.0"
)

// ErrCrossOrigin is returned for URLs outside the origin of the client's base URL.
var ErrCrossOrigin = errors.New("cross-origin fetch refused")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher retrieves HTML fragments. The binders depend on this, not on *Client.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Response is a fetched HTML document or fragment.
type Response struct {
	// URL is the absolute URL that was requested.
	URL         string
	StatusCode  int
	ContentType string
	Body        string
	// Truncated is set when the body exceeded the size limit.
	Truncated bool
	FromCache bool
	Duration  time.Duration
}

// Size returns the decoded body length in bytes.
func (r *Response) Size() int {
	return len(r.Body)
}

// Client performs same-origin GET requests for HTML.
type Client struct {
	httpClient   *http.Client
	base         *url.URL
	userAgent    string
	maxBodyBytes int64
	timeout      time.Duration
	store        *cache.FileStore
	logger       zerolog.Logger

	group singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodyBytes limits how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCache serves and stores fragments through store.
func WithCache(store *cache.FileStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.ComponentLogger(l, "fetch")
	}
}

// NewClient creates a client bound to the origin of baseURL.
// Relative URLs passed to Fetch are resolved against baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		httpClient:   &http.Client{},
		base:         base,
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
		timeout:      DefaultTimeout,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Base returns the URL the client was created with.
func (c *Client) Base() *url.URL {
	u := *c.base
	return &u
}

// Resolve turns ref into an absolute URL and enforces the same-origin rule.
func (c *Client) Resolve(ref string) (*url.URL, error) {
	u, err := c.base.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", ref, err)
	}
	if !strings.EqualFold(u.Scheme, c.base.Scheme) || !strings.EqualFold(u.Host, c.base.Host) {
		return nil, fmt.Errorf("%w: %s", ErrCrossOrigin, u.Redacted())
	}
	u.Fragment = ""
	return u, nil
}

// Fetch GETs rawURL. Concurrent calls for the same URL share one request;
// cancelling ctx abandons the wait without failing the other callers.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := c.Resolve(rawURL)
	if err != nil {
		return nil, err
	}
	abs := u.String()

	if c.store != nil && c.store.IsEnabled() {
		if entry, cacheErr := c.store.Get(abs); cacheErr == nil {
			c.logger.Debug().Str("url", abs).Dur("age", entry.Age()).Msg("fragment served from cache")
			return &Response{
				URL:         abs,
				StatusCode:  http.StatusOK,
				ContentType: entry.ContentType,
				Body:        entry.Body,
				FromCache:   true,
			}, nil
		}
	}

	// The shared request outlives any single caller; only the client timeout
	// bounds it. Each caller stops waiting when its own context ends.
	ch := c.group.DoChan(abs, func() (any, error) {
		return c.do(context.WithoutCancel(ctx), abs)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("GET %s: %w", abs, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp, _ := res.Val.(*Response)
		if res.Shared {
			c.logger.Debug().Str("url", abs).Msg("joined in-flight request")
			dup := *resp
			return &dup, nil
		}
		return resp, nil
	}
}

func (c *Client) do(ctx context.Context, abs string) (*Response, error) {
	requestID := logging.GetOrGenerateRequestID(ctx)
	ctx = logging.ContextWithRequestID(ctx, requestID)
	log := c.logger.With().Str("request_id", requestID).Str("url", abs).Logger()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, abs, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	start := time.Now()
	log.Debug().Msg("fetch started")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("fetch failed")
		return nil, fmt.Errorf("GET %s: %w", abs, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		log.Warn().Int("status", resp.StatusCode).Msg("fetch returned non-success status")
		return nil, &StatusError{URL: abs, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", abs, err)
	}
	truncated := int64(len(raw)) > c.maxBodyBytes
	if truncated {
		raw = raw[:c.maxBodyBytes]
		log.Warn().Int64("limit", c.maxBodyBytes).Msg("response body truncated")
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeBody(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding body of %s: %w", abs, err)
	}

	out := &Response{
		URL:         abs,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		Truncated:   truncated,
		Duration:    time.Since(start),
	}

	log.Info().
		Int("status", out.StatusCode).
		Int("bytes", out.Size()).
		Dur("duration", out.Duration).
		Msg("fetch completed")

	if c.store != nil && c.store.IsEnabled() && !truncated {
		if cacheErr := c.store.Set(abs, contentType, body); cacheErr != nil {
			log.Warn().Err(cacheErr).Msg("could not cache fragment")
		}
	}

	return out, nil
}

// decodeBody converts the response to UTF-8 using the charset parameter of
// the Content-Type header. Unknown or missing charsets are treated as UTF-8.
func decodeBody(raw []byte, contentType string) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(raw), nil //nolint:nilerr // A malformed header is not worth failing the fetch over.
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(raw), nil //nolint:nilerr // Unknown charsets fall back to UTF-8.
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
