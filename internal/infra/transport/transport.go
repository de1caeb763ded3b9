// Package transport implements the resilient fetch layer used by all source
// adapters. A request first tries the origin directly; origins that refuse
// (network error, timeout, tripped breaker) fall back to a prioritized chain
// of relay services. The path that works is remembered per origin host, so
// later requests skip the wasted probe.
package transport

import (
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

	"golang.org/x/time/rate"

	"ai-digest/internal/observability/metrics"
	"ai-digest/internal/resilience/circuitbreaker"
)

const (
	defaultDirectProbeTimeout = 5 * time.Second
	defaultRelayTimeout       = 8 * time.Second
	defaultRequestTimeout     = 8 * time.Second

	// maxBodyBytes caps response bodies; feeds and API payloads are small.
	maxBodyBytes = 8 << 20
)

// ClientConfig configures a transport Client. Zero fields get defaults.
type ClientConfig struct {
	// Relays is the prioritized fallback chain. May be empty, in which case
	// relay-path requests degrade to plain direct requests with an error on
	// failure.
	Relays []Relay

	// Memory is the per-origin route memory. A fresh one is created when nil.
	Memory *Memory

	// HTTPClient is the underlying client. http.DefaultClient-like zero
	// timeout is fine: per-attempt deadlines come from contexts.
	HTTPClient *http.Client

	DirectProbeTimeout time.Duration
	RelayTimeout       time.Duration
	RequestTimeout     time.Duration

	// RelayRate and RelayBurst bound how fast each relay is hit. Relays are
	// shared free services; hammering them gets the whole pipeline blocked.
	RelayRate  rate.Limit
	RelayBurst int

	UserAgent string
}

// Options control a single request.
type Options struct {
	// UseRelay opts the request into the relay fallback protocol. Adapters
	// set this for origins known to refuse direct requests (feeds and APIs
	// behind CORS-style restrictions or aggressive bot blocking).
	UseRelay bool

	// Timeout overrides the per-attempt timeout for the direct path.
	Timeout time.Duration
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Via names the path that produced the response: "direct" or a relay name.
	Via string
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is the resilient fetch transport. Safe for concurrent use.
type Client struct {
	http     *http.Client
	relays   []Relay
	memory   *Memory
	limiters map[string]*rate.Limiter

	breakerMu sync.Mutex
	breakers  map[string]*circuitbreaker.CircuitBreaker

	directProbeTimeout time.Duration
	relayTimeout       time.Duration
	requestTimeout     time.Duration
	userAgent          string
}

// NewClient creates a transport client from the given configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Memory == nil {
		cfg.Memory = NewMemory()
	}
	if cfg.DirectProbeTimeout <= 0 {
		cfg.DirectProbeTimeout = defaultDirectProbeTimeout
	}
	if cfg.RelayTimeout <= 0 {
		cfg.RelayTimeout = defaultRelayTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RelayRate <= 0 {
		cfg.RelayRate = rate.Every(500 * time.Millisecond)
	}
	if cfg.RelayBurst <= 0 {
		cfg.RelayBurst = 2
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "ai-digest/1.0"
	}

	limiters := make(map[string]*rate.Limiter, len(cfg.Relays))
	for _, r := range cfg.Relays {
		limiters[r.Name] = rate.NewLimiter(cfg.RelayRate, cfg.RelayBurst)
	}

	return &Client{
		http:               cfg.HTTPClient,
		relays:             cfg.Relays,
		memory:             cfg.Memory,
		limiters:           limiters,
		breakers:           make(map[string]*circuitbreaker.CircuitBreaker),
		directProbeTimeout: cfg.DirectProbeTimeout,
		relayTimeout:       cfg.RelayTimeout,
		requestTimeout:     cfg.RequestTimeout,
		userAgent:          cfg.UserAgent,
	}
}

// Memory exposes the client's proxy memory, mainly for tests and diagnostics.
func (c *Client) Memory() *Memory {
	return c.memory
}

// Get performs a GET request for url under the resilient fetch protocol.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.requestTimeout
	}

	if !opts.UseRelay {
		return c.do(ctx, rawURL, timeout, RouteDirect)
	}
	return c.getWithRelay(ctx, rawURL, timeout)
}

// GetJSON performs a GET request and decodes the JSON response into v.
// A completed request with a non-2xx status is a *StatusError.
func (c *Client) GetJSON(ctx context.Context, rawURL string, opts Options, v any) error {
	resp, err := c.Get(ctx, rawURL, opts)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode JSON from %s: %w", rawURL, err)
	}
	return nil
}

// GetBody performs a GET request and returns the raw response body.
// Used for XML/Atom payloads handed to the feed parser.
func (c *Client) GetBody(ctx context.Context, rawURL string, opts Options) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	return resp.Body, nil
}

// getWithRelay runs the full protocol: remembered route, direct probe,
// relay chain.
func (c *Client) getWithRelay(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	host := parsed.Hostname()

	if route, ok := c.memory.Route(host); ok {
		if route == RouteDirect {
			return c.do(ctx, rawURL, timeout, RouteDirect)
		}
		if relay, ok := c.findRelay(route); ok {
			return c.doRelay(ctx, relay, rawURL)
		}
		// Remembered relay no longer configured; fall through to a fresh probe.
		c.memory.Forget(host)
	}

	if resp, err := c.probeDirect(ctx, host, rawURL); err == nil {
		c.memory.Remember(host, RouteDirect)
		return resp, nil
	}

	for _, relay := range c.relays {
		resp, err := c.doRelay(ctx, relay, rawURL)
		if err != nil {
			metrics.RecordRelayRequest(relay.Name, "failure")
			continue
		}
		if !acceptableRelayStatus(resp.StatusCode) {
			metrics.RecordRelayRequest(relay.Name, "failure")
			continue
		}
		// Relays sometimes wrap their own error page in a 200. An HTML
		// content type for a non-HTML resource means the payload is not what
		// was asked for.
		if isHTMLMasquerade(resp.Header.Get("Content-Type"), rawURL) {
			metrics.RecordRelayRequest(relay.Name, "rejected")
			slog.Debug("relay returned masquerading HTML page",
				slog.String("relay", relay.Name),
				slog.String("url", rawURL))
			continue
		}
		metrics.RecordRelayRequest(relay.Name, "success")
		c.memory.Remember(host, relay.Name)
		return resp, nil
	}

	if len(c.relays) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRelays, rawURL)
	}
	return nil, fmt.Errorf("%w for %s", ErrAllRelaysFailed, rawURL)
}

// probeDirect attempts a short-timeout direct request through the host's
// circuit breaker. An open breaker skips the attempt entirely.
func (c *Client) probeDirect(ctx context.Context, host, rawURL string) (*Response, error) {
	breaker := c.breakerFor(host)
	result, err := breaker.Execute(func() (interface{}, error) {
		resp, err := c.do(ctx, rawURL, c.directProbeTimeout, RouteDirect)
		if err != nil {
			return nil, err
		}
		// Origins that refuse with an error status (rate limiting, bot
		// blocking) get the same relay treatment as unreachable ones.
		if !acceptableRelayStatus(resp.StatusCode) {
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
		}
		return resp, nil
	})
	if err != nil {
		metrics.RecordDirectProbe(false)
		slog.Debug("direct probe failed, trying relays",
			slog.String("host", host),
			slog.Any("error", err))
		return nil, err
	}
	metrics.RecordDirectProbe(true)
	return result.(*Response), nil
}

// doRelay issues the request through one relay, honoring its rate limit.
func (c *Client) doRelay(ctx context.Context, relay Relay, rawURL string) (*Response, error) {
	if limiter := c.limiters[relay.Name]; limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("relay %s rate wait: %w", relay.Name, err)
		}
	}
	return c.do(ctx, relay.BuildURL(rawURL), c.relayTimeout, relay.Name)
}

// do performs one GET attempt with its own deadline and reads the body fully.
func (c *Client) do(ctx context.Context, rawURL string, timeout time.Duration, via string) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", rawURL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		Via:        via,
	}, nil
}

func (c *Client) findRelay(name string) (Relay, bool) {
	for _, r := range c.relays {
		if r.Name == name {
			return r, true
		}
	}
	return Relay{}, false
}

func (c *Client) breakerFor(host string) *circuitbreaker.CircuitBreaker {
	c.breakerMu.Lock()
	defer c.breakerMu.Unlock()
	if breaker, ok := c.breakers[host]; ok {
		return breaker
	}
	breaker := circuitbreaker.New(circuitbreaker.DirectProbeConfig(host))
	c.breakers[host] = breaker
	return breaker
}

// acceptableRelayStatus mirrors the guard for relay responses: success or a
// not-modified revalidation.
func acceptableRelayStatus(code int) bool {
	return (code >= 200 && code < 300) || code == http.StatusNotModified
}

// isHTMLMasquerade reports whether a relay handed back an HTML document for a
// resource that is not expected to be HTML.
func isHTMLMasquerade(contentType, target string) bool {
	if !strings.Contains(contentType, "text/html") {
		return false
	}
	return !strings.Contains(target, ".html")
}
