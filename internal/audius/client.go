package audius

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sydlexius/audiusq/internal/retry"
	"github.com/sydlexius/audiusq/internal/version"
)

// Environment fallbacks read when Options leave a value unset.
const (
	EnvAppName   = "AUDIUS_APP_NAME"
	EnvAPIKey    = "AUDIUS_API_KEY"
	EnvAPISecret = "AUDIUS_API_SECRET"
)

// DefaultAppName identifies requests when neither Options nor the
// environment name the application.
const DefaultAppName = "audiusq"

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 2 * 1024 * 1024
)

// Options configures a Client. The zero value is usable: it discovers the
// host from DefaultDiscoveryURL, retries with retry.DefaultPolicy, and
// applies no rate limit or response cache.
type Options struct {
	AppName      string
	APIKey       string
	APISecret    string
	DiscoveryURL string

	// Host, if set, seeds the host cache so the first call skips discovery.
	Host string

	HTTPClient *http.Client
	Timeout    time.Duration
	Retry      retry.Policy

	// RateLimit caps upstream requests per second. Zero disables limiting.
	RateLimit float64

	// CacheTTL enables the response cache when positive.
	CacheTTL time.Duration
}

// Client talks to the Audius API through a discovered host.
type Client struct {
	http      *http.Client
	resolver  *Resolver
	appName   string
	apiKey    string
	apiSecret string
	policy    retry.Policy
	limiter   *rate.Limiter
	cache     *responseCache
	logger    *slog.Logger

	tracks    Searchable[Track]
	users     Searchable[User]
	playlists Searchable[Playlist]
}

// New creates a Client.
func New(opts Options, logger *slog.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = retry.DefaultMaxAttempts
		if policy.BaseDelay == 0 {
			policy.BaseDelay = retry.DefaultBaseDelay
		}
	}

	c := &Client{
		http:      httpClient,
		resolver:  NewResolver(httpClient, opts.DiscoveryURL, policy, logger),
		appName:   firstNonEmpty(opts.AppName, os.Getenv(EnvAppName), DefaultAppName),
		apiKey:    firstNonEmpty(opts.APIKey, os.Getenv(EnvAPIKey)),
		apiSecret: firstNonEmpty(opts.APISecret, os.Getenv(EnvAPISecret)),
		policy:    policy,
		limiter:   newLimiter(opts.RateLimit),
		cache:     newResponseCache(opts.CacheTTL),
		logger:    logger.With(slog.String("component", "audius")),
	}
	c.tracks = &searcher[Track]{client: c, resource: ResourceTracks}
	c.users = &searcher[User]{client: c, resource: ResourceUsers}
	c.playlists = &searcher[Playlist]{client: c, resource: ResourcePlaylists}

	if opts.Host != "" {
		if err := c.resolver.SetHost(opts.Host); err != nil {
			c.logger.Warn("ignoring configured host", slog.String("error", err.Error()))
		}
	}

	return c
}

// AppName returns the app_name sent with every request.
func (c *Client) AppName() string { return c.appName }

// HasCredentials reports whether both an API key and secret are configured.
// Neither is interpreted beyond that.
func (c *Client) HasCredentials() bool { return c.apiKey != "" && c.apiSecret != "" }

// get resolves the host, fetches path with retry and hands the body to
// decode. When the host looks stale after retries are exhausted it is
// re-resolved once; the request is repeated only if discovery hands out a
// different host. A body is cached only after decode accepts it.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, decode func([]byte) error) error {
	reqID := uuid.NewString()
	logger := c.logger.With(slog.String("op", op), slog.String("request_id", reqID))

	query := url.Values{}
	for k, vs := range params {
		query[k] = append([]string(nil), vs...)
	}
	query.Set("app_name", c.appName)
	target := path + "?" + query.Encode()

	if body, ok := c.cache.get(target); ok {
		logger.Debug("response cache hit", slog.String("path", path))
		return decode(body)
	}

	host, err := c.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	body, err := c.fetchWithRetry(ctx, host+target, reqID, logger)
	if err != nil && ctx.Err() == nil && staleHost(err) {
		c.resolver.invalidateIf(host)
		fresh, rerr := c.resolver.Resolve(ctx)
		switch {
		case rerr != nil:
			logger.Warn("re-resolving host failed",
				slog.String("host", host),
				slog.String("error", rerr.Error()))
		case fresh != host:
			logger.Info("retrying against re-resolved host", slog.String("host", fresh))
			body, err = c.fetchWithRetry(ctx, fresh+target, reqID, logger)
		}
	}
	if err != nil {
		return wrapSearchError(op, err)
	}

	if err := decode(body); err != nil {
		return err
	}
	c.cache.set(target, body)
	return nil
}

func (c *Client) fetchWithRetry(ctx context.Context, reqURL, reqID string, logger *slog.Logger) ([]byte, error) {
	policy := c.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("request attempt failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()))
		if c.policy.OnRetry != nil {
			c.policy.OnRetry(attempt, delay, err)
		}
	}
	return retry.Do(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, reqURL, reqID, logger)
	})
}

// fetch performs a single GET attempt.
func (c *Client) fetch(ctx context.Context, reqURL, reqID string, logger *slog.Logger) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, retry.Permanent(&localError{fmt.Errorf("rate limiter: %w", err)})
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Permanent(&localError{fmt.Errorf("creating request: %w", err)})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", reqID)
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.http.Do(req) //nolint:gosec // host comes from validated discovery output
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		se := &statusError{Status: resp.StatusCode}
		if !se.retryable() {
			return nil, retry.Permanent(se)
		}
		return nil, se
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// localError is a failure that happened before anything reached the host.
type localError struct {
	err error
}

func (e *localError) Error() string { return e.err.Error() }

func (e *localError) Unwrap() error { return e.err }

// staleHost reports whether err suggests the host itself is gone rather
// than the request being wrong.
func staleHost(err error) bool {
	var le *localError
	if errors.As(err, &le) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var ve *ValidationError
	return !errors.As(err, &ve)
}

func wrapSearchError(op string, err error) error {
	var initErr *InitializationError
	if errors.As(err, &initErr) {
		return err
	}
	var se *statusError
	if errors.As(err, &se) {
		return newSearchError(op, "upstream request failed", se.Status, err)
	}
	return newSearchError(op, "request failed", 0, err)
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
