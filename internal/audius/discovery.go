package audius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sydlexius/audiusq/internal/retry"
	"github.com/sydlexius/audiusq/internal/version"
)

// DefaultDiscoveryURL lists the currently live API hosts.
const DefaultDiscoveryURL = "https://api.audius.co"

const maxDiscoveryBody = 256 * 1024

// Resolver finds and caches the API host. The cached host is replaced
// wholesale and never mutated, so concurrent readers always observe either
// no host or a complete, validated one.
type Resolver struct {
	client       *http.Client
	discoveryURL string
	policy       retry.Policy
	logger       *slog.Logger

	host  atomic.Pointer[string]
	group singleflight.Group
}

// NewResolver creates a resolver that queries discoveryURL.
func NewResolver(client *http.Client, discoveryURL string, policy retry.Policy, logger *slog.Logger) *Resolver {
	if discoveryURL == "" {
		discoveryURL = DefaultDiscoveryURL
	}
	return &Resolver{
		client:       client,
		discoveryURL: discoveryURL,
		policy:       policy,
		logger:       logger.With(slog.String("component", "discovery")),
	}
}

// Resolve returns the cached host, or runs discovery when none is cached.
// Concurrent callers share a single discovery request. Failures are
// returned as *InitializationError and leave the cache empty.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if host := r.Cached(); host != "" {
		return host, nil
	}

	// The shared discovery outlives any single caller's cancellation; each
	// caller still stops waiting when its own context ends.
	ch := r.group.DoChan("discover", func() (any, error) {
		if host := r.Cached(); host != "" {
			return host, nil
		}
		host, err := r.discover(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		r.host.Store(&host)
		r.logger.Info("api host resolved", slog.String("host", host))
		return host, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", newInitializationError("waiting for discovery", 0, ctx.Err())
	}
}

// Cached returns the current host, or "" when none is cached or the cached
// value does not validate.
func (r *Resolver) Cached() string {
	p := r.host.Load()
	if p == nil {
		return ""
	}
	if _, err := validateHost(*p); err != nil {
		return ""
	}
	return *p
}

// SetHost installs host after validating it.
func (r *Resolver) SetHost(host string) error {
	h, err := validateHost(host)
	if err != nil {
		return newInitializationError("invalid host", 0, err)
	}
	r.host.Store(&h)
	return nil
}

// Invalidate drops the cached host so the next Resolve queries discovery.
func (r *Resolver) Invalidate() {
	r.host.Store(nil)
	r.logger.Debug("api host invalidated")
}

// invalidateIf drops the cached host only if it is still host. It reports
// whether the cache was cleared.
func (r *Resolver) invalidateIf(host string) bool {
	p := r.host.Load()
	if p == nil || *p != host {
		return false
	}
	if !r.host.CompareAndSwap(p, nil) {
		return false
	}
	r.logger.Info("api host invalidated", slog.String("host", host))
	return true
}

func (r *Resolver) discover(ctx context.Context) (string, error) {
	policy := r.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.logger.Warn("discovery attempt failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()))
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, delay, err)
		}
	}

	body, err := retry.Do(ctx, policy, r.fetch)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return "", newInitializationError("discovery request failed", se.Status, err)
		}
		return "", newInitializationError("discovery request failed", 0, err)
	}

	return parseDiscovery(body)
}

func (r *Resolver) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.discoveryURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	r.logger.Debug("requesting", slog.String("url", r.discoveryURL))

	resp, err := r.client.Do(req) //nolint:gosec // discovery URL comes from configuration
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{Status: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxDiscoveryBody))
}

// parseDiscovery accepts either a bare list of host URLs or an object with
// a "data" list, and returns the first entry once it validates.
func parseDiscovery(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", newInitializationError("empty discovery response", 0, nil)
	}

	var list []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &list); err != nil {
			return "", newInitializationError("malformed discovery response", 0, err)
		}
	case '{':
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return "", newInitializationError("malformed discovery response", 0, err)
		}
		data := bytes.TrimSpace(envelope.Data)
		if len(data) == 0 || data[0] != '[' {
			return "", newInitializationError("discovery response has no host list", 0, nil)
		}
		if err := json.Unmarshal(data, &list); err != nil {
			return "", newInitializationError("malformed discovery response", 0, err)
		}
	default:
		return "", newInitializationError("discovery response is neither a list nor an object", 0, nil)
	}

	if len(list) == 0 {
		return "", newInitializationError("discovery returned no hosts", 0, nil)
	}

	var first string
	if err := json.Unmarshal(list[0], &first); err != nil {
		return "", newInitializationError("first discovery entry is not a string", 0, err)
	}
	host, err := validateHost(first)
	if err != nil {
		return "", newInitializationError("invalid host in discovery response", 0, err)
	}
	return host, nil
}

// validateHost checks that s is an absolute http(s) URL and returns it
// without a trailing slash.
func validateHost(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("host is empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("host %q is not an absolute URL", s)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("host %q has unsupported scheme %q", s, u.Scheme)
	}
	return strings.TrimRight(s, "/"), nil
}
