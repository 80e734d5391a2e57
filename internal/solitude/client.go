package solitude

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cassiomorais/webpay/internal/cache"
	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Client is a thin REST client for the solitude payment backend. All
// persistent payment state (buyers, sellers, products, transactions)
// lives behind it; webpay only maps requests onto its resources.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	buyers  *cache.Conditional
	key     string
	secret  string
	log     zerolog.Logger
	metrics *observability.Metrics
}

// New builds a client for the configured backend. Returns nil when no
// backend URL is configured (degraded mode); every method on a nil
// client fails with ErrClientDisabled.
func New(cfg *config.SolitudeConfig, store cache.Store, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	if !cfg.Enabled() {
		return nil
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	log := logger.With().Str("component", "solitude").Logger()
	breaker := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        "solitude",
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if metrics != nil {
				metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			}
		},
	})
	if metrics != nil {
		metrics.CircuitBreakerState.WithLabelValues("solitude").Set(breakerStateValue(gobreaker.StateClosed))
	}

	return &Client{
		http:    httpClient,
		breaker: breaker,
		buyers:  cache.NewConditional(store, "buyer"),
		key:     cfg.Key,
		secret:  cfg.Secret,
		log:     log,
		metrics: metrics,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

type requestOpts struct {
	body    any
	headers map[string]string
	query   map[string]string
}

// sign builds the OAuth-style credential header the backend expects: the
// consumer key plus an HMAC over method, path and timestamp.
func (c *Client) sign(method, path string) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(c.secret))
	fmt.Fprintf(mac, "%s\n%s\n%s", method, path, ts)
	return fmt.Sprintf("OAuth key=%q, ts=%q, sig=%q", c.key, ts, hex.EncodeToString(mac.Sum(nil)))
}

// do executes one backend request and maps the reply into the outcome
// taxonomy: 304 -> ErrNotModified, 4xx -> *HTTPClientError, 5xx and
// transport failures -> backend error (counted by the circuit breaker).
// Successful replies are decoded and normalized.
func (c *Client) do(ctx context.Context, method, path string, opts requestOpts) (Entity, error) {
	if c == nil {
		return nil, ErrClientDisabled
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("Authorization", c.sign(method, path))
		for k, v := range opts.headers {
			req.SetHeader(k, v)
		}
		if len(opts.query) > 0 {
			req.SetQueryParams(opts.query)
		}
		if opts.body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(opts.body)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			return resp, fmt.Errorf("unexpected status %d", resp.StatusCode())
		}
		return resp, nil
	})

	if c.metrics != nil {
		c.metrics.BackendRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		c.metrics.BackendRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	}

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return nil, fmt.Errorf("solitude %s %s: %w", method, path, err)
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusNotModified:
		return nil, ErrNotModified
	case status >= 400:
		return nil, &HTTPClientError{StatusCode: status, Body: string(resp.Body())}
	}

	var decoded map[string]any
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
			return nil, fmt.Errorf("solitude %s %s: decode response: %w", method, path, err)
		}
	}
	return Normalize(decoded, resp.Header().Get("ETag")), nil
}

// safeDo mirrors the backend's form-error contract: a 4xx reply whose
// body carries an "errors" object is handed back as an error Entity for
// the caller to inspect, instead of failing the call.
func (c *Client) safeDo(ctx context.Context, method, path string, opts requestOpts) (Entity, error) {
	ent, err := c.do(ctx, method, path, opts)
	var clientErr *HTTPClientError
	if errors.As(err, &clientErr) {
		var body map[string]any
		if json.Unmarshal([]byte(clientErr.Body), &body) == nil {
			if _, ok := body["errors"]; ok {
				return Entity(body), nil
			}
		}
	}
	return ent, err
}

// getObject fetches exactly one resource matching the filter params.
// An empty result set maps to ErrObjectDoesNotExist.
func (c *Client) getObject(ctx context.Context, path string, params map[string]string) (Entity, error) {
	ent, err := c.do(ctx, http.MethodGet, path, requestOpts{query: params})
	if err != nil {
		return nil, err
	}
	if ent.HasErrors() {
		return ent, nil
	}
	if len(ent) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrObjectDoesNotExist, path)
	}
	return ent, nil
}

// getCached is the conditional read path shared by cacheable entities.
// It attaches the last seen version token as an If-None-Match
// precondition, serves a not-modified reply from the cache, and falls
// back to one unconditional fetch when the cached body has gone missing.
func (c *Client) getCached(ctx context.Context, cc *cache.Conditional, kind, id, path string, query map[string]string, useCache bool) (Entity, error) {
	var etag string
	if useCache {
		etag = cc.Token(ctx, id)
	}
	headers := map[string]string{}
	if etag != "" {
		headers["If-None-Match"] = etag
	}

	ent, err := c.safeDo(ctx, http.MethodGet, path, requestOpts{query: query, headers: headers})
	if errors.Is(err, ErrNotModified) {
		if body, ok := cc.Body(ctx, etag); ok {
			c.observeCache(kind, "hit")
			return Entity(body), nil
		}
		// The token matched but the body is gone from the cache;
		// refetch unconditionally rather than failing.
		c.observeCache(kind, "inconsistent")
		return c.getCached(ctx, cc, kind, id, path, query, false)
	}
	if err != nil {
		return nil, err
	}

	c.observeCache(kind, "miss")
	cc.Put(ctx, id, ent.Etag(), ent)
	return ent, nil
}

func (c *Client) observeCache(kind, result string) {
	if c.metrics != nil {
		c.metrics.CacheLookupsTotal.WithLabelValues(kind, result).Inc()
	}
}
