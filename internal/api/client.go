package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jask/recondesk/internal/config"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultTriggerTimeout = 5 * time.Minute
	maxBodyBytes          = 8 << 20
)

// Version is reported in the User-Agent header.
var Version = "dev"

// Options configures a Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	TriggerTimeout  time.Duration
	RateLimit       float64 // requests per second; <= 0 disables limiting
	Burst           int
	BreakerFailures uint32
	BreakerCooldown time.Duration
	UserAgent       string
	Logger          zerolog.Logger
	Registerer      prometheus.Registerer
	HTTPClient      *http.Client
}

// OptionsFromConfig maps the [api] config section onto client options.
func OptionsFromConfig(cfg config.APIConfig) Options {
	return Options{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		TriggerTimeout:  cfg.TriggerTimeout,
		RateLimit:       cfg.RateLimit,
		Burst:           cfg.Burst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}
}

// Client talks to the reconciliation API. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	opts      Options
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	metrics   *metrics
	log       zerolog.Logger
	userAgent string
}

// New builds a client for opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TriggerTimeout <= 0 {
		opts.TriggerTimeout = defaultTriggerTimeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 15 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		// no client-wide timeout: each call carries its own deadline
		hc = &http.Client{}
	}

	c := &Client{
		base:      base,
		http:      hc,
		opts:      opts,
		metrics:   newMetrics(opts.Registerer),
		log:       opts.Logger.With().Str("component", "api").Logger(),
		userAgent: opts.UserAgent,
	}
	if c.userAgent == "" {
		c.userAgent = "recondesk/" + Version
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "recon-api",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.metrics.breakerState(to == gobreaker.StateOpen)
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return c, nil
}

// BaseURL returns the API root the client was built for.
func (c *Client) BaseURL() string { return c.base.String() }

// countsAsSuccess keeps client errors and caller cancellations from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500
	}
	return false
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

// doJSON sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		r, err := jsonBody(in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = r
	}
	return c.send(ctx, op, method, path, "application/json", body, out)
}

func jsonBody(v any) (io.Reader, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(buf), nil
}

type rawResponse struct {
	status int
	body   []byte
}

func (c *Client) send(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.observe(op, "rate_limited", 0)
			return fmt.Errorf("%s: rate limit wait: %w", op, err)
		}
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, newError(op, method, path, resp.StatusCode, data)
		}
		return rawResponse{status: resp.StatusCode, body: data}, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		code := "error"
		var apiErr *Error
		switch {
		case errors.As(err, &apiErr):
			code = strconv.Itoa(apiErr.StatusCode)
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			code = "breaker_open"
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		c.metrics.observe(op, code, elapsed)
		c.log.Debug().Str("op", op).Str("method", method).Str("path", path).Str("code", code).
			Dur("elapsed", elapsed).Str("request_id", requestID).Err(err).Msg("api request failed")
		if apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	raw, _ := res.(rawResponse)
	c.metrics.observe(op, strconv.Itoa(raw.status), elapsed)
	c.log.Debug().Str("op", op).Str("method", method).Str("path", path).Int("status", raw.status).
		Dur("elapsed", elapsed).Str("request_id", requestID).Msg("api request")

	if out == nil || len(bytes.TrimSpace(raw.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
