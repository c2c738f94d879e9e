package authority

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/metrics"
)

// DefaultTimeout bounds every authority call when the caller sets none.
const DefaultTimeout = 5 * time.Second

const breakerName = "coordinate-authority"

// Client calls the coordinate authority over HTTP. Every call is bounded by
// the configured timeout and guarded by a circuit breaker; any failure is
// returned wrapping domain.ErrAuthorityUnavailable.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[any]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBreakerSettings overrides the circuit breaker thresholds. Name and
// OnStateChange are always set by the client.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) { c.cb = newBreaker(st) }
}

// NewClient returns a Client for the authority at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cb == nil {
		c.cb = newBreaker(gobreaker.Settings{
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
	return c
}

func newBreaker(st gobreaker.Settings) *gobreaker.CircuitBreaker[any] {
	st.Name = breakerName
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		slog.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	}
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[any](st)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// List returns every record the authority holds.
func (c *Client) List(ctx context.Context) ([]domain.AuthorityRecord, error) {
	res, err := c.execute(ctx, "list", func(ctx context.Context) (any, error) {
		var body []record
		if _, err := c.do(ctx, http.MethodGet, "/positions", nil, &body); err != nil {
			return nil, err
		}
		out := make([]domain.AuthorityRecord, 0, len(body))
		for _, r := range body {
			out = append(out, r.toDomain())
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("authority.Client.List: %w", err)
	}
	return res.([]domain.AuthorityRecord), nil
}

// Get returns the record for pinID. A pin the authority knows nothing about
// yields an empty record and no error.
func (c *Client) Get(ctx context.Context, pinID int64) (domain.AuthorityRecord, error) {
	res, err := c.execute(ctx, "get", func(ctx context.Context) (any, error) {
		var body record
		status, err := c.do(ctx, http.MethodGet, positionPath(pinID), nil, &body)
		if status == http.StatusNotFound {
			return domain.AuthorityRecord{PinID: pinID}, nil
		}
		if err != nil {
			return nil, err
		}
		return body.toDomain(), nil
	})
	if err != nil {
		return domain.AuthorityRecord{}, fmt.Errorf("authority.Client.Get: %w", err)
	}
	return res.(domain.AuthorityRecord), nil
}

// Upsert stores a geographic position for pinID and returns the record as the
// authority now holds it.
func (c *Client) Upsert(ctx context.Context, pinID int64, pos domain.LatLng) (domain.AuthorityRecord, error) {
	res, err := c.execute(ctx, "upsert", func(ctx context.Context) (any, error) {
		var body record
		req := upsertRequest{Latitude: &pos.Lat, Longitude: &pos.Lng}
		if _, err := c.do(ctx, http.MethodPut, positionPath(pinID), req, &body); err != nil {
			return nil, err
		}
		return body.toDomain(), nil
	})
	if err != nil {
		return domain.AuthorityRecord{}, fmt.Errorf("authority.Client.Upsert: %w", err)
	}
	return res.(domain.AuthorityRecord), nil
}

// execute runs fn under the timeout and the breaker, recording metrics.
func (c *Client) execute(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	start := time.Now()
	defer func() {
		metrics.AuthorityRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.cb.Execute(func() (any, error) { return fn(ctx) })
	switch {
	case err == nil:
		metrics.AuthorityRequests.WithLabelValues(op, "success").Inc()
		return res, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.AuthorityRequests.WithLabelValues(op, "rejected").Inc()
	default:
		metrics.AuthorityRequests.WithLabelValues(op, "failure").Inc()
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrAuthorityUnavailable, err)
}

// do performs one request. It returns the response status (0 when no
// response was received) and an error for anything other than 200.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, method, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func positionPath(pinID int64) string {
	return "/positions/" + strconv.FormatInt(pinID, 10)
}
