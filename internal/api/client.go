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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

const tracerName = "storefront/api"

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of order-management API requests by resource, method and status",
		},
		[]string{"resource", "method", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Duration of order-management API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "method"},
	)
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
}

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Credentials supplies the bearer token attached to outbound requests and
// is told to drop it when the API answers 401.
type Credentials interface {
	Token(ctx context.Context) string
	Revoke(ctx context.Context)
}

// CircuitOpenFallback replaces the raw breaker error with a 503 AppError so
// callers show the "service unavailable" message.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("the order-management API is temporarily unavailable, please retry later")
}

// Client performs authenticated JSON calls against the order-management API.
type Client struct {
	baseURL string
	doer    HTTPDoer
	creds   Credentials
	logger  *slog.Logger
}

// NewClient creates a Client. creds may be nil for anonymous calls.
func NewClient(baseURL string, doer HTTPDoer, creds Credentials, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		creds:   creds,
		logger:  logger,
	}
}

// request describes one API call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	resource    string
}

func jsonRequest(method, path, resource string, payload any) (request, error) {
	r := request{method: method, path: path, resource: resource}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return r, fmt.Errorf("marshal %s request: %w", resource, err)
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}
	return r, nil
}

// do sends r and decodes a successful body into out (which may be nil).
// Non-2xx responses become AppErrors carrying the status; a 401 also revokes
// the current credentials.
func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	body := r.body
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", r.resource, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.creds != nil {
		if token := c.creds.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	correlationID := logger.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	req.Header.Set("X-Correlation-ID", correlationID)

	ctx, span := tracing.StartClientSpan(ctx, tracerName, req)
	start := time.Now()

	resp, err := c.doer.Do(ctx, req)
	apiRequestDuration.WithLabelValues(r.resource, r.method).Observe(time.Since(start).Seconds())
	if err != nil {
		tracing.EndClientSpan(span, 0, err)
		apiRequestsTotal.WithLabelValues(r.resource, r.method, "error").Inc()
		c.logger.WarnContext(ctx, "api request failed",
			slog.String("resource", r.resource),
			slog.String("method", r.method),
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("call %s: %w", r.resource, err)
	}
	tracing.EndClientSpan(span, resp.StatusCode, nil)
	apiRequestsTotal.WithLabelValues(r.resource, r.method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && c.creds != nil {
			c.logger.InfoContext(ctx, "api rejected credentials, clearing session",
				slog.String("resource", r.resource),
			)
			c.creds.Revoke(ctx)
		}
		c.logger.DebugContext(ctx, "api error response",
			slog.String("resource", r.resource),
			slog.String("method", r.method),
			slog.Int("status", resp.StatusCode),
			slog.String("correlation_id", correlationID),
		)
		return httpclient.ParseResponseError(resp, r.resource)
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", r.resource, err)
	}
	if err := decodeBody(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.resource, err)
	}
	return nil
}

// decodeBody decodes data into out. Objects shaped as {"data": ...} without
// an "id" of their own are treated as resource envelopes and unwrapped.
func decodeBody(data []byte, out any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	if data[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err == nil {
			inner, hasData := fields["data"]
			_, hasID := fields["id"]
			if hasData && !hasID {
				data = inner
			}
		}
	}
	return json.Unmarshal(data, out)
}

func idPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}
