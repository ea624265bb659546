package orch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/orch-console/internal/observability/metrics"
	"github.com/wolfman30/orch-console/pkg/logging"
)

const defaultTimeout = 240 * time.Second

// Config describes how to reach the orchestration endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts console actions to the orchestration endpoint. It makes
// exactly one attempt per call.
type Client struct {
	url     string
	http    *http.Client
	logger  *logging.Logger
	metrics *metrics.OrchMetrics
	tracer  trace.Tracer
}

// NewClient validates the configuration and returns a ready-to-use client.
func NewClient(cfg Config, m *metrics.OrchMetrics, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("orch: endpoint URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		url:     strings.TrimSpace(cfg.URL),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("orch-console.internal.orch"),
	}, nil
}

// URL returns the configured endpoint.
func (c *Client) URL() string { return c.url }

// Send posts req and returns the raw JSON body of a 200 reply.
func (c *Client) Send(ctx context.Context, req Request) (json.RawMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	kind := req.Kind()
	ctx, span := c.tracer.Start(ctx, "orch.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("orch.kind", kind),
		attribute.String("orch.session_id", req.SessionID),
	)

	start := time.Now()
	body, err := c.do(ctx, req)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		span.RecordError(err)
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			outcome = "malformed"
		} else {
			outcome = "transport_error"
		}
		c.logger.Warn("orch call failed",
			"kind", kind,
			"session_id", req.SessionID,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
	} else {
		c.logger.Info("orch call completed",
			"kind", kind,
			"session_id", req.SessionID,
			"duration_ms", elapsed.Milliseconds(),
			"bytes", len(body),
		)
	}
	c.metrics.ObserveRequest(kind, outcome, elapsed.Seconds())
	return body, err
}

func (c *Client) do(ctx context.Context, req Request) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("orch: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &MalformedResponseError{Body: string(data), Err: err}
	}
	return json.RawMessage(data), nil
}
