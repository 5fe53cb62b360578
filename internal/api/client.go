// Package api is the client for the messaging REST boundary. The live
// transport only streams messages that arrive after connection; history
// and read acknowledgement go through these endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/guardline/operator-console/internal/auth"
	"github.com/guardline/operator-console/internal/model"
	"github.com/guardline/operator-console/pkg/metrics"
)

const tracerName = "github.com/guardline/operator-console/internal/api"

// Client talks to the messaging REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenSource
	tracer  trace.Tracer
}

// NewClient creates a REST client with a bounded timeout. No request may
// hang the console indefinitely.
func NewClient(baseURL string, timeout time.Duration, tokens auth.TokenSource) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// History fetches the full ordered message history for a session.
func (c *Client) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	ctx, span := c.tracer.Start(ctx, "api.History",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	start := time.Now()
	endpoint := fmt.Sprintf("%s/api/messaging/session/%s/messages", c.baseURL, url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.HistoryFetchDuration.WithLabelValues("error").Observe(elapsed)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	metrics.HistoryFetchDuration.WithLabelValues("ok").Observe(elapsed)

	// The endpoint historically returned either a bare array or a
	// wrapped list; accept both.
	var messages []model.Message
	if err := json.Unmarshal(body, &messages); err == nil {
		return messages, nil
	}
	var wrapped model.ListMessagesResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("malformed history response: %w", err)
	}
	return wrapped.Messages, nil
}

// MarkRead asks the backend to mark all guest messages in the session as
// read. The caller zeroes the local unread count optimistically; this
// call is not transactionally linked to that update.
func (c *Client) MarkRead(ctx context.Context, sessionID string) error {
	ctx, span := c.tracer.Start(ctx, "api.MarkRead",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	endpoint := fmt.Sprintf("%s/api/messaging/session/%s/read", c.baseURL, url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, nil)
	if err != nil {
		return err
	}

	if _, err := c.do(req); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark session read: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("no operator credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
