// Package transport maintains the console's duplex channel to the
// messaging service over NATS. Retry and backoff belong to the NATS
// client; this package owns connectivity reflection and re-announcing
// operator presence after every reconnect.
package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/guardline/operator-console/internal/model"
	"github.com/guardline/operator-console/pkg/logger"
	"github.com/guardline/operator-console/pkg/metrics"
)

// Config holds messaging transport configuration.
type Config struct {
	URL          string
	CAFile       string
	CertFile     string
	KeyFile      string
	Token        string
	SubjectBase  string
	OperatorName string
	ReplyTimeout time.Duration
}

// Handler receives inbound transport events. Implementations must not
// block; the console enqueues events onto its own reconciliation queue.
type Handler interface {
	OnConnect()
	OnDisconnect(err error)
	OnSnapshot(ev model.SessionSnapshotEvent)
	OnGuestMessage(ev model.GuestMessageEvent)
	OnAdminMessage(ev model.AdminMessageEvent)
}

// Chat is the live transport to the messaging service.
type Chat struct {
	cfg     Config
	conn    *nats.Conn
	handler Handler
	logger  *logger.Logger
}

// New creates a transport. Connect must be called before use.
func New(cfg Config, log *logger.Logger) *Chat {
	if cfg.SubjectBase == "" {
		cfg.SubjectBase = "chat"
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 5 * time.Second
	}
	return &Chat{cfg: cfg, logger: log}
}

func (c *Chat) subject(parts ...string) string {
	return c.cfg.SubjectBase + ".operator." + strings.Join(parts, ".")
}

// Connect dials the messaging service, subscribes to operator push
// subjects, and announces presence. The connection is tagged with an
// operator role marker so the backend distinguishes it from guest widget
// connections.
func (c *Chat) Connect(ctx context.Context, handler Handler) error {
	c.handler = handler

	opts := []nats.Option{
		nats.Name("operator-console:" + c.cfg.OperatorName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(-1), // reject sends while disconnected rather than buffering silently
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			c.logger.Warn("messaging transport disconnected", zap.Error(err))
			metrics.SetConnected(false)
			handler.OnDisconnect(err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			// The backend does not persist operator group membership
			// across transport-level reconnects, so presence must be
			// re-announced on every reconnect.
			c.logger.Info("messaging transport reconnected")
			metrics.TransportReconnectsTotal.Inc()
			metrics.SetConnected(true)
			if err := c.announce(); err != nil {
				c.logger.Error("failed to re-announce operator presence", zap.Error(err))
			}
			handler.OnConnect()
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			c.logger.Error("messaging transport error", zap.Error(err))
		}),
	}

	if c.cfg.CAFile != "" && c.cfg.CertFile != "" && c.cfg.KeyFile != "" {
		tlsConfig, err := createTLSConfig(c.cfg.CAFile, c.cfg.CertFile, c.cfg.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
	}

	if c.cfg.Token != "" {
		opts = append(opts, nats.Token(c.cfg.Token))
	}

	nc, err := nats.Connect(c.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to messaging service: %w", err)
	}
	c.conn = nc

	if err := c.subscribe(); err != nil {
		nc.Close()
		return err
	}

	if err := c.announce(); err != nil {
		nc.Close()
		return fmt.Errorf("failed to announce operator presence: %w", err)
	}

	metrics.SetConnected(true)
	handler.OnConnect()
	return nil
}

func (c *Chat) subscribe() error {
	subs := []struct {
		subject string
		cb      nats.MsgHandler
	}{
		{c.subject("sessions"), c.onSessions},
		{c.subject("guest_message"), c.onGuestMessage},
		{c.subject("admin_message"), c.onAdminMessage},
	}
	for _, s := range subs {
		if _, err := c.conn.Subscribe(s.subject, s.cb); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.subject, err)
		}
	}
	return nil
}

func (c *Chat) onSessions(msg *nats.Msg) {
	var ev model.SessionSnapshotEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		c.logger.Warn("dropping malformed session snapshot", zap.Error(err))
		return
	}
	c.handler.OnSnapshot(ev)
}

func (c *Chat) onGuestMessage(msg *nats.Msg) {
	var ev model.GuestMessageEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		c.logger.Warn("dropping malformed guest message", zap.Error(err))
		return
	}
	if ev.SessionID == "" {
		ev.SessionID = ev.Message.SessionID
	}
	c.handler.OnGuestMessage(ev)
}

func (c *Chat) onAdminMessage(msg *nats.Msg) {
	var ev model.AdminMessageEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		c.logger.Warn("dropping malformed admin echo", zap.Error(err))
		return
	}
	c.handler.OnAdminMessage(ev)
}

// announce publishes the join-as-admin event. The backend responds by
// adding this connection to the operator broadcast group and pushing a
// fresh session snapshot.
func (c *Chat) announce() error {
	data, err := json.Marshal(model.JoinRequest{OperatorName: c.cfg.OperatorName})
	if err != nil {
		return err
	}
	return c.conn.Publish(c.subject("join"), data)
}

// RequestSessions asks the backend for a fresh session snapshot. Joining
// is idempotent server-side, so re-announcing doubles as the request.
func (c *Chat) RequestSessions() error {
	if !c.IsConnected() {
		return nats.ErrConnectionClosed
	}
	return c.announce()
}

// SendReply emits an operator reply and waits for the backend's single
// acknowledgement. The error return carries ack failures; callers surface
// them to the operator and keep the compose content for retry.
func (c *Chat) SendReply(ctx context.Context, req model.ReplyRequest) error {
	if !c.IsConnected() {
		return fmt.Errorf("transport disconnected")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReplyTimeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, c.subject("reply"), data)
	if err != nil {
		return fmt.Errorf("reply not acknowledged: %w", err)
	}

	var ack model.ReplyAck
	if err := json.Unmarshal(msg.Data, &ack); err != nil {
		return fmt.Errorf("malformed reply acknowledgement: %w", err)
	}
	if !ack.Success {
		if ack.Error == "" {
			ack.Error = "rejected by messaging service"
		}
		return fmt.Errorf("reply rejected: %s", ack.Error)
	}
	return nil
}

// IsConnected reports transport connectivity.
func (c *Chat) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains and closes the connection. Called on console shutdown so
// no connection outlives the view.
func (c *Chat) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
	metrics.SetConnected(false)
}

func createTLSConfig(caFile, certFile, keyFile string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client cert: %w", err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
