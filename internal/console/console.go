package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guardline/operator-console/internal/model"
	"github.com/guardline/operator-console/pkg/logger"
	"github.com/guardline/operator-console/pkg/metrics"
)

// Reply validation errors, surfaced to the operator. None of them reach
// the transport: a rejected reply never calls the send path, so compose
// content is always preserved.
var (
	ErrEmptyReply    = errors.New("reply is empty")
	ErrNoOpenSession = errors.New("no session is open")
	ErrNotConnected  = errors.New("messaging transport is disconnected")
)

// Transport is the outbound surface of the live transport.
type Transport interface {
	SendReply(ctx context.Context, req model.ReplyRequest) error
	RequestSessions() error
	IsConnected() bool
}

// HistoryStore is the REST boundary: message history and read receipts.
type HistoryStore interface {
	History(ctx context.Context, sessionID string) ([]model.Message, error)
	MarkRead(ctx context.Context, sessionID string) error
}

// Notifier shows a best-effort user-facing notification. Failures are
// logged and never block any flow.
type Notifier interface {
	Notify(title, body string) error
}

// Console owns the session directory and the open-conversation viewport.
// All inbound transport events and operator commands funnel through one
// internal queue consumed by Run, so event ordering is structural: within
// a session, messages render in arrival order, and state is mutated from
// exactly one goroutine.
type Console struct {
	transport Transport
	store     HistoryStore
	notifier  Notifier
	operator  string
	logger    *logger.Logger

	dir *Directory
	vp  *Viewport

	connected bool

	events  chan event
	updates chan Update
	done    chan struct{}
	wg      sync.WaitGroup

	// Read-side mirrors for the ops server; the actor is the only writer.
	publishedSessions atomic.Value // []model.ChatSession
	publishedStatus   atomic.Value // Status
}

// Status is a point-in-time summary exposed by the ops API.
type Status struct {
	Connected   bool   `json:"connected"`
	Sessions    int    `json:"sessions"`
	Unread      int    `json:"unread"`
	OpenSession string `json:"open_session,omitempty"`
}

type event interface{}

type (
	evConnected    struct{}
	evDisconnected struct{ err error }
	evSnapshot     struct{ sessions []model.ChatSession }
	evGuest        struct{ ev model.GuestMessageEvent }
	evEcho         struct{ ev model.AdminMessageEvent }
	evHistory      struct {
		epoch     uint64
		sessionID string
		messages  []model.Message
		err       error
	}
	evMarkRead struct {
		sessionID string
		err       error
	}
	evReplyResult struct {
		sessionID string
		err       error
	}
	cmdSelect struct{ sessionID string }
	cmdReply  struct{ content string }
)

// New creates a console. Run must be started before events flow.
func New(t Transport, store HistoryStore, notifier Notifier, operator string, log *logger.Logger) *Console {
	c := &Console{
		transport: t,
		store:     store,
		notifier:  notifier,
		operator:  operator,
		logger:    log,
		dir:       NewDirectory(),
		vp:        NewViewport(),
		events:    make(chan event, 256),
		updates:   make(chan Update, 256),
		done:      make(chan struct{}),
	}
	c.publishedSessions.Store([]model.ChatSession{})
	c.publishedStatus.Store(Status{})
	return c
}

// Updates is the channel the UI renders from.
func (c *Console) Updates() <-chan Update {
	return c.updates
}

// SelectSession opens a session: history is fetched from the REST
// boundary, the unread count is zeroed optimistically, and subsequent
// pushes for the session append to the visible list.
func (c *Console) SelectSession(sessionID string) {
	c.enqueue(cmdSelect{sessionID: sessionID})
}

// SendReply submits the compose content for the open session.
func (c *Console) SendReply(content string) {
	c.enqueue(cmdReply{content: content})
}

// Transport handler callbacks. Each one only enqueues onto the
// reconciliation queue.

// OnConnect records connectivity.
func (c *Console) OnConnect() { c.enqueue(evConnected{}) }

// OnDisconnect records loss of connectivity.
func (c *Console) OnDisconnect(err error) { c.enqueue(evDisconnected{err: err}) }

// OnSnapshot replaces the session directory.
func (c *Console) OnSnapshot(ev model.SessionSnapshotEvent) {
	c.enqueue(evSnapshot{sessions: ev.Sessions})
}

// OnGuestMessage records a pushed visitor message.
func (c *Console) OnGuestMessage(ev model.GuestMessageEvent) { c.enqueue(evGuest{ev: ev}) }

// OnAdminMessage records the echo of an operator reply.
func (c *Console) OnAdminMessage(ev model.AdminMessageEvent) { c.enqueue(evEcho{ev: ev}) }

// SessionsSnapshot returns the last published session list. Safe to call
// from any goroutine.
func (c *Console) SessionsSnapshot() []model.ChatSession {
	return c.publishedSessions.Load().([]model.ChatSession)
}

// StatusSnapshot returns the last published status. Safe to call from any
// goroutine.
func (c *Console) StatusSnapshot() Status {
	return c.publishedStatus.Load().(Status)
}

// Run consumes the event queue until ctx is cancelled, then waits for
// in-flight boundary calls to drain and closes the updates channel.
func (c *Console) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(c.done)
			c.wg.Wait()
			close(c.updates)
			return
		case e := <-c.events:
			c.handle(ctx, e)
		}
	}
}

func (c *Console) enqueue(e event) {
	select {
	case c.events <- e:
	case <-c.done:
	}
}

// publish delivers an update to the UI without ever blocking the
// reconciliation loop. When the buffer is full (a slow or absent
// consumer, e.g. headless mode), the oldest queued update is evicted so
// the newest one still lands: a ReplyUpdate or MessageAppended must not
// be the casualty of a backlog of stale directory refreshes.
func (c *Console) publish(u Update) {
	select {
	case c.updates <- u:
		return
	default:
	}

	select {
	case old := <-c.updates:
		c.logger.Warn("evicting stale UI update", zap.String("type", fmt.Sprintf("%T", old)))
	default:
	}

	// The loop is the only producer, so the freed slot is still there.
	select {
	case c.updates <- u:
	default:
		c.logger.Warn("dropping UI update", zap.String("type", fmt.Sprintf("%T", u)))
	}
}

func (c *Console) publishDirectory() {
	sessions := c.dir.Sessions()
	c.publishedSessions.Store(sessions)
	c.publishStatus()
	metrics.RecordDirectory(c.dir.Len(), c.dir.TotalUnread())
	c.publish(DirectoryUpdate{Sessions: sessions})
}

func (c *Console) publishStatus() {
	c.publishedStatus.Store(Status{
		Connected:   c.connected,
		Sessions:    c.dir.Len(),
		Unread:      c.dir.TotalUnread(),
		OpenSession: c.vp.SessionID(),
	})
}

func (c *Console) handle(ctx context.Context, e event) {
	switch e := e.(type) {
	case evConnected:
		c.connected = true
		c.publishStatus()
		c.publish(ConnectivityUpdate{Connected: true})

	case evDisconnected:
		c.connected = false
		c.publishStatus()
		c.publish(ConnectivityUpdate{Connected: false})

	case evSnapshot:
		replayed := c.dir.ApplySnapshot(e.sessions)
		if replayed > 0 {
			c.logger.Info("replayed buffered pushes after snapshot", zap.Int("count", replayed))
		}
		c.publishDirectory()

	case evGuest:
		c.handleGuestMessage(e.ev)

	case evEcho:
		msg := e.ev.Message
		metrics.MessagesReceivedTotal.WithLabelValues(string(model.SenderAdmin)).Inc()
		c.dir.Touch(msg.SessionID, msg)
		if c.vp.Append(msg) {
			c.publish(MessageAppended{SessionID: msg.SessionID, Message: msg})
		}
		c.publishDirectory()

	case cmdSelect:
		c.handleSelect(ctx, e.sessionID)

	case evHistory:
		c.handleHistory(e)

	case evMarkRead:
		if e.err != nil {
			// No rollback: the local zero stands and the next snapshot
			// reconciles the authoritative count.
			c.logger.Error("mark read failed",
				zap.String("session_id", e.sessionID), zap.Error(e.err))
			c.publish(NoticeUpdate{Text: "could not mark session read: " + e.err.Error()})
		}

	case cmdReply:
		c.handleReply(ctx, e.content)

	case evReplyResult:
		if e.err != nil {
			metrics.RepliesTotal.WithLabelValues("error").Inc()
			c.logger.Error("reply failed",
				zap.String("session_id", e.sessionID), zap.Error(e.err))
		} else {
			metrics.RepliesTotal.WithLabelValues("ok").Inc()
		}
		c.publish(ReplyUpdate{SessionID: e.sessionID, Err: e.err})
	}
}

func (c *Console) handleGuestMessage(ev model.GuestMessageEvent) {
	msg := ev.Message
	if msg.SessionID == "" {
		msg.SessionID = ev.SessionID
	}
	metrics.MessagesReceivedTotal.WithLabelValues(string(model.SenderGuest)).Inc()

	if known := c.dir.ApplyIncoming(ev.SessionID, msg); !known {
		// First message of a brand-new session racing the snapshot. The
		// push is buffered in the directory; ask for a fresh snapshot so
		// the session appears promptly.
		c.logger.Warn("message for unknown session, requesting snapshot",
			zap.String("session_id", ev.SessionID))
		if err := c.transport.RequestSessions(); err != nil {
			c.logger.Error("snapshot request failed", zap.Error(err))
		}
	}

	if c.vp.Append(msg) {
		c.publish(MessageAppended{SessionID: msg.SessionID, Message: msg})
	}
	c.publishDirectory()

	if c.notifier != nil {
		title := msg.SenderName
		if title == "" {
			title = "New chat message"
		}
		body := msg.Content
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.notifier.Notify(title, body); err != nil {
				metrics.NotificationsTotal.WithLabelValues("error").Inc()
				c.logger.Debug("notification failed", zap.Error(err))
				return
			}
			metrics.NotificationsTotal.WithLabelValues("ok").Inc()
		}()
	}
}

func (c *Console) handleSelect(ctx context.Context, sessionID string) {
	s, ok := c.dir.Get(sessionID)
	if !ok {
		c.publish(NoticeUpdate{Text: "unknown session: " + sessionID})
		return
	}

	epoch := c.vp.Open(s.ID)

	// Optimistic zero, in parallel with the REST read receipt. The two
	// are not transactionally linked.
	c.dir.MarkRead(s.ID)
	c.publishDirectory()
	c.publish(ViewportUpdate{SessionID: s.ID, State: StateLoading})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.store.MarkRead(ctx, s.ID)
		if err != nil {
			c.enqueue(evMarkRead{sessionID: s.ID, err: err})
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		messages, err := c.store.History(ctx, s.ID)
		c.enqueue(evHistory{epoch: epoch, sessionID: s.ID, messages: messages, err: err})
	}()
}

func (c *Console) handleHistory(e evHistory) {
	if e.epoch != c.vp.Epoch() || !c.vp.IsOpen(e.sessionID) {
		// The operator switched away while the fetch was in flight.
		return
	}

	if e.err != nil {
		c.logger.Error("history fetch failed",
			zap.String("session_id", e.sessionID), zap.Error(e.err))
		// Stay usable: live pushes buffered during the load remain
		// visible, and the error is surfaced instead of a silently
		// empty list.
		c.vp.SetHistory(e.epoch, nil)
		c.publish(ViewportUpdate{
			SessionID: e.sessionID,
			State:     c.vp.State(),
			Messages:  c.vp.Messages(),
			Err:       e.err,
		})
		c.publishStatus()
		return
	}

	c.vp.SetHistory(e.epoch, e.messages)
	c.publishStatus()
	c.publish(ViewportUpdate{
		SessionID: e.sessionID,
		State:     StateReady,
		Messages:  c.vp.Messages(),
	})
}

func (c *Console) handleReply(ctx context.Context, content string) {
	sessionID := c.vp.SessionID()

	if strings.TrimSpace(content) == "" {
		c.publish(ReplyUpdate{SessionID: sessionID, Err: ErrEmptyReply})
		return
	}
	if sessionID == "" {
		c.publish(ReplyUpdate{Err: ErrNoOpenSession})
		return
	}
	if !c.connected {
		c.publish(ReplyUpdate{SessionID: sessionID, Err: ErrNotConnected})
		return
	}

	req := model.ReplyRequest{
		CorrelationID: uuid.NewString(),
		SessionID:     sessionID,
		Content:       content,
		AdminName:     c.operator,
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.transport.SendReply(ctx, req)
		c.enqueue(evReplyResult{sessionID: sessionID, err: err})
	}()
}
