// Package console implements the operator messaging view: the session
// directory, the open-conversation viewport, and the single reconciliation
// loop that keeps both consistent with transport and REST events.
package console

import (
	"sort"

	"github.com/guardline/operator-console/internal/model"
)

// pendingCap bounds how many pushes are buffered per unknown session
// while waiting for a snapshot that names it.
const pendingCap = 32

// Directory is the single source of truth for the session list. It is
// not safe for concurrent use; all mutations happen on the reconciliation
// loop.
type Directory struct {
	sessions map[string]*model.ChatSession
	pending  map[string][]model.Message
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[string]*model.ChatSession),
		pending:  make(map[string][]model.Message),
	}
}

// ApplySnapshot replaces the entire session set. Pushes buffered for
// sessions that appear in the snapshot are replayed, skipping any message
// the snapshot already reflects; buffers for sessions still absent are
// dropped, since the snapshot is authoritative. Returns the number of
// replayed messages.
func (d *Directory) ApplySnapshot(sessions []model.ChatSession) int {
	next := make(map[string]*model.ChatSession, len(sessions))
	for i := range sessions {
		s := sessions[i]
		next[s.ID] = &s
	}
	d.sessions = next

	replayed := 0
	for id, msgs := range d.pending {
		if s, ok := d.sessions[id]; ok {
			for _, m := range msgs {
				if !m.CreatedAt.After(s.LastActivity) {
					continue
				}
				d.bump(s, m)
				replayed++
			}
		}
	}
	d.pending = make(map[string][]model.Message)
	return replayed
}

// ApplyIncoming records a pushed guest message. Known sessions are
// updated in place: latest message, last activity, unread count plus one.
// A message for an unknown session (a brand-new session's first message
// racing the snapshot) is buffered for replay instead of being dropped.
// Returns false when the session was unknown.
func (d *Directory) ApplyIncoming(sessionID string, msg model.Message) bool {
	s, ok := d.sessions[sessionID]
	if !ok {
		buf := d.pending[sessionID]
		if len(buf) >= pendingCap {
			buf = buf[1:]
		}
		d.pending[sessionID] = append(buf, msg)
		return false
	}
	d.bump(s, msg)
	return true
}

func (d *Directory) bump(s *model.ChatSession, msg model.Message) {
	m := msg
	s.LatestMessage = &m
	if msg.CreatedAt.After(s.LastActivity) {
		s.LastActivity = msg.CreatedAt
	}
	s.UnreadCount++
}

// Touch refreshes a session's preview without changing its unread count.
// Used for admin echoes, which are read by definition.
func (d *Directory) Touch(sessionID string, msg model.Message) bool {
	s, ok := d.sessions[sessionID]
	if !ok {
		return false
	}
	m := msg
	s.LatestMessage = &m
	if msg.CreatedAt.After(s.LastActivity) {
		s.LastActivity = msg.CreatedAt
	}
	return true
}

// MarkRead zeroes a session's unread count. Idempotent; calling it on an
// unknown session is a no-op.
func (d *Directory) MarkRead(sessionID string) {
	if s, ok := d.sessions[sessionID]; ok {
		s.UnreadCount = 0
	}
}

// Get returns a copy of one session.
func (d *Directory) Get(sessionID string) (model.ChatSession, bool) {
	s, ok := d.sessions[sessionID]
	if !ok {
		return model.ChatSession{}, false
	}
	return *s, true
}

// Sessions returns a copy of the directory ordered by last activity,
// most recent first. Ties break on creation time and then id so the
// ordering is deterministic.
func (d *Directory) Sessions() []model.ChatSession {
	out := make([]model.ChatSession, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of known sessions.
func (d *Directory) Len() int {
	return len(d.sessions)
}

// TotalUnread sums unread counts across all sessions.
func (d *Directory) TotalUnread() int {
	total := 0
	for _, s := range d.sessions {
		total += s.UnreadCount
	}
	return total
}
