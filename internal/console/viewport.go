package console

import (
	"github.com/guardline/operator-console/internal/model"
)

// ViewportState is the open conversation's lifecycle state. Transport
// degradation is tracked separately by the console; a disconnect does not
// discard loaded history.
type ViewportState int

const (
	// StateClosed means no session is open.
	StateClosed ViewportState = iota
	// StateLoading means history is being fetched for the open session.
	StateLoading
	// StateReady means history is loaded and live appends flow in.
	StateReady
)

// Viewport holds the one open session's visible message list. Exactly one
// session is open at a time; opening another discards the previous
// subscription by bumping the epoch, so a late history response or push
// for the old session can never land in the new viewport.
type Viewport struct {
	state     ViewportState
	sessionID string
	epoch     uint64
	messages  []model.Message

	// Pushes that arrive while history is still in flight. The fetch may
	// or may not include them, so they are merged by id after the load.
	backlog []model.Message
}

// NewViewport creates a closed viewport.
func NewViewport() *Viewport {
	return &Viewport{}
}

// Open selects a session and returns the new epoch. Any state from a
// previously open session is discarded.
func (v *Viewport) Open(sessionID string) uint64 {
	v.epoch++
	v.state = StateLoading
	v.sessionID = sessionID
	v.messages = nil
	v.backlog = nil
	return v.epoch
}

// SetHistory installs the fetched history for the given epoch, replacing
// (never appending to) whatever was loaded before. Pushes that raced the
// fetch are merged in arrival order, skipping ids the history already
// contains. Returns false when the epoch is stale.
func (v *Viewport) SetHistory(epoch uint64, messages []model.Message) bool {
	if epoch != v.epoch || v.state == StateClosed {
		return false
	}
	v.messages = append([]model.Message(nil), messages...)

	seen := make(map[string]struct{}, len(v.messages))
	for _, m := range v.messages {
		seen[m.ID] = struct{}{}
	}
	for _, m := range v.backlog {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		v.messages = append(v.messages, m)
		seen[m.ID] = struct{}{}
	}
	v.backlog = nil
	v.state = StateReady
	return true
}

// Append adds a live message in arrival order. Messages for sessions
// other than the open one are ignored here; the directory still records
// them. Returns true only when the message became visible immediately.
func (v *Viewport) Append(msg model.Message) bool {
	if v.sessionID != msg.SessionID || v.state == StateClosed {
		return false
	}
	if v.state == StateLoading {
		v.backlog = append(v.backlog, msg)
		return false
	}
	v.messages = append(v.messages, msg)
	return true
}

// IsOpen reports whether the given session is the open one.
func (v *Viewport) IsOpen(sessionID string) bool {
	return v.state != StateClosed && v.sessionID == sessionID
}

// SessionID returns the open session id, empty when closed.
func (v *Viewport) SessionID() string {
	if v.state == StateClosed {
		return ""
	}
	return v.sessionID
}

// State returns the viewport state.
func (v *Viewport) State() ViewportState {
	return v.state
}

// Epoch returns the current open-session epoch.
func (v *Viewport) Epoch() uint64 {
	return v.epoch
}

// Messages returns a copy of the visible message list.
func (v *Viewport) Messages() []model.Message {
	return append([]model.Message(nil), v.messages...)
}
