package console

import (
	"github.com/guardline/operator-console/internal/model"
)

// Update is a state change pushed to the UI. The UI never reads console
// state directly; it renders from the updates it receives.
type Update interface {
	isUpdate()
}

// DirectoryUpdate carries the full ordered session list after any change.
type DirectoryUpdate struct {
	Sessions []model.ChatSession
}

// ViewportUpdate carries the open session's state and visible messages.
// Err is set when a history fetch failed; the viewport stays usable so
// the operator can still reply or reselect.
type ViewportUpdate struct {
	SessionID string
	State     ViewportState
	Messages  []model.Message
	Err       error
}

// MessageAppended carries one new visible message for the open session.
type MessageAppended struct {
	SessionID string
	Message   model.Message
}

// ConnectivityUpdate reflects transport connectivity. Send is disabled
// while disconnected.
type ConnectivityUpdate struct {
	Connected bool
}

// ReplyUpdate reports the acknowledgement outcome for a reply. A nil Err
// means the backend accepted it and the compose box may be cleared; the
// message itself becomes visible via the admin echo. A non-nil Err means
// the compose content must be preserved for retry.
type ReplyUpdate struct {
	SessionID string
	Err       error
}

// NoticeUpdate is an operator-visible, non-fatal notice.
type NoticeUpdate struct {
	Text string
}

func (DirectoryUpdate) isUpdate()    {}
func (ViewportUpdate) isUpdate()     {}
func (MessageAppended) isUpdate()    {}
func (ConnectivityUpdate) isUpdate() {}
func (ReplyUpdate) isUpdate()        {}
func (NoticeUpdate) isUpdate()       {}
