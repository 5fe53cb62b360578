package model

// Transport event payloads exchanged with the messaging service.

// GuestMessageEvent is pushed when a visitor sends a message.
type GuestMessageEvent struct {
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
}

// AdminMessageEvent is the server's echo of an operator reply. The echoed
// message is the only way a sent reply becomes visible in the console.
type AdminMessageEvent struct {
	Message Message `json:"message"`
}

// SessionSnapshotEvent is a full replacement of the session list.
type SessionSnapshotEvent struct {
	Sessions []ChatSession `json:"sessions"`
}

// JoinRequest announces operator presence so the backend adds this
// connection to its operator broadcast group.
type JoinRequest struct {
	OperatorName string `json:"operator_name"`
}

// ReplyRequest is an outbound operator reply.
type ReplyRequest struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	SessionID     string `json:"session_id"`
	Content       string `json:"content"`
	AdminName     string `json:"admin_name"`
}

// ReplyAck is the single-shot acknowledgement the backend returns for a
// reply.
type ReplyAck struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
