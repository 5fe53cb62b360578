package model

import (
	"time"
)

// SenderType identifies which side of the conversation produced a message.
type SenderType string

const (
	SenderGuest SenderType = "guest"
	SenderAdmin SenderType = "admin"
)

// Message represents a single chat utterance. Messages are append-only;
// the only mutation the backend performs is flipping IsRead on guest
// messages when an operator acknowledges them.
type Message struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	Content    string     `json:"content"`
	SenderType SenderType `json:"sender_type"`
	SenderName string     `json:"sender_name"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ListMessagesResponse is the REST payload for a session's message history.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total,omitempty"`
}
