// Package model defines data structures shared by the operator console.
package model

import (
	"time"
)

// ChatSession represents one website visitor's conversation, as tracked by
// the messaging backend. The console never creates or deletes sessions; it
// only mirrors backend state.
type ChatSession struct {
	ID            string    `json:"id"`
	Token         string    `json:"token,omitempty"`
	GuestName     string    `json:"guest_name,omitempty"`
	GuestEmail    string    `json:"guest_email,omitempty"`
	IsActive      bool      `json:"is_active"`
	UnreadCount   int       `json:"unread_count"`
	LatestMessage *Message  `json:"latest_message,omitempty"`
	LastActivity  time.Time `json:"last_activity"`
	CreatedAt     time.Time `json:"created_at"`
}

// DisplayName returns the guest's name or a fallback label for anonymous
// visitors.
func (s *ChatSession) DisplayName() string {
	if s.GuestName != "" {
		return s.GuestName
	}
	if len(s.ID) >= 8 {
		return "Guest " + s.ID[:8]
	}
	return "Guest"
}
