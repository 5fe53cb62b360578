// Package notify is the user-facing notification boundary. Notifications
// are best-effort: a missing notification daemon or denied permission is
// logged, never an error that blocks any flow.
package notify

import (
	"github.com/gen2brain/beeep"
)

// Notifier shows a notification.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends notifications through the OS notification service.
type Desktop struct {
	appName string
}

// NewDesktop creates a desktop notifier.
func NewDesktop(appName string) *Desktop {
	beeep.AppName = appName
	return &Desktop{appName: appName}
}

// Notify shows a desktop notification.
func (d *Desktop) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Nop discards all notifications. Used when notifications are disabled
// and in tests.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(title, body string) error { return nil }
