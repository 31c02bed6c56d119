// Package notify implements the delivery sinks used by the alert
// dispatcher: desktop pop-ups and SMTP email.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

// DesktopNotifier shows alerts through the desktop notification daemon.
type DesktopNotifier struct {
	// AppIcon is the icon path or name passed to the daemon. Empty
	// shows the daemon's default icon.
	AppIcon string

	notify func(title, message string, icon any) error
}

// NewDesktopNotifier creates a notifier backed by the platform's
// notification service.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{notify: beeep.Notify}
}

// Notify displays a desktop notification.
func (n *DesktopNotifier) Notify(title, message string) error {
	fn := n.notify
	if fn == nil {
		fn = beeep.Notify
	}
	if err := fn(title, message, n.AppIcon); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}
