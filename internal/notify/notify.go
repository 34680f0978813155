// Package notify delivers fire-and-forget desktop notifications.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Desktop sends notifications through the OS notification facility.
type Desktop struct {
	appName string
}

// NewDesktop creates a desktop notifier.
func NewDesktop(appName string) *Desktop {
	return &Desktop{appName: appName}
}

// Notify shows a notification. Failures are logged and otherwise ignored;
// notifications are best-effort by contract.
func (d *Desktop) Notify(title, message string) {
	if err := beeep.Notify(d.appName+": "+title, message, ""); err != nil {
		slog.Debug("Desktop notification failed", "title", title, "error", err)
	}
}

// Nop discards all notifications.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(_, _ string) {}
