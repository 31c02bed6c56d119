package notify

import (
	"errors"
	"testing"
)

func TestDesktopNotifierDelivers(t *testing.T) {
	var gotTitle, gotMessage string
	var gotIcon any
	n := &DesktopNotifier{
		AppIcon: "dialog-warning",
		notify: func(title, message string, icon any) error {
			gotTitle, gotMessage, gotIcon = title, message, icon
			return nil
		},
	}

	if err := n.Notify("Temperature WARNING", "drive at 18.2°C"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if gotTitle != "Temperature WARNING" || gotMessage != "drive at 18.2°C" || gotIcon != "dialog-warning" {
		t.Errorf("Notify passed (%q, %q, %q)", gotTitle, gotMessage, gotIcon)
	}
}

func TestDesktopNotifierWrapsError(t *testing.T) {
	sentinel := errors.New("dbus unavailable")
	n := &DesktopNotifier{notify: func(string, string, any) error { return sentinel }}

	if err := n.Notify("t", "m"); !errors.Is(err, sentinel) {
		t.Errorf("Notify() error = %v, want wrapped sentinel", err)
	}
}
