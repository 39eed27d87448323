//go:build linux

// Package sdnotify reports daemon state to systemd when running under it.
// All calls are no-ops outside a systemd unit (NOTIFY_SOCKET unset).
package sdnotify

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Ready reports startup completion (Type=notify units).
func Ready() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
}

// Stopping reports that shutdown has begun.
func Stopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// Beat sends a watchdog keepalive.
func Beat() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
}

// WatchdogEnabled reports the unit's watchdog interval, if one is set.
// Callers should Beat() at least twice per interval.
func WatchdogEnabled() (time.Duration, bool) {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
