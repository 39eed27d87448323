//go:build !linux

// Package sdnotify reports daemon state to systemd when running under it.
// On non-Linux platforms every call is a no-op.
package sdnotify

import "time"

func Ready()    {}
func Stopping() {}
func Beat()     {}

func WatchdogEnabled() (time.Duration, bool) { return 0, false }
