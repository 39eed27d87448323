// Package shutdown converts OS termination signals into a readable,
// idempotent flag.
//
// The poll loop reads the flag between iterations; signal delivery writes it.
// Both sides go through the same mutex, so the loop only ever observes
// "not requested" or a fully committed "requested".
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"dayrun/pkg/logx"
)

// NotifyFunc registers ch for the given signals. It exists so tests can
// deliver signals directly instead of raising real OS signals.
type NotifyFunc func(ch chan<- os.Signal, sig ...os.Signal)

// Coordinator tracks a single one-way "stop requested" transition.
// It cannot fail; it only stores a flag.
type Coordinator struct {
	mu        sync.Mutex
	requested bool
	sig       os.Signal // first signal observed, nil for manual requests

	log logx.Logger
}

// New creates a Coordinator listening for SIGINT and SIGTERM.
// A nil notify falls back to os/signal.Notify.
func New(log logx.Logger, notify NotifyFunc) *Coordinator {
	if log.IsZero() {
		log = logx.Nop()
	}
	if notify == nil {
		notify = signal.Notify
	}
	c := &Coordinator{log: log}

	ch := make(chan os.Signal, 2)
	notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range ch {
			c.RequestShutdown(sig)
		}
	}()
	return c
}

// RequestShutdown records the stop request. The first call wins; subsequent
// calls of either signal kind are no-ops and log nothing.
func (c *Coordinator) RequestShutdown(sig os.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requested {
		return
	}
	c.requested = true
	c.sig = sig

	name := "manual"
	if sig != nil {
		name = sig.String()
	}
	c.log.Info("shutdown requested; current task (if any) will finish first", logx.String("signal", name))
}

// ShouldShutdown reports whether a stop has been requested. No side effects.
func (c *Coordinator) ShouldShutdown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested
}

// Signal returns the signal that triggered the request, if any.
// Diagnostics only.
func (c *Coordinator) Signal() (os.Signal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sig, c.requested
}
