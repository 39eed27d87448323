package scheduler

import "time"

// Clock abstracts wall time and loop suspension so tests can drive the poll
// loop deterministically.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until wake is closed, whichever comes first.
	Sleep(d time.Duration, wake <-chan struct{})
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(d time.Duration, wake <-chan struct{}) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-wake:
	}
}
