package scheduler

import (
	"fmt"
	"runtime/debug"
	"time"

	"dayrun/pkg/logx"
)

// Run is the outcome of a single firing.
type Run struct {
	Started  time.Time
	Duration time.Duration
	Err      error
	Stack    string // non-empty when the task panicked
}

func (r Run) OK() bool { return r.Err == nil }

// invoke executes one firing through the safety wrapper and returns an
// explicit result. It never propagates task errors or panics.
func (s *Scheduler) invoke(task Task) Run {
	res := Run{Started: s.clock.Now()}
	s.log.Info("task starting", logx.Time("started", res.Started))

	res.Stack, res.Err = runTask(task)
	res.Duration = s.clock.Now().Sub(res.Started)
	return res
}

// finishRun logs the result and hands it to the recorder/notifier.
// The loop proceeds regardless of the outcome.
func (s *Scheduler) finishRun(res Run) {
	if res.OK() {
		s.log.Info("task completed",
			logx.Time("finished", res.Started.Add(res.Duration)),
			logx.Duration("took", res.Duration),
		)
	} else {
		s.log.Error("task failed",
			logx.Err(res.Err),
			logx.Duration("took", res.Duration),
			logx.Stack(res.Stack),
		)
		if s.notifier != nil {
			s.notifier.TaskFailed(res)
		}
	}

	if s.recorder != nil {
		if err := s.recorder.Record(res); err != nil {
			s.log.Warn("run history write failed", logx.Err(err))
		}
	}
}

func runTask(task Task) (stack string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
			stack = string(debug.Stack())
		}
	}()
	return "", task()
}
