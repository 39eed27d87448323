package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dayrun/internal/shutdown"
	"dayrun/pkg/logx"
)

// DefaultPollInterval bounds worst-case trigger latency and shutdown
// responsiveness.
const DefaultPollInterval = 30 * time.Second

const displayTimeFormat = "2006-01-02 15:04:05"

// Task is the user-supplied operation fired once per day.
type Task func() error

type Config struct {
	// At is the daily trigger time-of-day in HH:MM 24-hour format,
	// interpreted in host-local time. Immutable once the task is registered.
	At string

	// PollInterval overrides the loop cadence; <= 0 means DefaultPollInterval.
	PollInterval time.Duration
}

// ConfigurationError marks fatal construction failures. The scheduler is not
// usable after one.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("scheduler config %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Recorder persists run outcomes. Best-effort: failures are logged, never
// surfaced to the loop.
type Recorder interface {
	Record(run Run) error
}

// Notifier reports failed runs. Best-effort.
type Notifier interface {
	TaskFailed(run Run)
}

type Option func(*Scheduler)

func WithClock(c Clock) Option       { return func(s *Scheduler) { s.clock = c } }
func WithRecorder(r Recorder) Option { return func(s *Scheduler) { s.recorder = r } }
func WithNotifier(n Notifier) Option { return func(s *Scheduler) { s.notifier = n } }

// WithBeat installs a per-iteration liveness hook (e.g. the systemd watchdog
// keepalive). Called once per loop pass, on the loop goroutine.
func WithBeat(fn func()) Option { return func(s *Scheduler) { s.beat = fn } }

// Scheduler owns the registered task, its next trigger time, and the poll
// loop. All task invocations happen synchronously on the goroutine that
// calls Run() (or SetDailyTask for the immediate run).
type Scheduler struct {
	mu sync.Mutex

	log   logx.Logger
	coord *shutdown.Coordinator
	cfg   Config

	sched cron.Schedule // daily trigger, from the cron standard parser
	clock Clock

	task    Task
	nextRun time.Time

	running bool
	wake    chan struct{} // closed by Stop() to cut the current sleep short

	recorder Recorder
	notifier Notifier
	beat     func()
}

// New builds a scheduler for a daily HH:MM trigger. Malformed input or an
// unusable scheduling primitive yields a *ConfigurationError.
//
// For diagnostics it logs the host's current local time and timezone name;
// no timezone correction is attempted.
func New(cfg Config, coord *shutdown.Coordinator, log logx.Logger, opts ...Option) (*Scheduler, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	h, m, err := parseHHMM(cfg.At)
	if err != nil {
		return nil, &ConfigurationError{Field: "at", Err: err}
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", m, h))
	if err != nil {
		return nil, &ConfigurationError{Field: "at", Err: err}
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	s := &Scheduler{
		log:   log,
		coord: coord,
		cfg:   cfg,
		sched: sched,
	}
	for _, o := range opts {
		o(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}

	now := s.clock.Now()
	zone, _ := now.Zone()
	s.log.Info("scheduler configured",
		logx.String("at", cfg.At),
		logx.Duration("poll_interval", cfg.PollInterval),
		logx.Time("local_now", now),
		logx.String("tz", zone),
	)
	return s, nil
}

// SetDailyTask registers the task to fire once per day at the configured
// time-of-day. Calling it again replaces the previous registration (last
// write wins). The initial trigger is today at the configured time, or
// tomorrow if that has already passed.
//
// If runImmediately is true the task is invoked once synchronously right
// away, through the same safety wrapper as scheduled firings.
func (s *Scheduler) SetDailyTask(task Task, runImmediately bool) {
	now := s.clock.Now()

	s.mu.Lock()
	s.task = task
	s.nextRun = s.sched.Next(now)
	next := s.nextRun
	s.mu.Unlock()

	s.log.Info("daily task registered",
		logx.String("at", s.cfg.At),
		logx.Time("next_run", next),
	)

	if runImmediately && task != nil {
		s.log.Info("running task immediately before first schedule")
		s.finishRun(s.invoke(task))
	}
}

// Run blocks, polling for due triggers and shutdown requests until Stop()
// is called or the coordinator reports a shutdown. Returning is the signal
// that the process may exit; shutdown is a normal termination path, never
// an error.
//
// Running without a registered task is allowed; the loop simply never fires.
func (s *Scheduler) Run() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.wake = make(chan struct{})
	wake := s.wake
	poll := s.cfg.PollInterval
	s.mu.Unlock()

	s.log.Info("scheduler loop started", logx.String("next_run", s.NextRunDisplay()))

	for s.isRunning() && !s.coord.ShouldShutdown() {
		s.runPending()

		if s.beat != nil {
			s.beat()
		}

		s.clock.Sleep(poll, wake)

		// Hourly heartbeat: best-effort window check, may be skipped or
		// duplicated depending on poll alignment. Diagnostic only.
		if now := s.clock.Now(); now.Minute() == 0 && now.Second() < 30 {
			s.log.Info("scheduler alive", logx.String("next_run", s.NextRunDisplay()))
		}
	}

	s.mu.Lock()
	s.running = false
	s.wake = nil
	s.mu.Unlock()

	s.log.Info("scheduler loop stopped")
}

// Stop requests loop exit. Idempotent and non-blocking; safe to call from
// any goroutine, including from within the task itself. It never interrupts
// a task currently executing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	wake := s.wake
	s.wake = nil
	s.mu.Unlock()

	if wake != nil {
		close(wake)
	}
}

func (s *Scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runPending fires the job if its trigger is due and advances the next
// trigger by one day from the configured time-of-day.
func (s *Scheduler) runPending() {
	s.mu.Lock()
	task := s.task
	due := task != nil && !s.nextRun.IsZero() && !s.clock.Now().Before(s.nextRun)
	s.mu.Unlock()
	if !due {
		return
	}

	// Invoke without holding the mutex so the task may call Stop() or
	// NextRunTime() on this scheduler.
	s.finishRun(s.invoke(task))

	s.mu.Lock()
	// Advance from the previous trigger, not from the firing instant, so a
	// firing delayed by poll granularity does not drift the schedule.
	s.nextRun = s.sched.Next(s.nextRun)
	next := s.nextRun
	s.mu.Unlock()

	s.log.Info("next run scheduled", logx.Time("next_run", next))
}

// NextRunTime returns the next pending trigger. ok is false when no task is
// registered. Diagnostics only; never used for control flow.
func (s *Scheduler) NextRunTime() (next time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == nil || s.nextRun.IsZero() {
		return time.Time{}, false
	}
	return s.nextRun, true
}

// NextRunDisplay formats the next trigger for logs, with an "unset"
// sentinel when no task is registered.
func (s *Scheduler) NextRunDisplay() string {
	next, ok := s.NextRunTime()
	if !ok {
		return "unset"
	}
	return next.Format(displayTimeFormat)
}
