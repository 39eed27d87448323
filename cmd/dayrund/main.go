package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"dayrun/internal/config"
	"dayrun/internal/history"
	"dayrun/internal/notify"
	"dayrun/internal/scheduler"
	"dayrun/internal/shutdown"
	"dayrun/internal/taskexec"
	"dayrun/pkg/logx"
	"dayrun/pkg/sdnotify"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logs, log := logx.New(logCfg(cfg))
	defer logs.Close()

	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	// Hot reload: logging knobs apply live; the schedule time is immutable
	// after registration and needs a restart.
	startAt := cfg.Schedule.At
	cfgm.SetOnChange(func(next *config.Config) {
		logs.Apply(logCfg(next))
		if next.Schedule.At != startAt {
			log.Warn("schedule.at changed in config; restart required to take effect",
				logx.String("active", startAt),
				logx.String("configured", next.Schedule.At),
			)
		}
	})

	store, err := history.Open(history.Config{
		Driver: cfg.History.Driver,
		Path:   cfg.History.Path,
		Keep:   cfg.History.Keep,
	}, log.With(logx.String("comp", "history")))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	notifyTimeout, err := config.DurationField("notify.timeout", cfg.Notify.Timeout, 10*time.Second)
	if err != nil {
		return err
	}
	notifier := notify.New(notify.Config{
		Enabled:    cfg.Notify.Enabled,
		WebhookURL: cfg.Notify.WebhookURL,
		Timeout:    notifyTimeout,
		RatePerMin: cfg.Notify.RatePerMin,
	}, log.With(logx.String("comp", "notify")))
	defer notifier.Close()

	coord := shutdown.New(log.With(logx.String("comp", "shutdown")), nil)

	opts := []scheduler.Option{}
	if store != nil {
		opts = append(opts, scheduler.WithRecorder(&runRecorder{store: store}))
	}
	if notifier != nil {
		opts = append(opts, scheduler.WithNotifier(&failureNotifier{svc: notifier}))
	}
	if _, ok := sdnotify.WatchdogEnabled(); ok {
		opts = append(opts, scheduler.WithBeat(sdnotify.Beat))
	}

	sched, err := scheduler.New(scheduler.Config{
		At:           cfg.Schedule.At,
		PollInterval: cfg.Schedule.PollIntervalOrDefault(),
	}, coord, log.With(logx.String("comp", "scheduler")), opts...)
	if err != nil {
		return err
	}

	taskTimeout, err := config.DurationField("task.timeout", cfg.Task.Timeout, 0)
	if err != nil {
		return err
	}
	task, err := taskexec.New(taskexec.Config{
		Command: cfg.Task.Command,
		Args:    cfg.Task.Args,
		Workdir: cfg.Task.Workdir,
		Timeout: taskTimeout,
	}, log.With(logx.String("comp", "task")))
	if err != nil {
		return err
	}

	sched.SetDailyTask(task, cfg.Schedule.RunImmediatelyOrDefault())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = cfgm.Watch(ctx) }()

	sdnotify.Ready()
	sched.Run()
	sdnotify.Stopping()
	return nil
}

func logCfg(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleOrDefault(),
		File: logx.FileConfig{
			Enabled:    cfg.Logging.File.Enabled,
			Path:       cfg.Logging.File.Path,
			MaxSizeMB:  cfg.Logging.File.MaxSizeMB,
			MaxBackups: cfg.Logging.File.MaxBackups,
			MaxAgeDays: cfg.Logging.File.MaxAgeDays,
		},
	}
}

// runRecorder adapts the history store to the scheduler's Recorder.
type runRecorder struct {
	store history.Store
}

func (r *runRecorder) Record(run scheduler.Run) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := history.Run{
		Started:  run.Started,
		Duration: run.Duration,
		OK:       run.OK(),
	}
	if run.Err != nil {
		rec.Error = run.Err.Error()
	}
	return r.store.Record(ctx, rec)
}

// failureNotifier adapts the webhook service to the scheduler's Notifier.
type failureNotifier struct {
	svc *notify.Service
}

func (n *failureNotifier) TaskFailed(run scheduler.Run) {
	n.svc.TaskFailed(run.Started, run.Duration, run.Err)
}
