// Package scheduler runs a single registered task once per day at a
// configured local time-of-day.
//
// # Overview
//
// The scheduler owns one task (a plain func() error) and a poll loop.
// Run() blocks the calling goroutine, checks for a due trigger every poll
// interval (30s by default), and invokes the task synchronously on the loop
// goroutine. Task executions are never concurrent with each other; a
// long-running task simply blocks the loop for its duration.
//
// # Trigger computation
//
// The daily trigger is a robfig/cron standard schedule built from the
// configured HH:MM ("M H * * *"). After a firing the next trigger is
// advanced from the previous trigger time, not from "now", so a firing
// delayed by poll granularity never drifts the schedule.
//
// # Shutdown
//
// The loop consults a shutdown.Coordinator between iterations. Stop() and
// shutdown signals only prevent the next iteration from starting; they
// never interrupt a task already running.
//
// # Task failures
//
// Every firing goes through a wrapper that catches errors and panics,
// returns an explicit Run result to the loop, and logs it. A failing task
// never stops the loop and never skips the next day's trigger.
package scheduler
