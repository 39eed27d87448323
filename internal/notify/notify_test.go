package notify

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dayrun/pkg/logx"
)

func TestNewDisabled(t *testing.T) {
	t.Parallel()
	if s := New(Config{Enabled: false, WebhookURL: "http://x"}, logx.Nop()); s != nil {
		t.Fatal("disabled notifier must be nil")
	}
	if s := New(Config{Enabled: true, WebhookURL: " "}, logx.Nop()); s != nil {
		t.Fatal("notifier without webhook URL must be nil")
	}
	// Nil receiver is a no-op, not a crash.
	var s *Service
	s.TaskFailed(time.Now(), time.Second, errors.New("boom"))
	s.Close()
}

func TestTaskFailedPostsPayload(t *testing.T) {
	t.Parallel()
	got := make(chan payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var p payload
		if err := json.Unmarshal(b, &p); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		got <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := New(Config{Enabled: true, WebhookURL: srv.URL, RatePerMin: 60}, logx.Nop())
	defer s.Close()
	started := time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)
	s.TaskFailed(started, 1500*time.Millisecond, errors.New("boom"))

	select {
	case p := <-got:
		if p.Event != "task_failed" || p.Error != "boom" || p.TookMS != 1500 {
			t.Fatalf("unexpected payload: %+v", p)
		}
		if !p.Started.Equal(started) {
			t.Fatalf("payload started = %v, want %v", p.Started, started)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never called")
	}
}

func TestTaskFailedRateLimited(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Burst of 1 per minute: only the first delivery goes through.
	s := New(Config{Enabled: true, WebhookURL: srv.URL, RatePerMin: 1}, logx.Nop())
	for i := 0; i < 5; i++ {
		s.TaskFailed(time.Now(), time.Second, errors.New("boom"))
	}
	s.Close() // drains the queue

	if got := calls.Load(); got != 1 {
		t.Fatalf("webhook called %d times, want 1", got)
	}
}

func TestTaskFailedDoesNotBlockCaller(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{Enabled: true, WebhookURL: srv.URL, RatePerMin: 60}, logx.Nop())

	// The webhook blocks until released; enqueueing must still return fast.
	begin := time.Now()
	s.TaskFailed(time.Now(), time.Second, errors.New("boom"))
	if took := time.Since(begin); took > 500*time.Millisecond {
		t.Fatalf("TaskFailed blocked its caller for %v", took)
	}

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never started")
	}
	close(release)
	s.Close()
}

func TestCloseStopsIntake(t *testing.T) {
	t.Parallel()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{Enabled: true, WebhookURL: srv.URL, RatePerMin: 60}, logx.Nop())
	s.Close()
	s.Close() // idempotent

	// Events after Close are dropped, not delivered and not a panic.
	s.TaskFailed(time.Now(), time.Second, errors.New("boom"))
	if got := calls.Load(); got != 0 {
		t.Fatalf("webhook called %d times after Close, want 0", got)
	}
}
