// Package notify posts task-failure events to a configured webhook.
//
// Delivery is best-effort and asynchronous: TaskFailed enqueues onto a
// bounded queue and returns; a dedicated goroutine drains the queue, so a
// slow or unreachable webhook never stalls the caller. Events are
// rate-limited, retried a few times, and never surfaced as errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"dayrun/pkg/logx"
)

type Config struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration // per-delivery; 0 means 10s
	RatePerMin int           // 0 means 6
}

type payload struct {
	Event   string    `json:"event"`
	Started time.Time `json:"started"`
	TookMS  int64     `json:"took_ms"`
	Error   string    `json:"error"`
}

const queueSize = 16

type Service struct {
	log     logx.Logger
	client  *retryablehttp.Client
	limiter *rate.Limiter
	url     string
	timeout time.Duration

	mu        sync.Mutex
	accepting bool

	queue chan payload
	done  chan struct{}
}

// New returns a configured notifier, or nil when disabled. The returned
// Service owns a delivery goroutine; release it with Close.
func New(cfg Config, log logx.Logger) *Service {
	if !cfg.Enabled || strings.TrimSpace(cfg.WebhookURL) == "" {
		return nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = 6
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.HTTPClient.Timeout = timeout
	client.Logger = nil // suppress retryablehttp's default logging

	s := &Service{
		log:       log,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
		url:       cfg.WebhookURL,
		timeout:   timeout,
		accepting: true,
		queue:     make(chan payload, queueSize),
		done:      make(chan struct{}),
	}
	go s.deliverLoop()
	return s
}

// TaskFailed queues one failure event for delivery and returns without
// waiting for it. Events are dropped when rate-limited or when the queue is
// full. Safe to call on a nil Service.
func (s *Service) TaskFailed(started time.Time, took time.Duration, taskErr error) {
	if s == nil {
		return
	}
	if !s.limiter.Allow() {
		s.log.Debug("failure notification dropped (rate limited)")
		return
	}

	msg := ""
	if taskErr != nil {
		msg = taskErr.Error()
	}
	p := payload{
		Event:   "task_failed",
		Started: started,
		TookMS:  took.Milliseconds(),
		Error:   msg,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepting {
		return
	}
	select {
	case s.queue <- p:
	default:
		s.log.Debug("failure notification dropped (queue full)")
	}
}

// Close stops intake and waits for already-queued deliveries to finish.
// Safe to call on a nil Service and safe to call more than once.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	wasAccepting := s.accepting
	s.accepting = false
	s.mu.Unlock()

	if wasAccepting {
		close(s.queue)
	}
	<-s.done
}

func (s *Service) deliverLoop() {
	defer close(s.done)
	for p := range s.queue {
		s.deliver(p)
	}
}

func (s *Service) deliver(p payload) {
	body, err := json.Marshal(p)
	if err != nil {
		s.log.Warn("failure notification encode failed", logx.Err(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.log.Warn("failure notification request failed", logx.Err(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("failure notification delivery failed", logx.Err(err))
		return
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.log.Warn("failure notification rejected", logx.Int("status", resp.StatusCode))
		return
	}
	s.log.Debug("failure notification delivered", logx.Int("status", resp.StatusCode))
}
