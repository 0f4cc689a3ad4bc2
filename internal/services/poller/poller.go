package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/PizzaTrack/internal/integrations/cloud"
	"github.com/BearBump/PizzaTrack/internal/metrics"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Sink receives the messages of one successful poll, in the order the cloud
// returned them. It reports false when it stopped before the end of the
// batch; the window is then not advanced.
type Sink func(ctx context.Context, msgs []models.Message) bool

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Poller struct {
	client   cloud.Client
	deviceID string
	sink     Sink
	rl       RateLimiter
	clock    clockwork.Clock
	window   *Window

	pollInterval       time.Duration
	rateLimitPerMinute int64

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastPollUnixNano    atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalPolls          atomic.Int64
	totalFailures       atomic.Int64
	totalRateLimited    atomic.Int64
	totalMessages       atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(client cloud.Client, deviceID string, sink Sink, rl RateLimiter, clock clockwork.Clock) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{
		client: client, deviceID: deviceID, sink: sink, rl: rl, clock: clock,
		window:            NewWindow(10 * time.Second),
		pollInterval:      5 * time.Second,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: clock.Now().UTC().UnixNano(),
	}
}

func (p *Poller) WithSettings(pollInterval time.Duration, rlPerMin int64) *Poller {
	if pollInterval > 0 {
		p.pollInterval = pollInterval
	}
	if rlPerMin > 0 {
		p.rateLimitPerMinute = rlPerMin
	}
	return p
}

// WithWindow lets the caller keep the window across pollers, so a new order
// continues where the previous one stopped reading.
func (p *Poller) WithWindow(w *Window) *Poller {
	if w != nil {
		p.window = w
	}
	return p
}

// Trigger forces an immediate poll (best-effort, non-blocking).
func (p *Poller) Trigger() {
	p.lastTriggerUnixNano.Store(p.clock.Now().UTC().UnixNano())
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	DeviceID         string     `json:"deviceId"`
	StartedAt        time.Time  `json:"startedAt"`
	LastPollAt       *time.Time `json:"lastPollAt,omitempty"`
	LastTriggerAt    *time.Time `json:"lastTriggerAt,omitempty"`
	WindowStart      *time.Time `json:"windowStart,omitempty"`
	TotalPolls       int64      `json:"totalPolls"`
	TotalFailures    int64      `json:"totalFailures"`
	TotalRateLimited int64      `json:"totalRateLimited"`
	TotalMessages    int64      `json:"totalMessages"`
	LastError        string     `json:"lastError,omitempty"`
}

func (p *Poller) Stats() Stats {
	st := Stats{
		DeviceID:         p.deviceID,
		StartedAt:        time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalPolls:       p.totalPolls.Load(),
		TotalFailures:    p.totalFailures.Load(),
		TotalRateLimited: p.totalRateLimited.Load(),
		TotalMessages:    p.totalMessages.Load(),
	}
	if n := p.lastPollUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastPollAt = &t
	}
	if n := p.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	if ws := p.window.Start(); !ws.IsZero() {
		st.WindowStart = &ws
	}
	p.lastErrorMu.Lock()
	st.LastError = p.lastError
	p.lastErrorMu.Unlock()
	return st
}

// Run polls on every tick and on Trigger. Polls run one after another on this
// goroutine, so there is never more than one request in flight.
func (p *Poller) Run(ctx context.Context) error {
	t := p.clock.NewTicker(p.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
			p.runOnce(ctx)
		case <-p.triggerCh:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
		slog.Error("poll telemetry", "device_id", p.deviceID, "error", err.Error())
	}
}

// PollOnce fetches the current window and hands the messages to the sink.
// The window only advances after a successful request whose whole batch was
// handled; a failed, rate-limited or interrupted poll is retried from the
// same start on the next tick.
func (p *Poller) PollOnce(ctx context.Context) error {
	now := p.clock.Now().UTC()
	p.lastPollUnixNano.Store(now.UnixNano())
	p.totalPolls.Add(1)

	cw, ok := p.window.Next(now)
	if !ok {
		metrics.RecordPoll(metrics.PollSkipped)
		return nil
	}

	if p.rl != nil && p.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:nrfcloud:%s:%s", p.deviceID, now.Format("200601021504"))
		allowed, n, err := p.rl.Allow(ctx, minuteKey, p.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			p.fail(err)
			metrics.RecordPoll(metrics.PollFailed)
			return err
		}
		if !allowed {
			slog.Warn("telemetry rate limit exceeded", "device_id", p.deviceID, "count", n)
			p.totalRateLimited.Add(1)
			metrics.RecordPoll(metrics.PollRateLimited)
			return nil
		}
	}

	msgs, err := p.client.GetMessages(ctx, p.deviceID, cw)
	if err != nil {
		p.fail(err)
		metrics.RecordPoll(metrics.PollFailed)
		return errors.Wrap(err, "get messages")
	}
	metrics.RecordPoll(metrics.PollOK)

	if len(msgs) > 0 {
		p.totalMessages.Add(int64(len(msgs)))
		if p.sink != nil && !p.sink(ctx, msgs) {
			slog.Info("telemetry batch interrupted, window kept", "device_id", p.deviceID, "messages", len(msgs))
			return nil
		}
	}
	p.window.Commit(cw)
	return nil
}

func (p *Poller) fail(err error) {
	p.totalFailures.Add(1)
	p.lastErrorMu.Lock()
	p.lastError = err.Error()
	p.lastErrorMu.Unlock()
}
