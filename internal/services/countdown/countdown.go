package countdown

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Target receives the countdown output. ShowRemaining reports false once the
// owner no longer wants updates, which stops the countdown.
type Target interface {
	ShowRemaining(text string) bool
	DeliveryLate(ctx context.Context)
}

type Countdown struct {
	clock    clockwork.Clock
	deadline time.Time
	tick     time.Duration
	target   Target
}

func New(clock clockwork.Clock, deadline time.Time, tick time.Duration, target Target) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	return &Countdown{clock: clock, deadline: deadline, tick: tick, target: target}
}

// Format renders a remaining duration as mm:ss, flooring to whole seconds.
func Format(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	secs := int64(remaining / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Tick updates the display for now and reports whether the countdown is over.
// The deadline itself already counts as late.
func (c *Countdown) Tick(ctx context.Context, now time.Time) (stop bool) {
	remaining := c.deadline.Sub(now)
	if remaining > 0 {
		return !c.target.ShowRemaining(Format(remaining))
	}
	c.target.DeliveryLate(ctx)
	return true
}

// Run ticks until the delivery is late or ctx is cancelled.
func (c *Countdown) Run(ctx context.Context) error {
	t := c.clock.NewTicker(c.tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.Chan():
			if c.Tick(ctx, now) {
				return nil
			}
		}
	}
}
