package poller

import (
	"sync"
	"time"

	"github.com/BearBump/PizzaTrack/internal/integrations/cloud"
)

// Window tracks where the next telemetry request starts. Consecutive committed
// windows are contiguous: each one starts exactly where the previous ended.
type Window struct {
	mu       sync.Mutex
	start    time.Time
	lookback time.Duration
}

func NewWindow(lookback time.Duration) *Window {
	if lookback <= 0 {
		lookback = 10 * time.Second
	}
	return &Window{lookback: lookback}
}

// Next returns [start, now). The very first window reaches back by the
// lookback. ok is false when now is not after start.
func (w *Window) Next(now time.Time) (cloud.Window, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := w.start
	if start.IsZero() {
		start = now.Add(-w.lookback)
	}
	if !now.After(start) {
		return cloud.Window{}, false
	}
	return cloud.Window{Start: start, End: now}, true
}

// Commit moves the start to the end of a window that was fetched successfully.
func (w *Window) Commit(cw cloud.Window) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cw.End.After(w.start) {
		w.start = cw.End
	}
}

func (w *Window) Start() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.start
}
