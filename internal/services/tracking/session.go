package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BearBump/PizzaTrack/internal/display"
	"github.com/BearBump/PizzaTrack/internal/metrics"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/BearBump/PizzaTrack/internal/notify"
	"github.com/BearBump/PizzaTrack/internal/services/poller"
	"github.com/BearBump/PizzaTrack/internal/telemetry"
	"github.com/jonboulle/clockwork"
)

// Session is one order in flight. Every display mutation goes through the
// session lock and is dropped once the session has been closed, so a
// superseded order can never touch the board.
type Session struct {
	Order models.Order

	board      *display.Board
	notifier   notify.Notifier
	dispatcher *telemetry.Dispatcher
	clock      clockwork.Clock
	poller     *poller.Poller

	mu      sync.Mutex
	closed  bool
	granted map[models.PromotionReason]bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *Session) ID() string { return s.Order.SessionID }

// Granted reports whether a promotion was already given in this session.
func (s *Session) Granted(reason models.PromotionReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granted[reason]
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) PollerStats() poller.Stats {
	return s.poller.Stats()
}

// do runs fn under the session lock unless the session is closed.
func (s *Session) do(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn()
	return true
}

func (s *Session) ShowFlipped() {
	s.do(s.board.SetFlipped)
}

func (s *Session) MoveMarker(pos models.Position) {
	s.do(func() {
		s.board.SetMarkerPosition(pos)
		s.board.PanTo(pos)
		s.board.AddTrailPoint(pos)
	})
}

func (s *Session) DisplayedTemperature() string {
	return s.board.Temperature()
}

func (s *Session) ShowTemperature(text string) {
	s.do(func() { s.board.SetTemperature(text) })
}

func (s *Session) GrantPromotion(ctx context.Context, reason models.PromotionReason) bool {
	fresh := false
	s.do(func() {
		if s.granted[reason] {
			return
		}
		s.granted[reason] = true
		s.board.SetFree()
		fresh = true
	})
	if !fresh {
		return false
	}

	metrics.RecordPromotion(string(reason))
	slog.Info("free pizza", "session_id", s.ID(), "reason", string(reason))
	s.notify(ctx, freePizza(s.ID(), reason, s.clock.Now().UTC()))
	return true
}

func (s *Session) ShowRemaining(text string) bool {
	return s.do(func() { s.board.SetDeliveryTime(text) })
}

func (s *Session) DeliveryLate(ctx context.Context) {
	if !s.do(s.board.SetLate) {
		return
	}
	s.GrantPromotion(ctx, models.PromotionLate)
}

// handle dispatches a batch and reports whether all of it reached the
// session. A batch cut short by a newer order stays in the window so the
// next order reads it again.
func (s *Session) handle(ctx context.Context, msgs []models.Message) bool {
	for _, msg := range msgs {
		if s.Closed() {
			return false
		}
		s.dispatcher.Dispatch(ctx, s, msg)
	}
	return !s.Closed()
}

func (s *Session) notify(ctx context.Context, n models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		slog.Error("deliver notification", "session_id", s.ID(), "title", n.Title, "error", err.Error())
	}
}

// close marks the session closed, cancels its loops and waits for them.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
