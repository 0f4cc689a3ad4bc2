package telemetry

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BearBump/PizzaTrack/internal/metrics"
	"github.com/BearBump/PizzaTrack/internal/models"
)

// ColdThreshold is the temperature below which a pizza counts as cold.
const ColdThreshold = 40.0

// Target is the per-session state the handlers mutate. The dispatcher keeps
// no state of its own.
type Target interface {
	ShowFlipped()
	MoveMarker(pos models.Position)
	DisplayedTemperature() string
	ShowTemperature(text string)
	// GrantPromotion makes the pizza free; it reports false when the reason
	// was already granted in this session.
	GrantPromotion(ctx context.Context, reason models.PromotionReason) bool
}

type Dispatcher struct {
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Dispatch routes one message to the handler of its kind. Unknown kinds are
// logged and dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, t Target, msg models.Message) {
	metrics.RecordMessage(msg.Kind.String())

	switch msg.Kind {
	case models.KindFlip:
		d.handleFlip(ctx, t, msg.Payload)
	case models.KindPosition:
		d.handlePosition(t, msg.Payload)
	case models.KindTemperature:
		d.handleTemperature(ctx, t, msg.Payload)
	case models.KindUnknown:
		d.logger.Warn("unhandled app id", "app_id", msg.AppID, "data", msg.Payload)
	}
}

func (d *Dispatcher) handleFlip(ctx context.Context, t Target, payload string) {
	if strings.TrimSpace(payload) != models.FlipUpsideDown {
		return
	}
	t.ShowFlipped()
	if t.GrantPromotion(ctx, models.PromotionFlipped) {
		d.logger.Info("pizza flipped, promotion granted")
	}
}

func (d *Dispatcher) handlePosition(t Target, payload string) {
	pos, ok := DecodePosition(payload)
	if !ok {
		return
	}
	t.MoveMarker(pos)
}

func (d *Dispatcher) handleTemperature(ctx context.Context, t Target, payload string) {
	reading := strings.TrimSpace(payload)
	if CrossesBelow(t.DisplayedTemperature(), reading, ColdThreshold) {
		if t.GrantPromotion(ctx, models.PromotionCold) {
			d.logger.Info("pizza went cold, promotion granted", "temperature", reading)
		}
	}
	t.ShowTemperature(reading)
}

// CrossesBelow reports whether next is under threshold while prev was at or
// above it. Unparsable values never cross.
func CrossesBelow(prev, next string, threshold float64) bool {
	p, err := strconv.ParseFloat(strings.TrimSpace(prev), 64)
	if err != nil {
		return false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(next), 64)
	if err != nil {
		return false
	}
	return n < threshold && p >= threshold
}
