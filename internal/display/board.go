// Package display keeps the state a client renders: the countdown, the cost,
// the sensor readouts and the map with its marker and trail.
package display

import (
	"fmt"
	"sync"

	"github.com/BearBump/PizzaTrack/internal/metrics"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/jonboulle/clockwork"
)

const (
	CaptionEstimated = "Estimated delivery time"
	CaptionLate      = "Pizza is late!"
	CaptionTotal     = "Total"
	CaptionFree      = "Pizza is on us"
	CostFree         = "$0"
	TimeZero         = "00:00"

	FlipImageUp   = "images/pizzabox_up.png"
	FlipImageDown = "images/pizzabox_down.png"
)

// MapView is the map widget: a tracked marker, the view centre and a trail of
// past positions.
type MapView interface {
	SetMarkerPosition(pos models.Position)
	PanTo(pos models.Position)
	AddTrailPoint(pos models.Position)
}

type Listener func(models.BoardSnapshot)

type Board struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	state     models.BoardSnapshot
	listeners []Listener
}

func NewBoard(clock clockwork.Clock, center, destination, partnerOffice models.Position) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Board{
		clock: clock,
		state: models.BoardSnapshot{
			DeliveryTime:    TimeZero,
			DeliveryCaption: CaptionEstimated,
			Cost:            CostFree,
			CostCaption:     CaptionTotal,
			Flipped:         "No",
			FlipImage:       FlipImageUp,
			Marker:          center,
			Center:          center,
			Trail:           []models.Position{},
			Destination:     destination,
			PartnerOffice:   partnerOffice,
			UpdatedAt:       clock.Now().UTC(),
		},
	}
}

// Subscribe registers a listener called with a fresh snapshot after every change.
func (b *Board) Subscribe(l Listener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

func (b *Board) Snapshot() models.BoardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() models.BoardSnapshot {
	s := b.state
	s.Trail = append([]models.Position(nil), b.state.Trail...)
	if b.state.Order != nil {
		o := *b.state.Order
		s.Order = &o
	}
	return s
}

func (b *Board) update(fn func(s *models.BoardSnapshot)) {
	b.mu.Lock()
	fn(&b.state)
	b.state.UpdatedAt = b.clock.Now().UTC()
	snap := b.snapshotLocked()
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// StartOrder resets the per-order fields. Sensor readouts and the trail are
// kept: they describe the box, not the order.
func (b *Board) StartOrder(order models.Order) {
	b.update(func(s *models.BoardSnapshot) {
		o := order
		s.Order = &o
		s.DeliveryCaption = CaptionEstimated
		s.Cost = fmt.Sprintf("$%d", order.Pizza.Price)
		s.CostCaption = CaptionTotal
		s.Flipped = "No"
		s.FlipImage = FlipImageUp
	})
}

func (b *Board) SetDeliveryTime(text string) {
	b.update(func(s *models.BoardSnapshot) { s.DeliveryTime = text })
}

func (b *Board) SetLate() {
	b.update(func(s *models.BoardSnapshot) {
		s.DeliveryCaption = CaptionLate
		s.DeliveryTime = TimeZero
	})
}

func (b *Board) SetFree() {
	b.update(func(s *models.BoardSnapshot) {
		s.Cost = CostFree
		s.CostCaption = CaptionFree
	})
}

func (b *Board) SetFlipped() {
	b.update(func(s *models.BoardSnapshot) {
		s.Flipped = "Yes"
		s.FlipImage = FlipImageDown
	})
}

func (b *Board) Temperature() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Temperature
}

func (b *Board) SetTemperature(text string) {
	b.update(func(s *models.BoardSnapshot) { s.Temperature = text })
}

func (b *Board) SetLandmarks(destination, partnerOffice models.Position) {
	b.update(func(s *models.BoardSnapshot) {
		s.Destination = destination
		s.PartnerOffice = partnerOffice
	})
}

func (b *Board) SetMarkerPosition(pos models.Position) {
	b.update(func(s *models.BoardSnapshot) { s.Marker = pos })
}

func (b *Board) PanTo(pos models.Position) {
	b.update(func(s *models.BoardSnapshot) { s.Center = pos })
}

// AddTrailPoint appends to the trail. Points are never evicted.
func (b *Board) AddTrailPoint(pos models.Position) {
	var n int
	b.update(func(s *models.BoardSnapshot) {
		s.Trail = append(s.Trail, pos)
		n = len(s.Trail)
	})
	metrics.SetTrailPoints(n)
}
