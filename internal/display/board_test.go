package display

import (
	"testing"
	"time"

	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newTestBoard() (*Board, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	b := NewBoard(clock,
		models.Position{Lat: 63.4206897, Lon: 10.4372859},
		models.Position{Lat: 59.919629, Lon: 10.687080},
		models.Position{Lat: 59.914682, Lon: 10.798602},
	)
	return b, clock
}

func TestBoard_Defaults(t *testing.T) {
	b, _ := newTestBoard()
	s := b.Snapshot()
	require.Equal(t, TimeZero, s.DeliveryTime)
	require.Equal(t, "No", s.Flipped)
	require.Equal(t, s.Center, s.Marker)
	require.Empty(t, s.Trail)
	require.Nil(t, s.Order)
}

func TestBoard_StartOrderResetsOrderFieldsOnly(t *testing.T) {
	b, _ := newTestBoard()
	b.SetTemperature("41")
	b.AddTrailPoint(models.Position{Lat: 1, Lon: 2})
	b.SetFlipped()
	b.SetFree()

	b.StartOrder(models.Order{SessionID: "s1", Pizza: models.Pizza{Name: "Margherita", Price: 12}})

	s := b.Snapshot()
	require.Equal(t, "$12", s.Cost)
	require.Equal(t, CaptionTotal, s.CostCaption)
	require.Equal(t, "No", s.Flipped)
	require.Equal(t, FlipImageUp, s.FlipImage)
	require.Equal(t, "41", s.Temperature)
	require.Len(t, s.Trail, 1)
	require.Equal(t, "s1", s.Order.SessionID)
}

func TestBoard_MapView(t *testing.T) {
	b, _ := newTestBoard()
	var mv MapView = b
	p := models.Position{Lat: 63.5, Lon: 10.5}
	mv.SetMarkerPosition(p)
	mv.PanTo(p)
	mv.AddTrailPoint(p)
	mv.AddTrailPoint(p)

	s := b.Snapshot()
	require.Equal(t, p, s.Marker)
	require.Equal(t, p, s.Center)
	require.Len(t, s.Trail, 2)
}

func TestBoard_SnapshotIsCopy(t *testing.T) {
	b, _ := newTestBoard()
	b.AddTrailPoint(models.Position{Lat: 1, Lon: 1})
	s := b.Snapshot()
	s.Trail[0].Lat = 99
	require.Equal(t, 1.0, b.Snapshot().Trail[0].Lat)
}

func TestBoard_ListenersGetSnapshots(t *testing.T) {
	b, clock := newTestBoard()
	var got []models.BoardSnapshot
	b.Subscribe(func(s models.BoardSnapshot) { got = append(got, s) })

	clock.Advance(time.Second)
	b.SetDeliveryTime("29:59")
	b.SetLate()

	require.Len(t, got, 2)
	require.Equal(t, "29:59", got[0].DeliveryTime)
	require.Equal(t, CaptionLate, got[1].DeliveryCaption)
	require.Equal(t, TimeZero, got[1].DeliveryTime)
	require.Equal(t, clock.Now().UTC(), got[1].UpdatedAt)
}
