package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/stretchr/testify/suite"
)

type fakeTarget struct {
	flipped     bool
	markers     []models.Position
	temperature string
	granted     map[models.PromotionReason]bool
	grants      []models.PromotionReason
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{granted: map[models.PromotionReason]bool{}}
}

func (f *fakeTarget) ShowFlipped()                   { f.flipped = true }
func (f *fakeTarget) MoveMarker(pos models.Position) { f.markers = append(f.markers, pos) }
func (f *fakeTarget) DisplayedTemperature() string   { return f.temperature }
func (f *fakeTarget) ShowTemperature(text string)    { f.temperature = text }
func (f *fakeTarget) GrantPromotion(ctx context.Context, reason models.PromotionReason) bool {
	if f.granted[reason] {
		return false
	}
	f.granted[reason] = true
	f.grants = append(f.grants, reason)
	return true
}

type DispatcherSuite struct {
	suite.Suite
	d *Dispatcher
	t *fakeTarget
}

func (s *DispatcherSuite) SetupTest() {
	s.d = NewDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.t = newFakeTarget()
}

func (s *DispatcherSuite) dispatch(appID, payload string) {
	s.d.Dispatch(context.Background(), s.t, models.NewMessage(appID, payload))
}

func (s *DispatcherSuite) TestFlip_GrantsOnce() {
	s.dispatch("FLIP", "UPSIDE_DOWN")
	s.True(s.t.flipped)
	s.Equal([]models.PromotionReason{models.PromotionFlipped}, s.t.grants)

	s.dispatch("FLIP", "UPSIDE_DOWN")
	s.Len(s.t.grants, 1)
}

func (s *DispatcherSuite) TestFlip_NormalIsIgnored() {
	s.dispatch("FLIP", "NORMAL")
	s.False(s.t.flipped)
	s.Empty(s.t.grants)
}

func (s *DispatcherSuite) TestPosition_MovesMarker() {
	s.dispatch("GPS", "$GPGGA,120000,6325.2414,N,01026.2372,E")
	s.Require().Len(s.t.markers, 1)
	s.InDelta(63.420690, s.t.markers[0].Lat, 1e-6)
}

func (s *DispatcherSuite) TestPosition_UndecodableIsNoop() {
	s.dispatch("GPS", "$GPRMC,120000,6325.2414,N,01026.2372,E")
	s.Empty(s.t.markers)
	s.Empty(s.t.grants)
}

func (s *DispatcherSuite) TestTemperature_GrantsOnFirstCrossing() {
	for _, v := range []string{"45", "42", "38", "35"} {
		s.dispatch("TEMP", v)
	}
	s.Equal([]models.PromotionReason{models.PromotionCold}, s.t.grants)
	s.Equal("35", s.t.temperature)
}

func (s *DispatcherSuite) TestTemperature_SecondCrossingInSessionIgnored() {
	for _, v := range []string{"45", "38", "50", "30"} {
		s.dispatch("TEMP", v)
	}
	s.Len(s.t.grants, 1)
}

func (s *DispatcherSuite) TestTemperature_FirstReadingBelowDoesNotGrant() {
	s.dispatch("TEMP", "20")
	s.Empty(s.t.grants)
	s.Equal("20", s.t.temperature)
}

func (s *DispatcherSuite) TestUnknown_Dropped() {
	s.dispatch("HUMID", "80")
	s.False(s.t.flipped)
	s.Empty(s.t.markers)
	s.Empty(s.t.grants)
	s.Empty(s.t.temperature)
}

func (s *DispatcherSuite) TestCrossesBelow() {
	s.True(CrossesBelow("40", "39.9", ColdThreshold))
	s.False(CrossesBelow("39", "38", ColdThreshold))
	s.False(CrossesBelow("45", "40", ColdThreshold))
	s.False(CrossesBelow("", "10", ColdThreshold))
	s.False(CrossesBelow("45", "n/a", ColdThreshold))
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}
