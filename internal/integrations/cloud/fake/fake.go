package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/BearBump/PizzaTrack/internal/integrations/cloud"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/BearBump/PizzaTrack/internal/telemetry"
)

// FakeClient simulates one pizza box driving from the restaurant towards the
// customer: every poll yields a GPS fix and a temperature reading that slowly
// drops, and at a step derived from the device id the box lands upside down.
type FakeClient struct {
	from, to models.Position
	steps    int

	mu   sync.Mutex
	step map[string]int
}

var (
	defaultFrom = models.Position{Lat: 63.4206897, Lon: 10.4372859}
	defaultTo   = models.Position{Lat: 59.919629, Lon: 10.687080}
)

const (
	DeviceID   = "pizza-box-sim"
	DeviceName = "Simulated pizza box"

	startTemperature = 65.0
	coolingPerStep   = 1.5
)

func New() *FakeClient {
	return NewRoute(defaultFrom, defaultTo, 120)
}

func NewRoute(from, to models.Position, steps int) *FakeClient {
	if steps <= 0 {
		steps = 1
	}
	return &FakeClient{from: from, to: to, steps: steps, step: map[string]int{}}
}

func (f *FakeClient) ListDevices(ctx context.Context) ([]models.Device, error) {
	return []models.Device{{ID: DeviceID, Name: DeviceName}}, nil
}

func (f *FakeClient) GetMessages(ctx context.Context, deviceID string, w cloud.Window) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	n := f.step[deviceID]
	f.step[deviceID] = n + 1
	f.mu.Unlock()

	ts := w.End.UTC().Format("150405")
	at := w.End.UTC()

	msgs := []models.Message{
		models.NewMessage(models.AppIDPosition, telemetry.EncodePosition(f.positionAt(n), ts)),
		models.NewMessage(models.AppIDTemperature, fmt.Sprintf("%.1f", startTemperature-coolingPerStep*float64(n))),
	}
	if n == flipStep(deviceID) {
		msgs = append(msgs, models.NewMessage(models.AppIDFlip, models.FlipUpsideDown))
	}
	for i := range msgs {
		msgs[i].DeviceID = deviceID
		msgs[i].ReceivedAt = &at
	}
	return msgs, nil
}

func (f *FakeClient) positionAt(n int) models.Position {
	if n > f.steps {
		n = f.steps
	}
	k := float64(n) / float64(f.steps)
	return models.Position{
		Lat: f.from.Lat + (f.to.Lat-f.from.Lat)*k,
		Lon: f.from.Lon + (f.to.Lon-f.from.Lon)*k,
	}
}

// flipStep is deterministic per device so a demo behaves the same every run.
func flipStep(deviceID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))
	return 10 + int(h.Sum32()%20)
}
