package cloud

import (
	"context"
	"time"

	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/pkg/errors"
)

// ErrNoDevices is returned when the account has no devices to track.
var ErrNoDevices = errors.New("no devices found")

// Window is the [Start, End) range of one telemetry request.
type Window struct {
	Start time.Time
	End   time.Time
}

type Client interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	GetMessages(ctx context.Context, deviceID string, w Window) ([]models.Message, error)
}
