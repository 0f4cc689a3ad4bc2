package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/pkg/errors"
)

// Keys match the ones the browser demo kept in local storage.
const (
	KeyAPIToken   = "apiKey"
	KeyDeviceID   = "deviceId"
	KeyDestLat    = "destLat"
	KeyDestLon    = "destLon"
	KeyPartnerLat = "boschLat"
	KeyPartnerLon = "boschLon"
)

var (
	DefaultCenter        = models.Position{Lat: 63.4206897, Lon: 10.4372859}
	DefaultDestination   = models.Position{Lat: 59.919629, Lon: 10.687080}
	DefaultPartnerOffice = models.Position{Lat: 59.914682, Lon: 10.798602}
)

// ErrInvalid marks a rejected setting value.
var ErrInvalid = errors.New("invalid setting")

type Store interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// View is what clients see; the token is reported only as present or not.
type View struct {
	HasAPIToken   bool            `json:"has_api_token"`
	DeviceID      string          `json:"device_id"`
	Destination   models.Position `json:"destination"`
	PartnerOffice models.Position `json:"partner_office"`
}

func (s *Service) APIToken(ctx context.Context) (string, error) {
	v, _, err := s.store.GetSetting(ctx, KeyAPIToken)
	return v, err
}

func (s *Service) SetAPIToken(ctx context.Context, token string) error {
	return s.store.SetSetting(ctx, KeyAPIToken, strings.TrimSpace(token))
}

func (s *Service) DeviceID(ctx context.Context) (string, error) {
	v, _, err := s.store.GetSetting(ctx, KeyDeviceID)
	return v, err
}

func (s *Service) SetDeviceID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.Wrap(ErrInvalid, "device id is required")
	}
	return s.store.SetSetting(ctx, KeyDeviceID, id)
}

// Landmarks returns the destination and partner-office markers, falling back
// to the demo coordinates for anything unset or unparsable.
func (s *Service) Landmarks(ctx context.Context) (dest, partner models.Position, err error) {
	dest, err = s.position(ctx, KeyDestLat, KeyDestLon, DefaultDestination)
	if err != nil {
		return models.Position{}, models.Position{}, err
	}
	partner, err = s.position(ctx, KeyPartnerLat, KeyPartnerLon, DefaultPartnerOffice)
	if err != nil {
		return models.Position{}, models.Position{}, err
	}
	return dest, partner, nil
}

func (s *Service) SetLandmarks(ctx context.Context, dest, partner models.Position) error {
	for _, p := range []models.Position{dest, partner} {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return errors.Wrap(ErrInvalid, "coordinates out of range")
		}
	}
	kv := [][2]string{
		{KeyDestLat, formatCoord(dest.Lat)},
		{KeyDestLon, formatCoord(dest.Lon)},
		{KeyPartnerLat, formatCoord(partner.Lat)},
		{KeyPartnerLon, formatCoord(partner.Lon)},
	}
	for _, e := range kv {
		if err := s.store.SetSetting(ctx, e[0], e[1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) View(ctx context.Context) (View, error) {
	token, err := s.APIToken(ctx)
	if err != nil {
		return View{}, err
	}
	device, err := s.DeviceID(ctx)
	if err != nil {
		return View{}, err
	}
	dest, partner, err := s.Landmarks(ctx)
	if err != nil {
		return View{}, err
	}
	return View{
		HasAPIToken:   token != "",
		DeviceID:      device,
		Destination:   dest,
		PartnerOffice: partner,
	}, nil
}

func (s *Service) position(ctx context.Context, latKey, lonKey string, def models.Position) (models.Position, error) {
	lat, err := s.coord(ctx, latKey, def.Lat)
	if err != nil {
		return models.Position{}, err
	}
	lon, err := s.coord(ctx, lonKey, def.Lon)
	if err != nil {
		return models.Position{}, err
	}
	return models.Position{Lat: lat, Lon: lon}, nil
}

func (s *Service) coord(ctx context.Context, key string, def float64) (float64, error) {
	v, ok, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, nil
	}
	return f, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
