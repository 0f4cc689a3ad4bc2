package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	m   map[string]string
	err error
}

func newMemStore() *memStore { return &memStore{m: map[string]string{}} }

func (s *memStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) SetSetting(ctx context.Context, key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.m[key] = value
	return nil
}

func TestService_TokenAndDevice(t *testing.T) {
	st := newMemStore()
	svc := New(st)
	ctx := context.Background()

	require.NoError(t, svc.SetAPIToken(ctx, "  abc \n"))
	tok, err := svc.APIToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc", tok)

	require.ErrorIs(t, svc.SetDeviceID(ctx, " "), ErrInvalid)
	require.NoError(t, svc.SetDeviceID(ctx, "box-1"))
	id, err := svc.DeviceID(ctx)
	require.NoError(t, err)
	require.Equal(t, "box-1", id)
	require.Equal(t, "box-1", st.m[KeyDeviceID])
}

func TestService_LandmarksDefaults(t *testing.T) {
	svc := New(newMemStore())
	dest, partner, err := svc.Landmarks(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultDestination, dest)
	require.Equal(t, DefaultPartnerOffice, partner)
}

func TestService_LandmarksRoundTripAndGarbage(t *testing.T) {
	st := newMemStore()
	svc := New(st)
	ctx := context.Background()

	require.NoError(t, svc.SetLandmarks(ctx, models.Position{Lat: 1.5, Lon: 2.5}, models.Position{Lat: -3, Lon: 4}))
	dest, partner, err := svc.Landmarks(ctx)
	require.NoError(t, err)
	require.Equal(t, models.Position{Lat: 1.5, Lon: 2.5}, dest)
	require.Equal(t, models.Position{Lat: -3, Lon: 4}, partner)

	st.m[KeyDestLat] = "not-a-number"
	dest, _, err = svc.Landmarks(ctx)
	require.NoError(t, err)
	require.Equal(t, DefaultDestination.Lat, dest.Lat)
	require.Equal(t, 2.5, dest.Lon)

	require.ErrorIs(t, svc.SetLandmarks(ctx, models.Position{Lat: 91}, models.Position{}), ErrInvalid)
}

func TestService_View(t *testing.T) {
	st := newMemStore()
	svc := New(st)
	ctx := context.Background()

	v, err := svc.View(ctx)
	require.NoError(t, err)
	require.False(t, v.HasAPIToken)

	require.NoError(t, svc.SetAPIToken(ctx, "tok"))
	v, err = svc.View(ctx)
	require.NoError(t, err)
	require.True(t, v.HasAPIToken)

	st.err = errors.New("store down")
	_, err = svc.View(ctx)
	require.Error(t, err)
}
