package telemetry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/BearBump/PizzaTrack/internal/models"
)

// SentenceGGA is the only NMEA sentence the pizza box reports.
const SentenceGGA = "$GPGGA"

// DecodePosition parses a GGA sentence
// ("$GPGGA,hhmmss,DDMM.MMMM,N,DDDMM.MMMM,E,...") into decimal degrees.
// Any other sentence, or a GGA sentence without a usable fix, yields false.
func DecodePosition(sentence string) (models.Position, bool) {
	fields := strings.Split(strings.TrimSpace(sentence), ",")
	if len(fields) < 6 || fields[0] != SentenceGGA {
		return models.Position{}, false
	}

	lat, ok := decodeCoordinate(fields[2], fields[3], "N", "S")
	if !ok {
		return models.Position{}, false
	}
	lon, ok := decodeCoordinate(fields[4], fields[5], "E", "W")
	if !ok {
		return models.Position{}, false
	}
	return models.Position{Lat: lat, Lon: lon}, true
}

// decodeCoordinate turns DDMM.MMMM (or DDDMM.MMMM) into degrees + minutes/60.
func decodeCoordinate(value, hemisphere, positive, negative string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	degrees := math.Floor(v / 100)
	minutes := v - degrees*100
	decimal := degrees + minutes/60

	switch strings.ToUpper(hemisphere) {
	case positive:
		return decimal, true
	case negative:
		return -decimal, true
	default:
		return 0, false
	}
}

// EncodePosition renders a minimal GGA sentence for pos, the inverse of
// DecodePosition. Used by the simulated device.
func EncodePosition(pos models.Position, hhmmss string) string {
	latHem, lonHem := "N", "E"
	lat, lon := pos.Lat, pos.Lon
	if lat < 0 {
		latHem, lat = "S", -lat
	}
	if lon < 0 {
		lonHem, lon = "W", -lon
	}
	return strings.Join([]string{
		SentenceGGA,
		hhmmss,
		encodeCoordinate(lat, 2), latHem,
		encodeCoordinate(lon, 3), lonHem,
	}, ",")
}

func encodeCoordinate(v float64, degreeDigits int) string {
	deg := math.Floor(v)
	minutes := (v - deg) * 60
	return fmt.Sprintf("%0*d%07.4f", degreeDigits, int(deg), minutes)
}
