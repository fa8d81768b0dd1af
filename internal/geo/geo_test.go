package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendash/cansim/internal/config"
)

func testRoute(t *testing.T) *Route {
	t.Helper()
	r, err := NewRoute(config.RouteConfig{OriginLat: 52.52, OriginLon: 13.405, RadiusKm: 2.5})
	require.NoError(t, err)
	return r
}

func TestNewRouteValidation(t *testing.T) {
	_, err := NewRoute(config.RouteConfig{OriginLat: 52, OriginLon: 13, RadiusKm: 0})
	assert.Error(t, err)

	_, err = NewRoute(config.RouteConfig{OriginLat: 95, OriginLon: 13, RadiusKm: 1})
	assert.Error(t, err)

	_, err = NewRoute(config.RouteConfig{OriginLat: 52, OriginLon: 200, RadiusKm: 1})
	assert.Error(t, err)
}

func TestPositionContinuity(t *testing.T) {
	r := testRoute(t)

	prevLat, prevLon, _ := r.Position(0)
	for d := 0.01; d < 50; d += 0.01 { // 10m steps over several laps
		lat, lon, heading := r.Position(d)

		// successive 10m samples stay close together
		assert.InDelta(t, prevLat, lat, 0.001)
		assert.InDelta(t, prevLon, lon, 0.001)
		assert.GreaterOrEqual(t, heading, 0.0)
		assert.Less(t, heading, 360.0)

		prevLat, prevLon = lat, lon
	}
}

func TestPositionWrapsPerLap(t *testing.T) {
	r := testRoute(t)
	circumference := 2 * math.Pi * 2.5

	lat0, lon0, _ := r.Position(0)
	lat1, lon1, _ := r.Position(circumference)
	assert.InDelta(t, lat0, lat1, 1e-9)
	assert.InDelta(t, lon0, lon1, 1e-9)
}

func TestPositionStaysNearOrigin(t *testing.T) {
	r := testRoute(t)
	for d := 0.0; d < 100; d += 0.5 {
		lat, lon, _ := r.Position(d)
		assert.InDelta(t, 52.52, lat, 0.05)
		assert.InDelta(t, 13.405, lon, 0.05)
	}
}

func TestTrackLine(t *testing.T) {
	line, err := TrackLine([]Waypoint{
		{Lat: 52.52, Lon: 13.405},
		{Lat: 52.53, Lon: 13.41},
		{Lat: 52.54, Lon: 13.42},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, line.Coordinates().Length())

	// degenerate geometry is reported, not panicked on
	_, err = TrackLine([]Waypoint{{Lat: 1, Lon: 1}})
	assert.ErrorIs(t, err, ErrEmptyTrack)
}

func TestTrackWKT(t *testing.T) {
	wkt, err := TrackWKT([]Waypoint{
		{Lat: 52.52, Lon: 13.405},
		{Lat: 52.53, Lon: 13.41},
	})
	require.NoError(t, err)
	assert.Contains(t, wkt, "LINESTRING")

	_, err = TrackWKT([]Waypoint{{Lat: 1, Lon: 1}})
	assert.ErrorIs(t, err, ErrEmptyTrack)
}

func TestWebMercator(t *testing.T) {
	x, y := WebMercator(0, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, _ = WebMercator(180, 0)
	assert.InDelta(t, 20037508.34, x, 1.0)
}
