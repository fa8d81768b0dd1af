package geo

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/opendash/cansim/internal/config"
)

// ErrEmptyTrack is returned when a track is requested with fewer than two
// waypoints.
var ErrEmptyTrack = errors.New("track needs at least 2 waypoints")

const kmPerDegreeLat = 111.32

// Route synthesizes positions along a circular track centered on an origin.
// The simulator maps odometer distance onto the loop so consumers get a
// continuous, plausible position feed without a real GPS source.
type Route struct {
	originLat       float64
	originLon       float64
	radiusKm        float64
	circumferenceKm float64
}

// NewRoute validates cfg and builds the route.
func NewRoute(cfg config.RouteConfig) (*Route, error) {
	if cfg.RadiusKm <= 0 {
		return nil, fmt.Errorf("invalid route radius %.2f km: must be positive", cfg.RadiusKm)
	}
	if cfg.OriginLat < -85 || cfg.OriginLat > 85 {
		return nil, fmt.Errorf("invalid route origin latitude %.4f", cfg.OriginLat)
	}
	if cfg.OriginLon < -180 || cfg.OriginLon > 180 {
		return nil, fmt.Errorf("invalid route origin longitude %.4f", cfg.OriginLon)
	}
	return &Route{
		originLat:       cfg.OriginLat,
		originLon:       cfg.OriginLon,
		radiusKm:        cfg.RadiusKm,
		circumferenceKm: 2 * math.Pi * cfg.RadiusKm,
	}, nil
}

// Position maps a travelled distance in km onto the loop and returns the
// geographic position plus the heading of travel in degrees clockwise from
// north.
func (r *Route) Position(distanceKm float64) (lat, lon, heading float64) {
	angle := math.Mod(distanceKm, r.circumferenceKm) / r.circumferenceKm * 2 * math.Pi

	lat = r.originLat + r.radiusKm*math.Cos(angle)/kmPerDegreeLat
	lon = r.originLon + r.radiusKm*math.Sin(angle)/(kmPerDegreeLat*math.Cos(r.originLat*math.Pi/180))

	// tangent of a clockwise loop that starts due north of the origin
	heading = math.Mod(angle/math.Pi*180+90, 360)
	return lat, lon, heading
}

// Waypoint is one recorded position of a drive.
type Waypoint struct {
	Lat float64
	Lon float64
}

// TrackLine builds a LineString from recorded waypoints, used when exporting
// the driven track alongside a recording.
func TrackLine(points []Waypoint) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, ErrEmptyTrack
	}
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.Lon, p.Lat)
	}
	seq := geom.NewSequence(flatCoords, geom.DimXY)
	line, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, err
	}
	return line, nil
}

// TrackWKT renders recorded waypoints as a WKT LINESTRING.
func TrackWKT(points []Waypoint) (string, error) {
	line, err := TrackLine(points)
	if err != nil {
		return "", err
	}
	return line.AsText(), nil
}

// WebMercator projects a WGS84 position to EPSG:3857 for consumers that
// index telemetry spatially.
func WebMercator(lon, lat float64) (x, y float64) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ = f(lon, lat, 0)
	return x, y
}
