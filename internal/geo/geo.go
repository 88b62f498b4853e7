package geo

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wopr-sim/wopr/internal/game"
	"github.com/wroge/wgs84"
)

// Routes are authored in EPSG:4326 and stored in EPSG:3857 so the
// database and display stream share one planar projection.

// DefaultSamples is the number of segments in a recorded trajectory.
const DefaultSamples = 16

// maxLatitude is the Web Mercator clamp.
const maxLatitude = 85.05112878

// ErrInvalidCoordinates is returned when a route endpoint is out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var to3857 = wgs84.EPSG().Transform(4326, 3857)

// Coords3857From4326 creates a Web Mercator point from a longitude and latitude.
func Coords3857From4326(longitude, latitude float64) (geom.Point, error) {
	if !valid(longitude, latitude) {
		return geom.Point{}, ErrInvalidCoordinates
	}
	return point(project(longitude, latitude))
}

// Trajectory samples a route into a projected LineString with the given
// number of segments. Intermediate points follow the great circle.
func Trajectory(r game.Route, samples int) (geom.LineString, error) {
	if !valid(r.Start[0], r.Start[1]) || !valid(r.End[0], r.End[1]) {
		return geom.LineString{}, ErrInvalidCoordinates
	}
	if samples < 1 {
		samples = 1
	}

	flat := make([]float64, 0, (samples+1)*2)
	for i := 0; i <= samples; i++ {
		lon, lat := interpolate(r, float64(i)/float64(samples))
		x, y := project(lon, lat)
		flat = append(flat, x, y)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build trajectory: %w", err)
	}
	return ls, nil
}

// TrajectoryWKT returns the WKT of a sampled route, or "" if no trajectory
// can be built from it.
func TrajectoryWKT(r game.Route) string {
	ls, err := Trajectory(r, DefaultSamples)
	if err != nil {
		return ""
	}
	return ls.AsText()
}

// Position returns where a weapon is along its route. progress is clamped
// to [0,1].
func Position(r game.Route, progress float64) (geom.Point, error) {
	if !valid(r.Start[0], r.Start[1]) || !valid(r.End[0], r.End[1]) {
		return geom.Point{}, ErrInvalidCoordinates
	}
	return Coords3857From4326(interpolate(r, min(1, max(0, progress))))
}

func point(x, y float64) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}, Type: geom.DimXY})
	if err != nil {
		return geom.Point{}, fmt.Errorf("failed to create point: %w", err)
	}
	return pt, nil
}

func valid(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90 &&
		!math.IsNaN(lon) && !math.IsNaN(lat)
}

func project(lon, lat float64) (float64, float64) {
	lat = min(maxLatitude, max(-maxLatitude, lat))
	x, y, _ := to3857(lon, lat, 0)
	return x, y
}

// interpolate returns the point at fraction f along the great circle from
// r.Start to r.End, in degrees.
func interpolate(r game.Route, f float64) (float64, float64) {
	lon1, lat1 := radians(r.Start[0]), radians(r.Start[1])
	lon2, lat2 := radians(r.End[0]), radians(r.End[1])

	d := 2 * math.Asin(math.Sqrt(
		math.Pow(math.Sin((lat2-lat1)/2), 2)+
			math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin((lon2-lon1)/2), 2),
	))
	if d == 0 {
		return r.Start[0], r.Start[1]
	}

	a := math.Sin((1-f)*d) / math.Sin(d)
	b := math.Sin(f*d) / math.Sin(d)
	x := a*math.Cos(lat1)*math.Cos(lon1) + b*math.Cos(lat2)*math.Cos(lon2)
	y := a*math.Cos(lat1)*math.Sin(lon1) + b*math.Cos(lat2)*math.Sin(lon2)
	z := a*math.Sin(lat1) + b*math.Sin(lat2)

	lat := math.Atan2(z, math.Sqrt(x*x+y*y))
	lon := math.Atan2(y, x)
	return lon * 180 / math.Pi, lat * 180 / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
