package geo

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/wopr-sim/wopr/internal/game"
)

func TestCoords3857From4326_Origin(t *testing.T) {
	point, err := Coords3857From4326(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	coords, ok := point.Coordinates()
	if !ok {
		t.Fatal("expected non-empty point")
	}
	if math.Abs(coords.XY.X) > 1e-6 || math.Abs(coords.XY.Y) > 1e-6 {
		t.Errorf("expected (0,0), got (%f,%f)", coords.XY.X, coords.XY.Y)
	}
}

func TestCoords3857From4326_Antimeridian(t *testing.T) {
	point, err := Coords3857From4326(180, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	coords, _ := point.Coordinates()
	// Half the Web Mercator world width.
	if math.Abs(coords.XY.X-20037508.34) > 1 {
		t.Errorf("expected x≈20037508.34, got %f", coords.XY.X)
	}
}

func TestCoords3857From4326_Invalid(t *testing.T) {
	_, err := Coords3857From4326(200, 0)
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestTrajectory_Endpoints(t *testing.T) {
	route := game.Route{Start: [2]float64{-100, 45}, End: [2]float64{37, 55}}

	ls, err := Trajectory(route, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seq := ls.Coordinates()
	if seq.Length() != 9 {
		t.Fatalf("expected 9 points, got %d", seq.Length())
	}

	start, _ := Coords3857From4326(-100, 45)
	end, _ := Coords3857From4326(37, 55)
	sc, _ := start.Coordinates()
	ec, _ := end.Coordinates()

	if d := distance(seq.GetXY(0).X, seq.GetXY(0).Y, sc.XY.X, sc.XY.Y); d > 1 {
		t.Errorf("first point off by %f m", d)
	}
	if d := distance(seq.GetXY(8).X, seq.GetXY(8).Y, ec.XY.X, ec.XY.Y); d > 1 {
		t.Errorf("last point off by %f m", d)
	}
}

func TestTrajectory_PolarArc(t *testing.T) {
	// The great circle from North America to Moscow passes far north of
	// both endpoints.
	route := game.Route{Start: [2]float64{-100, 45}, End: [2]float64{37, 55}}
	mid, err := Position(route, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, _ := mid.Coordinates()
	north, _ := Coords3857From4326(0, 60)
	nc, _ := north.Coordinates()
	if c.XY.Y <= nc.XY.Y {
		t.Errorf("expected midpoint north of 60°, got y=%f", c.XY.Y)
	}
}

func TestTrajectory_Invalid(t *testing.T) {
	_, err := Trajectory(game.Route{Start: [2]float64{0, 95}, End: [2]float64{0, 0}}, 4)
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
	if wkt := TrajectoryWKT(game.Route{Start: [2]float64{0, 95}}); wkt != "" {
		t.Errorf("expected empty WKT, got %q", wkt)
	}
}

func TestTrajectory_SinglePointRoute(t *testing.T) {
	// Both endpoints project to one XY, which is not a valid LineString.
	route := game.Route{Start: [2]float64{30, 50}, End: [2]float64{30, 50}}

	_, err := Trajectory(route, 4)
	if err == nil {
		t.Fatal("expected constructor error for a single-point route")
	}
	if errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected a geometry error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to build trajectory") {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if wkt := TrajectoryWKT(route); wkt != "" {
		t.Errorf("expected empty WKT, got %q", wkt)
	}
}

func TestTrajectoryWKT(t *testing.T) {
	route, ok := game.DefaultTheater().Route("MOSCOW")
	if !ok {
		t.Fatal("expected default route for MOSCOW")
	}
	wkt := TrajectoryWKT(route)
	if !strings.HasPrefix(wkt, "LINESTRING(") {
		t.Errorf("unexpected WKT %q", wkt)
	}
	if n := strings.Count(wkt, ","); n != DefaultSamples {
		t.Errorf("expected %d separators, got %d", DefaultSamples, n)
	}
}

func TestPosition_ClampsProgress(t *testing.T) {
	route := game.Route{Start: [2]float64{10, 10}, End: [2]float64{20, 20}}
	before, _ := Position(route, -1)
	start, _ := Position(route, 0)
	after, _ := Position(route, 2)
	end, _ := Position(route, 1)

	b, _ := before.Coordinates()
	s, _ := start.Coordinates()
	a, _ := after.Coordinates()
	e, _ := end.Coordinates()
	if distance(b.XY.X, b.XY.Y, s.XY.X, s.XY.Y) > 1e-6 {
		t.Error("negative progress should clamp to start")
	}
	if distance(a.XY.X, a.XY.Y, e.XY.X, e.XY.Y) > 1e-6 {
		t.Error("progress above one should clamp to end")
	}
}

func TestPosition_DegenerateRoute(t *testing.T) {
	route := game.Route{Start: [2]float64{30, 50}, End: [2]float64{30, 50}}
	p, err := Position(route, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := Coords3857From4326(30, 50)
	pc, _ := p.Coordinates()
	wc, _ := want.Coordinates()
	if distance(pc.XY.X, pc.XY.Y, wc.XY.X, wc.XY.Y) > 1e-6 {
		t.Errorf("expected fixed point, got (%f,%f)", pc.XY.X, pc.XY.Y)
	}
}

func distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}
