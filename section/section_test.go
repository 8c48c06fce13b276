package section

import (
	"errors"
	"math"
	"testing"

	"github.com/GrainArc/EarthWork/alignment"
	"github.com/GrainArc/EarthWork/errkind"
	"github.com/paulmach/orb"
)

// 平面 z = c + ax*x + ay*y，只在 minY <= y 时有数据
type plane struct {
	c, ax, ay float64
	minY      float64
}

func (p plane) ElevationAt(x, y float64) (float64, bool) {
	if y < p.minY {
		return 0, false
	}
	return p.c + p.ax*x + p.ay*y, true
}

func straight(t *testing.T, length float64) *alignment.Horizontal {
	t.Helper()
	h, err := alignment.FromPolyline([]orb.Point{{0, 0}, {length, 0}})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			return false
		}
	}
	return true
}

func TestOffsets(t *testing.T) {
	tests := []struct {
		width, step float64
		want        []float64
	}{
		{10, 5, []float64{-5, 0, 5}},
		{10, 3, []float64{-5, -3, 0, 3, 5}},
		{4, 10, []float64{-2, 0, 2}},
		{20, 2.5, []float64{-10, -7.5, -5, -2.5, 0, 2.5, 5, 7.5, 10}},
	}
	for _, tt := range tests {
		if got := Offsets(tt.width, tt.step); !equalFloats(got, tt.want) {
			t.Errorf("Offsets(%v, %v) = %v, want %v", tt.width, tt.step, got, tt.want)
		}
	}
}

func TestSample(t *testing.T) {
	h := straight(t, 100)
	design := plane{c: 10, minY: math.Inf(-1)}
	ground := plane{c: 12, ay: 0.1, minY: 0}

	cs, err := Sample(h, 50, 10, 5, design, ground)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(cs.Samples))
	}
	if cs.Center != (orb.Point{50, 0}) || cs.Normal != (orb.Point{0, 1}) {
		t.Errorf("center/normal = %v/%v", cs.Center, cs.Normal)
	}

	left := cs.Samples[2]
	if left.Offset != 5 || left.X != 50 || left.Y != 5 {
		t.Errorf("left sample = %+v", left)
	}
	if left.Ground == nil || math.Abs(*left.Ground-12.5) > 1e-12 {
		t.Errorf("left ground = %v, want 12.5", left.Ground)
	}

	right := cs.Samples[0]
	if right.Ground != nil || right.Design == nil {
		t.Errorf("right sample = %+v, want ground absent and design present", right)
	}
	if cs.MissingGround != 1 || cs.MissingDesign != 0 || cs.Covered() {
		t.Errorf("missing design/ground = %d/%d", cs.MissingDesign, cs.MissingGround)
	}
}

func TestSampleErrors(t *testing.T) {
	h := straight(t, 100)
	flat := plane{minY: math.Inf(-1)}

	for _, tc := range []struct{ width, step float64 }{{0, 1}, {10, 0}, {-1, 1}, {10, math.NaN()}} {
		_, err := Sample(h, 10, tc.width, tc.step, flat, flat)
		var ie *InvalidIntervalError
		if !errors.As(err, &ie) || !errors.Is(err, errkind.Domain) {
			t.Errorf("Sample(width=%v, step=%v) error = %v, want *InvalidIntervalError", tc.width, tc.step, err)
		}
	}

	_, err := Sample(h, 120, 10, 1, flat, flat)
	var se *alignment.StationOutOfRangeError
	if !errors.As(err, &se) {
		t.Errorf("Sample(station=120) error = %v, want *StationOutOfRangeError", err)
	}
}

func TestBuildDesignSurface(t *testing.T) {
	h := straight(t, 100)
	profile, err := alignment.NewVerticalProfile([]alignment.ProfilePoint{
		{Station: 0, Elevation: 10}, {Station: 100, Elevation: 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	table, _ := alignment.NewSuperelevationTable([]alignment.SuperelevationRow{
		{Station: 0, LeftSlope: 0.02, RightSlope: -0.02},
	})
	a, _ := alignment.New(h, profile, table)

	tin, err := BuildDesignSurface(a, Template{{Offset: -5}, {Offset: 0}, {Offset: 5}}, 25)
	if err != nil {
		t.Fatal(err)
	}
	// 纵坡0.1与单向横坡0.02合成一个平面 z = 10 + 0.1x + 0.02y
	for _, p := range [][2]float64{{50, 0}, {50, 5}, {50, -5}, {30, 2}, {99, -4}} {
		z, ok := tin.ElevationAt(p[0], p[1])
		want := 10 + 0.1*p[0] + 0.02*p[1]
		if !ok || math.Abs(z-want) > 1e-9 {
			t.Errorf("ElevationAt(%v) = %v, %v; want %v", p, z, ok, want)
		}
	}
	if _, ok := tin.ElevationAt(50, 6); ok {
		t.Error("design surface should not extend beyond the template")
	}

	noProfile, _ := alignment.New(h, nil, nil)
	if _, err := BuildDesignSurface(noProfile, Template{{Offset: -5}, {Offset: 5}}, 25); err == nil {
		t.Error("expected error without a vertical profile")
	}
	if _, err := BuildDesignSurface(a, Template{{Offset: -5}, {Offset: 5}}, 0); !errors.Is(err, errkind.Domain) {
		t.Errorf("interval 0 error = %v, want domain error", err)
	}
}

func TestToFeatureCollection(t *testing.T) {
	h := straight(t, 20)
	flat := plane{minY: math.Inf(-1)}
	var sections []*CrossSection
	for _, s := range alignment.Stations(20, 10) {
		cs, err := Sample(h, s, 4, 2, flat, flat)
		if err != nil {
			t.Fatal(err)
		}
		sections = append(sections, cs)
	}
	fc := ToFeatureCollection(append(sections, nil))
	if len(fc.Features) != 3 {
		t.Fatalf("features = %d, want 3", len(fc.Features))
	}
	f := fc.Features[1]
	if f.Properties["station"] != 10.0 {
		t.Errorf("station property = %v", f.Properties["station"])
	}
	if ls, ok := f.Geometry.(orb.LineString); !ok || len(ls) != 3 {
		t.Errorf("geometry = %#v", f.Geometry)
	}
}

func TestBuildDesignSurfaceOnCurve(t *testing.T) {
	// 半径300的圆弧，弧长约300
	var line []orb.Point
	for i := 0; i <= 60; i++ {
		theta := float64(i) / 60
		line = append(line, orb.Point{300 * math.Sin(theta), 300 - 300*math.Cos(theta)})
	}
	h, err := alignment.FromPolyline(line)
	if err != nil {
		t.Fatal(err)
	}
	profile, err := alignment.NewVerticalProfile([]alignment.ProfilePoint{
		{Station: 0, Elevation: 10}, {Station: h.Length(), Elevation: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := alignment.New(h, profile, nil)

	tin, err := BuildDesignSurface(a, Template{{Offset: -6}, {Offset: 0}, {Offset: 6}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	hull := len(tin.HullEdges())
	if got, want := len(tin.Triangles), 2*len(tin.Points)-2-hull; got != want {
		t.Errorf("triangles = %d, want %d (n=%d, hull=%d)", got, want, len(tin.Points), hull)
	}
	for _, p := range tin.Points {
		z, ok := tin.ElevationAt(p.X, p.Y)
		if !ok || math.Abs(z-10) > 1e-9 {
			t.Fatalf("ElevationAt(%v, %v) = %v, %v; want 10", p.X, p.Y, z, ok)
		}
	}
}
