package earthwork

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/GrainArc/EarthWork/alignment"
	"github.com/GrainArc/EarthWork/errkind"
	"github.com/paulmach/orb"
)

// 以函数表示的曲面，ok 为 nil 时处处有数据
type funcSurface struct {
	z  func(x, y float64) float64
	ok func(x, y float64) bool
}

func (s funcSurface) ElevationAt(x, y float64) (float64, bool) {
	if s.ok != nil && !s.ok(x, y) {
		return 0, false
	}
	return s.z(x, y), true
}

func flatAt(z float64) funcSurface {
	return funcSurface{z: func(float64, float64) float64 { return z }}
}

func straight(t *testing.T, length float64) *alignment.Alignment {
	t.Helper()
	h, err := alignment.FromPolyline([]orb.Point{{0, 0}, {length, 0}})
	if err != nil {
		t.Fatal(err)
	}
	a, err := alignment.New(h, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSectionAreasSplitsCutAndFill(t *testing.T) {
	a := SectionAreas([]float64{-5, 0, 5}, []float64{-2, 0, 3})
	if a.Fill != 5 || a.Cut != 7.5 {
		t.Errorf("SectionAreas = %+v, want fill 5 cut 7.5", a)
	}
	if net := (-2.0 + 0 + 3) * 5; a.Cut-a.Fill == net {
		t.Errorf("areas collapsed into a single net value %v", net)
	}
}

func TestSectionAreasAllCut(t *testing.T) {
	a := SectionAreas([]float64{-5, -2.5, 0, 2.5, 5}, []float64{1, 2, 0.5, 3, 1})
	if a.Fill != 0 || !(a.Cut > 0) {
		t.Errorf("SectionAreas = %+v, want fill 0 and positive cut", a)
	}
}

func TestSectionAreasZeroCrossing(t *testing.T) {
	tests := []struct {
		offsets, diffs []float64
		cut, fill      float64
	}{
		{[]float64{0, 10}, []float64{2, -2}, 5, 5},
		{[]float64{0, 10}, []float64{-2, 2}, 5, 5},
		{[]float64{0, 4}, []float64{3, -1}, 4.5, 0.5},
		{[]float64{0, 10}, []float64{0, 0}, 0, 0},
	}
	for _, tt := range tests {
		a := SectionAreas(tt.offsets, tt.diffs)
		if math.Abs(a.Cut-tt.cut) > 1e-12 || math.Abs(a.Fill-tt.fill) > 1e-12 {
			t.Errorf("SectionAreas(%v, %v) = %+v, want cut %v fill %v", tt.offsets, tt.diffs, a, tt.cut, tt.fill)
		}
	}
}

func TestTwoStationAverageEndArea(t *testing.T) {
	a := straight(t, 100)
	// 宽10的断面，高差 1 + 0.01x，即 0 号断面面积10，100 号断面面积20
	ground := funcSurface{z: func(x, _ float64) float64 { return 1 + 0.01*x }}

	res, err := Compute(context.Background(), a, flatAt(0), ground, 100, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(res.Points))
	}
	p0, p1 := res.Points[0], res.Points[1]
	if math.Abs(p0.CutArea-10) > 1e-9 || math.Abs(p1.CutArea-20) > 1e-9 {
		t.Errorf("cut areas = %v, %v; want 10, 20", p0.CutArea, p1.CutArea)
	}
	if p0.CumulativeCut != 0 || p0.CutVolume != 0 {
		t.Errorf("station 0 should start from zero: %+v", p0)
	}
	if math.Abs(p1.CutVolume-1500) > 1e-6 || math.Abs(p1.CumulativeCut-1500) > 1e-6 {
		t.Errorf("station 100 = %+v, want cut volume and cumulative cut 1500", p1)
	}
	if p1.FillVolume != 0 || math.Abs(p1.CumulativeNet-1500) > 1e-6 {
		t.Errorf("station 100 fill/net = %v/%v", p1.FillVolume, p1.CumulativeNet)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestAllCutIsMonotone(t *testing.T) {
	a := straight(t, 500)
	ground := funcSurface{z: func(x, y float64) float64 { return 2 + math.Sin(x/30) + 0.1*math.Cos(y) }}

	res, err := Compute(context.Background(), a, flatAt(0), ground, 20, 12, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(res.Points); i++ {
		if res.Points[i].CumulativeCut < res.Points[i-1].CumulativeCut {
			t.Fatalf("cumulative cut decreased at station %v", res.Points[i].Station)
		}
		if res.Points[i].CumulativeFill != 0 {
			t.Fatalf("unexpected fill at station %v", res.Points[i].Station)
		}
	}
}

func TestFinalPartialInterval(t *testing.T) {
	a := straight(t, 250)
	res, err := Compute(context.Background(), a, flatAt(0), flatAt(1), 100, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 100, 200, 250}
	if len(res.Points) != len(want) {
		t.Fatalf("stations = %v", res.Points)
	}
	for i, s := range want {
		if res.Points[i].Station != s {
			t.Errorf("station %d = %v, want %v", i, res.Points[i].Station, s)
		}
	}
	last := res.Points[3]
	if math.Abs(last.CutVolume-500) > 1e-9 || math.Abs(res.TotalCut-2500) > 1e-9 {
		t.Errorf("last increment = %v, total = %v; want 500, 2500", last.CutVolume, res.TotalCut)
	}
}

type fixedLength float64

func (f fixedLength) Length() float64 { return float64(f) }
func (fixedLength) PointAt(float64) (orb.Point, error) {
	return orb.Point{}, nil
}
func (fixedLength) NormalAt(float64) (orb.Point, error) {
	return orb.Point{0, 1}, nil
}

func TestComputeValidation(t *testing.T) {
	a := straight(t, 100)
	flat := flatAt(0)

	for _, tc := range []struct{ interval, width, step float64 }{
		{10, 0, 1}, {0, 10, 1}, {10, 10, 0}, {-5, 10, 1}, {10, 10, math.Inf(1)},
	} {
		res, err := Compute(context.Background(), a, flat, flat, tc.interval, tc.width, tc.step)
		var ie *InvalidIntervalError
		if !errors.As(err, &ie) || !errors.Is(err, errkind.Domain) || res != nil {
			t.Errorf("Compute(%+v) = %v, %v; want *InvalidIntervalError", tc, res, err)
		}
	}

	for name, c := range map[string]Corridor{
		"zero length":   fixedLength(0),
		"nil alignment": (*alignment.Alignment)(nil),
	} {
		res, err := Compute(context.Background(), c, flat, flat, 10, 10, 1)
		var ee *EmptyAlignmentError
		if !errors.As(err, &ee) || !errors.Is(err, errkind.Input) || res != nil {
			t.Errorf("%s: Compute() = %v, %v; want *EmptyAlignmentError", name, res, err)
		}
	}
}

func TestCoverageGapIsWarning(t *testing.T) {
	a := straight(t, 100)
	ground := funcSurface{
		z:  func(float64, float64) float64 { return 1 },
		ok: func(x, y float64) bool { return x <= 50 && y <= 3 },
	}
	res, err := Compute(context.Background(), a, flatAt(0), ground, 10, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Points) != 11 {
		t.Fatalf("points = %d, want 11", len(res.Points))
	}
	if len(res.Warnings) != 11 {
		t.Fatalf("warnings = %d, want one per station", len(res.Warnings))
	}
	for _, g := range res.Warnings {
		if g.Station <= 50 && (g.Empty || g.MissingGround != 2) {
			t.Errorf("partial gap = %+v", g)
		}
		if g.Station > 50 && (!g.Empty || g.MissingGround != 11) {
			t.Errorf("empty gap = %+v", g)
		}
	}
	// y ∈ [-5, 3] 有数据，面积为8
	if got := res.Points[2].CutArea; math.Abs(got-8) > 1e-12 {
		t.Errorf("partial section area = %v, want 8", got)
	}
	if got := res.Points[7].CutArea; got != 0 {
		t.Errorf("empty section area = %v, want 0", got)
	}
}

func TestCancellation(t *testing.T) {
	a := straight(t, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res, err := Compute(ctx, a, flatAt(0), flatAt(1), 10, 10, 1); !errors.Is(err, context.Canceled) || res != nil {
		t.Errorf("pre-cancelled Compute() = %v, %v", res, err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	var calls int64
	ground := funcSurface{z: func(float64, float64) float64 {
		if atomic.AddInt64(&calls, 1) == 50 {
			cancel()
		}
		return 1
	}}
	res, err := Compute(ctx, a, flatAt(0), ground, 10, 10, 1, WithWorkers(1))
	if !errors.Is(err, context.Canceled) || res != nil {
		t.Errorf("Compute() = %v, %v; want context.Canceled", res, err)
	}
	if n := atomic.LoadInt64(&calls); n >= 101*11 {
		t.Errorf("sampling did not stop after cancellation (%d calls)", n)
	}
}

func TestWorkersDoNotChangeResult(t *testing.T) {
	a := straight(t, 300)
	ground := funcSurface{z: func(x, y float64) float64 { return math.Sin(x/17) + y/10 }}
	one, err := Compute(context.Background(), a, flatAt(0), ground, 7, 9, 0.5, WithWorkers(1))
	if err != nil {
		t.Fatal(err)
	}
	many, err := Compute(context.Background(), a, flatAt(0), ground, 7, 9, 0.5, WithWorkers(16), WithSections(true))
	if err != nil {
		t.Fatal(err)
	}
	if len(one.Points) != len(many.Points) || len(many.Sections) != len(many.Points) || one.Sections != nil {
		t.Fatalf("points/sections = %d/%d/%d", len(one.Points), len(many.Points), len(many.Sections))
	}
	for i := range one.Points {
		if one.Points[i] != many.Points[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, one.Points[i], many.Points[i])
		}
	}
}

func TestBalanceStations(t *testing.T) {
	a := straight(t, 100)
	// 0~40 为挖方，40 以后为填方，累计净方量在 80 处回到 0
	ground := funcSurface{z: func(x, _ float64) float64 { return 1 - x/40 }}
	res, err := Compute(context.Background(), a, flatAt(0), ground, 10, 10, 1)
	if err != nil {
		t.Fatal(err)
	}
	balance := res.BalanceStations()
	if len(balance) != 1 || math.Abs(balance[0]-80) > 1e-6 {
		t.Errorf("BalanceStations() = %v, want [80]", balance)
	}
	maxStation, maxNet, _, _ := res.MaxHaul()
	if maxStation != 40 || math.Abs(maxNet-200) > 1e-9 {
		t.Errorf("MaxHaul() = %v at %v, want 200 at 40", maxNet, maxStation)
	}
}

func TestComputeOnTIN(t *testing.T) {
	a := straight(t, 100)
	ground, err := Tin.CreateTIN3D([]Tin.Point3D{
		{X: -10, Y: -20, Z: 5}, {X: 110, Y: -20, Z: 5}, {X: 110, Y: 20, Z: 5}, {X: -10, Y: 20, Z: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	design, err := Tin.CreateTIN3D([]Tin.Point3D{
		{X: -10, Y: -20, Z: 3}, {X: 110, Y: -20, Z: 3}, {X: 110, Y: 20, Z: 3}, {X: -10, Y: 20, Z: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := Compute(context.Background(), a, design, ground, 25, 20, 2)
	if err != nil {
		t.Fatal(err)
	}
	// 高差2、宽20、长100
	if math.Abs(res.TotalCut-4000) > 1e-6 || res.TotalFill != 0 {
		t.Errorf("totals = %v / %v, want 4000 / 0", res.TotalCut, res.TotalFill)
	}

	fc, err := ToFeatureCollection(res, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != len(res.Points) {
		t.Errorf("features = %d, want %d", len(fc.Features), len(res.Points))
	}
}
