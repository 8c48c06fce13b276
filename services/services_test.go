package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/GrainArc/EarthWork/Transformer"
	"github.com/GrainArc/EarthWork/alignment"
	"github.com/GrainArc/EarthWork/earthwork"
	"github.com/GrainArc/EarthWork/errkind"
	"github.com/GrainArc/EarthWork/models"
	"github.com/GrainArc/EarthWork/section"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.OpenDB("", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// 平坦地面 z，覆盖 x∈[-10,110]、y∈[-20,20]
func groundXYZ(z float64) string {
	var sb strings.Builder
	sb.WriteString("X Y Z\n")
	for x := -10; x <= 110; x += 10 {
		for y := -20; y <= 20; y += 10 {
			fmt.Fprintf(&sb, "%d %d %g\n", x, y, z)
		}
	}
	return sb.String()
}

func newTestServices(t *testing.T) (*ImportService, *VolumeService, string) {
	t.Helper()
	store := NewSnapshotStore()
	db := testDB(t)
	normalizer := Transformer.NewNormalizer(Transformer.EPSG(4523), Transformer.ProjTransform(nil))
	return NewImportService(store, normalizer, db), NewVolumeService(store, db, 2), t.TempDir()
}

func TestSnapshotStore(t *testing.T) {
	store := NewSnapshotStore()
	tin, err := Tin.CreateTIN3D([]Tin.Point3D{{X: 0, Y: 0, Z: 1}, {X: 10, Y: 0, Z: 1}, {X: 0, Y: 10, Z: 1}})
	if err != nil {
		t.Fatal(err)
	}
	snap := store.PutSurface("ground", "dat", Transformer.EPSG(4523), tin)
	got, err := store.Surface(snap.ID)
	if err != nil || got != snap || got.Summary.Triangles != 1 {
		t.Fatalf("Surface() = %+v, %v", got, err)
	}

	edited, err := tin.WithPoints([]Tin.Point3D{{X: 10, Y: 10, Z: 2}})
	if err != nil {
		t.Fatal(err)
	}
	replaced, err := store.ReplaceSurface(snap.ID, edited)
	if err != nil {
		t.Fatal(err)
	}
	if replaced.ID != snap.ID || replaced.Summary.Triangles != 2 || snap.Surface != tin {
		t.Errorf("replace changed the old snapshot or kept the old surface: %+v", replaced)
	}
	if list := store.Surfaces(); len(list) != 1 || list[0] != replaced {
		t.Errorf("Surfaces() = %v", list)
	}

	var nf *NotFoundError
	if _, err := store.Surface("missing"); !errors.As(err, &nf) {
		t.Errorf("missing surface error = %v", err)
	}
	if _, err := store.ReplaceAlignment("missing", nil); !errors.As(err, &nf) {
		t.Errorf("missing alignment error = %v", err)
	}

	h, err := alignment.FromPolyline([]orb.Point{{0, 0}, {50, 0}})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := alignment.New(h, nil, nil)
	as := store.PutAlignment("road", "geojson", Transformer.EPSG(4523), a)
	if as.Length != 50 || as.HasProfile {
		t.Errorf("alignment snapshot = %+v", as)
	}
	if list := store.Alignments(); len(list) != 1 {
		t.Errorf("Alignments() = %v", list)
	}
}

func TestImportSurface(t *testing.T) {
	imports, _, dir := newTestServices(t)
	path := writeFile(t, dir, "ground.xyz", groundXYZ(12))

	snap, err := imports.ImportSurface(SurfaceRequest{Path: path, Crs: "EPSG:4523"})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Name != "ground" || snap.Format != "xyz" || snap.Summary.Points != 65 {
		t.Errorf("snapshot = %+v", snap)
	}
	if z, ok := snap.Surface.ElevationAt(50, 5); !ok || math.Abs(z-12) > 1e-9 {
		t.Errorf("ElevationAt(50,5) = %v, %v", z, ok)
	}

	var rec models.SurveyImport
	if err := imports.DB.First(&rec, "id = ?", snap.ID).Error; err != nil {
		t.Fatal(err)
	}
	if rec.Kind != "surface" || rec.Points != 65 || rec.SourceCrs != "EPSG:4523" {
		t.Errorf("import record = %+v", rec)
	}
}

func TestImportSurfaceErrors(t *testing.T) {
	store := NewSnapshotStore()
	failing := Transformer.NewNormalizer(Transformer.EPSG(4523), func(x, y float64, _, _ Transformer.Crs) (float64, float64, error) {
		return 0, 0, errors.New("grid file missing")
	})
	imports := NewImportService(store, failing, nil)
	dir := t.TempDir()
	path := writeFile(t, dir, "ground.txt", groundXYZ(1))

	_, err := imports.ImportSurface(SurfaceRequest{Path: path, Crs: "EPSG:4326"})
	var tf *Transformer.TransformFailure
	if !errors.As(err, &tf) || !errors.Is(err, errkind.Crs) {
		t.Errorf("error = %v, want *TransformFailure", err)
	}
	if len(store.Surfaces()) != 0 {
		t.Error("a failed import must not create a snapshot")
	}

	var uf *UnsupportedFormatError
	if _, err := imports.ImportSurface(SurfaceRequest{Path: filepath.Join(dir, "ground.las")}); !errors.As(err, &uf) {
		t.Errorf("unknown format error = %v", err)
	}

	bad := writeFile(t, dir, "bad.dat", "nothing\n")
	if _, err := imports.ImportSurface(SurfaceRequest{Path: bad, Crs: "EPSG:4523"}); !errors.Is(err, errkind.Input) {
		t.Errorf("unparseable file error = %v, want input error", err)
	}

	line := writeFile(t, dir, "line.xyz", "0 0 1\n1 1 1\n2 2 1\n")
	identity := NewImportService(store, Transformer.NewNormalizer(Transformer.EPSG(4523), nil), nil)
	var de *Tin.DegenerateInputError
	if _, err := identity.ImportSurface(SurfaceRequest{Path: line, Crs: "EPSG:4523"}); !errors.As(err, &de) {
		t.Errorf("collinear points error = %v, want *DegenerateInputError", err)
	}
}

func TestImportAlignment(t *testing.T) {
	imports, _, dir := newTestServices(t)
	centerline := writeFile(t, dir, "road.geojson",
		`{"type":"LineString","coordinates":[[0,0],[100,0],[100,100]]}`)
	profile := writeFile(t, dir, "profile.csv", "station,elevation\n0,10\n125,12\n")
	superelevation := writeFile(t, dir, "se.csv", "0,-0.02,-0.02\n")

	snap, err := imports.ImportAlignment(AlignmentRequest{
		Name:               "K线",
		Path:               centerline,
		Crs:                "EPSG:4523",
		Radii:              []float64{20},
		ProfilePath:        profile,
		SuperelevationPath: superelevation,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := 160 + 10*math.Pi
	if math.Abs(snap.Length-want) > 1e-6 || !snap.HasProfile || snap.Superelevation != 1 {
		t.Errorf("snapshot = %+v, want length %v", snap, want)
	}

	if _, err := imports.ImportAlignment(AlignmentRequest{Path: centerline, Crs: "EPSG:4523", Radii: []float64{1, 2}}); !errors.Is(err, errkind.Input) {
		t.Errorf("radii count error = %v, want input error", err)
	}
}

func TestMassHaulEndToEnd(t *testing.T) {
	imports, volumes, dir := newTestServices(t)

	ground, err := imports.ImportSurface(SurfaceRequest{Name: "地面", Path: writeFile(t, dir, "ground.xyz", groundXYZ(12)), Crs: "EPSG:4523"})
	if err != nil {
		t.Fatal(err)
	}
	road, err := imports.ImportAlignment(AlignmentRequest{
		Path:        writeFile(t, dir, "road.geojson", `{"type":"LineString","coordinates":[[0,0],[100,0]]}`),
		Crs:         "EPSG:4523",
		ProfilePath: writeFile(t, dir, "profile.csv", "0,10\n100,10\n"),
	})
	if err != nil {
		t.Fatal(err)
	}
	design, err := imports.BuildDesignSurface(road.ID, "", section.Template{{Offset: -10}, {Offset: 0}, {Offset: 10}}, 20)
	if err != nil {
		t.Fatal(err)
	}
	if design.Name != "road-design" {
		t.Errorf("design name = %q", design.Name)
	}

	cs, err := volumes.CrossSection(SectionRequest{Design: design.ID, Ground: ground.ID, Alignment: road.ID, Station: 50, Width: 10, OffsetStep: 1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cs.CutArea-20) > 1e-9 || cs.FillArea > 1e-9 {
		t.Errorf("section areas = %v / %v, want 20 / 0", cs.CutArea, cs.FillArea)
	}

	run, err := volumes.MassHaul(context.Background(), VolumeRequest{
		Design: design.ID, Ground: ground.ID, Alignment: road.ID,
		Width: 10, Interval: 20, OffsetStep: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(run.Result.TotalCut-2000) > 1e-6 || run.Result.TotalFill > 1e-9 || len(run.Result.Warnings) != 0 {
		t.Errorf("result = cut %v fill %v warnings %v", run.Result.TotalCut, run.Result.TotalFill, run.Result.Warnings)
	}

	runs, err := volumes.Runs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID || len(runs[0].Points) != 0 || runs[0].GroundName != "地面" {
		t.Errorf("Runs() = %+v", runs)
	}
	stored, err := volumes.Run(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Stations != 6 || len(stored.Points) == 0 {
		t.Errorf("Run() = %+v", stored)
	}
	var nf *NotFoundError
	if _, err := volumes.Run("missing"); !errors.As(err, &nf) {
		t.Errorf("missing run error = %v", err)
	}

	var ie *earthwork.InvalidIntervalError
	if _, err := volumes.MassHaul(context.Background(), VolumeRequest{Design: design.ID, Ground: ground.ID, Alignment: road.ID, Width: 0, Interval: 20, OffsetStep: 1}); !errors.As(err, &ie) {
		t.Errorf("zero width error = %v, want *InvalidIntervalError", err)
	}
	if _, err := volumes.MassHaul(context.Background(), VolumeRequest{Design: "missing", Ground: ground.ID, Alignment: road.ID, Width: 10, Interval: 20, OffsetStep: 1}); !errors.As(err, &nf) {
		t.Errorf("missing design error = %v", err)
	}
}

func TestAddSurfacePointsAndUpdateProfile(t *testing.T) {
	imports, _, dir := newTestServices(t)
	ground, err := imports.ImportSurface(SurfaceRequest{Path: writeFile(t, dir, "g.xyz", "0 0 1\n10 0 1\n0 10 1\n"), Crs: "EPSG:4523"})
	if err != nil {
		t.Fatal(err)
	}
	old := ground.Surface
	updated, err := imports.AddSurfacePoints(ground.ID, [][]float64{{10, 10, 3}}, "EPSG:4523")
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != ground.ID || updated.Summary.Points != 4 || len(old.Points) != 3 {
		t.Errorf("updated = %+v, old points = %d", updated.Summary, len(old.Points))
	}
	if _, err := imports.AddSurfacePoints(ground.ID, nil, ""); !errors.Is(err, errkind.Input) {
		t.Errorf("empty points error = %v", err)
	}

	road, err := imports.ImportAlignment(AlignmentRequest{
		Path: writeFile(t, dir, "road.xyz", "0 0 0\n100 0 0\n"),
		Crs:  "EPSG:4523",
	})
	if err != nil {
		t.Fatal(err)
	}
	if road.HasProfile {
		t.Fatal("alignment without profile file should have no profile")
	}
	replaced, err := imports.UpdateProfile(road.ID, writeFile(t, dir, "p.csv", "0,5\n100,6\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if !replaced.HasProfile || replaced.Length != 100 {
		t.Errorf("replaced = %+v", replaced)
	}
	if z, _ := replaced.Alignment.GradeElevation(50); math.Abs(z-5.5) > 1e-12 {
		t.Errorf("GradeElevation(50) = %v, want 5.5", z)
	}
}

func TestImportLocalGridWithoutCrs(t *testing.T) {
	imports, _, dir := newTestServices(t)
	dat := "1,,50,20,10\n2,,250,20,11\n3,,250,120,12\n4,,50,120,13\n"
	ground, err := imports.ImportSurface(SurfaceRequest{Path: writeFile(t, dir, "site.dat", dat)})
	if err != nil {
		t.Fatal(err)
	}
	minX, minY, maxX, maxY := ground.Surface.Bounds()
	if minX != 50 || minY != 20 || maxX != 250 || maxY != 120 {
		t.Errorf("bounds = %v %v %v %v, want the surveyed coordinates", minX, minY, maxX, maxY)
	}
	if z, ok := ground.Surface.ElevationAt(50, 20); !ok || math.Abs(z-10) > 1e-9 {
		t.Errorf("ElevationAt(50, 20) = %v, %v", z, ok)
	}
	var rec models.SurveyImport
	if err := imports.DB.First(&rec, "id = ?", ground.ID).Error; err != nil {
		t.Fatal(err)
	}
	if rec.SourceCrs != "EPSG:4523" {
		t.Errorf("source crs = %q, want the target crs", rec.SourceCrs)
	}

	road, err := imports.ImportAlignment(AlignmentRequest{
		Path: writeFile(t, dir, "axis.geojson", `{"type":"LineString","coordinates":[[100,70],[300,70]]}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	start, err := road.Alignment.PointAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if road.Length != 200 || start != (orb.Point{100, 70}) {
		t.Errorf("alignment length = %v start = %v, want the surveyed coordinates", road.Length, start)
	}
}
