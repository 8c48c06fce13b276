package WordGenerator

import (
	"archive/zip"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GrainArc/EarthWork/earthwork"
	"github.com/GrainArc/EarthWork/models"
)

func testRun(t *testing.T) *models.VolumeRun {
	t.Helper()
	points := []earthwork.MassHaulPoint{
		{Station: 0, CutArea: 20, CumulativeNet: 0},
		{Station: 20, CutArea: 20, CutVolume: 400, CumulativeCut: 400, CumulativeNet: 400},
		{Station: 40, FillArea: 60, FillVolume: 600, CumulativeCut: 400, CumulativeFill: 600, CumulativeNet: -200},
	}
	warnings := []earthwork.CoverageGap{{Station: 40, Samples: 11, MissingGround: 3}}
	p, err := json.Marshal(points)
	if err != nil {
		t.Fatal(err)
	}
	w, err := json.Marshal(warnings)
	if err != nil {
		t.Fatal(err)
	}
	return &models.VolumeRun{
		ID: "run-1", AlignmentName: "一号路", DesignName: "设计面", GroundName: "地面",
		Interval: 20, Width: 10, OffsetStep: 1, Stations: 3,
		TotalCut: 400, TotalFill: 600, Net: -200,
		Points: p, Warnings: w, CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func documentXML(t *testing.T, path string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}
	t.Fatal("word/document.xml not found")
	return ""
}

func TestExportVolumeReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	if err := ExportVolumeReport(testRun(t), path); err != nil {
		t.Fatal(err)
	}
	body := documentXML(t, path)
	for _, want := range []string{"一号路土方计算报告", "K0+020.00", "K0+040.00", "400.00", "-200.00", "数据缺失桩号"} {
		if !strings.Contains(body, want) {
			t.Errorf("report is missing %q", want)
		}
	}
	// 400 到 -200 之间按线性内插，平衡点在 K0+033.33
	if !strings.Contains(body, "K0+033.33") {
		t.Error("report is missing the balance station")
	}
}

func TestVolumeReportBadPoints(t *testing.T) {
	run := testRun(t)
	run.Points = []byte("not json")
	if _, err := VolumeReport(run); err == nil {
		t.Fatal("expected a decoding error")
	}
}

func TestVolumeReportWithoutPoints(t *testing.T) {
	run := testRun(t)
	run.Points, run.Warnings = nil, nil
	if _, err := VolumeReport(run); err != nil {
		t.Fatal(err)
	}
}
