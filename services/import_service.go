package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/GrainArc/EarthWork/Transformer"
	"github.com/GrainArc/EarthWork/alignment"
	"github.com/GrainArc/EarthWork/config"
	"github.com/GrainArc/EarthWork/errkind"
	"github.com/GrainArc/EarthWork/methods"
	"github.com/GrainArc/EarthWork/models"
	"github.com/GrainArc/EarthWork/section"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

// UnsupportedFormatError 无法识别的导入格式
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error { return errkind.Input }

// ImportError 文件内容无法解析
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("importing %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *ImportError) Unwrap() []error { return []error{errkind.Input, e.Err} }

// SurfaceRequest 曲面导入参数，Format 为空时按扩展名判断
type SurfaceRequest struct {
	Name   string
	Format string // dat | xyz | dxf | shp | geojson，zip/rar 压缩包中查找 shp
	Path   string
	Crs    string // 为空时按坐标量级检测
	Layer  string // dxf 图层，为空取全部三维多段线
}

// AlignmentRequest 线形导入参数
type AlignmentRequest struct {
	Name               string
	Format             string
	Path               string
	Crs                string
	Layer              string
	Radii              []float64 // 非空时顶点视为交点，按半径设置圆曲线
	ProfilePath        string
	SuperelevationPath string
}

// ImportService 读取测量文件，坐标系归一化一次后构建快照
type ImportService struct {
	Store      *SnapshotStore
	Normalizer *Transformer.Normalizer
	DB         *gorm.DB // 为空时不记录导入历史
}

func NewImportService(store *SnapshotStore, normalizer *Transformer.Normalizer, db *gorm.DB) *ImportService {
	return &ImportService{Store: store, Normalizer: normalizer, DB: db}
}

// DetectFormat 按扩展名判断格式
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dat":
		return "dat"
	case ".txt", ".xyz", ".csv":
		return "xyz"
	case ".dxf":
		return "dxf"
	case ".shp", ".zip", ".rar":
		return "shp"
	case ".json", ".geojson":
		return "geojson"
	}
	return ""
}

func resolveFormat(format, path string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case "dat", "xyz", "dxf", "shp", "geojson":
		return format, nil
	}
	return "", &UnsupportedFormatError{Format: format}
}

// shpPath 压缩包先解压，再查找其中的 .shp
func shpPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".rar":
		dir, err := methods.Unzip(path)
		if err != nil {
			return "", err
		}
		found, ok := methods.FindFileByExt(dir, ".shp")
		if !ok {
			return "", fmt.Errorf("archive contains no .shp file")
		}
		return found, nil
	}
	return path, nil
}

func readPoints(format, path, layer string) (*Transformer.PointSet, error) {
	switch format {
	case "shp":
		p, err := shpPath(path)
		if err != nil {
			return nil, err
		}
		return Transformer.ReadShp(p)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case "dat":
		return Transformer.ReadDat(bytes.NewReader(data))
	case "xyz":
		return Transformer.ReadXYZ(bytes.NewReader(data))
	case "dxf":
		d, err := Transformer.ReadDxf(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return d.SurfacePoints(layer)
	case "geojson":
		return Transformer.ReadGeoJSONPoints(data)
	}
	return nil, &UnsupportedFormatError{Format: format}
}

func readVertices(format, path, layer string) ([]orb.Point, Transformer.Crs, error) {
	switch format {
	case "dxf":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, Transformer.Crs{}, err
		}
		d, err := Transformer.ReadDxf(bytes.NewReader(data))
		if err != nil {
			return nil, Transformer.Crs{}, err
		}
		line, err := d.Centerline(layer)
		return line, Transformer.DetectCrs(line), err
	case "geojson":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, Transformer.Crs{}, err
		}
		return Transformer.ReadGeoJSONCenterline(data)
	}
	// 点文件按顺序作为交点
	ps, err := readPoints(format, path, layer)
	if err != nil {
		return nil, Transformer.Crs{}, err
	}
	return ps.Vertices(), ps.Crs, nil
}

// sourceCrs 指定的坐标系优先，其次为检测结果，都没有时视为已在目标坐标系
func (s *ImportService) sourceCrs(requested string, detected Transformer.Crs) (Transformer.Crs, error) {
	if strings.TrimSpace(requested) != "" {
		return Transformer.ParseCrs(requested)
	}
	if !detected.IsZero() {
		return detected, nil
	}
	config.Logger().Warn("source crs unknown, assuming target crs", "target", s.Normalizer.Target.String())
	return s.Normalizer.Target, nil
}

// ImportSurface 导入测点并构建TIN。坐标转换或构网失败时不产生快照。
func (s *ImportService) ImportSurface(req SurfaceRequest) (*SurfaceSnapshot, error) {
	format, err := resolveFormat(req.Format, req.Path)
	if err != nil {
		return nil, err
	}
	ps, err := readPoints(format, req.Path, req.Layer)
	if err != nil {
		return nil, &ImportError{Path: req.Path, Err: err}
	}
	source, err := s.sourceCrs(req.Crs, ps.Crs)
	if err != nil {
		return nil, err
	}
	points, err := s.Normalizer.NormalizePoints(ps.Points, source)
	if err != nil {
		return nil, err
	}
	tin, err := Tin.CreateTIN3D(points)
	if err != nil {
		return nil, err
	}

	snap := s.Store.PutSurface(nameOr(req.Name, req.Path), format, s.Normalizer.Target, tin)
	s.record(models.SurveyImport{
		ID:        snap.ID,
		Kind:      "surface",
		Name:      snap.Name,
		Format:    format,
		SourceCrs: source.String(),
		TargetCrs: s.Normalizer.Target.String(),
		Points:    len(ps.Points),
		Skipped:   ps.Skipped,
	}, snap.Summary)
	config.Logger().Info("surface imported", "id", snap.ID, "name", snap.Name,
		"points", snap.Summary.Points, "triangles", snap.Summary.Triangles, "skipped", ps.Skipped)
	return snap, nil
}

// ImportAlignment 导入中线（及可选的纵断面、超高表）
func (s *ImportService) ImportAlignment(req AlignmentRequest) (*AlignmentSnapshot, error) {
	format, err := resolveFormat(req.Format, req.Path)
	if err != nil {
		return nil, err
	}
	vertices, detected, err := readVertices(format, req.Path, req.Layer)
	if err != nil {
		return nil, &ImportError{Path: req.Path, Err: err}
	}
	source, err := s.sourceCrs(req.Crs, detected)
	if err != nil {
		return nil, err
	}
	vertices, err = s.Normalizer.NormalizeVertices(vertices, source)
	if err != nil {
		return nil, err
	}

	var h *alignment.Horizontal
	if len(req.Radii) > 0 {
		h, err = alignment.FromPIs(vertices, req.Radii)
	} else {
		h, err = alignment.FromPolyline(vertices)
	}
	if err != nil {
		return nil, err
	}

	var profile *alignment.VerticalProfile
	if req.ProfilePath != "" {
		if profile, err = readProfile(req.ProfilePath); err != nil {
			return nil, err
		}
	}
	var table alignment.SuperelevationTable
	if req.SuperelevationPath != "" {
		if table, err = readSuperelevation(req.SuperelevationPath); err != nil {
			return nil, err
		}
	}

	a, err := alignment.New(h, profile, table)
	if err != nil {
		return nil, err
	}
	snap := s.Store.PutAlignment(nameOr(req.Name, req.Path), format, s.Normalizer.Target, a)
	s.record(models.SurveyImport{
		ID:        snap.ID,
		Kind:      "alignment",
		Name:      snap.Name,
		Format:    format,
		SourceCrs: source.String(),
		TargetCrs: s.Normalizer.Target.String(),
		Points:    len(vertices),
		Length:    snap.Length,
	}, snap)
	config.Logger().Info("alignment imported", "id", snap.ID, "name", snap.Name,
		"length", snap.Length, "elements", len(h.Elements()), "profile", profile != nil)
	return snap, nil
}

// BuildDesignSurface 沿线形放样横断面模板，生成设计面快照
func (s *ImportService) BuildDesignSurface(alignmentID, name string, template section.Template, interval float64) (*SurfaceSnapshot, error) {
	as, err := s.Store.Alignment(alignmentID)
	if err != nil {
		return nil, err
	}
	if as.Alignment.Profile == nil {
		return nil, &alignment.MalformedAlignmentError{Component: "profile", Index: -1, Reason: "alignment has no vertical profile"}
	}
	tin, err := section.BuildDesignSurface(as.Alignment, template, interval)
	if err != nil {
		return nil, err
	}
	snap := s.Store.PutSurface(nameOr(name, as.Name+"-design"), "template", as.Crs, tin)
	s.record(models.SurveyImport{
		ID:        snap.ID,
		Kind:      "surface",
		Name:      snap.Name,
		Format:    "template",
		SourceCrs: as.Crs.String(),
		TargetCrs: as.Crs.String(),
		Points:    snap.Summary.Points,
		Length:    as.Length,
	}, snap.Summary)
	return snap, nil
}

func (s *ImportService) record(rec models.SurveyImport, summary interface{}) {
	if s.DB == nil {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if data, err := json.Marshal(summary); err == nil {
		rec.Summary = data
	}
	if err := s.DB.Create(&rec).Error; err != nil {
		config.Logger().Error("saving import record failed", "id", rec.ID, "err", err)
	}
}

func nameOr(name, path string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AddSurfacePoints 向曲面补充测点，生成新的快照替换原快照
func (s *ImportService) AddSurfacePoints(id string, coords [][]float64, crs string) (*SurfaceSnapshot, error) {
	snap, err := s.Store.Surface(id)
	if err != nil {
		return nil, err
	}
	points, err := Tin.CoordsToPoint3D(coords)
	if err != nil {
		return nil, &ImportError{Path: "points", Err: err}
	}
	vertices := make([]orb.Point, len(points))
	for i, p := range points {
		vertices[i] = orb.Point{p.X, p.Y}
	}
	detected := Transformer.DetectCrs(vertices)
	source, err := s.sourceCrs(crs, detected)
	if err != nil {
		return nil, err
	}
	points, err = s.Normalizer.NormalizePoints(points, source)
	if err != nil {
		return nil, err
	}
	tin, err := snap.Surface.WithPoints(points)
	if err != nil {
		return nil, err
	}
	config.Logger().Info("surface points added", "id", id, "added", len(points))
	return s.Store.ReplaceSurface(id, tin)
}

// UpdateProfile 替换线形的纵断面和超高表，路径为空的部分保持不变
func (s *ImportService) UpdateProfile(id, profilePath, superelevationPath string) (*AlignmentSnapshot, error) {
	snap, err := s.Store.Alignment(id)
	if err != nil {
		return nil, err
	}
	profile, table := snap.Alignment.Profile, snap.Alignment.Superelevation
	if profilePath != "" {
		if profile, err = readProfile(profilePath); err != nil {
			return nil, err
		}
	}
	if superelevationPath != "" {
		if table, err = readSuperelevation(superelevationPath); err != nil {
			return nil, err
		}
	}
	a, err := alignment.New(snap.Alignment.Horizontal, profile, table)
	if err != nil {
		return nil, err
	}
	return s.Store.ReplaceAlignment(id, a)
}

func readProfile(path string) (*alignment.VerticalProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	profile, err := Transformer.ReadProfileCSV(f)
	if err != nil {
		return nil, &ImportError{Path: path, Err: err}
	}
	return profile, nil
}

func readSuperelevation(path string) (alignment.SuperelevationTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	table, err := Transformer.ReadSuperelevationCSV(f)
	if err != nil {
		return nil, &ImportError{Path: path, Err: err}
	}
	return table, nil
}
