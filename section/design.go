package section

import (
	"fmt"
	"math"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/GrainArc/EarthWork/alignment"
	"github.com/GrainArc/EarthWork/config"
)

// TemplatePoint 路基模板上的一个点，Elevation 为相对设计线的高差
type TemplatePoint struct {
	Offset    float64 `json:"offset"`
	Elevation float64 `json:"elevation"`
}

// Template 横断面模板（标准横断面），按偏距排列
type Template []TemplatePoint

// ElevationAt 模板点在 station 处的绝对高程。
// 有超高表时，在模板高差之外叠加横坡：左侧（正偏距）用 LeftSlope，右侧用 RightSlope，
// 高差 = 横坡 × |偏距|
func (t Template) ElevationAt(a *alignment.Alignment, station float64, p TemplatePoint) (float64, error) {
	grade, ok := a.GradeElevation(station)
	if !ok {
		return 0, fmt.Errorf("alignment has no vertical profile")
	}
	z := grade + p.Elevation
	if row, ok := a.Superelevation.At(station); ok {
		switch {
		case p.Offset > 0:
			z += row.LeftSlope * p.Offset
		case p.Offset < 0:
			z += row.RightSlope * -p.Offset
		}
	}
	return z, nil
}

// BuildDesignSurface 沿线形每隔 interval 放样模板点并构建设计面TIN
func BuildDesignSurface(a *alignment.Alignment, template Template, interval float64) (*Tin.TIN3D, error) {
	if err := CheckPositive("interval", interval); err != nil {
		return nil, err
	}
	if len(template) == 0 {
		return nil, fmt.Errorf("template has no points")
	}
	stations := alignment.Stations(a.Length(), interval)
	points := make([]Tin.Point3D, 0, len(stations)*len(template))
	for _, s := range stations {
		center, err := a.PointAt(s)
		if err != nil {
			return nil, err
		}
		normal, err := a.NormalAt(s)
		if err != nil {
			return nil, err
		}
		for _, tp := range template {
			z, err := template.ElevationAt(a, s, tp)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(z) {
				continue
			}
			points = append(points, Tin.Point3D{
				X:  center[0] + tp.Offset*normal[0],
				Y:  center[1] + tp.Offset*normal[1],
				Z:  z,
				ID: len(points),
			})
		}
	}
	config.Logger().Debug("design surface points placed", "stations", len(stations), "points", len(points))
	return Tin.CreateTIN3D(points)
}
