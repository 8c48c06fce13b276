package Transformer

import (
	"errors"
	"math"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/GrainArc/EarthWork/config"
	"github.com/paulmach/orb"
)

// Normalizer 导入时把坐标统一到目标坐标系，每批数据只调用一次，之后的计算不再转换
type Normalizer struct {
	Target    Crs
	Transform TransformFunc
}

func NewNormalizer(target Crs, transform TransformFunc) *Normalizer {
	return &Normalizer{Target: target, Transform: transform}
}

func (n *Normalizer) point(x, y float64, source Crs) (float64, float64, error) {
	tx, ty, err := n.Transform(x, y, source, n.Target)
	if err != nil {
		var unsupported *UnsupportedCrsError
		var failure *TransformFailure
		if errors.As(err, &unsupported) || errors.As(err, &failure) {
			return 0, 0, err
		}
		return 0, 0, &TransformFailure{Source: source, Target: n.Target, X: x, Y: y, Err: err}
	}
	if math.IsNaN(tx) || math.IsNaN(ty) || math.IsInf(tx, 0) || math.IsInf(ty, 0) {
		return 0, 0, &TransformFailure{Source: source, Target: n.Target, X: x, Y: y, Err: errors.New("non-finite result")}
	}
	return tx, ty, nil
}

func (n *Normalizer) check(source Crs) (identity bool, err error) {
	if source.IsZero() {
		return false, &UnsupportedCrsError{Reason: "source coordinate reference system is unknown"}
	}
	if n.Target.IsZero() {
		return false, &UnsupportedCrsError{Reason: "target coordinate reference system is not configured"}
	}
	if source.Equal(n.Target) {
		return true, nil
	}
	if n.Transform == nil {
		return false, &UnsupportedCrsError{Crs: source, Reason: "no transform available"}
	}
	return false, nil
}

// NormalizePoints 返回转换到目标坐标系的新点集，高程不变；任一点失败则整体失败
func (n *Normalizer) NormalizePoints(points []Tin.Point3D, source Crs) ([]Tin.Point3D, error) {
	identity, err := n.check(source)
	if err != nil {
		return nil, err
	}
	out := make([]Tin.Point3D, len(points))
	copy(out, points)
	if identity {
		return out, nil
	}
	for i := range out {
		x, y, err := n.point(out[i].X, out[i].Y, source)
		if err != nil {
			return nil, err
		}
		out[i].X, out[i].Y = x, y
	}
	config.Logger().Debug("points normalized", "count", len(out), "source", source.String(), "target", n.Target.String())
	return out, nil
}

// NormalizeVertices 转换线形顶点
func (n *Normalizer) NormalizeVertices(vertices []orb.Point, source Crs) ([]orb.Point, error) {
	identity, err := n.check(source)
	if err != nil {
		return nil, err
	}
	out := make([]orb.Point, len(vertices))
	copy(out, vertices)
	if identity {
		return out, nil
	}
	for i, v := range out {
		x, y, err := n.point(v[0], v[1], source)
		if err != nil {
			return nil, err
		}
		out[i] = orb.Point{x, y}
	}
	return out, nil
}

// NormalizeGeometry 转换任意 orb 几何（点、线、面及其集合）
func (n *Normalizer) NormalizeGeometry(g orb.Geometry, source Crs) (orb.Geometry, error) {
	identity, err := n.check(source)
	if err != nil {
		return nil, err
	}
	if identity {
		return orb.Clone(g), nil
	}
	var firstErr error
	project := func(p orb.Point) orb.Point {
		if firstErr != nil {
			return p
		}
		x, y, err := n.point(p[0], p[1], source)
		if err != nil {
			firstErr = err
			return p
		}
		return orb.Point{x, y}
	}
	out := projectGeometry(orb.Clone(g), project)
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func projectGeometry(g orb.Geometry, f func(orb.Point) orb.Point) orb.Geometry {
	switch v := g.(type) {
	case orb.Point:
		return f(v)
	case orb.MultiPoint:
		for i := range v {
			v[i] = f(v[i])
		}
		return v
	case orb.LineString:
		for i := range v {
			v[i] = f(v[i])
		}
		return v
	case orb.MultiLineString:
		for i := range v {
			v[i] = projectGeometry(v[i], f).(orb.LineString)
		}
		return v
	case orb.Ring:
		for i := range v {
			v[i] = f(v[i])
		}
		return v
	case orb.Polygon:
		for i := range v {
			v[i] = projectGeometry(v[i], f).(orb.Ring)
		}
		return v
	case orb.MultiPolygon:
		for i := range v {
			v[i] = projectGeometry(v[i], f).(orb.Polygon)
		}
		return v
	case orb.Collection:
		for i := range v {
			v[i] = projectGeometry(v[i], f)
		}
		return v
	}
	return g
}
