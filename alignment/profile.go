package alignment

import (
	"math"
	"sort"
)

// ProfilePoint 纵断面变坡点，CurveLength > 0 时在该点设置对称二次抛物线竖曲线
type ProfilePoint struct {
	Station     float64 `json:"station"`
	Elevation   float64 `json:"elevation"`
	CurveLength float64 `json:"curve_length"`
}

// VerticalProfile 纵断面
type VerticalProfile struct {
	points []ProfilePoint
}

// NewVerticalProfile 校验里程严格递增、竖曲线互不重叠后构造纵断面
func NewVerticalProfile(points []ProfilePoint) (*VerticalProfile, error) {
	if len(points) == 0 {
		return nil, malformed("profile", -1, "no control points")
	}
	p := &VerticalProfile{points: make([]ProfilePoint, len(points))}
	copy(p.points, points)

	last := len(p.points) - 1
	for i, pt := range p.points {
		if math.IsNaN(pt.Station) || math.IsNaN(pt.Elevation) || math.IsInf(pt.Station, 0) || math.IsInf(pt.Elevation, 0) {
			return nil, malformed("profile", i, "non-finite control point")
		}
		if pt.CurveLength < 0 || math.IsNaN(pt.CurveLength) {
			return nil, malformed("profile", i, "negative vertical curve length %v", pt.CurveLength)
		}
		if (i == 0 || i == last) && pt.CurveLength > 0 {
			return nil, malformed("profile", i, "vertical curve on the first or last point")
		}
		if i == 0 {
			continue
		}
		prev := p.points[i-1]
		if pt.Station <= prev.Station {
			return nil, malformed("profile", i, "station %v does not increase", pt.Station)
		}
		if prev.Station+prev.CurveLength/2 > pt.Station-pt.CurveLength/2+1e-9 {
			return nil, malformed("profile", i, "vertical curves overlap")
		}
	}
	return p, nil
}

// Points 控制点副本
func (p *VerticalProfile) Points() []ProfilePoint {
	out := make([]ProfilePoint, len(p.points))
	copy(out, p.points)
	return out
}

// 第 i 段（points[i] 到 points[i+1]）的坡度
func (p *VerticalProfile) grade(i int) float64 {
	a, b := p.points[i], p.points[i+1]
	return (b.Elevation - a.Elevation) / (b.Station - a.Station)
}

// 查找 station 所在的竖曲线，返回变坡点下标
func (p *VerticalProfile) curveAt(station float64) (int, bool) {
	for i := 1; i < len(p.points)-1; i++ {
		pt := p.points[i]
		if pt.CurveLength > 0 && station >= pt.Station-pt.CurveLength/2 && station <= pt.Station+pt.CurveLength/2 {
			return i, true
		}
	}
	return 0, false
}

// ElevationAt 里程处设计高程：切线段线性内插，竖曲线内按抛物线过渡；超出范围时取端点高程
func (p *VerticalProfile) ElevationAt(station float64) float64 {
	first, last := p.points[0], p.points[len(p.points)-1]
	if station <= first.Station {
		return first.Elevation
	}
	if station >= last.Station {
		return last.Elevation
	}
	if i, ok := p.curveAt(station); ok {
		pvi := p.points[i]
		g1, g2 := p.grade(i-1), p.grade(i)
		bvc := pvi.Station - pvi.CurveLength/2
		zBVC := pvi.Elevation - g1*pvi.CurveLength/2
		x := station - bvc
		return zBVC + g1*x + (g2-g1)/(2*pvi.CurveLength)*x*x
	}
	i := p.segment(station)
	return p.points[i].Elevation + p.grade(i)*(station-p.points[i].Station)
}

// GradeAt 里程处纵坡；超出范围时为0
func (p *VerticalProfile) GradeAt(station float64) float64 {
	if len(p.points) < 2 || station < p.points[0].Station || station > p.points[len(p.points)-1].Station {
		return 0
	}
	if i, ok := p.curveAt(station); ok {
		pvi := p.points[i]
		g1, g2 := p.grade(i-1), p.grade(i)
		x := station - (pvi.Station - pvi.CurveLength/2)
		return g1 + (g2-g1)*x/pvi.CurveLength
	}
	return p.grade(p.segment(station))
}

func (p *VerticalProfile) segment(station float64) int {
	i := sort.Search(len(p.points), func(k int) bool { return p.points[k].Station > station }) - 1
	if i < 0 {
		i = 0
	}
	if i > len(p.points)-2 {
		i = len(p.points) - 2
	}
	return i
}
