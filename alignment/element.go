package alignment

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Element 平面线形单元，s 为单元内的局部里程 [0, Length]
type Element interface {
	Start() orb.Point
	End() orb.Point
	Length() float64
	PointAt(s float64) orb.Point
	// TangentAt 单位切向量（前进方向）
	TangentAt(s float64) orb.Point
}

// Line 直线段
type Line struct {
	From, To orb.Point
}

func NewLine(from, to orb.Point) *Line {
	return &Line{From: from, To: to}
}

func (l *Line) Start() orb.Point { return l.From }
func (l *Line) End() orb.Point   { return l.To }
func (l *Line) Length() float64  { return planar.Distance(l.From, l.To) }

func (l *Line) PointAt(s float64) orb.Point {
	length := l.Length()
	if length == 0 {
		return l.From
	}
	t := s / length
	return orb.Point{l.From[0] + t*(l.To[0]-l.From[0]), l.From[1] + t*(l.To[1]-l.From[1])}
}

func (l *Line) TangentAt(float64) orb.Point {
	return unit(orb.Point{l.To[0] - l.From[0], l.To[1] - l.From[1]})
}

// Arc 圆曲线，Sweep 为圆心角（弧度），正值逆时针
type Arc struct {
	Center     orb.Point
	Radius     float64
	StartAngle float64
	Sweep      float64
}

// NewArc 由起点、圆心与圆心角构造圆曲线
func NewArc(start, center orb.Point, sweep float64) *Arc {
	return &Arc{
		Center:     center,
		Radius:     planar.Distance(start, center),
		StartAngle: math.Atan2(start[1]-center[1], start[0]-center[0]),
		Sweep:      sweep,
	}
}

// NewTangentArc 由起点、起始方位角（弧度，自X轴逆时针）、半径与弧长构造圆曲线，left 为左转
func NewTangentArc(start orb.Point, heading, radius, length float64, left bool) *Arc {
	side := 1.0
	if !left {
		side = -1
	}
	n := orb.Point{-math.Sin(heading) * side, math.Cos(heading) * side}
	center := orb.Point{start[0] + radius*n[0], start[1] + radius*n[1]}
	sweep := side * length / radius
	return NewArc(start, center, sweep)
}

func (a *Arc) angleAt(s float64) float64 {
	if a.Sweep < 0 {
		return a.StartAngle - s/a.Radius
	}
	return a.StartAngle + s/a.Radius
}

func (a *Arc) Start() orb.Point { return a.PointAt(0) }
func (a *Arc) End() orb.Point   { return a.PointAt(a.Length()) }
func (a *Arc) Length() float64  { return a.Radius * math.Abs(a.Sweep) }

func (a *Arc) PointAt(s float64) orb.Point {
	theta := a.angleAt(s)
	return orb.Point{a.Center[0] + a.Radius*math.Cos(theta), a.Center[1] + a.Radius*math.Sin(theta)}
}

func (a *Arc) TangentAt(s float64) orb.Point {
	theta := a.angleAt(s)
	if a.Sweep < 0 {
		return orb.Point{math.Sin(theta), -math.Cos(theta)}
	}
	return orb.Point{-math.Sin(theta), math.Cos(theta)}
}

func unit(v orb.Point) orb.Point {
	l := math.Hypot(v[0], v[1])
	if l == 0 {
		return orb.Point{}
	}
	return orb.Point{v[0] / l, v[1] / l}
}

// 左法向量
func leftNormal(t orb.Point) orb.Point {
	return orb.Point{-t[1], t[0]}
}
