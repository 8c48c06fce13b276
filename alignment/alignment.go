// Package alignment 道路线形：平面（直线、圆曲线）、纵断面（含竖曲线）与超高表。
// 所有对象构造后只读，可被多个计算并发引用。
package alignment

import (
	"github.com/GrainArc/EarthWork/Tin"
	"github.com/paulmach/orb"
)

// Alignment 平纵横组合线形，Profile 与 Superelevation 可为空
type Alignment struct {
	Horizontal     *Horizontal
	Profile        *VerticalProfile
	Superelevation SuperelevationTable
}

func New(h *Horizontal, profile *VerticalProfile, table SuperelevationTable) (*Alignment, error) {
	if h == nil {
		return nil, malformed("horizontal", -1, "missing horizontal alignment")
	}
	return &Alignment{Horizontal: h, Profile: profile, Superelevation: table}, nil
}

func (a *Alignment) Length() float64 {
	if a == nil || a.Horizontal == nil {
		return 0
	}
	return a.Horizontal.Length()
}

func (a *Alignment) PointAt(station float64) (orb.Point, error) {
	return a.Horizontal.PointAt(station)
}

func (a *Alignment) NormalAt(station float64) (orb.Point, error) {
	return a.Horizontal.NormalAt(station)
}

// GradeElevation 设计线高程，没有纵断面时返回 false
func (a *Alignment) GradeElevation(station float64) (float64, bool) {
	if a.Profile == nil {
		return 0, false
	}
	return a.Profile.ElevationAt(station), true
}

// Point3At 里程处的三维中线点
func (a *Alignment) Point3At(station float64) (Tin.Point3D, error) {
	p, err := a.Horizontal.PointAt(station)
	if err != nil {
		return Tin.Point3D{}, err
	}
	z, ok := a.GradeElevation(station)
	if !ok {
		return Tin.Point3D{}, malformed("profile", -1, "alignment has no vertical profile")
	}
	return Tin.Point3D{X: p[0], Y: p[1], Z: z}, nil
}
