// Package section 沿线形切取横断面，并在每个偏距上分别查询设计面与地面高程。
package section

import (
	"fmt"
	"math"

	"github.com/GrainArc/EarthWork/errkind"
	"github.com/paulmach/orb"
)

// Surface 可查询高程的曲面，点在曲面范围外时返回 false
type Surface interface {
	ElevationAt(x, y float64) (float64, bool)
}

// Centerline 提供里程到平面坐标和横断面方向的映射
type Centerline interface {
	PointAt(station float64) (orb.Point, error)
	NormalAt(station float64) (orb.Point, error)
}

// InvalidIntervalError 里程间距、偏距步长或横断面宽度非正
type InvalidIntervalError struct {
	Name  string
	Value float64
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("%s must be positive, got %v", e.Name, e.Value)
}

func (e *InvalidIntervalError) Unwrap() error { return errkind.Domain }

// CheckPositive 校验参数为正的有限值
func CheckPositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &InvalidIntervalError{Name: name, Value: v}
	}
	return nil
}

// SamplePoint 横断面上一个偏距处的采样，Design/Ground 为 nil 表示该曲面在此处无数据
type SamplePoint struct {
	Offset float64  `json:"offset"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Design *float64 `json:"design"`
	Ground *float64 `json:"ground"`
}

// CrossSection 某一里程处的横断面
type CrossSection struct {
	Station       float64       `json:"station"`
	Center        orb.Point     `json:"center"`
	Normal        orb.Point     `json:"normal"`
	Samples       []SamplePoint `json:"samples"`
	MissingDesign int           `json:"missing_design"`
	MissingGround int           `json:"missing_ground"`
}

// Covered 所有偏距两个曲面都有数据
func (c *CrossSection) Covered() bool {
	return c.MissingDesign == 0 && c.MissingGround == 0
}

// Offsets 以中桩为起点向两侧按 step 递增的偏距，始终包含0，最外侧截取到 ±width/2。
// 与从 -width/2 起步、只截取最后一个偏距的网格不同，width/2 不是 step 的整数倍时
// 两侧最外一段都短于 step，各偏距关于中桩对称
func Offsets(width, step float64) []float64 {
	half := width / 2
	n := 0
	if half > 0 {
		n = int(math.Ceil(half/step - 1e-9))
	}
	offsets := make([]float64, 0, 2*n+1)
	for k := -n; k <= n; k++ {
		o := float64(k) * step
		if o > half {
			o = half
		} else if o < -half {
			o = -half
		}
		offsets = append(offsets, o)
	}
	return offsets
}

// Sample 在 station 处切取宽度为 width 的横断面，世界坐标 = 中桩 + 偏距 × 左法向量
func Sample(line Centerline, station, width, step float64, design, ground Surface) (*CrossSection, error) {
	if err := CheckPositive("width", width); err != nil {
		return nil, err
	}
	if err := CheckPositive("offset step", step); err != nil {
		return nil, err
	}
	center, err := line.PointAt(station)
	if err != nil {
		return nil, err
	}
	normal, err := line.NormalAt(station)
	if err != nil {
		return nil, err
	}

	offsets := Offsets(width, step)
	cs := &CrossSection{
		Station: station,
		Center:  center,
		Normal:  normal,
		Samples: make([]SamplePoint, len(offsets)),
	}
	for i, o := range offsets {
		x, y := center[0]+o*normal[0], center[1]+o*normal[1]
		s := SamplePoint{Offset: o, X: x, Y: y}
		if z, ok := design.ElevationAt(x, y); ok {
			s.Design = &z
		} else {
			cs.MissingDesign++
		}
		if z, ok := ground.ElevationAt(x, y); ok {
			s.Ground = &z
		} else {
			cs.MissingGround++
		}
		cs.Samples[i] = s
	}
	return cs, nil
}
