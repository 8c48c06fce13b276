package alignment

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ContinuityTolerance 相邻单元首尾允许的最大间隙
const ContinuityTolerance = 1e-6

// Horizontal 平面线形：按里程顺序排列的直线/圆曲线单元，里程从0开始
type Horizontal struct {
	elements []Element
	starts   []float64 // 各单元起点里程
	length   float64
}

// NewHorizontal 校验单元连续性与长度后构造平面线形
func NewHorizontal(elements ...Element) (*Horizontal, error) {
	if len(elements) == 0 {
		return nil, malformed("horizontal", -1, "no elements")
	}
	h := &Horizontal{
		elements: make([]Element, len(elements)),
		starts:   make([]float64, len(elements)),
	}
	copy(h.elements, elements)

	station := 0.0
	for i, e := range h.elements {
		length := e.Length()
		if !(length > 0) || math.IsInf(length, 0) {
			return nil, malformed("horizontal", i, "element length %v is not positive", length)
		}
		if i > 0 {
			prev, cur := h.elements[i-1].End(), e.Start()
			if gap := planar.Distance(prev, cur); gap > continuityTolerance(cur) {
				return nil, malformed("horizontal", i, "gap of %.6g to previous element", gap)
			}
		}
		h.starts[i] = station
		station += length
	}
	h.length = station
	return h, nil
}

// 大坐标（如国家2000带号坐标）下按量级放宽容差
func continuityTolerance(p orb.Point) float64 {
	mag := math.Max(math.Abs(p[0]), math.Abs(p[1]))
	return ContinuityTolerance * math.Max(1, mag*1e-6)
}

// FromPolyline 由折线顶点构造全直线线形，重合的相邻顶点被忽略
func FromPolyline(vertices []orb.Point) (*Horizontal, error) {
	var elements []Element
	for i := 1; i < len(vertices); i++ {
		if planar.Distance(vertices[i-1], vertices[i]) == 0 {
			continue
		}
		elements = append(elements, NewLine(vertices[i-1], vertices[i]))
	}
	if len(elements) == 0 {
		return nil, malformed("horizontal", -1, "polyline needs at least two distinct vertices")
	}
	return NewHorizontal(elements...)
}

// FromPIs 由交点序列构造线形，radii[i] 为第 i+1 个交点（内部交点）处的圆曲线半径，0 表示不设曲线
func FromPIs(vertices []orb.Point, radii []float64) (*Horizontal, error) {
	if len(vertices) < 2 {
		return nil, malformed("horizontal", -1, "at least two PIs are required")
	}
	if len(radii) != 0 && len(radii) != len(vertices)-2 {
		return nil, malformed("horizontal", -1, "expected %d radii, got %d", len(vertices)-2, len(radii))
	}

	var elements []Element
	current := vertices[0]
	for i := 1; i < len(vertices)-1; i++ {
		r := 0.0
		if len(radii) > 0 {
			r = radii[i-1]
		}
		if r < 0 || math.IsNaN(r) {
			return nil, malformed("horizontal", i, "radius %v is negative", r)
		}
		pi := vertices[i]
		d1 := unit(orb.Point{pi[0] - vertices[i-1][0], pi[1] - vertices[i-1][1]})
		d2 := unit(orb.Point{vertices[i+1][0] - pi[0], vertices[i+1][1] - pi[1]})
		delta := math.Atan2(d1[0]*d2[1]-d1[1]*d2[0], d1[0]*d2[0]+d1[1]*d2[1])
		if r == 0 || math.Abs(delta) < 1e-12 {
			if planar.Distance(current, pi) > 0 {
				elements = append(elements, NewLine(current, pi))
			}
			current = pi
			continue
		}

		tangent := r * math.Tan(math.Abs(delta)/2)
		if tangent > planar.Distance(current, pi)+ContinuityTolerance ||
			tangent > planar.Distance(pi, vertices[i+1])+ContinuityTolerance {
			return nil, malformed("horizontal", i, "radius %v does not fit between neighbouring PIs", r)
		}
		pc := orb.Point{pi[0] - tangent*d1[0], pi[1] - tangent*d1[1]}
		n := leftNormal(d1)
		if delta < 0 {
			n = orb.Point{-n[0], -n[1]}
		}
		center := orb.Point{pc[0] + r*n[0], pc[1] + r*n[1]}

		if planar.Distance(current, pc) > ContinuityTolerance {
			elements = append(elements, NewLine(current, pc))
		}
		arc := NewArc(pc, center, delta)
		elements = append(elements, arc)
		current = arc.End()
	}
	last := vertices[len(vertices)-1]
	if planar.Distance(current, last) > ContinuityTolerance {
		elements = append(elements, NewLine(current, last))
	}
	return NewHorizontal(elements...)
}

// Length 线形总长
func (h *Horizontal) Length() float64 { return h.length }

// Elements 返回单元副本
func (h *Horizontal) Elements() []Element {
	out := make([]Element, len(h.elements))
	copy(out, h.elements)
	return out
}

// StartStation 第 i 个单元的起点里程
func (h *Horizontal) StartStation(i int) float64 { return h.starts[i] }

// 定位里程所在单元，返回单元下标与局部里程
func (h *Horizontal) locate(station float64) (int, float64, error) {
	eps := 1e-9 * math.Max(1, h.length)
	if math.IsNaN(station) || station < -eps || station > h.length+eps {
		return 0, 0, &StationOutOfRangeError{Station: station, Length: h.length}
	}
	station = math.Max(0, math.Min(station, h.length))
	i := sort.Search(len(h.starts), func(k int) bool { return h.starts[k] > station }) - 1
	if i < 0 {
		i = 0
	}
	local := math.Min(station-h.starts[i], h.elements[i].Length())
	return i, local, nil
}

// PointAt 里程对应的平面坐标
func (h *Horizontal) PointAt(station float64) (orb.Point, error) {
	i, s, err := h.locate(station)
	if err != nil {
		return orb.Point{}, err
	}
	return h.elements[i].PointAt(s), nil
}

// TangentAt 里程处的单位切向量；单元交接处取后一单元
func (h *Horizontal) TangentAt(station float64) (orb.Point, error) {
	i, s, err := h.locate(station)
	if err != nil {
		return orb.Point{}, err
	}
	return h.elements[i].TangentAt(s), nil
}

// NormalAt 里程处的单位左法向量，圆曲线上沿径向；正偏距位于前进方向左侧
func (h *Horizontal) NormalAt(station float64) (orb.Point, error) {
	t, err := h.TangentAt(station)
	if err != nil {
		return orb.Point{}, err
	}
	return leftNormal(t), nil
}

// Bound 线形外包框（按单元端点与圆曲线采样点估算）
func (h *Horizontal) Bound() orb.Bound {
	b := orb.Bound{Min: h.elements[0].Start(), Max: h.elements[0].Start()}
	for _, e := range h.elements {
		b = b.Extend(e.End())
		if _, ok := e.(*Arc); ok {
			for k := 1; k < 16; k++ {
				b = b.Extend(e.PointAt(e.Length() * float64(k) / 16))
			}
		}
	}
	return b
}

// LineString 以 step 为间距离散化中线，末点总是包含在内
func (h *Horizontal) LineString(step float64) orb.LineString {
	if step <= 0 {
		step = h.length
	}
	var ls orb.LineString
	for s := 0.0; s < h.length; s += step {
		p, _ := h.PointAt(s)
		ls = append(ls, p)
	}
	end, _ := h.PointAt(h.length)
	return append(ls, end)
}

// Stations 从0到 length 按 interval 取里程，长度不是整倍数时末端里程仍包含在内
func Stations(length, interval float64) []float64 {
	if !(interval > 0) || !(length > 0) {
		return nil
	}
	n := int(math.Floor(length/interval + 1e-9))
	stations := make([]float64, 0, n+2)
	for k := 0; k <= n; k++ {
		stations = append(stations, math.Min(float64(k)*interval, length))
	}
	if last := stations[len(stations)-1]; length-last > 1e-9*math.Max(1, length) {
		stations = append(stations, length)
	} else {
		stations[len(stations)-1] = length
	}
	return stations
}
