package earthwork

import "github.com/GrainArc/EarthWork/section"

// SectionArea 单个横断面的挖填面积（均为非负值）
type SectionArea struct {
	Cut   float64 `json:"cut"`
	Fill  float64 `json:"fill"`
	Pairs int     `json:"pairs"` // 参与积分的相邻采样对数
}

// trapezoid 对相邻两个采样的高差 d1、d2（地面-设计）分别积分正负部分。
// 异号时按线性内插求零点，把梯形拆成两个三角形
func trapezoid(o1, d1, o2, d2 float64) (cut, fill float64) {
	w := o2 - o1
	switch {
	case d1 >= 0 && d2 >= 0:
		return (d1 + d2) / 2 * w, 0
	case d1 <= 0 && d2 <= 0:
		return 0, -(d1 + d2) / 2 * w
	}
	x := w * d1 / (d1 - d2) // 零点到 o1 的距离
	if d1 > 0 {
		return d1 * x / 2, -d2 * (w - x) / 2
	}
	return d2 * (w - x) / 2, -d1 * x / 2
}

// SectionAreas 按偏距顺序的高差剖面计算挖方、填方面积
func SectionAreas(offsets, diffs []float64) SectionArea {
	var a SectionArea
	for i := 1; i < len(offsets) && i < len(diffs); i++ {
		c, f := trapezoid(offsets[i-1], diffs[i-1], offsets[i], diffs[i])
		a.Cut += c
		a.Fill += f
		a.Pairs++
	}
	return a
}

// CrossSectionAreas 对横断面积分，任一端缺少设计面或地面数据的相邻采样对不参与积分
func CrossSectionAreas(cs *section.CrossSection) SectionArea {
	var a SectionArea
	for i := 1; i < len(cs.Samples); i++ {
		p, q := cs.Samples[i-1], cs.Samples[i]
		if p.Design == nil || p.Ground == nil || q.Design == nil || q.Ground == nil {
			continue
		}
		c, f := trapezoid(p.Offset, *p.Ground-*p.Design, q.Offset, *q.Ground-*q.Design)
		a.Cut += c
		a.Fill += f
		a.Pairs++
	}
	return a
}
