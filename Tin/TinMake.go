package Tin

import (
	"math"
	"math/big"
	"sort"
	"strconv"

	"github.com/GrainArc/EarthWork/config"
)

// MergeTolerance 平面距离小于该值的点视为重复点，只保留先出现的一个
const MergeTolerance = 1e-6

// 单位尺度下判断全部共线的容差
const collinearEpsilon = 1e-12

type vec2 struct{ x, y float64 }

// 浮点误差界（Shewchuk），超出误差界时浮点结果的符号可信，否则用有理数精确计算
const machineEpsilon = 1.1102230246251565e-16

var (
	orientErrBound   = (3 + 16*machineEpsilon) * machineEpsilon
	inCircleErrBound = (10 + 96*machineEpsilon) * machineEpsilon
)

// 叉积，>0 表示 c 在 a->b 左侧；符号精确
func orient(a, b, c vec2) float64 {
	detLeft := (a.x - c.x) * (b.y - c.y)
	detRight := (a.y - c.y) * (b.x - c.x)
	det := detLeft - detRight
	bound := orientErrBound * (math.Abs(detLeft) + math.Abs(detRight))
	if det > bound || -det > bound {
		return det
	}
	return float64(orientExact(a, b, c))
}

// 判断 d 是否在逆时针三角形 abc 的外接圆内，>0 表示在圆内，=0 表示四点共圆；符号精确
func inCircle(a, b, c, d vec2) float64 {
	adx, ady := a.x-d.x, a.y-d.y
	bdx, bdy := b.x-d.x, b.y-d.y
	cdx, cdy := c.x-d.x, c.y-d.y
	bdxcdy, cdxbdy := bdx*cdy, cdx*bdy
	cdxady, adxcdy := cdx*ady, adx*cdy
	adxbdy, bdxady := adx*bdy, bdx*ady
	alift := adx*adx + ady*ady
	blift := bdx*bdx + bdy*bdy
	clift := cdx*cdx + cdy*cdy
	det := alift*(bdxcdy-cdxbdy) + blift*(cdxady-adxcdy) + clift*(adxbdy-bdxady)
	permanent := (math.Abs(bdxcdy)+math.Abs(cdxbdy))*alift +
		(math.Abs(cdxady)+math.Abs(adxcdy))*blift +
		(math.Abs(adxbdy)+math.Abs(bdxady))*clift
	bound := inCircleErrBound * permanent
	if det > bound || -det > bound {
		return det
	}
	return float64(inCircleExact(a, b, c, d))
}

func rat(v float64) *big.Rat        { return new(big.Rat).SetFloat64(v) }
func ratSub(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }
func ratMul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }

func orientExact(a, b, c vec2) int {
	acx, acy := ratSub(rat(a.x), rat(c.x)), ratSub(rat(a.y), rat(c.y))
	bcx, bcy := ratSub(rat(b.x), rat(c.x)), ratSub(rat(b.y), rat(c.y))
	return ratSub(ratMul(acx, bcy), ratMul(acy, bcx)).Sign()
}

func inCircleExact(a, b, c, d vec2) int {
	dx, dy := rat(d.x), rat(d.y)
	adx, ady := ratSub(rat(a.x), dx), ratSub(rat(a.y), dy)
	bdx, bdy := ratSub(rat(b.x), dx), ratSub(rat(b.y), dy)
	cdx, cdy := ratSub(rat(c.x), dx), ratSub(rat(c.y), dy)
	lift := func(x, y *big.Rat) *big.Rat { return new(big.Rat).Add(ratMul(x, x), ratMul(y, y)) }
	det := ratMul(lift(adx, ady), ratSub(ratMul(bdx, cdy), ratMul(cdx, bdy)))
	det.Add(det, ratMul(lift(bdx, bdy), ratSub(ratMul(cdx, ady), ratMul(adx, cdy))))
	det.Add(det, ratMul(lift(cdx, cdy), ratSub(ratMul(adx, bdy), ratMul(bdx, ady))))
	return det.Sign()
}

// CreateTIN3D 由三维点构建TIN（XY平面上的Delaunay三角剖分）
func CreateTIN3D(points []Point3D) (*TIN3D, error) {
	return createTIN3D(points, MergeTolerance)
}

func createTIN3D(points []Point3D, tolerance float64) (*TIN3D, error) {
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) ||
			math.IsNaN(p.Z) || math.IsInf(p.Z, 0) {
			return nil, &DegenerateInputError{Input: len(points), Reason: "non-finite coordinate at index " + strconv.Itoa(i)}
		}
	}

	unique := mergeDuplicates(points, tolerance)
	if len(unique) < 3 {
		return nil, &DegenerateInputError{Input: len(points), Unique: len(unique), Reason: "fewer than 3 unique points"}
	}

	if allCollinear(normalize(unique)) {
		return nil, &DegenerateInputError{Input: len(points), Unique: len(unique), Reason: "all points are collinear"}
	}

	// 在原始坐标上构网，缩放舍入会改变共线、共圆关系
	pts := make([]vec2, len(unique))
	for i, p := range unique {
		pts[i] = vec2{p.X, p.Y}
	}
	triangles := delaunayTriangulation(pts)

	tin := newTIN3D(unique, triangles)
	if merged := len(points) - len(unique); merged > 0 {
		config.Logger().Warn("merged near-duplicate points", "merged", merged, "tolerance", tolerance)
	}
	config.Logger().Debug("TIN built", "points", len(tin.Points), "triangles", len(tin.Triangles))
	return tin, nil
}

// 合并近似重复点，按网格哈希查找相邻单元
func mergeDuplicates(points []Point3D, tolerance float64) []Point3D {
	type cell struct{ i, j int64 }
	grid := make(map[cell][]int, len(points))
	unique := make([]Point3D, 0, len(points))
	tol2 := tolerance * tolerance

	for _, p := range points {
		c := cell{int64(math.Floor(p.X / tolerance)), int64(math.Floor(p.Y / tolerance))}
		duplicate := false
		for di := int64(-1); di <= 1 && !duplicate; di++ {
			for dj := int64(-1); dj <= 1; dj++ {
				for _, k := range grid[cell{c.i + di, c.j + dj}] {
					dx, dy := unique[k].X-p.X, unique[k].Y-p.Y
					if dx*dx+dy*dy <= tol2 {
						duplicate = true
						break
					}
				}
				if duplicate {
					break
				}
			}
		}
		if duplicate {
			continue
		}
		grid[c] = append(grid[c], len(unique))
		unique = append(unique, p)
	}
	return unique
}

// 平移缩放到以原点为中心的单位尺度，用于按相对容差判断共线
func normalize(points []Point3D) []vec2 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	scale := math.Max(maxX-minX, maxY-minY)
	if scale == 0 {
		scale = 1
	}
	local := make([]vec2, len(points))
	for i, p := range points {
		local[i] = vec2{(p.X - cx) / scale, (p.Y - cy) / scale}
	}
	return local
}

func allCollinear(pts []vec2) bool {
	a := pts[0]
	far, best := 0, 0.0
	for i, p := range pts {
		d := (p.x-a.x)*(p.x-a.x) + (p.y-a.y)*(p.y-a.y)
		if d > best {
			far, best = i, d
		}
	}
	b := pts[far]
	for _, p := range pts {
		if math.Abs((b.x-a.x)*(p.y-a.y)-(b.y-a.y)*(p.x-a.x)) > collinearEpsilon {
			return false
		}
	}
	return true
}

type directed struct{ u, v int }

// mesh 构网过程中的三角形表，有向边 -> 所在三角形
type mesh struct {
	pts       []vec2
	triangles []Triangle3D
	owner     map[directed]int
}

func (m *mesh) register(i int) {
	t := m.triangles[i]
	m.owner[directed{t.P1, t.P2}] = i
	m.owner[directed{t.P2, t.P3}] = i
	m.owner[directed{t.P3, t.P1}] = i
}

func (m *mesh) unregister(i int) {
	t := m.triangles[i]
	delete(m.owner, directed{t.P1, t.P2})
	delete(m.owner, directed{t.P2, t.P3})
	delete(m.owner, directed{t.P3, t.P1})
}

// add 添加逆时针三角形 abc
func (m *mesh) add(a, b, c int) {
	m.triangles = append(m.triangles, Triangle3D{P1: a, P2: b, P3: c})
	m.register(len(m.triangles) - 1)
}

func (m *mesh) opposite(t, a, b int) int {
	for _, x := range m.triangles[t].Vertices() {
		if x != a && x != b {
			return x
		}
	}
	return -1
}

// flip 检查有向边 e 两侧的三角形，对顶点落在外接圆内时翻边，返回需要复查的四条外边
func (m *mesh) flip(e directed) []directed {
	t, ok := m.owner[e]
	if !ok {
		return nil
	}
	j, ok := m.owner[directed{e.v, e.u}]
	if !ok {
		return nil
	}
	a, b := e.u, e.v
	c, d := m.opposite(t, a, b), m.opposite(j, b, a)
	pa, pb, pc, pd := m.pts[a], m.pts[b], m.pts[c], m.pts[d]
	if inCircle(pa, pb, pc, pd) <= 0 {
		return nil
	}
	// 四边形 a,d,b,c 严格凸时翻边后两个三角形仍为逆时针且不重叠
	if orient(pa, pd, pc) <= 0 || orient(pd, pb, pc) <= 0 {
		return nil
	}
	m.unregister(t)
	m.unregister(j)
	m.triangles[t] = Triangle3D{P1: a, P2: d, P3: c}
	m.triangles[j] = Triangle3D{P1: d, P2: b, P3: c}
	m.register(t)
	m.register(j)
	return []directed{{a, d}, {d, b}, {b, c}, {c, a}}
}

func (m *mesh) legalize(stack []directed) {
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, m.flip(e)...)
	}
}

// Delaunay三角剖分，返回逆时针三角形
//
// 点按 (x, y) 排序后逐个插入，每个新点都严格位于已有点的凸包之外，
// 只与它可见的凸包边连成新三角形，因此三角形之间不会重叠，且最终覆盖整个凸包。
// 新三角形与相邻三角形之间用 Lawson 翻边恢复空外接圆性质，最后再整体检查一遍。
func delaunayTriangulation(pts []vec2) []Triangle3D {
	order := make([]int, len(pts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := pts[order[i]], pts[order[j]]
		if a.x != b.x {
			return a.x < b.x
		}
		return a.y < b.y
	})

	m := &mesh{pts: pts, owner: make(map[directed]int, len(pts)*6)}

	// 开头共线的一串点与第一个不共线的点连成扇形
	k := 2
	for k < len(order) && orient(pts[order[0]], pts[order[1]], pts[order[k]]) == 0 {
		k++
	}
	if k == len(order) {
		return nil
	}
	chain, apex := order[:k], order[k]
	left := orient(pts[chain[0]], pts[chain[1]], pts[apex]) > 0
	hull := make([]int, 0, k+1)
	if left {
		for j := 0; j+1 < k; j++ {
			m.add(chain[j], chain[j+1], apex)
		}
		hull = append(append(hull, chain...), apex)
	} else {
		for j := 0; j+1 < k; j++ {
			m.add(chain[j+1], chain[j], apex)
		}
		hull = append(hull, apex)
		for j := k - 1; j >= 0; j-- {
			hull = append(hull, chain[j])
		}
	}

	for _, p := range order[k+1:] {
		hull = m.insertOutside(hull, p)
	}

	// 整体检查，处理扇形初始化留下的非Delaunay边
	stack := make([]directed, 0, len(m.triangles)*3)
	for _, t := range m.triangles {
		stack = append(stack, directed{t.P1, t.P2}, directed{t.P2, t.P3}, directed{t.P3, t.P1})
	}
	m.legalize(stack)
	return m.triangles
}

// insertOutside 插入凸包外的点 p，hull 为逆时针凸包环，返回新的凸包环
func (m *mesh) insertOutside(hull []int, p int) []int {
	n := len(hull)
	pp := m.pts[p]
	visible := make([]bool, n)
	for i := range hull {
		visible[i] = orient(m.pts[hull[i]], m.pts[hull[(i+1)%n]], pp) < 0
	}
	// 可见边在环上连续，找到第一条
	start := -1
	for i := range hull {
		if visible[i] && !visible[(i+n-1)%n] {
			start = i
			break
		}
	}
	if start < 0 {
		// 与已有点重合，无法成为顶点
		config.Logger().Debug("point skipped during triangulation", "index", p)
		return hull
	}

	count := 0
	var stack []directed
	for visible[(start+count)%n] {
		u, v := hull[(start+count)%n], hull[(start+count+1)%n]
		m.add(v, u, p)
		stack = append(stack, directed{v, u})
		count++
	}
	m.legalize(stack)

	next := make([]int, 0, n-count+2)
	next = append(next, hull[start], p)
	for j := count; j < n; j++ {
		next = append(next, hull[(start+j)%n])
	}
	return next
}
