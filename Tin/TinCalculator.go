package Tin

import (
	"fmt"
	"math"

	"github.com/peterstace/simplefeatures/rtree"
)

// 重心坐标容差，落在边界上的点按在三角形内处理
const baryTolerance = 1e-9

// 计算二维点在三角形中的重心坐标
func (tin *TIN3D) barycentric(px, py float64, t Triangle3D) (a, b, c float64, ok bool) {
	p1, p2, p3 := tin.Points[t.P1], tin.Points[t.P2], tin.Points[t.P3]
	x1, y1 := p1.X, p1.Y
	x2, y2 := p2.X, p2.Y
	x3, y3 := p3.X, p3.Y

	denominator := (y2-y3)*(x1-x3) + (x3-x2)*(y1-y3)
	if denominator == 0 {
		return 0, 0, 0, false // 三角形退化
	}
	a = ((y2-y3)*(px-x3) + (x3-x2)*(py-y3)) / denominator
	b = ((y3-y1)*(px-x3) + (x1-x3)*(py-y3)) / denominator
	c = 1 - a - b
	return a, b, c, true
}

// LocateTriangle 查找包含 (x, y) 的三角形
//
// 边界包含：落在凸包边上的点视为在网内。点正好落在公共边或公共顶点上时，
// 返回下标最小的三角形，保证重复查询结果一致。
func (tin *TIN3D) LocateTriangle(x, y float64) (int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || len(tin.Triangles) == 0 {
		return -1, false
	}
	eps := baryTolerance * math.Max(1, math.Max(math.Abs(x), math.Abs(y)))
	box := rtree.Box{MinX: x - eps, MinY: y - eps, MaxX: x + eps, MaxY: y + eps}

	best := -1
	_ = tin.index.RangeSearch(box, func(id int) error {
		if best != -1 && id > best {
			return nil
		}
		a, b, c, ok := tin.barycentric(x, y, tin.Triangles[id])
		if ok && a >= -baryTolerance && b >= -baryTolerance && c >= -baryTolerance {
			best = id
		}
		return nil
	})
	return best, best >= 0
}

// ElevationAt 获取二维点在TIN上的插值高程，点在凸包外时返回 false（不外推）
func (tin *TIN3D) ElevationAt(x, y float64) (float64, bool) {
	i, ok := tin.LocateTriangle(x, y)
	if !ok {
		return 0, false
	}
	t := tin.Triangles[i]
	a, b, c, _ := tin.barycentric(x, y, t)
	return a*tin.Points[t.P1].Z + b*tin.Points[t.P2].Z + c*tin.Points[t.P3].Z, true
}

// GetElevationAt 与 ElevationAt 相同，点在网外时返回错误
func (tin *TIN3D) GetElevationAt(x, y float64) (float64, error) {
	z, ok := tin.ElevationAt(x, y)
	if !ok {
		return 0, fmt.Errorf("point (%.3f, %.3f) is not inside any triangle of the TIN", x, y)
	}
	return z, nil
}

// GetElevationsAt 批量获取多个点的高程，网外的点为 NaN
func (tin *TIN3D) GetElevationsAt(points []Point2D) []float64 {
	elevations := make([]float64, len(points))
	for i, p := range points {
		z, ok := tin.ElevationAt(p.X, p.Y)
		if !ok {
			z = math.NaN()
		}
		elevations[i] = z
	}
	return elevations
}

// GetElevationGrid 获取指定区域内的高程网格，网外的格点为 NaN
func (tin *TIN3D) GetElevationGrid(minX, minY, maxX, maxY float64, stepX, stepY float64) ([][]float64, error) {
	if stepX <= 0 || stepY <= 0 {
		return nil, fmt.Errorf("step size must be positive")
	}
	if maxX < minX || maxY < minY {
		return nil, fmt.Errorf("invalid grid extent")
	}

	nx := int(math.Floor((maxX-minX)/stepX)) + 1
	ny := int(math.Floor((maxY-minY)/stepY)) + 1

	grid := make([][]float64, ny)
	for i := 0; i < ny; i++ {
		grid[i] = make([]float64, nx)
		y := minY + float64(i)*stepY
		for j := 0; j < nx; j++ {
			x := minX + float64(j)*stepX
			z, ok := tin.ElevationAt(x, y)
			if !ok {
				z = math.NaN()
			}
			grid[i][j] = z
		}
	}
	return grid, nil
}

// TriangleNormal 计算三角形单位法向量（朝上）
func (tin *TIN3D) TriangleNormal(i int) (float64, float64, float64) {
	t := tin.Triangles[i]
	p1, p2, p3 := tin.Points[t.P1], tin.Points[t.P2], tin.Points[t.P3]
	v1x, v1y, v1z := p2.X-p1.X, p2.Y-p1.Y, p2.Z-p1.Z
	v2x, v2y, v2z := p3.X-p1.X, p3.Y-p1.Y, p3.Z-p1.Z

	nx := v1y*v2z - v1z*v2y
	ny := v1z*v2x - v1x*v2z
	nz := v1x*v2y - v1y*v2x

	length := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if length > 0 {
		nx /= length
		ny /= length
		nz /= length
	}
	return nx, ny, nz
}

// TriangleArea 三角形三维面积
func (tin *TIN3D) TriangleArea(i int) float64 {
	t := tin.Triangles[i]
	p1, p2, p3 := tin.Points[t.P1], tin.Points[t.P2], tin.Points[t.P3]
	v1x, v1y, v1z := p2.X-p1.X, p2.Y-p1.Y, p2.Z-p1.Z
	v2x, v2y, v2z := p3.X-p1.X, p3.Y-p1.Y, p3.Z-p1.Z
	cx := v1y*v2z - v1z*v2y
	cy := v1z*v2x - v1x*v2z
	cz := v1x*v2y - v1y*v2x
	return math.Sqrt(cx*cx+cy*cy+cz*cz) / 2
}

// TrianglePlanArea 三角形XY投影面积
func (tin *TIN3D) TrianglePlanArea(i int) float64 {
	t := tin.Triangles[i]
	p1, p2, p3 := tin.Points[t.P1], tin.Points[t.P2], tin.Points[t.P3]
	return math.Abs((p2.X-p1.X)*(p3.Y-p1.Y)-(p3.X-p1.X)*(p2.Y-p1.Y)) / 2
}

// GetSlopeAndAspect 计算指定点所在三角面的坡度和坡向（弧度，坡向从北顺时针）
func (tin *TIN3D) GetSlopeAndAspect(x, y float64) (slope, aspect float64, err error) {
	i, ok := tin.LocateTriangle(x, y)
	if !ok {
		return 0, 0, fmt.Errorf("point (%.3f, %.3f) is not inside any triangle of the TIN", x, y)
	}
	nx, ny, nz := tin.TriangleNormal(i)
	if nz == 0 {
		return math.Pi / 2, 0, nil
	}
	// 平面 z = f(x, y) 的梯度
	dzdx := -nx / nz
	dzdy := -ny / nz

	slope = math.Atan(math.Sqrt(dzdx*dzdx + dzdy*dzdy))
	if dzdx == 0 && dzdy == 0 {
		aspect = 0 // 平地
	} else {
		aspect = math.Atan2(dzdx, dzdy)
		if aspect < 0 {
			aspect += 2 * math.Pi
		}
	}
	return slope, aspect, nil
}

// Summary TIN统计信息
type Summary struct {
	Points      int     `json:"points"`
	Triangles   int     `json:"triangles"`
	Edges       int     `json:"edges"`
	MinZ        float64 `json:"min_z"`
	MaxZ        float64 `json:"max_z"`
	AvgZ        float64 `json:"avg_z"`
	PlanArea    float64 `json:"plan_area"`
	SurfaceArea float64 `json:"surface_area"`
}

// Summary 计算高程、面积统计
func (tin *TIN3D) Summary() Summary {
	s := Summary{Points: len(tin.Points), Triangles: len(tin.Triangles), Edges: len(tin.edges)}
	if len(tin.Points) > 0 {
		s.MinZ, s.MaxZ = tin.Points[0].Z, tin.Points[0].Z
		for _, p := range tin.Points {
			s.MinZ = math.Min(s.MinZ, p.Z)
			s.MaxZ = math.Max(s.MaxZ, p.Z)
			s.AvgZ += p.Z
		}
		s.AvgZ /= float64(len(tin.Points))
	}
	for i := range tin.Triangles {
		s.PlanArea += tin.TrianglePlanArea(i)
		s.SurfaceArea += tin.TriangleArea(i)
	}
	return s
}

// WithPoints 返回加入新点后重新构建的TIN，原TIN不变
func (tin *TIN3D) WithPoints(extra []Point3D) (*TIN3D, error) {
	points := make([]Point3D, 0, len(tin.Points)+len(extra))
	points = append(points, tin.Points...)
	points = append(points, extra...)
	return CreateTIN3D(points)
}

// Merge 合并两个TIN的顶点重新构网，other 中与已有顶点距离小于 tolerance 的点被丢弃
func (tin *TIN3D) Merge(other *TIN3D, tolerance float64) (*TIN3D, error) {
	if tolerance <= 0 {
		tolerance = MergeTolerance
	}
	points := make([]Point3D, 0, len(tin.Points)+len(other.Points))
	points = append(points, tin.Points...)
	points = append(points, other.Points...)
	return createTIN3D(points, tolerance)
}
