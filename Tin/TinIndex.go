package Tin

import (
	"math"

	"github.com/peterstace/simplefeatures/rtree"
)

// 构建派生查找结构：边->三角形邻接表、三角形外包框R树
func newTIN3D(points []Point3D, triangles []Triangle3D) *TIN3D {
	tin := &TIN3D{
		Points:    points,
		Triangles: triangles,
		edges:     make(map[Edge3D][2]int, len(triangles)*3/2+3),
	}

	items := make([]rtree.BulkItem, len(triangles))
	tin.bounds = rtree.Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for i, t := range triangles {
		for _, e := range tin.triangleEdges(i) {
			pair, ok := tin.edges[e]
			if !ok {
				pair = [2]int{i, -1}
			} else {
				pair[1] = i
			}
			tin.edges[e] = pair
		}
		box := tin.triangleBox(t)
		items[i] = rtree.BulkItem{Box: box, RecordID: i}
		tin.bounds.MinX = math.Min(tin.bounds.MinX, box.MinX)
		tin.bounds.MinY = math.Min(tin.bounds.MinY, box.MinY)
		tin.bounds.MaxX = math.Max(tin.bounds.MaxX, box.MaxX)
		tin.bounds.MaxY = math.Max(tin.bounds.MaxY, box.MaxY)
	}
	tin.index = rtree.BulkLoad(items)
	return tin
}

func (tin *TIN3D) triangleBox(t Triangle3D) rtree.Box {
	a, b, c := tin.Points[t.P1], tin.Points[t.P2], tin.Points[t.P3]
	return rtree.Box{
		MinX: math.Min(a.X, math.Min(b.X, c.X)),
		MinY: math.Min(a.Y, math.Min(b.Y, c.Y)),
		MaxX: math.Max(a.X, math.Max(b.X, c.X)),
		MaxY: math.Max(a.Y, math.Max(b.Y, c.Y)),
	}
}

// 三角形的三条边，顺序为 P1P2、P2P3、P3P1
func (tin *TIN3D) triangleEdges(i int) [3]Edge3D {
	t := tin.Triangles[i]
	return [3]Edge3D{newEdge(t.P1, t.P2), newEdge(t.P2, t.P3), newEdge(t.P3, t.P1)}
}

// Neighbors 返回与三角形 i 共边的三角形下标（对应 P1P2、P2P3、P3P1 三条边），凸包边上为 -1
func (tin *TIN3D) Neighbors(i int) [3]int {
	result := [3]int{-1, -1, -1}
	for k, e := range tin.triangleEdges(i) {
		pair := tin.edges[e]
		if pair[0] == i {
			result[k] = pair[1]
		} else {
			result[k] = pair[0]
		}
	}
	return result
}

// EdgeTriangles 返回共享该边的三角形，第二个值为 -1 表示凸包边
func (tin *TIN3D) EdgeTriangles(a, b int) ([2]int, bool) {
	pair, ok := tin.edges[newEdge(a, b)]
	return pair, ok
}

// Edges 返回全部无向边
func (tin *TIN3D) Edges() []Edge3D {
	edges := make([]Edge3D, 0, len(tin.edges))
	for e := range tin.edges {
		edges = append(edges, e)
	}
	return edges
}

// HullEdges 返回只属于一个三角形的边（凸包边界）
func (tin *TIN3D) HullEdges() []Edge3D {
	var edges []Edge3D
	for e, pair := range tin.edges {
		if pair[1] == -1 {
			edges = append(edges, e)
		}
	}
	return edges
}

// Bounds 返回XY外包框
func (tin *TIN3D) Bounds() (minX, minY, maxX, maxY float64) {
	return tin.bounds.MinX, tin.bounds.MinY, tin.bounds.MaxX, tin.bounds.MaxY
}
