package Tin

import (
	"fmt"

	"github.com/GrainArc/EarthWork/errkind"
	"github.com/peterstace/simplefeatures/rtree"
)

// Point3D 表示一个三维点
type Point3D struct {
	X, Y, Z float64
	ID      int
}

// Point2D 表示一个二维点
type Point2D struct {
	X, Y float64
	ID   int
}

// Triangle3D 三角形，P1/P2/P3 为顶点在 TIN3D.Points 中的下标，按XY平面逆时针排列
type Triangle3D struct {
	P1, P2, P3 int
}

// Vertices 以数组形式返回三个顶点下标
func (t Triangle3D) Vertices() [3]int {
	return [3]int{t.P1, t.P2, t.P3}
}

// Edge3D 无向边，始终满足 P1 < P2
type Edge3D struct {
	P1, P2 int
}

func newEdge(a, b int) Edge3D {
	if a > b {
		a, b = b, a
	}
	return Edge3D{P1: a, P2: b}
}

// TIN3D 三维三角不规则网络
//
// 顶点保存在 Points 中，三角形只保存顶点下标；边到三角形的邻接关系和
// 三角形外包框的R树都是构建时派生出来的查找结构。TIN3D 构建后只读，
// 多个计算可以并发查询同一个 TIN3D；任何编辑都通过 WithPoints / Merge
// 生成新的 TIN3D。
type TIN3D struct {
	Points    []Point3D
	Triangles []Triangle3D

	edges  map[Edge3D][2]int
	index  *rtree.RTree
	bounds rtree.Box
}

// DegenerateInputError 点集无法构成三角网
type DegenerateInputError struct {
	Input  int
	Unique int
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate point set: %s (%d input points, %d unique)", e.Reason, e.Input, e.Unique)
}

func (e *DegenerateInputError) Unwrap() error { return errkind.Input }
