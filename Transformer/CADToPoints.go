package Transformer

import (
	"fmt"
	"io"
	"math"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/paulmach/orb"
	"github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"
)

const (
	tolerance = 1e-6 // 浮点数比较容差
)

// Polyline DXF中的一条多段线，LWPolyline 没有逐点高程，Has3D 为 false
type Polyline struct {
	Layer    string
	Vertices []Tin.Point3D
	Closed   bool
	Has3D    bool
}

// Vertices2D 平面顶点，相邻重复点被去掉
func (p Polyline) Vertices2D() []orb.Point {
	var out []orb.Point
	for _, v := range p.Vertices {
		pt := orb.Point{v.X, v.Y}
		if len(out) > 0 && pointsEqual(out[len(out)-1], pt) {
			continue
		}
		out = append(out, pt)
	}
	return out
}

// DxfData DXF中读出的多段线
type DxfData struct {
	Polylines []Polyline
	Crs       Crs
}

// 判断两个点是否相等（考虑浮点数误差）
func pointsEqual(p1, p2 orb.Point) bool {
	return math.Abs(p1[0]-p2[0]) < tolerance && math.Abs(p1[1]-p2[1]) < tolerance
}

// ReadDxf 读取实体段与块中的 POLYLINE（三维）和 LWPOLYLINE（二维）
func ReadDxf(r io.Reader) (*DxfData, error) {
	doc, err := document.DxfDocumentFromStream(r)
	if err != nil {
		return nil, fmt.Errorf("parsing dxf: %w", err)
	}
	data := &DxfData{}
	collect := func(entity interface{}) {
		var pl Polyline
		switch e := entity.(type) {
		case *entities.Polyline:
			pl = Polyline{Layer: GbkToUtf8(e.LayerName), Has3D: true}
			for _, vertex := range e.Vertices {
				pl.Vertices = append(pl.Vertices, Tin.Point3D{X: vertex.Location.X, Y: vertex.Location.Y, Z: vertex.Location.Z})
			}
		case *entities.LWPolyline:
			pl = Polyline{Layer: GbkToUtf8(e.LayerName), Closed: e.Closed}
			for _, vertex := range e.Points {
				pl.Vertices = append(pl.Vertices, Tin.Point3D{X: vertex.Point.X, Y: vertex.Point.Y})
			}
		default:
			return
		}
		if len(pl.Vertices) == 0 {
			return
		}
		data.Polylines = append(data.Polylines, pl)
	}

	for _, entity := range doc.Entities.Entities {
		collect(entity)
	}
	// 块中的实体
	for _, block := range doc.Blocks {
		for _, entity := range block.Entities {
			collect(entity)
		}
	}
	var all []orb.Point
	for _, pl := range data.Polylines {
		all = append(all, pl.Vertices2D()...)
	}
	data.Crs = DetectCrs(all)
	return data, nil
}

// SurfacePoints 三维多段线的全部顶点，作为构网测点；layer 非空时只取该图层
func (d *DxfData) SurfacePoints(layer string) (*PointSet, error) {
	ps := &PointSet{}
	for _, pl := range d.Polylines {
		if !pl.Has3D || (layer != "" && pl.Layer != layer) {
			continue
		}
		for _, v := range pl.Vertices {
			ps.Points = append(ps.Points, Tin.Point3D{X: v.X, Y: v.Y, Z: v.Z, ID: len(ps.Points)})
			ps.Names = append(ps.Names, pl.Layer)
		}
	}
	if len(ps.Points) == 0 {
		return nil, fmt.Errorf("dxf contains no 3D polyline vertices")
	}
	ps.Crs = DetectCrs(ps.Vertices())
	return ps, nil
}

// Centerline 取第一条（或指定图层的第一条）多段线作为线形中线
func (d *DxfData) Centerline(layer string) ([]orb.Point, error) {
	for _, pl := range d.Polylines {
		if layer != "" && pl.Layer != layer {
			continue
		}
		if v := pl.Vertices2D(); len(v) >= 2 {
			return v, nil
		}
	}
	return nil, fmt.Errorf("dxf contains no polyline usable as a centerline")
}
