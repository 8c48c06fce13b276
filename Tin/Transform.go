package Tin

import (
	"encoding/json"
	"fmt"
	"math"
)

// CoordsToPoint3D 将坐标数组转换为三维点，缺少Z时按0处理
func CoordsToPoint3D(coords [][]float64) ([]Point3D, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("coords is empty")
	}

	points := make([]Point3D, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate at index %d has insufficient dimensions (need at least 2, got %d)", i, len(coord))
		}
		point := Point3D{X: coord[0], Y: coord[1], ID: i}
		if len(coord) >= 3 {
			point.Z = coord[2]
		}
		if math.IsNaN(point.X) || math.IsNaN(point.Y) || math.IsNaN(point.Z) {
			return nil, fmt.Errorf("invalid coordinate at index %d", i)
		}
		points[i] = point
	}
	return points, nil
}

// GeoJSONGeometry 表示GeoJSON几何对象的结构
//
// orb 的几何类型只有二维，带高程的坐标需要从原始JSON中直接解析
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// GeometryToPoint3D 提取GeoJSON几何中的全部三维坐标
// 支持的几何类型：Point, MultiPoint, LineString, MultiLineString, Polygon
func GeometryToPoint3D(geom GeoJSONGeometry) ([][]float64, error) {
	switch geom.Type {
	case "Point":
		var coord []float64
		if err := json.Unmarshal(geom.Coordinates, &coord); err != nil {
			return nil, fmt.Errorf("failed to parse point coordinates: %v", err)
		}
		return [][]float64{coord}, nil
	case "MultiPoint", "LineString":
		var coords [][]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("failed to parse %s coordinates: %v", geom.Type, err)
		}
		return coords, nil
	case "MultiLineString", "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("failed to parse %s coordinates: %v", geom.Type, err)
		}
		var coords [][]float64
		for _, ring := range rings {
			coords = append(coords, ring...)
		}
		return coords, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", geom.Type)
	}
}

// GeometryStringToPoint3D 将GeoJSON Geometry字符串转换为三维点
func GeometryStringToPoint3D(geometryStr string) ([]Point3D, error) {
	var geom GeoJSONGeometry
	if err := json.Unmarshal([]byte(geometryStr), &geom); err != nil {
		return nil, fmt.Errorf("failed to parse geometry JSON: %v", err)
	}
	coords, err := GeometryToPoint3D(geom)
	if err != nil {
		return nil, err
	}
	return CoordsToPoint3D(coords)
}
