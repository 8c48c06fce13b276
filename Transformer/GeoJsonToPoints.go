package Transformer

import (
	"encoding/json"
	"fmt"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// 原始要素结构，保留坐标中的Z值
type rawFeature struct {
	Type       string                 `json:"type"`
	Geometry   *Tin.GeoJSONGeometry   `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

func readGeometries(data []byte) ([]rawFeature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}
	switch head.Type {
	case "FeatureCollection":
		var fc rawCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		return fc.Features, nil
	case "Feature":
		var f rawFeature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		return []rawFeature{f}, nil
	default:
		var g Tin.GeoJSONGeometry
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parsing geojson: %w", err)
		}
		return []rawFeature{{Type: "Feature", Geometry: &g}}, nil
	}
}

// ReadGeoJSONPoints 读取 GeoJSON 中全部带高程的坐标（点、线、面顶点），缺少Z的坐标被跳过
func ReadGeoJSONPoints(data []byte) (*PointSet, error) {
	features, err := readGeometries(data)
	if err != nil {
		return nil, err
	}
	ps := &PointSet{}
	for i, f := range features {
		if f.Geometry == nil {
			continue
		}
		coords, err := Tin.GeometryToPoint3D(*f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		name := ""
		if v, ok := f.Properties["name"].(string); ok {
			name = v
		}
		for _, c := range coords {
			if len(c) < 3 {
				ps.Skipped++
				continue
			}
			ps.add(name, c[0], c[1], c[2])
		}
	}
	if len(ps.Points) == 0 {
		return nil, fmt.Errorf("geojson contains no coordinates with elevation")
	}
	ps.Crs = DetectCrs(ps.Vertices())
	return ps, nil
}

// ReadGeoJSONCenterline 取第一条线要素作为中线
func ReadGeoJSONCenterline(data []byte) ([]orb.Point, Crs, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, Crs{}, fmt.Errorf("parsing geojson: %w", err)
	}
	fc := geojson.NewFeatureCollection()
	switch head.Type {
	case "FeatureCollection":
		parsed, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, Crs{}, fmt.Errorf("parsing geojson: %w", err)
		}
		fc = parsed
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, Crs{}, fmt.Errorf("parsing geojson: %w", err)
		}
		fc.Append(f)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, Crs{}, fmt.Errorf("parsing geojson: %w", err)
		}
		fc.Append(geojson.NewFeature(g.Geometry()))
	}
	for _, f := range fc.Features {
		var line orb.LineString
		switch g := f.Geometry.(type) {
		case orb.LineString:
			line = g
		case orb.MultiLineString:
			if len(g) > 0 {
				line = g[0]
			}
		}
		if len(line) >= 2 {
			return []orb.Point(line), DetectCrs(line), nil
		}
	}
	return nil, Crs{}, fmt.Errorf("geojson contains no line feature")
}
