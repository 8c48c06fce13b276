package section

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToFeatureCollection 将横断面导出为GeoJSON：每个断面一条切线，属性中带偏距与两曲面高程
func ToFeatureCollection(sections []*CrossSection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, cs := range sections {
		if cs == nil || len(cs.Samples) == 0 {
			continue
		}
		line := make(orb.LineString, len(cs.Samples))
		offsets := make([]float64, len(cs.Samples))
		design := make([]*float64, len(cs.Samples))
		ground := make([]*float64, len(cs.Samples))
		for i, s := range cs.Samples {
			line[i] = orb.Point{s.X, s.Y}
			offsets[i] = s.Offset
			design[i] = s.Design
			ground[i] = s.Ground
		}
		feature := geojson.NewFeature(line)
		feature.Properties["station"] = cs.Station
		feature.Properties["offsets"] = offsets
		feature.Properties["design"] = design
		feature.Properties["ground"] = ground
		feature.Properties["missing_design"] = cs.MissingDesign
		feature.Properties["missing_ground"] = cs.MissingGround
		fc.Append(feature)
	}
	return fc
}
