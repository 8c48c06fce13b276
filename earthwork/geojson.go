package earthwork

import (
	"github.com/GrainArc/EarthWork/section"
	"github.com/paulmach/orb/geojson"
)

// ToFeatureCollection 将调配表导出为中桩点要素，属性为该里程的面积、方量与累计值
func ToFeatureCollection(res *Result, line section.Centerline) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	gaps := make(map[float64]CoverageGap, len(res.Warnings))
	for _, g := range res.Warnings {
		gaps[g.Station] = g
	}
	for _, p := range res.Points {
		center, err := line.PointAt(p.Station)
		if err != nil {
			return nil, err
		}
		f := geojson.NewFeature(center)
		f.Properties["station"] = p.Station
		f.Properties["cut_area"] = p.CutArea
		f.Properties["fill_area"] = p.FillArea
		f.Properties["cut_volume"] = p.CutVolume
		f.Properties["fill_volume"] = p.FillVolume
		f.Properties["cumulative_cut"] = p.CumulativeCut
		f.Properties["cumulative_fill"] = p.CumulativeFill
		f.Properties["cumulative_net"] = p.CumulativeNet
		if g, ok := gaps[p.Station]; ok {
			f.Properties["coverage_gap"] = g.String()
		}
		fc.Append(f)
	}
	return fc, nil
}
