package alignment

import "math"

// SuperelevationRow 超高表的一行，横坡为带符号的比值（-0.02 表示向外侧下降2%）
type SuperelevationRow struct {
	Station    float64 `json:"station"`
	LeftSlope  float64 `json:"left_slope"`
	RightSlope float64 `json:"right_slope"`
}

// SuperelevationTable 超高表，里程严格递增
type SuperelevationTable []SuperelevationRow

func NewSuperelevationTable(rows []SuperelevationRow) (SuperelevationTable, error) {
	for i, r := range rows {
		if math.IsNaN(r.Station) || math.IsNaN(r.LeftSlope) || math.IsNaN(r.RightSlope) {
			return nil, malformed("superelevation", i, "non-finite row")
		}
		if i > 0 && r.Station <= rows[i-1].Station {
			return nil, malformed("superelevation", i, "station %v does not increase", r.Station)
		}
	}
	out := make(SuperelevationTable, len(rows))
	copy(out, rows)
	return out, nil
}

// At 取里程不大于 station 的最后一行；前面没有行时取第一行。空表返回 false
func (t SuperelevationTable) At(station float64) (SuperelevationRow, bool) {
	if len(t) == 0 {
		return SuperelevationRow{}, false
	}
	row := t[0]
	for _, r := range t {
		if r.Station > station {
			break
		}
		row = r
	}
	return row, true
}
