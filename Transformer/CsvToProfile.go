package Transformer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/GrainArc/EarthWork/alignment"
)

// 读取数值表，首行不是数字时视为表头
func readNumberTable(r io.Reader, minCols int) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var rows [][]float64
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < minCols {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", line, minCols, len(record))
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				if line == 1 {
					row = nil
					break
				}
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			row[i] = v
		}
		if row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// ReadProfileCSV 读取纵断面：里程,高程[,竖曲线长]
func ReadProfileCSV(r io.Reader) (*alignment.VerticalProfile, error) {
	rows, err := readNumberTable(r, 2)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	points := make([]alignment.ProfilePoint, len(rows))
	for i, row := range rows {
		points[i] = alignment.ProfilePoint{Station: row[0], Elevation: row[1]}
		if len(row) > 2 {
			points[i].CurveLength = row[2]
		}
	}
	return alignment.NewVerticalProfile(points)
}

// ReadSuperelevationCSV 读取超高表：里程,左侧横坡,右侧横坡
func ReadSuperelevationCSV(r io.Reader) (alignment.SuperelevationTable, error) {
	rows, err := readNumberTable(r, 3)
	if err != nil {
		return nil, fmt.Errorf("reading superelevation: %w", err)
	}
	out := make([]alignment.SuperelevationRow, len(rows))
	for i, row := range rows {
		out[i] = alignment.SuperelevationRow{Station: row[0], LeftSlope: row[1], RightSlope: row[2]}
	}
	return alignment.NewSuperelevationTable(out)
}
