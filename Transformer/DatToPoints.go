package Transformer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/GrainArc/EarthWork/Tin"
	"github.com/GrainArc/EarthWork/config"
	"github.com/paulmach/orb"
)

// PointSet 导入得到的测点，Crs 为按全部坐标检测到的带号坐标系（可能为零值）
type PointSet struct {
	Points  []Tin.Point3D
	Names   []string
	Crs     Crs
	Skipped int // 无法解析而跳过的行数
}

// Vertices 测点的平面坐标，按导入顺序
func (ps *PointSet) Vertices() []orb.Point {
	out := make([]orb.Point, len(ps.Points))
	for i, p := range ps.Points {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

func (ps *PointSet) add(name string, x, y, z float64) {
	ps.Points = append(ps.Points, Tin.Point3D{X: x, Y: y, Z: z, ID: len(ps.Points)})
	ps.Names = append(ps.Names, name)
}

// ReadDat 读取南方CASS展点文件，每行 "点名,编码,X(东),Y(北),H"，编码自动识别
func ReadDat(r io.Reader) (*PointSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dat: %w", err)
	}
	ps := &PointSet{}
	scanner := bufio.NewScanner(strings.NewReader(decodeText(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		coord := strings.Split(line, ",")
		if len(coord) < 5 {
			ps.Skipped++
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(coord[2]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(coord[3]), 64)
		z, errZ := strconv.ParseFloat(strings.TrimSpace(coord[4]), 64)
		if errX != nil || errY != nil || errZ != nil {
			ps.Skipped++
			continue
		}
		ps.add(strings.TrimSpace(coord[0]), x, y, z)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dat: %w", err)
	}
	if ps.Skipped > 0 {
		config.Logger().Warn("dat lines skipped", "skipped", ps.Skipped, "points", len(ps.Points))
	}
	if len(ps.Points) == 0 {
		return nil, fmt.Errorf("dat file contains no points")
	}
	ps.Crs = DetectCrs(ps.Vertices())
	return ps, nil
}

// ReadXYZ 读取以逗号、空格或制表符分隔的 "X Y Z" 文本，非数字行（表头）被跳过
func ReadXYZ(r io.Reader) (*PointSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading xyz: %w", err)
	}
	ps := &PointSet{}
	scanner := bufio.NewScanner(strings.NewReader(decodeText(data)))
	for scanner.Scan() {
		fields := strings.FieldsFunc(scanner.Text(), func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		if len(fields) < 3 {
			continue
		}
		var v [3]float64
		ok := true
		for i := 0; i < 3; i++ {
			if v[i], err = strconv.ParseFloat(fields[len(fields)-3+i], 64); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			ps.Skipped++
			continue
		}
		name := ""
		if len(fields) > 3 {
			name = fields[0]
		}
		ps.add(name, v[0], v[1], v[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading xyz: %w", err)
	}
	if len(ps.Points) == 0 {
		return nil, fmt.Errorf("xyz file contains no points")
	}
	ps.Crs = DetectCrs(ps.Vertices())
	return ps, nil
}
