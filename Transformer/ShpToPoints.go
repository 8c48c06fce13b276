package Transformer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gitee.com/LJ_COOL/go-shp"
)

// 二维点要素从属性表中读取高程时识别的字段名
var elevationFields = []string{"Z", "H", "ELEV", "ELEVATION", "高程"}

// readCPGEncoding 读取 CPG 文件获取字符编码，默认为 GBK
func readCPGEncoding(shpfilePath string) string {
	dir := filepath.Dir(shpfilePath)
	base := filepath.Base(shpfilePath)
	cpgPath := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".cpg")

	cpgContent, err := os.ReadFile(cpgPath)
	if err != nil {
		return "GBK"
	}
	return strings.TrimSpace(string(cpgContent))
}

// ReadShp 读取 shapefile 测点：PointZ 与 PolyLineZ 直接取Z值，二维点从高程字段取值
func ReadShp(shpfilePath string) (*PointSet, error) {
	shape, err := shp.Open(shpfilePath)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	fields := shape.Fields()
	encoding := readCPGEncoding(shpfilePath)
	zField := -1
	for k, f := range fields {
		name := strings.TrimSpace(f.String())
		if encoding == "GBK" {
			name = GbkToUtf8(name)
		}
		for _, candidate := range elevationFields {
			if strings.EqualFold(name, candidate) {
				zField = k
			}
		}
	}

	ps := &PointSet{}
	for shape.Next() {
		n, p := shape.Shape()
		name := strconv.Itoa(n)
		switch s := p.(type) {
		case *shp.PointZ:
			ps.add(name, s.X, s.Y, s.Z)
		case *shp.PolyLineZ:
			for i, pt := range s.Points {
				if i < len(s.ZArray) {
					ps.add(name, pt.X, pt.Y, s.ZArray[i])
				}
			}
		case *shp.Point:
			if zField < 0 {
				ps.Skipped++
				continue
			}
			z, err := strconv.ParseFloat(strings.TrimSpace(shape.ReadAttribute(n, zField)), 64)
			if err != nil {
				ps.Skipped++
				continue
			}
			ps.add(name, s.X, s.Y, z)
		default:
			ps.Skipped++
		}
	}
	if len(ps.Points) == 0 {
		return nil, fmt.Errorf("shapefile contains no points with elevation")
	}
	ps.Crs = DetectCrs(ps.Vertices())
	return ps, nil
}
