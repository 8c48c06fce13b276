package Transformer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/GrainArc/EarthWork/errkind"
	"github.com/paulmach/orb"
)

// Crs 坐标参考系，EPSG 为0时使用 Definition（proj4 字符串）
type Crs struct {
	EPSG       int    `json:"epsg"`
	Definition string `json:"definition,omitempty"`
}

// EPSG 构造 EPSG 坐标系
func EPSG(code int) Crs { return Crs{EPSG: code} }

// IsZero 未指定坐标系
func (c Crs) IsZero() bool { return c.EPSG == 0 && c.Definition == "" }

// Equal 两个坐标系是否相同
func (c Crs) Equal(o Crs) bool {
	if c.EPSG != 0 || o.EPSG != 0 {
		return c.EPSG == o.EPSG
	}
	return strings.TrimSpace(c.Definition) == strings.TrimSpace(o.Definition)
}

func (c Crs) String() string {
	if c.EPSG != 0 {
		return "EPSG:" + strconv.Itoa(c.EPSG)
	}
	return c.Definition
}

// ParseCrs 解析 "EPSG:4523"、"4523" 或 proj4 字符串
func ParseCrs(s string) (Crs, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Crs{}, &UnsupportedCrsError{Reason: "empty coordinate reference system"}
	}
	if strings.HasPrefix(s, "+") {
		return Crs{Definition: s}, nil
	}
	code := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if !strings.EqualFold(s[:i], "EPSG") {
			return Crs{}, &UnsupportedCrsError{Crs: Crs{Definition: s}, Reason: "unknown authority " + s[:i]}
		}
		code = s[i+1:]
	}
	n, err := strconv.Atoi(code)
	if err != nil || n <= 0 {
		return Crs{}, &UnsupportedCrsError{Crs: Crs{Definition: s}, Reason: "invalid EPSG code"}
	}
	return EPSG(n), nil
}

// UnsupportedCrsError 坐标系无法识别或没有可用的定义
type UnsupportedCrsError struct {
	Crs    Crs
	Reason string
}

func (e *UnsupportedCrsError) Error() string {
	if e.Crs.IsZero() {
		return "unsupported crs: " + e.Reason
	}
	return fmt.Sprintf("unsupported crs %s: %s", e.Crs, e.Reason)
}

func (e *UnsupportedCrsError) Unwrap() error { return errkind.Crs }

// TransformFailure 单点坐标转换失败
type TransformFailure struct {
	Source, Target Crs
	X, Y           float64
	Err            error
}

func (e *TransformFailure) Error() string {
	return fmt.Sprintf("transform (%.6f, %.6f) from %s to %s failed: %v", e.X, e.Y, e.Source, e.Target, e.Err)
}

func (e *TransformFailure) Unwrap() []error {
	if e.Err == nil {
		return []error{errkind.Crs}
	}
	return []error{errkind.Crs, e.Err}
}

// DetectCrs 识别带带号的国家2000 3度带坐标（8位横坐标，前两位为带号），
// 全部点落在同一带内才返回该带的 EPSG，否则返回零值。
// 经纬度、独立坐标系与不带带号的坐标量级上无法区分，不做猜测
func DetectCrs(points []orb.Point) Crs {
	zone := 0
	for _, p := range points {
		x := p[0]
		if !(x >= 25000000 && x < 46000000) {
			return Crs{}
		}
		z := int(x / 1000000)
		if zone != 0 && z != zone {
			return Crs{}
		}
		zone = z
	}
	if zone == 0 {
		return Crs{}
	}
	return EPSG(4488 + zone)
}

// ZoneCrs 经度所在的 CGCS2000 3度带（带带号）坐标系
func ZoneCrs(lon float64) Crs {
	return EPSG(int(4488 + math.Round(lon/3)))
}
