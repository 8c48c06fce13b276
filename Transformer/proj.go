package Transformer

import (
	"fmt"
	"sync"

	"github.com/GrainArc/EarthWork/models"
	"github.com/ctessum/geom/proj"
	"gorm.io/gorm"
)

// TransformFunc 单点坐标转换能力，由调用方注入
type TransformFunc func(x, y float64, source, target Crs) (float64, float64, error)

// Registry 根据 EPSG 代码查找 proj4 定义
type Registry interface {
	Proj4(epsg int) (string, bool)
}

// RegistryFunc 函数形式的 Registry
type RegistryFunc func(epsg int) (string, bool)

func (f RegistryFunc) Proj4(epsg int) (string, bool) { return f(epsg) }

// BuiltinRegistry 内置常用坐标系：WGS84、CGCS2000、Web墨卡托、CGCS2000 3度带、WGS84 UTM
var BuiltinRegistry Registry = RegistryFunc(builtinProj4)

func builtinProj4(epsg int) (string, bool) {
	switch {
	case epsg == 4326:
		return "+proj=longlat +datum=WGS84 +no_defs", true
	case epsg == 4490:
		return "+proj=longlat +ellps=GRS80 +no_defs", true
	case epsg == 3857:
		return "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs", true
	case epsg >= 4513 && epsg <= 4533:
		// 带带号：第 n 带中央经线 3n 度，东偏 n*1000000+500000
		zone := epsg - 4488
		return fmt.Sprintf("+proj=tmerc +lat_0=0 +lon_0=%d +k=1 +x_0=%d +y_0=0 +ellps=GRS80 +units=m +no_defs", 3*zone, zone*1000000+500000), true
	case epsg >= 4534 && epsg <= 4554:
		// 不带带号：中央经线 75~135 度
		return fmt.Sprintf("+proj=tmerc +lat_0=0 +lon_0=%d +k=1 +x_0=500000 +y_0=0 +ellps=GRS80 +units=m +no_defs", 75+3*(epsg-4534)), true
	case epsg >= 32601 && epsg <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", epsg-32600), true
	case epsg >= 32701 && epsg <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", epsg-32700), true
	}
	return "", false
}

// DBRegistry 从 spatial_ref_sys 表读取 proj4 定义，查不到时回落到 Fallback
type DBRegistry struct {
	DB       *gorm.DB
	Fallback Registry
}

func (r DBRegistry) Proj4(epsg int) (string, bool) {
	if r.DB != nil {
		var srs models.SpatialRefSys
		if err := r.DB.Where("srid = ?", epsg).Limit(1).Find(&srs).Error; err == nil && srs.Proj4Text != "" {
			return srs.Proj4Text, true
		}
	}
	if r.Fallback != nil {
		return r.Fallback.Proj4(epsg)
	}
	return "", false
}

type projCache struct {
	mu         sync.Mutex
	transforms map[[2]string]proj.Transformer
}

// ProjTransform 基于 proj4 定义的坐标转换，转换器按 (源, 目标) 缓存
func ProjTransform(registry Registry) TransformFunc {
	if registry == nil {
		registry = BuiltinRegistry
	}
	cache := &projCache{transforms: make(map[[2]string]proj.Transformer)}

	definition := func(c Crs) (string, error) {
		if c.EPSG == 0 {
			if c.Definition == "" {
				return "", &UnsupportedCrsError{Reason: "empty coordinate reference system"}
			}
			return c.Definition, nil
		}
		def, ok := registry.Proj4(c.EPSG)
		if !ok {
			return "", &UnsupportedCrsError{Crs: c, Reason: "no proj4 definition"}
		}
		return def, nil
	}

	lookup := func(source, target Crs) (proj.Transformer, error) {
		srcDef, err := definition(source)
		if err != nil {
			return nil, err
		}
		dstDef, err := definition(target)
		if err != nil {
			return nil, err
		}
		key := [2]string{srcDef, dstDef}

		cache.mu.Lock()
		defer cache.mu.Unlock()
		if t, ok := cache.transforms[key]; ok {
			return t, nil
		}
		src, err := proj.Parse(srcDef)
		if err != nil {
			return nil, &UnsupportedCrsError{Crs: source, Reason: err.Error()}
		}
		dst, err := proj.Parse(dstDef)
		if err != nil {
			return nil, &UnsupportedCrsError{Crs: target, Reason: err.Error()}
		}
		t, err := src.NewTransform(dst)
		if err != nil {
			return nil, &UnsupportedCrsError{Crs: source, Reason: err.Error()}
		}
		cache.transforms[key] = t
		return t, nil
	}

	return func(x, y float64, source, target Crs) (float64, float64, error) {
		if source.Equal(target) {
			return x, y, nil
		}
		t, err := lookup(source, target)
		if err != nil {
			return 0, 0, err
		}
		tx, ty, err := t(x, y)
		if err != nil {
			return 0, 0, &TransformFailure{Source: source, Target: target, X: x, Y: y, Err: err}
		}
		return tx, ty, nil
	}
}
