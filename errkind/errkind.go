// Package errkind 定义土方计算链路上的错误类别。
//
// 具体错误类型（退化点集、里程越界、非法间距、坐标转换失败等）都通过 Unwrap
// 返回这里的某个类别，调用方用 errors.Is 判断类别即可：
//
//	if errors.Is(err, errkind.Domain) { ... }
package errkind

import "errors"

var (
	// Input 输入数据本身不可用：退化点集、格式错误的线路。
	Input = errors.New("input error")
	// Domain 参数超出定义域：里程越界、非正的间距/宽度/步长。
	Domain = errors.New("domain error")
	// Coverage 曲面在采样点没有数据。只作为告警出现，不会中断计算。
	Coverage = errors.New("coverage gap")
	// Crs 坐标系不受支持或转换失败。
	Crs = errors.New("crs error")
)

// Of 返回 err 所属的类别，未知类别返回 nil。
func Of(err error) error {
	for _, kind := range []error{Input, Domain, Coverage, Crs} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
