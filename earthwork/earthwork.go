// Package earthwork 沿线形计算挖填方量与土方调配（累计）曲线。
//
// 各里程横断面的采样与面积积分相互独立，并行执行；累计值只在全部面积就绪后按里程顺序串行累加。
package earthwork

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/GrainArc/EarthWork/alignment"
	"github.com/GrainArc/EarthWork/config"
	"github.com/GrainArc/EarthWork/errkind"
	"github.com/GrainArc/EarthWork/section"
	"golang.org/x/sync/errgroup"
)

// InvalidIntervalError 里程间距、偏距步长或宽度非正
type InvalidIntervalError = section.InvalidIntervalError

// EmptyAlignmentError 线形为空或总长为0
type EmptyAlignmentError struct {
	Length float64
}

func (e *EmptyAlignmentError) Error() string {
	return fmt.Sprintf("alignment has no length (%v)", e.Length)
}

func (e *EmptyAlignmentError) Unwrap() error { return errkind.Input }

// Corridor 计算所需的线形能力
type Corridor interface {
	section.Centerline
	Length() float64
}

// MassHaulPoint 土方调配曲线上的一个里程点
type MassHaulPoint struct {
	Station        float64 `json:"station"`
	CutArea        float64 `json:"cut_area"`
	FillArea       float64 `json:"fill_area"`
	CutVolume      float64 `json:"cut_volume"`
	FillVolume     float64 `json:"fill_volume"`
	CumulativeCut  float64 `json:"cumulative_cut"`
	CumulativeFill float64 `json:"cumulative_fill"`
	CumulativeNet  float64 `json:"cumulative_net"`
}

// CoverageGap 某里程处曲面数据不完整，结果仍然有效
type CoverageGap struct {
	Station       float64 `json:"station"`
	Samples       int     `json:"samples"`
	MissingDesign int     `json:"missing_design"`
	MissingGround int     `json:"missing_ground"`
	Empty         bool    `json:"empty"` // 没有任何可积分的采样对，面积按0计
}

func (g CoverageGap) String() string {
	return fmt.Sprintf("station %.3f: %d/%d design and %d/%d ground samples missing",
		g.Station, g.MissingDesign, g.Samples, g.MissingGround, g.Samples)
}

// Result 一次计算的完整结果
type Result struct {
	Points     []MassHaulPoint         `json:"points"`
	Sections   []*section.CrossSection `json:"sections,omitempty"`
	Warnings   []CoverageGap           `json:"warnings"`
	TotalCut   float64                 `json:"total_cut"`
	TotalFill  float64                 `json:"total_fill"`
	Net        float64                 `json:"net"`
	Interval   float64                 `json:"interval"`
	Width      float64                 `json:"width"`
	OffsetStep float64                 `json:"offset_step"`
	Elapsed    time.Duration           `json:"elapsed"`
}

type options struct {
	workers      int
	keepSections bool
}

// Option 计算选项
type Option func(*options)

// WithWorkers 并行采样的最大协程数，<=0 时使用CPU数
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithSections 在结果中保留每个里程的横断面
func WithSections(keep bool) Option {
	return func(o *options) { o.keepSections = keep }
}

// Compute 按 interval 在 [0, Length] 上取里程，切取宽度为 width、步长为 offsetStep 的横断面，
// 以平均断面法累计挖填方。参数错误时不返回任何部分结果；ctx 在每个里程开始前检查。
func Compute(ctx context.Context, a Corridor, design, ground section.Surface, interval, width, offsetStep float64, opts ...Option) (*Result, error) {
	for _, p := range []struct {
		name  string
		value float64
	}{{"interval", interval}, {"width", width}, {"offset step", offsetStep}} {
		if err := section.CheckPositive(p.name, p.value); err != nil {
			return nil, err
		}
	}
	if a == nil || isNilCorridor(a) || !(a.Length() > 0) {
		length := 0.0
		if a != nil && !isNilCorridor(a) {
			length = a.Length()
		}
		return nil, &EmptyAlignmentError{Length: length}
	}
	if design == nil || ground == nil {
		return nil, fmt.Errorf("design and ground surfaces are required")
	}

	o := options{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU()
	}

	start := time.Now()
	stations := alignment.Stations(a.Length(), interval)
	sections := make([]*section.CrossSection, len(stations))
	areas := make([]SectionArea, len(stations))

	// 并行：各里程互不依赖，按下标写回保持顺序
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, s := range stations {
		if gctx.Err() != nil {
			break
		}
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cs, err := section.Sample(a, s, width, offsetStep, design, ground)
			if err != nil {
				return fmt.Errorf("station %.3f: %w", s, err)
			}
			sections[i] = cs
			areas[i] = CrossSectionAreas(cs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 串行：按里程顺序累加
	res := &Result{
		Points:     make([]MassHaulPoint, len(stations)),
		Interval:   interval,
		Width:      width,
		OffsetStep: offsetStep,
	}
	var cumCut, cumFill float64
	for i, s := range stations {
		p := MassHaulPoint{Station: s, CutArea: areas[i].Cut, FillArea: areas[i].Fill}
		if i > 0 {
			ds := s - stations[i-1]
			p.CutVolume = (areas[i-1].Cut + areas[i].Cut) / 2 * ds
			p.FillVolume = (areas[i-1].Fill + areas[i].Fill) / 2 * ds
		}
		cumCut += p.CutVolume
		cumFill += p.FillVolume
		p.CumulativeCut = cumCut
		p.CumulativeFill = cumFill
		p.CumulativeNet = cumCut - cumFill
		res.Points[i] = p

		if cs := sections[i]; !cs.Covered() {
			gap := CoverageGap{
				Station:       s,
				Samples:       len(cs.Samples),
				MissingDesign: cs.MissingDesign,
				MissingGround: cs.MissingGround,
				Empty:         areas[i].Pairs == 0,
			}
			res.Warnings = append(res.Warnings, gap)
			config.Logger().Warn("coverage gap", "station", s, "missing_design", gap.MissingDesign, "missing_ground", gap.MissingGround)
		}
	}
	res.TotalCut, res.TotalFill, res.Net = cumCut, cumFill, cumCut-cumFill
	if o.keepSections {
		res.Sections = sections
	}
	res.Elapsed = time.Since(start)

	config.Logger().Info("earthwork computed",
		"stations", len(stations), "cut", res.TotalCut, "fill", res.TotalFill,
		"warnings", len(res.Warnings), "elapsed", res.Elapsed)
	return res, nil
}

func isNilCorridor(a Corridor) bool {
	switch v := a.(type) {
	case *alignment.Alignment:
		return v == nil || v.Horizontal == nil
	case *alignment.Horizontal:
		return v == nil
	}
	return false
}

// BalanceStations 累计净方量（调配曲线）穿过0的里程，按线性内插求得
func (r *Result) BalanceStations() []float64 {
	var out []float64
	for i := 1; i < len(r.Points); i++ {
		p, q := r.Points[i-1], r.Points[i]
		switch {
		case q.CumulativeNet == 0 && p.CumulativeNet != 0:
			out = append(out, q.Station)
		case p.CumulativeNet*q.CumulativeNet < 0:
			t := p.CumulativeNet / (p.CumulativeNet - q.CumulativeNet)
			out = append(out, p.Station+t*(q.Station-p.Station))
		}
	}
	return out
}

// MaxHaul 调配曲线的最大与最小值及所在里程
func (r *Result) MaxHaul() (maxStation, maxNet, minStation, minNet float64) {
	maxNet, minNet = math.Inf(-1), math.Inf(1)
	for _, p := range r.Points {
		if p.CumulativeNet > maxNet {
			maxStation, maxNet = p.Station, p.CumulativeNet
		}
		if p.CumulativeNet < minNet {
			minStation, minNet = p.Station, p.CumulativeNet
		}
	}
	return
}
