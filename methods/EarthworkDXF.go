package methods

import (
	"fmt"
	"math"

	"github.com/GrainArc/EarthWork/earthwork"
	"github.com/GrainArc/EarthWork/section"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"
)

const (
	LayerMassHaul = "MassHaul"
	LayerAxis     = "Axis"
	LayerLabel    = "Label"
	LayerDesign   = "Design"
	LayerGround   = "Ground"
)

func newDrawing(layers map[string]color.ColorNumber, order []string) (*drawing.Drawing, error) {
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0
	for _, name := range order {
		if _, err := d.AddLayer(name, layers[name], dxf.DefaultLineType, false); err != nil {
			return nil, fmt.Errorf("adding layer %s: %w", name, err)
		}
	}
	return d, nil
}

func addPolyline(d *drawing.Drawing, layer string, vertices [][]float64) error {
	if len(vertices) < 2 {
		return nil
	}
	if err := d.ChangeLayer(layer); err != nil {
		return err
	}
	lwp := entity.NewLwPolyline(len(vertices))
	for j, v := range vertices {
		lwp.Vertices[j] = v
	}
	d.AddEntity(lwp)
	return nil
}

// ExportMassHaulDXF 输出土方调配曲线：横轴为里程，纵轴为累计净方量乘以 scale
func ExportMassHaulDXF(res *earthwork.Result, scale float64, outputFilename string) error {
	if res == nil || len(res.Points) == 0 {
		return fmt.Errorf("mass haul result is empty")
	}
	if scale <= 0 {
		scale = 1
	}
	d, err := newDrawing(map[string]color.ColorNumber{
		LayerMassHaul: color.Red,
		LayerAxis:     color.White,
		LayerLabel:    color.Yellow,
	}, []string{LayerMassHaul, LayerAxis, LayerLabel})
	if err != nil {
		return err
	}

	curve := make([][]float64, len(res.Points))
	for i, p := range res.Points {
		curve[i] = []float64{p.Station, p.CumulativeNet * scale}
	}
	if err := addPolyline(d, LayerMassHaul, curve); err != nil {
		return err
	}

	last := res.Points[len(res.Points)-1].Station
	if err := d.ChangeLayer(LayerAxis); err != nil {
		return err
	}
	if _, err := d.Line(0, 0, 0, last, 0, 0); err != nil {
		return err
	}

	if err := d.ChangeLayer(LayerLabel); err != nil {
		return err
	}
	height := res.Interval / 5
	if height <= 0 {
		height = 1
	}
	for _, p := range res.Points {
		if _, err := d.Text(StationLabel(p.Station), p.Station, -2*height, 0, height); err != nil {
			return err
		}
	}
	for _, s := range res.BalanceStations() {
		if _, err := d.Text(fmt.Sprintf("%.2f", s), s, height, 0, height); err != nil {
			return err
		}
	}

	return d.SaveAs(outputFilename)
}

// StationLabel 里程桩号，如 K1+234.50
func StationLabel(station float64) string {
	km := math.Floor(station / 1000)
	return fmt.Sprintf("K%.0f+%06.2f", km, station-km*1000)
}

// sectionRuns 把连续的有效采样拆成若干段，缺失的采样点断开折线
func sectionRuns(samples []section.SamplePoint, value func(section.SamplePoint) *float64, dy float64) [][][]float64 {
	var runs [][][]float64
	var current [][]float64
	for _, sp := range samples {
		v := value(sp)
		if v == nil {
			if len(current) > 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		current = append(current, []float64{sp.Offset, *v + dy})
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// ExportSectionsDXF 逐里程绘制横断面图，各断面按 spacing 竖向排列，横轴为偏距，纵轴为相对断面最低点的高程
func ExportSectionsDXF(sections []*section.CrossSection, spacing float64, outputFilename string) error {
	if len(sections) == 0 {
		return fmt.Errorf("no cross sections to export")
	}
	if spacing <= 0 {
		spacing = 20
	}
	d, err := newDrawing(map[string]color.ColorNumber{
		LayerDesign: color.Red,
		LayerGround: color.Green,
		LayerLabel:  color.Yellow,
	}, []string{LayerDesign, LayerGround, LayerLabel})
	if err != nil {
		return err
	}

	for i, cs := range sections {
		if cs == nil || len(cs.Samples) == 0 {
			continue
		}
		// 以断面最低点为基准，竖向堆叠
		base := math.Inf(1)
		for _, sp := range cs.Samples {
			for _, v := range []*float64{sp.Design, sp.Ground} {
				if v != nil {
					base = math.Min(base, *v)
				}
			}
		}
		if math.IsInf(base, 1) {
			continue
		}
		dy := float64(i)*spacing - base
		for _, run := range sectionRuns(cs.Samples, func(sp section.SamplePoint) *float64 { return sp.Design }, dy) {
			if err := addPolyline(d, LayerDesign, run); err != nil {
				return err
			}
		}
		for _, run := range sectionRuns(cs.Samples, func(sp section.SamplePoint) *float64 { return sp.Ground }, dy) {
			if err := addPolyline(d, LayerGround, run); err != nil {
				return err
			}
		}
		if err := d.ChangeLayer(LayerLabel); err != nil {
			return err
		}
		area := earthwork.CrossSectionAreas(cs)
		label := fmt.Sprintf("%s  T=%.2f  W=%.2f", StationLabel(cs.Station), area.Fill, area.Cut)
		if _, err := d.Text(label, cs.Samples[0].Offset, float64(i)*spacing-spacing/10, 0, spacing/20); err != nil {
			return err
		}
	}
	return d.SaveAs(outputFilename)
}
