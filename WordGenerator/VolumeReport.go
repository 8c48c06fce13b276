package WordGenerator

import (
	"encoding/json"
	"fmt"
	"strings"

	"gitee.com/gooffice/gooffice/document"
	"github.com/GrainArc/EarthWork/earthwork"
	"github.com/GrainArc/EarthWork/methods"
	"github.com/GrainArc/EarthWork/models"
)

// resultOf 从历史记录还原计算结果
func resultOf(run *models.VolumeRun) (*earthwork.Result, error) {
	res := &earthwork.Result{
		TotalCut:   run.TotalCut,
		TotalFill:  run.TotalFill,
		Net:        run.Net,
		Interval:   run.Interval,
		Width:      run.Width,
		OffsetStep: run.OffsetStep,
	}
	if len(run.Points) > 0 {
		if err := json.Unmarshal(run.Points, &res.Points); err != nil {
			return nil, fmt.Errorf("decoding mass haul of run %s: %w", run.ID, err)
		}
	}
	if len(run.Warnings) > 0 {
		if err := json.Unmarshal(run.Warnings, &res.Warnings); err != nil {
			return nil, fmt.Errorf("decoding warnings of run %s: %w", run.ID, err)
		}
	}
	return res, nil
}

func f2(v float64) string { return fmt.Sprintf("%.2f", v) }

// VolumeReport 生成土方计算报告：计算参数、土方量汇总、逐桩土方数量表和数据缺失里程
func VolumeReport(run *models.VolumeRun) (*document.Document, error) {
	res, err := resultOf(run)
	if err != nil {
		return nil, err
	}
	doc := document.New()
	AddHeading1(doc, run.AlignmentName+"土方计算报告")
	AddText(doc, "计算时间："+run.CreatedAt.Format("2006-01-02 15:04:05"), false)

	AddHeading2(doc, "一、计算参数")
	params := newTable(doc, []string{"项目", "内容"})
	addRow(params, "线形", run.AlignmentName)
	addRow(params, "设计面", run.DesignName)
	addRow(params, "地面", run.GroundName)
	addRow(params, "桩距（m）", f2(run.Interval))
	addRow(params, "断面宽度（m）", f2(run.Width))
	addRow(params, "采样步长（m）", f2(run.OffsetStep))
	addRow(params, "桩数", fmt.Sprintf("%d", len(res.Points)))

	AddHeading2(doc, "二、土方量汇总")
	totals := newTable(doc, []string{"挖方（m³）", "填方（m³）", "净方量（m³）"})
	addRow(totals, f2(res.TotalCut), f2(res.TotalFill), f2(res.Net))
	if balance := res.BalanceStations(); len(balance) > 0 {
		labels := make([]string, len(balance))
		for i, s := range balance {
			labels[i] = methods.StationLabel(s)
		}
		AddText(doc, "挖填平衡桩号："+strings.Join(labels, "、"), false)
	}
	if len(res.Points) > 0 {
		maxStation, maxNet, minStation, minNet := res.MaxHaul()
		AddText(doc, fmt.Sprintf("累计净方最大值 %.2fm³（%s），最小值 %.2fm³（%s）",
			maxNet, methods.StationLabel(maxStation), minNet, methods.StationLabel(minStation)), false)
	}

	AddHeading2(doc, "三、逐桩土方数量表")
	table := newTable(doc, []string{"桩号", "挖方面积（m²）", "填方面积（m²）", "挖方（m³）", "填方（m³）", "累计挖方（m³）", "累计填方（m³）", "累计净方（m³）"})
	for _, p := range res.Points {
		addRow(table, methods.StationLabel(p.Station), f2(p.CutArea), f2(p.FillArea), f2(p.CutVolume), f2(p.FillVolume),
			f2(p.CumulativeCut), f2(p.CumulativeFill), f2(p.CumulativeNet))
	}

	if len(res.Warnings) > 0 {
		AddHeading2(doc, "四、数据缺失桩号")
		gaps := newTable(doc, []string{"桩号", "采样数", "设计面缺失", "地面缺失"})
		for _, g := range res.Warnings {
			addRow(gaps, methods.StationLabel(g.Station), fmt.Sprintf("%d", g.Samples),
				fmt.Sprintf("%d", g.MissingDesign), fmt.Sprintf("%d", g.MissingGround))
		}
	}
	return doc, nil
}

// ExportVolumeReport 报告保存为docx
func ExportVolumeReport(run *models.VolumeRun, outputFilename string) error {
	doc, err := VolumeReport(run)
	if err != nil {
		return err
	}
	return doc.SaveToFile(outputFilename)
}
