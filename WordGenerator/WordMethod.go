package WordGenerator

import (
	"gitee.com/gooffice/gooffice/color"
	"gitee.com/gooffice/gooffice/document"
	"gitee.com/gooffice/gooffice/measurement"
	"gitee.com/gooffice/gooffice/schema/soo/wml"
)

// 插入一级标题
func AddHeading1(doc *document.Document, text string) {
	para := doc.AddParagraph()
	para.SetOutlineLvl(1)
	run := para.AddRun()
	run.Properties().SetSize(22)
	run.Properties().SetFontFamily("仿宋")
	run.Properties().SetBold(true)
	run.AddText(text)
	para.SetStyle("标题 1")
	para.Properties().SetHeadingLevel(1)
}

// 插入2级标题
func AddHeading2(doc *document.Document, text string) {
	para := doc.AddParagraph()
	para.SetOutlineLvl(2)
	run := para.AddRun()
	run.Properties().SetSize(16)
	run.Properties().SetFontFamily("仿宋")
	run.Properties().SetBold(true)
	run.AddText(text)
	para.SetStyle("标题 2")
	para.Properties().SetHeadingLevel(2)
}

// 插入正文
func AddText(doc *document.Document, text string, iscenter bool) {
	para := doc.AddParagraph()
	if iscenter {
		para.Properties().SetAlignment(wml.ST_JcCenter)
	}
	run := para.AddRun()
	run.Properties().SetSize(14)
	run.AddText(text)
}

// newTable 整页宽、单线边框的表格，首行为加粗表头
func newTable(doc *document.Document, header []string) document.Table {
	table := doc.AddTable()
	table.Properties().SetAlignment(wml.ST_JcTableCenter)
	table.Properties().SetWidthPercent(100)
	borders := table.Properties().Borders()
	borders.SetAll(wml.ST_BorderSingle, color.Auto, 1*measurement.Point)
	row := table.AddRow()
	for _, h := range header {
		addCell(row, h, true)
	}
	return table
}

func addCell(row document.Row, text string, bold bool) {
	cell := row.AddCell()
	cell.Properties().SetVerticalAlignment(wml.ST_VerticalJcCenter)
	Paragraph := cell.AddParagraph()
	Paragraph.Properties().SetAlignment(wml.ST_JcCenter)
	run := Paragraph.AddRun()
	run.Properties().SetSize(10)
	if bold {
		run.Properties().SetBold(true)
	}
	run.AddText(text)
}

func addRow(table document.Table, cells ...string) {
	row := table.AddRow()
	for _, c := range cells {
		addCell(row, c, false)
	}
}
