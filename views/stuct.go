package views

import (
	"github.com/GrainArc/EarthWork/section"
	"github.com/GrainArc/EarthWork/services"
)

// SurveyController 土方计算接口
type SurveyController struct {
	imports *services.ImportService
	volumes *services.VolumeService
	tempDir string // 上传文件与导出文件的临时目录
}

func NewSurveyController(imports *services.ImportService, volumes *services.VolumeService, tempDir string) *SurveyController {
	if tempDir == "" {
		tempDir = "./TempFile"
	}
	return &SurveyController{imports: imports, volumes: volumes, tempDir: tempDir}
}

type elevationData struct {
	Surface string  `json:"surface" binding:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type pointsData struct {
	Surface string      `json:"surface" binding:"required"`
	Points  [][]float64 `json:"points" binding:"required"`
	Crs     string      `json:"crs"`
}

type designData struct {
	Alignment string           `json:"alignment" binding:"required"`
	Name      string           `json:"name"`
	Interval  float64          `json:"interval"`
	Template  section.Template `json:"template" binding:"required"`
}
