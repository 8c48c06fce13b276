package views

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/GrainArc/EarthWork/WordGenerator"
	"github.com/GrainArc/EarthWork/earthwork"
	"github.com/GrainArc/EarthWork/methods"
	"github.com/GrainArc/EarthWork/section"
	"github.com/GrainArc/EarthWork/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// saveUpload 保存表单文件到独立的任务目录，字段缺失时返回空路径
func (uc *SurveyController) saveUpload(c *gin.Context, field, dir string) (string, error) {
	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, field+"_"+filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", err
	}
	return path, nil
}

func (uc *SurveyController) taskDir() (string, error) {
	dir, err := filepath.Abs(filepath.Join(uc.tempDir, uuid.New().String()))
	if err != nil {
		return "", err
	}
	return dir, os.MkdirAll(dir, os.ModePerm)
}

func parseRadii(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var radii []float64
	for _, part := range strings.Split(s, ",") {
		r, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid radius %q", part)
		}
		radii = append(radii, r)
	}
	return radii, nil
}

// ImportSurface 上传测点文件构建地面或设计面
func (uc *SurveyController) ImportSurface(c *gin.Context) {
	dir, err := uc.taskDir()
	if err != nil {
		writeError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	path, err := uc.saveUpload(c, "file", dir)
	if err != nil {
		writeError(c, err)
		return
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "message": "请上传文件"})
		return
	}
	snap, err := uc.imports.ImportSurface(services.SurfaceRequest{
		Name:   c.PostForm("name"),
		Format: c.PostForm("format"),
		Path:   path,
		Crs:    c.PostForm("crs"),
		Layer:  c.PostForm("layer"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ImportAlignment 上传中线文件，可附带纵断面与超高表
func (uc *SurveyController) ImportAlignment(c *gin.Context) {
	radii, err := parseRadii(c.PostForm("radii"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "message": err.Error()})
		return
	}
	dir, err := uc.taskDir()
	if err != nil {
		writeError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	req := services.AlignmentRequest{
		Name:   c.PostForm("name"),
		Format: c.PostForm("format"),
		Crs:    c.PostForm("crs"),
		Layer:  c.PostForm("layer"),
		Radii:  radii,
	}
	for field, target := range map[string]*string{
		"file":           &req.Path,
		"profile":        &req.ProfilePath,
		"superelevation": &req.SuperelevationPath,
	} {
		if *target, err = uc.saveUpload(c, field, dir); err != nil {
			writeError(c, err)
			return
		}
	}
	if req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "message": "请上传中线文件"})
		return
	}
	snap, err := uc.imports.ImportAlignment(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// UpdateProfile 替换线形的纵断面或超高表
func (uc *SurveyController) UpdateProfile(c *gin.Context) {
	dir, err := uc.taskDir()
	if err != nil {
		writeError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	profile, err := uc.saveUpload(c, "profile", dir)
	if err != nil {
		writeError(c, err)
		return
	}
	superelevation, err := uc.saveUpload(c, "superelevation", dir)
	if err != nil {
		writeError(c, err)
		return
	}
	snap, err := uc.imports.UpdateProfile(c.PostForm("alignment"), profile, superelevation)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// AddSurfacePoints 补测点加入曲面
func (uc *SurveyController) AddSurfacePoints(c *gin.Context) {
	var jsonData pointsData
	if !bindJSON(c, &jsonData) {
		return
	}
	snap, err := uc.imports.AddSurfacePoints(jsonData.Surface, jsonData.Points, jsonData.Crs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DesignSurface 由线形和横断面模板生成设计面
func (uc *SurveyController) DesignSurface(c *gin.Context) {
	var jsonData designData
	if !bindJSON(c, &jsonData) {
		return
	}
	snap, err := uc.imports.BuildDesignSurface(jsonData.Alignment, jsonData.Name, jsonData.Template, jsonData.Interval)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (uc *SurveyController) Surfaces(c *gin.Context) {
	c.JSON(http.StatusOK, uc.imports.Store.Surfaces())
}

func (uc *SurveyController) Alignments(c *gin.Context) {
	c.JSON(http.StatusOK, uc.imports.Store.Alignments())
}

// Elevation 查询曲面上一点的高程，点不在曲面范围内时 elevation 为 null
func (uc *SurveyController) Elevation(c *gin.Context) {
	var jsonData elevationData
	if !bindJSON(c, &jsonData) {
		return
	}
	snap, err := uc.imports.Store.Surface(jsonData.Surface)
	if err != nil {
		writeError(c, err)
		return
	}
	z, ok := snap.Surface.ElevationAt(jsonData.X, jsonData.Y)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"elevation": nil})
		return
	}
	slope, aspect, err := snap.Surface.GetSlopeAndAspect(jsonData.X, jsonData.Y)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"elevation": z})
		return
	}
	c.JSON(http.StatusOK, gin.H{"elevation": z, "slope": slope, "aspect": aspect})
}

func (uc *SurveyController) CrossSection(c *gin.Context) {
	var jsonData services.SectionRequest
	if !bindJSON(c, &jsonData) {
		return
	}
	res, err := uc.volumes.CrossSection(jsonData)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MassHaul 计算土方调配曲线，width、interval、offset_step 原样传入计算
func (uc *SurveyController) MassHaul(c *gin.Context) {
	var jsonData services.VolumeRequest
	if !bindJSON(c, &jsonData) {
		return
	}
	run, err := uc.volumes.MassHaul(c.Request.Context(), jsonData)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// MassHaulGeoJSON 土方调配曲线上各里程的中线点，可附带横断面线
func (uc *SurveyController) MassHaulGeoJSON(c *gin.Context) {
	var jsonData services.VolumeRequest
	if !bindJSON(c, &jsonData) {
		return
	}
	run, err := uc.volumes.MassHaul(c.Request.Context(), jsonData)
	if err != nil {
		writeError(c, err)
		return
	}
	as, err := uc.volumes.Store.Alignment(jsonData.Alignment)
	if err != nil {
		writeError(c, err)
		return
	}
	fc, err := earthwork.ToFeatureCollection(run.Result, as.Alignment)
	if err != nil {
		writeError(c, err)
		return
	}
	out := gin.H{"id": run.ID, "masshaul": fc}
	if jsonData.Sections {
		out["sections"] = section.ToFeatureCollection(run.Result.Sections)
	}
	c.JSON(http.StatusOK, out)
}

func (uc *SurveyController) Runs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	runs, err := uc.volumes.Runs(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (uc *SurveyController) Run(c *gin.Context) {
	run, err := uc.volumes.Run(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// RunReport 历史计算导出为Word报告
func (uc *SurveyController) RunReport(c *gin.Context) {
	run, err := uc.volumes.Run(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	dir, err := uc.taskDir()
	if err != nil {
		writeError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	name := methods.ExportName(run.AlignmentName, "report")
	path := filepath.Join(dir, name+".docx")
	if err := WordGenerator.ExportVolumeReport(run, path); err != nil {
		writeError(c, err)
		return
	}
	c.FileAttachment(path, name+".docx")
}

// exportDXF 计算后导出DXF附件
func (uc *SurveyController) exportDXF(c *gin.Context, sections bool, export func(res *earthwork.Result, path string) error) {
	var jsonData services.VolumeRequest
	if !bindJSON(c, &jsonData) {
		return
	}
	jsonData.Sections = sections
	run, err := uc.volumes.MassHaul(c.Request.Context(), jsonData)
	if err != nil {
		writeError(c, err)
		return
	}
	dir, err := uc.taskDir()
	if err != nil {
		writeError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	name := "masshaul"
	if sections {
		name = "sections"
	}
	if as, err := uc.volumes.Store.Alignment(jsonData.Alignment); err == nil {
		name = methods.ExportName(as.Name, name)
	}
	path := filepath.Join(dir, name+".dxf")
	if err := export(run.Result, path); err != nil {
		writeError(c, err)
		return
	}
	c.FileAttachment(path, name+".dxf")
}

// MassHaulDXF 导出土方调配曲线，scale 为纵向比例
func (uc *SurveyController) MassHaulDXF(c *gin.Context) {
	scale, _ := strconv.ParseFloat(c.DefaultQuery("scale", "1"), 64)
	uc.exportDXF(c, false, func(res *earthwork.Result, path string) error {
		return methods.ExportMassHaulDXF(res, scale, path)
	})
}

// SectionsDXF 导出全部横断面图，spacing 为图上断面间距
func (uc *SurveyController) SectionsDXF(c *gin.Context) {
	spacing, _ := strconv.ParseFloat(c.DefaultQuery("spacing", "20"), 64)
	uc.exportDXF(c, true, func(res *earthwork.Result, path string) error {
		return methods.ExportSectionsDXF(res.Sections, spacing, path)
	})
}
