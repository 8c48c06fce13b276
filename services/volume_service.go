package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GrainArc/EarthWork/config"
	"github.com/GrainArc/EarthWork/earthwork"
	"github.com/GrainArc/EarthWork/models"
	"github.com/GrainArc/EarthWork/section"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VolumeRequest 土方计算请求，参数原样传给计算，不做缩放或取整
type VolumeRequest struct {
	Design     string  `json:"design" binding:"required"`
	Ground     string  `json:"ground" binding:"required"`
	Alignment  string  `json:"alignment" binding:"required"`
	Width      float64 `json:"width"`
	Interval   float64 `json:"interval"`
	OffsetStep float64 `json:"offset_step"`
	Sections   bool    `json:"sections"`
}

// SectionRequest 单个里程的横断面
type SectionRequest struct {
	Design     string  `json:"design" binding:"required"`
	Ground     string  `json:"ground" binding:"required"`
	Alignment  string  `json:"alignment" binding:"required"`
	Station    float64 `json:"station"`
	Width      float64 `json:"width"`
	OffsetStep float64 `json:"offset_step"`
}

// SectionResult 横断面及其挖填面积
type SectionResult struct {
	*section.CrossSection
	CutArea  float64 `json:"cut_area"`
	FillArea float64 `json:"fill_area"`
}

// VolumeRun 计算结果及其历史记录ID
type VolumeRun struct {
	ID     string            `json:"id"`
	Result *earthwork.Result `json:"result"`
}

type VolumeService struct {
	Store   *SnapshotStore
	DB      *gorm.DB // 为空时不保存历史
	Workers int
}

func NewVolumeService(store *SnapshotStore, db *gorm.DB, workers int) *VolumeService {
	return &VolumeService{Store: store, DB: db, Workers: workers}
}

type resolved struct {
	design, ground *SurfaceSnapshot
	alignment      *AlignmentSnapshot
}

// 计算开始前一次性取得快照，之后的替换不影响本次计算
func (s *VolumeService) resolve(design, ground, alignmentID string) (*resolved, error) {
	d, err := s.Store.Surface(design)
	if err != nil {
		return nil, err
	}
	g, err := s.Store.Surface(ground)
	if err != nil {
		return nil, err
	}
	a, err := s.Store.Alignment(alignmentID)
	if err != nil {
		return nil, err
	}
	return &resolved{design: d, ground: g, alignment: a}, nil
}

// CrossSection 切取单个横断面
func (s *VolumeService) CrossSection(req SectionRequest) (*SectionResult, error) {
	r, err := s.resolve(req.Design, req.Ground, req.Alignment)
	if err != nil {
		return nil, err
	}
	cs, err := section.Sample(r.alignment.Alignment, req.Station, req.Width, req.OffsetStep, r.design.Surface, r.ground.Surface)
	if err != nil {
		return nil, err
	}
	area := earthwork.CrossSectionAreas(cs)
	return &SectionResult{CrossSection: cs, CutArea: area.Cut, FillArea: area.Fill}, nil
}

// MassHaul 计算土方调配曲线并保存历史记录
func (s *VolumeService) MassHaul(ctx context.Context, req VolumeRequest) (*VolumeRun, error) {
	r, err := s.resolve(req.Design, req.Ground, req.Alignment)
	if err != nil {
		return nil, err
	}
	res, err := earthwork.Compute(ctx, r.alignment.Alignment, r.design.Surface, r.ground.Surface,
		req.Interval, req.Width, req.OffsetStep,
		earthwork.WithWorkers(s.Workers), earthwork.WithSections(req.Sections))
	if err != nil {
		return nil, err
	}
	run := &VolumeRun{ID: uuid.New().String(), Result: res}
	s.save(run.ID, r, res)
	return run, nil
}

func (s *VolumeService) save(id string, r *resolved, res *earthwork.Result) {
	if s.DB == nil {
		return
	}
	warnings, err := json.Marshal(res.Warnings)
	if err != nil {
		config.Logger().Error("encoding warnings failed", "err", err)
		return
	}
	points, err := json.Marshal(res.Points)
	if err != nil {
		config.Logger().Error("encoding mass haul failed", "err", err)
		return
	}
	rec := models.VolumeRun{
		ID:            id,
		DesignID:      r.design.ID,
		DesignName:    r.design.Name,
		GroundID:      r.ground.ID,
		GroundName:    r.ground.Name,
		AlignmentID:   r.alignment.ID,
		AlignmentName: r.alignment.Name,
		Interval:      res.Interval,
		Width:         res.Width,
		OffsetStep:    res.OffsetStep,
		Stations:      len(res.Points),
		TotalCut:      res.TotalCut,
		TotalFill:     res.TotalFill,
		Net:           res.Net,
		ElapsedMs:     res.Elapsed.Milliseconds(),
		Warnings:      warnings,
		Points:        points,
	}
	if err := s.DB.Create(&rec).Error; err != nil {
		config.Logger().Error("saving volume run failed", "id", id, "err", err)
	}
}

// Runs 历史计算，按时间倒序，不含逐里程数据
func (s *VolumeService) Runs(limit int) ([]models.VolumeRun, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("run history is not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	var runs []models.VolumeRun
	err := s.DB.Omit("points").Order("created_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

// Run 单次计算的完整记录
func (s *VolumeService) Run(id string) (*models.VolumeRun, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("run history is not configured")
	}
	var run models.VolumeRun
	result := s.DB.Where("id = ?", id).Limit(1).Find(&run)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, &NotFoundError{Kind: "run", ID: id}
	}
	return &run, nil
}
