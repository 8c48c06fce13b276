package models

import (
	"time"

	"gorm.io/datatypes"
)

// VolumeRun 一次土方计算的参数与结果，用于历史查询和报表
type VolumeRun struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DesignID      string         `gorm:"type:varchar(36)" json:"design_id"`
	DesignName    string         `gorm:"type:varchar(255)" json:"design_name"`
	GroundID      string         `gorm:"type:varchar(36)" json:"ground_id"`
	GroundName    string         `gorm:"type:varchar(255)" json:"ground_name"`
	AlignmentID   string         `gorm:"type:varchar(36)" json:"alignment_id"`
	AlignmentName string         `gorm:"type:varchar(255)" json:"alignment_name"`
	Interval      float64        `json:"interval"`
	Width         float64        `json:"width"`
	OffsetStep    float64        `json:"offset_step"`
	Stations      int            `json:"stations"`
	TotalCut      float64        `json:"total_cut"`
	TotalFill     float64        `json:"total_fill"`
	Net           float64        `json:"net"`
	ElapsedMs     int64          `json:"elapsed_ms"`
	Warnings      datatypes.JSON `json:"warnings"`
	Points        datatypes.JSON `json:"points,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}
