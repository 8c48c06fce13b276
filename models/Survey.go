package models

import (
	"time"

	"gorm.io/datatypes"
)

// SurveyImport 测量数据导入记录，几何本身只保存在内存快照中
type SurveyImport struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Kind      string         `gorm:"type:varchar(16);index" json:"kind"` // surface | alignment
	Name      string         `gorm:"type:varchar(255)" json:"name"`
	Format    string         `gorm:"type:varchar(16)" json:"format"`
	SourceCrs string         `gorm:"type:varchar(255)" json:"source_crs"`
	TargetCrs string         `gorm:"type:varchar(255)" json:"target_crs"`
	Points    int            `json:"points"`
	Skipped   int            `json:"skipped"`
	Length    float64        `json:"length"`
	Summary   datatypes.JSON `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}
