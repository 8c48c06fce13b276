package models

import (
	"fmt"

	"github.com/GrainArc/EarthWork/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// OpenDB 配置了 dsn 时连接PostgreSQL，否则打开本地sqlite文件
func OpenDB(dsn, dbPath string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// 设置命名策略
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}

	var dialector gorm.Dialector
	if dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dbPath)
	}
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	if dsn == "" {
		// sqlite 只保留一个连接，:memory: 库在连接间不共享
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := migrateAllTables(db); err != nil {
		return nil, fmt.Errorf("migrating tables: %w", err)
	}
	return db, nil
}

// InitDB 按包级配置初始化 DB
func InitDB() error {
	db, err := OpenDB(config.DSN, config.DBPath)
	if err != nil {
		return err
	}
	DB = db
	if config.DSN != "" {
		config.Logger().Info("database connected", "driver", "postgres")
	} else {
		config.Logger().Info("database connected", "driver", "sqlite", "path", config.DBPath)
	}
	return nil
}

// migrateAllTables 批量迁移所有表
func migrateAllTables(db *gorm.DB) error {
	models := []interface{}{
		&VolumeRun{},
		&SurveyImport{},
	}
	if db.Dialector.Name() != "postgres" {
		// PostGIS 库自带 spatial_ref_sys
		models = append(models, &SpatialRefSys{})
	}
	return db.AutoMigrate(models...)
}
