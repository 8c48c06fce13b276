package main

import (
	"errors"
	"flag"
	"os"

	"github.com/GrainArc/EarthWork/Transformer"
	"github.com/GrainArc/EarthWork/config"
	"github.com/GrainArc/EarthWork/models"
	"github.com/GrainArc/EarthWork/routers"
	"github.com/GrainArc/EarthWork/services"
	"github.com/GrainArc/EarthWork/views"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config.xml", "XML配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		config.Apply(cfg)
	} else if err != nil {
		config.SetLogger(config.NewTextLogger(os.Stderr, "error"))
		config.Logger().Error("loading config failed", "err", err)
		os.Exit(1)
	}
	config.SetLogger(config.NewTextLogger(os.Stderr, cfg.LogLevel))
	if err != nil {
		config.Logger().Warn("config file not found, using defaults", "path", *configPath)
	}

	target, err := Transformer.ParseCrs(cfg.TargetCrs)
	if err != nil {
		config.Logger().Error("invalid target crs", "crs", cfg.TargetCrs, "err", err)
		os.Exit(1)
	}
	if err := models.InitDB(); err != nil {
		config.Logger().Error("database init failed", "err", err)
		os.Exit(1)
	}

	registry := Transformer.DBRegistry{DB: models.DB, Fallback: Transformer.BuiltinRegistry}
	normalizer := Transformer.NewNormalizer(target, Transformer.ProjTransform(registry))
	store := services.NewSnapshotStore()
	imports := services.NewImportService(store, normalizer, models.DB)
	volumes := services.NewVolumeService(store, models.DB, cfg.Workers)

	r := gin.Default()
	r.MaxMultipartMemory = 64 << 20
	routers.SurveyRouters(r, views.NewSurveyController(imports, volumes, cfg.Download))

	config.Logger().Info("earthwork server started", "addr", cfg.MainRouter, "target_crs", target.String())
	if err := r.Run(cfg.MainRouter); err != nil {
		config.Logger().Error("server stopped", "err", err)
		os.Exit(1)
	}
}
