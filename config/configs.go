package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"runtime"
	"strings"
)

var MainRouter string
var DSN string
var DBPath string
var TargetCrs string
var MainConfig Config

type Config struct {
	XMLName    xml.Name `xml:"config"`
	MainRouter string   `xml:"MainRouter"`
	DBPath     string   `xml:"dbpath"`
	Dbname     string   `xml:"dbname"`
	Host       string   `xml:"host"`
	Port       string   `xml:"port"`
	Username   string   `xml:"user"`
	Password   string   `xml:"password"`
	TargetCrs  string   `xml:"targetcrs"`
	Workers    int      `xml:"workers"`
	LogLevel   string   `xml:"loglevel"`
	Interval   float64  `xml:"interval"`
	OffsetStep float64  `xml:"offsetstep"`
	Download   string   `xml:"download"`
}

// Default 返回未配置时使用的参数
func Default() Config {
	return Config{
		MainRouter: ":8426",
		DBPath:     "earthwork.db",
		TargetCrs:  "EPSG:4523",
		Workers:    runtime.NumCPU(),
		LogLevel:   "info",
		Interval:   10,
		OffsetStep: 1,
		Download:   "./TempFile",
	}
}

// LoadConfig 读取XML配置文件，缺省项使用 Default 中的值，并同步到包级变量
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	xmlFile, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer xmlFile.Close()

	var fileCfg Config
	if err := xml.NewDecoder(xmlFile).Decode(&fileCfg); err != nil {
		return cfg, fmt.Errorf("decoding config %s: %w", path, err)
	}
	cfg = merge(cfg, fileCfg)
	Apply(cfg)
	return cfg, nil
}

func merge(base, over Config) Config {
	if over.MainRouter != "" {
		base.MainRouter = over.MainRouter
	}
	if over.DBPath != "" {
		base.DBPath = over.DBPath
	}
	if over.TargetCrs != "" {
		base.TargetCrs = over.TargetCrs
	}
	if over.Workers > 0 {
		base.Workers = over.Workers
	}
	if over.LogLevel != "" {
		base.LogLevel = strings.ToLower(over.LogLevel)
	}
	if over.Interval > 0 {
		base.Interval = over.Interval
	}
	if over.OffsetStep > 0 {
		base.OffsetStep = over.OffsetStep
	}
	if over.Download != "" {
		base.Download = over.Download
	}
	base.Dbname = over.Dbname
	base.Host = over.Host
	base.Port = over.Port
	base.Username = over.Username
	base.Password = over.Password
	return base
}

// Apply 把配置同步到包级变量
func Apply(cfg Config) {
	MainConfig = cfg
	MainRouter = cfg.MainRouter
	DBPath = cfg.DBPath
	TargetCrs = cfg.TargetCrs
	DSN = ""
	// 配置了host时使用PostgreSQL，否则使用本地sqlite
	if cfg.Host != "" {
		DSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", cfg.Host, cfg.Username, cfg.Password, cfg.Dbname, cfg.Port)
	}
}
