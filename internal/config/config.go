package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix 环境变量前缀，例如 SCORECARDS_SCAN_WORKERS
const EnvPrefix = "SCORECARDS"

// FileName 默认配置文件名
const FileName = "config.toml"

// AppConfig 应用配置
type AppConfig struct {
	Scan      ScanConfig      `toml:"scan" envconfig:"SCAN"`
	Data      DataConfig      `toml:"data" envconfig:"DATA"`
	Companies CompaniesConfig `toml:"companies" envconfig:"COMPANIES"`
	Log       LogConfig       `toml:"log" envconfig:"LOG"`
}

// ScanConfig 目录扫描配置
type ScanConfig struct {
	Workers    int      `toml:"workers" envconfig:"WORKERS" validate:"gte=0,lte=256"`
	Extensions []string `toml:"extensions" envconfig:"EXTENSIONS" validate:"min=1,dive,startswith=."`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	DBName  string `toml:"db_name" envconfig:"DB_NAME" validate:"required"`
}

// CompaniesConfig 公司推断关键词（按顺序匹配）
type CompaniesConfig struct {
	Keywords []string `toml:"keywords" envconfig:"KEYWORDS" validate:"dive,required"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `toml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path       string // 实际读取的配置文件，未读取时为空
	FileLoaded bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Scan: ScanConfig{
			Workers:    runtime.NumCPU(),
			Extensions: []string{".xlsx", ".xlsm"},
		},
		Data: DataConfig{
			DataDir: "data",
			DBName:  "scorecards.db",
		},
		Companies: CompaniesConfig{
			Keywords: []string{"Northern", "Southern", "Eastern", "Western", "Central"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func defaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, FileName)
}

// LoadConfigWithInfo 按 默认值 -> 配置文件 -> 环境变量 的顺序加载配置并校验。
// path 为空时读取可执行文件同目录下的 config.toml（不存在则使用默认配置）；
// 显式指定的 path 必须存在。
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{}
	config := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		info.Path = path
		info.FileLoaded = true
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// 环境变量覆盖
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, info, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, info, err
	}

	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Marshal 以 TOML 输出配置
func (c *AppConfig) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// ResolveDataDir 返回数据目录：绝对路径原样返回，相对路径相对可执行文件目录
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	// 创建子目录
	subdirs := []string{"exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", path, err)
		}
	}

	return dataDir, nil
}

// DBPath 数据库文件路径
func DBPath(config *AppConfig) string {
	return filepath.Join(ResolveDataDir(config), config.Data.DBName)
}
