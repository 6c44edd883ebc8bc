package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scorecards/internal/config"
	"scorecards/internal/report"
	"scorecards/internal/store"
)

// app 命令间共享的全局参数
type app struct {
	configPath string
	format     string
	workers    int
	dataDir    string
	logLevel   string

	logOutput io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{logOutput: os.Stderr}

	root := &cobra.Command{
		Use:           "scorecards",
		Short:         "Classify and extract facility compliance scorecards",
		Long:          "scorecards walks directories of scorecard workbooks, recognises each layout, extracts a canonical record, validates it and reports per company.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config.toml (default: next to the executable)")
	flags.StringVarP(&a.format, "format", "f", "text", "Output format: text, json or yaml")
	flags.IntVarP(&a.workers, "workers", "w", 0, "Concurrent documents (overrides [scan] workers)")
	flags.StringVar(&a.dataDir, "data-dir", "", "Data directory (overrides [data] data_dir)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newScanCmd(a),
		newImportCmd(a),
		newClassifyCmd(a),
		newBatchesCmd(a),
		newRollbackCmd(a),
		newConfigCmd(a),
	)
	return root
}

// loadConfig 加载配置并应用命令行覆盖
func (a *app) loadConfig() (*config.AppConfig, error) {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.workers > 0 {
		cfg.Scan.Workers = a.workers
	}
	if a.dataDir != "" {
		cfg.Data.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) outputFormat() (report.Format, error) {
	return report.ParseFormat(a.format)
}

func (a *app) logger(cfg *config.AppConfig) *slog.Logger {
	return newLogger(cfg.Log, a.logOutput)
}

// openStore 打开数据目录下的数据库
func (a *app) openStore(cfg *config.AppConfig) (*store.Store, error) {
	if _, err := config.EnsureDataDir(cfg); err != nil {
		return nil, err
	}
	st, err := store.New(config.DBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// newLogger 按配置创建 slog 日志器
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
