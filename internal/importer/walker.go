package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"scorecards/internal/model"
	"scorecards/internal/parser"
	"scorecards/internal/validator"
)

// DefaultExtensions 默认处理的文档扩展名
var DefaultExtensions = []string{".xlsx", ".xlsm"}

// OutcomeSink 下游存储协作方：每个尝试处理的文档恰好收到一次结果
type OutcomeSink interface {
	RecordOutcome(ctx context.Context, outcome model.DocumentOutcome) error
}

// Loader 将文档路径读取为 SheetIndex
type Loader func(path string) (*parser.SheetIndex, error)

// WalkerOptions 批处理选项
type WalkerOptions struct {
	Workers         int
	Extensions      []string
	CompanyKeywords []string
	Sink            OutcomeSink
	Loader          Loader
	Logger          *slog.Logger
	OnOutcome       func(model.DocumentOutcome) // 在合并点串行调用
}

// Walker 递归遍历目录树，对每个文档执行 识别 -> 抽取 -> 校验 并汇总
type Walker struct {
	opts WalkerOptions
}

// NewWalker 创建 Walker，未设置的选项取默认值
func NewWalker(opts WalkerOptions) *Walker {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Loader == nil {
		opts.Loader = parser.LoadWorkbook
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Walker{opts: opts}
}

// Discover 列出 root 下所有待处理文档（按路径排序）。无法读取的目录项被跳过。
func (w *Walker) Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		if IsScorecardFile(filepath.Base(root), w.opts.Extensions) {
			return []string{root}, nil
		}
		return []string{}, nil
	}

	paths := []string{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.opts.Logger.Warn("skipping unreadable entry", slog.String("path", path), slog.Any("err", err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if IsScorecardFile(d.Name(), w.opts.Extensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run 处理 root 下全部文档并返回批次报告。
// ctx 取消后不再启动新文档，已开始的文档照常完成，返回部分报告与 ctx 错误。
func (w *Walker) Run(ctx context.Context, root string) (*model.BatchReport, error) {
	startedAt := time.Now()
	paths, err := w.Discover(root)
	if err != nil {
		return nil, err
	}
	return w.RunPaths(ctx, root, paths, startedAt)
}

// RunPaths processes an already discovered document list.
func (w *Walker) RunPaths(ctx context.Context, root string, paths []string, startedAt time.Time) (*model.BatchReport, error) {
	agg := NewAggregator(root, startedAt)
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(w.opts.Workers)

	var runErr error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("batch cancelled: %w", err)
			break
		}
		path := path
		g.Go(func() error {
			outcome := w.ProcessDocument(path)

			mu.Lock()
			defer mu.Unlock()
			w.merge(ctx, agg, outcome)
			return nil
		})
	}
	_ = g.Wait()

	report := agg.Report(time.Since(startedAt))
	w.opts.Logger.Info("batch finished",
		slog.String("root", root),
		slog.Int("files", report.TotalFiles),
		slog.Int("success", report.SuccessCount),
		slog.Int("failed", report.FailedCount),
		slog.Int("issues", report.IssueCount),
		slog.Duration("duration", report.Duration))
	return report, runErr
}

// merge 串行合并点：累加汇总、通知下游存储与观察者
func (w *Walker) merge(ctx context.Context, agg *Aggregator, outcome model.DocumentOutcome) {
	agg.Add(outcome)
	if w.opts.Sink != nil {
		// 已开始的文档在取消后仍须写入批次
		if err := w.opts.Sink.RecordOutcome(context.WithoutCancel(ctx), outcome); err != nil {
			msg := fmt.Sprintf("%s: %v", outcome.Path, err)
			w.opts.Logger.Error("failed to record outcome", slog.String("path", outcome.Path), slog.Any("err", err))
			agg.AddSinkError(msg)
		}
	}
	if w.opts.OnOutcome != nil {
		w.opts.OnOutcome(outcome)
	}
}

// ProcessDocument 处理单个文档；读取失败转为 Unknown + 错误信息，不向上抛出
func (w *Walker) ProcessDocument(path string) model.DocumentOutcome {
	start := time.Now()
	outcome := model.DocumentOutcome{
		Path:     path,
		Format:   model.FormatUnknown,
		Company:  InferCompany(path, w.opts.CompanyKeywords),
		Facility: InferFacility(path),
	}

	idx, err := w.opts.Loader(path)
	if err != nil {
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		w.opts.Logger.Warn("document unreadable", slog.String("path", path), slog.Any("err", err))
		return outcome
	}

	doc := parser.ExtractDocument(idx, filepath.Base(path))
	record := doc.Record
	outcome.Format = doc.Recognition.Format
	outcome.Rule = doc.Recognition.Rule
	outcome.Record = &record
	outcome.Issues = validator.Validate(record)
	outcome.Duration = time.Since(start)

	w.opts.Logger.Debug("document processed",
		slog.String("path", path),
		slog.String("format", string(outcome.Format)),
		slog.String("period", record.ReviewPeriod.String()),
		slog.Int("categories", len(record.Categories)),
		slog.Int("issues", len(outcome.Issues)))
	return outcome
}
