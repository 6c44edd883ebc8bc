package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scorecards/internal/model"
)

// BatchStore 导入批次持久化协作方（批次生命周期由其维护）
type BatchStore interface {
	CreateBatch(ctx context.Context, rootPath string) (string, error)
	StartBatch(ctx context.Context, batchID string, totalFiles int) error
	RecordOutcome(ctx context.Context, batchID string, outcome model.DocumentOutcome) error
	FinishBatch(ctx context.Context, batchID string) (model.BatchStatus, error)
	FailBatch(ctx context.Context, batchID, reason string) error
}

// batchSink 将单批次的结果转交给 BatchStore
type batchSink struct {
	store   BatchStore
	batchID string
}

func (s batchSink) RecordOutcome(ctx context.Context, outcome model.DocumentOutcome) error {
	return s.store.RecordOutcome(ctx, s.batchID, outcome)
}

// Coordinator 导入协调器：遍历目录、写入批次并推送进度
type Coordinator struct {
	store  BatchStore
	logger *slog.Logger
}

// NewCoordinator 创建导入协调器；store 为 nil 时只生成报告不落库
func NewCoordinator(store BatchStore, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, logger: logger}
}

// ImportOptions 导入选项
type ImportOptions struct {
	Root            string
	Workers         int
	Extensions      []string
	CompanyKeywords []string
	Loader          Loader // 为空时使用 parser.LoadWorkbook
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/info/document/warning/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// ImportResult done 事件携带的结果
type ImportResult struct {
	BatchID string             `json:"batchId,omitempty"`
	Status  model.BatchStatus  `json:"status,omitempty"`
	Report  *model.BatchReport `json:"report"`
}

// Import 执行导入，返回进度通道；通道在导入结束后关闭
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "start",
		Message:   "starting scorecard import",
		Data:      map[string]string{"root": opts.Root},
		Timestamp: time.Now(),
	})

	walker := NewWalker(WalkerOptions{
		Workers:         opts.Workers,
		Extensions:      opts.Extensions,
		CompanyKeywords: opts.CompanyKeywords,
		Loader:          opts.Loader,
		Logger:          c.logger,
	})

	paths, err := walker.Discover(opts.Root)
	if err != nil {
		c.sendFinal(ctx, progressChan, ProgressEvent{
			Type:      "error",
			Message:   fmt.Sprintf("failed to scan %s: %v", opts.Root, err),
			Timestamp: time.Now(),
		})
		return
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:      "info",
		Message:   fmt.Sprintf("found %d documents", len(paths)),
		Data:      map[string]int{"total_files": len(paths)},
		Timestamp: time.Now(),
	})

	result := &ImportResult{}
	if c.store != nil {
		batchID, err := c.store.CreateBatch(ctx, opts.Root)
		if err != nil {
			c.sendFinal(ctx, progressChan, ProgressEvent{
				Type:      "error",
				Message:   fmt.Sprintf("failed to create import batch: %v", err),
				Timestamp: time.Now(),
			})
			return
		}
		result.BatchID = batchID
		// 批次一旦创建，生命周期写入不再受 ctx 取消影响
		if err := c.store.StartBatch(context.WithoutCancel(ctx), batchID, len(paths)); err != nil {
			c.sendFinal(ctx, progressChan, ProgressEvent{
				Type:      "error",
				Message:   fmt.Sprintf("failed to start import batch: %v", err),
				Timestamp: time.Now(),
			})
			return
		}
		walker.opts.Sink = batchSink{store: c.store, batchID: batchID}
	}

	processed := 0
	walker.opts.OnOutcome = func(outcome model.DocumentOutcome) {
		processed++
		evt := ProgressEvent{
			Type:    "document",
			Message: fmt.Sprintf("[%d/%d] %s -> %s", processed, len(paths), outcome.Path, outcome.Format),
			Data: map[string]interface{}{
				"path":   outcome.Path,
				"format": outcome.Format,
				"issues": len(outcome.Issues),
			},
			Timestamp: time.Now(),
		}
		if outcome.Failed() {
			evt.Type = "warning"
			evt.Message = fmt.Sprintf("[%d/%d] %s unreadable: %s", processed, len(paths), outcome.Path, outcome.Error)
		}
		c.sendProgress(progressChan, evt)
	}

	report, runErr := walker.RunPaths(ctx, opts.Root, paths, startTime)
	result.Report = report

	if runErr != nil {
		if result.BatchID != "" {
			c.failBatch(context.WithoutCancel(ctx), result.BatchID, runErr.Error())
			result.Status = model.BatchFailed
		}
		c.sendFinal(ctx, progressChan, ProgressEvent{
			Type:      "error",
			Message:   runErr.Error(),
			Data:      result,
			Timestamp: time.Now(),
		})
		return
	}

	if result.BatchID != "" {
		// 批次必须落到终态，即使 ctx 在最后一个文档启动后才取消
		finishCtx := context.WithoutCancel(ctx)
		status, err := c.store.FinishBatch(finishCtx, result.BatchID)
		if err != nil {
			c.sendProgress(progressChan, ProgressEvent{
				Type:      "warning",
				Message:   fmt.Sprintf("failed to finish import batch: %v", err),
				Timestamp: time.Now(),
			})
			c.failBatch(finishCtx, result.BatchID, fmt.Sprintf("finish failed: %v", err))
			status = model.BatchFailed
		}
		result.Status = status
	}

	c.sendFinal(ctx, progressChan, ProgressEvent{
		Type:      "done",
		Message:   "import finished",
		Data:      result,
		Timestamp: time.Now(),
	})
}

func (c *Coordinator) failBatch(ctx context.Context, batchID, reason string) {
	if err := c.store.FailBatch(ctx, batchID, reason); err != nil {
		c.logger.Error("failed to mark batch failed", slog.String("batch_id", batchID), slog.Any("err", err))
	}
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}

// sendFinal delivers done/error events, which must not be dropped.
func (c *Coordinator) sendFinal(ctx context.Context, ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	case <-ctx.Done():
		select {
		case ch <- event:
		default:
		}
	}
}
