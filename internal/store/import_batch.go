package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scorecards/internal/model"
)

var (
	// ErrBatchNotFound 批次不存在
	ErrBatchNotFound = errors.New("import batch not found")
	// ErrBatchNotProcessing 批次不在处理中，不接受文档结果
	ErrBatchNotProcessing = errors.New("import batch is not processing")
)

const batchColumns = `id, root_path, status, total_files, processed_files, success_count, failed_count,
	issue_count, error_log, error_message, created_at, started_at, completed_at`

// CreateBatch 创建 pending 状态的导入批次，返回批次 ID
func (s *Store) CreateBatch(ctx context.Context, rootPath string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_batches (id, root_path, status, created_at)
		VALUES (?, ?, ?, ?)
	`, id, rootPath, string(model.BatchPending), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to create import batch: %w", err)
	}
	return id, nil
}

// StartBatch pending -> processing
func (s *Store) StartBatch(ctx context.Context, batchID string, totalFiles int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := transition(ctx, tx, batchID, model.BatchProcessing); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE import_batches SET status = ?, total_files = ?, started_at = ?
			WHERE id = ?
		`, string(model.BatchProcessing), totalFiles, time.Now().UTC(), batchID)
		if err != nil {
			return fmt.Errorf("failed to start import batch: %w", err)
		}
		return nil
	})
}

// RecordOutcome 写入单个文档结果：成功的记录连同大类/条目入库，失败的追加到错误日志
func (s *Store) RecordOutcome(ctx context.Context, batchID string, outcome model.DocumentOutcome) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		status, err := batchStatus(ctx, tx, batchID)
		if err != nil {
			return err
		}
		if status != model.BatchProcessing {
			return fmt.Errorf("%w: %s is %s", ErrBatchNotProcessing, batchID, status)
		}

		if outcome.Failed() || outcome.Record == nil {
			return appendBatchError(ctx, tx, batchID, fmt.Sprintf("%s: %s", outcome.Path, outcome.Error))
		}

		if _, err := insertScorecard(ctx, tx, batchID, outcome); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE import_batches SET
				processed_files = processed_files + 1,
				success_count = success_count + 1,
				issue_count = issue_count + ?
			WHERE id = ?
		`, len(outcome.Issues), batchID)
		if err != nil {
			return fmt.Errorf("failed to update batch counters: %w", err)
		}
		return nil
	})
}

func appendBatchError(ctx context.Context, tx *sql.Tx, batchID, msg string) error {
	var raw string
	if err := tx.QueryRowContext(ctx, "SELECT error_log FROM import_batches WHERE id = ?", batchID).Scan(&raw); err != nil {
		return fmt.Errorf("failed to read error log: %w", err)
	}
	var entries []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return fmt.Errorf("failed to decode error log: %w", err)
		}
	}
	entries = append(entries, msg)
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode error log: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE import_batches SET
			processed_files = processed_files + 1,
			failed_count = failed_count + 1,
			error_log = ?
		WHERE id = ?
	`, string(data), batchID)
	if err != nil {
		return fmt.Errorf("failed to update batch counters: %w", err)
	}
	return nil
}

// FinishBatch processing -> completed / completed_with_errors / failed（没有任何文档成功时）
func (s *Store) FinishBatch(ctx context.Context, batchID string) (model.BatchStatus, error) {
	var final model.BatchStatus
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var success, failed int
		err := tx.QueryRowContext(ctx, "SELECT success_count, failed_count FROM import_batches WHERE id = ?", batchID).
			Scan(&success, &failed)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
		}
		if err != nil {
			return fmt.Errorf("failed to read batch counters: %w", err)
		}

		switch {
		case failed > 0 && success == 0:
			final = model.BatchFailed
		case failed > 0:
			final = model.BatchCompletedWithErrors
		default:
			final = model.BatchCompleted
		}
		if _, err := transition(ctx, tx, batchID, final); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE import_batches SET status = ?, completed_at = ? WHERE id = ?
		`, string(final), time.Now().UTC(), batchID)
		if err != nil {
			return fmt.Errorf("failed to finish import batch: %w", err)
		}
		return setConfig(ctx, tx, keyLastBatchID, batchID)
	})
	if err != nil {
		return "", err
	}
	return final, nil
}

// FailBatch 将批次标记为 failed 并记录原因
func (s *Store) FailBatch(ctx context.Context, batchID, reason string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := transition(ctx, tx, batchID, model.BatchFailed); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE import_batches SET status = ?, error_message = ?, completed_at = ? WHERE id = ?
		`, string(model.BatchFailed), reason, time.Now().UTC(), batchID)
		if err != nil {
			return fmt.Errorf("failed to mark batch failed: %w", err)
		}
		return setConfig(ctx, tx, keyLastBatchID, batchID)
	})
}

// RollbackBatch 删除批次写入的全部记分卡并标记为 rolled_back，返回删除的记分卡数量
func (s *Store) RollbackBatch(ctx context.Context, batchID string) (int64, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := transition(ctx, tx, batchID, model.BatchRolledBack); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM scorecard_items WHERE category_id IN (
				SELECT c.id FROM scorecard_categories c
				JOIN scorecards s ON s.id = c.scorecard_id
				WHERE s.batch_id = ?
			)
		`, batchID); err != nil {
			return fmt.Errorf("failed to delete items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM scorecard_categories WHERE scorecard_id IN (
				SELECT id FROM scorecards WHERE batch_id = ?
			)
		`, batchID); err != nil {
			return fmt.Errorf("failed to delete categories: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM scorecards WHERE batch_id = ?", batchID)
		if err != nil {
			return fmt.Errorf("failed to delete scorecards: %w", err)
		}
		removed, _ = res.RowsAffected()

		_, err = tx.ExecContext(ctx, `
			UPDATE import_batches SET status = ?, completed_at = ? WHERE id = ?
		`, string(model.BatchRolledBack), time.Now().UTC(), batchID)
		if err != nil {
			return fmt.Errorf("failed to mark batch rolled back: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// GetBatch 按 ID 查询批次
func (s *Store) GetBatch(ctx context.Context, batchID string) (*model.ImportBatch, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+batchColumns+" FROM import_batches WHERE id = ?", batchID)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}
	return b, nil
}

// ListBatches 按创建时间倒序列出批次；limit <= 0 表示不限
func (s *Store) ListBatches(ctx context.Context, limit int) ([]*model.ImportBatch, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+batchColumns+`
		FROM import_batches ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import batches: %w", err)
	}
	defer rows.Close()

	batches := []*model.ImportBatch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBatch(row rowScanner) (*model.ImportBatch, error) {
	var (
		b                      model.ImportBatch
		status, errorLog       string
		startedAt, completedAt sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.RootPath, &status, &b.TotalFiles, &b.ProcessedFiles, &b.SuccessCount, &b.FailedCount,
		&b.IssueCount, &errorLog, &b.ErrorMessage, &b.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = model.BatchStatus(status)
	b.ErrorLog = []string{}
	if errorLog != "" {
		if err := json.Unmarshal([]byte(errorLog), &b.ErrorLog); err != nil {
			return nil, fmt.Errorf("failed to decode error log: %w", err)
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		b.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		b.CompletedAt = &t
	}
	return &b, nil
}

func batchStatus(ctx context.Context, tx *sql.Tx, batchID string) (model.BatchStatus, error) {
	var status string
	err := tx.QueryRowContext(ctx, "SELECT status FROM import_batches WHERE id = ?", batchID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read batch status: %w", err)
	}
	return model.BatchStatus(status), nil
}

// transition 校验批次状态迁移
func transition(ctx context.Context, tx *sql.Tx, batchID string, to model.BatchStatus) (model.BatchStatus, error) {
	current, err := batchStatus(ctx, tx, batchID)
	if err != nil {
		return "", err
	}
	return current.Transition(to)
}
