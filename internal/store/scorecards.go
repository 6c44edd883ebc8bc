package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"scorecards/internal/model"
)

// insertScorecard 写入记分卡及其大类、条目，返回记分卡 ID
func insertScorecard(ctx context.Context, tx *sql.Tx, batchID string, outcome model.DocumentOutcome) (int64, error) {
	rec := outcome.Record
	issues := outcome.Issues
	if issues == nil {
		issues = []model.ValidationIssue{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return 0, fmt.Errorf("failed to encode issues: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO scorecards (
			batch_id, file_path, format, rule, company, facility,
			facility_name, company_name, review_month, review_year,
			total_score, total_max_points, score_percentage, issues
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		batchID, outcome.Path, string(outcome.Format), outcome.Rule, outcome.Company, outcome.Facility,
		rec.FacilityName, rec.CompanyName, rec.ReviewPeriod.Month, rec.ReviewPeriod.Year,
		rec.TotalScore, rec.TotalMaxPoints, rec.ScorePercentage, string(issuesJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scorecard: %w", err)
	}
	scorecardID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scorecard id: %w", err)
	}

	catStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scorecard_categories (scorecard_id, position, category_name, total_points_earned, total_max_points)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer catStmt.Close()

	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scorecard_items (
			category_id, position, item_number, ordinal, criteria_text, max_points, points_earned, charts_met, sample_size
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer itemStmt.Close()

	for ci, cat := range rec.Categories {
		res, err := catStmt.ExecContext(ctx, scorecardID, ci, cat.CategoryName, cat.TotalPointsEarned, cat.TotalMaxPoints)
		if err != nil {
			return 0, fmt.Errorf("failed to insert category %q: %w", cat.CategoryName, err)
		}
		categoryID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get category id: %w", err)
		}
		for ii, it := range cat.Items {
			_, err := itemStmt.ExecContext(ctx,
				categoryID, ii, it.ItemNumber, it.Ordinal, it.CriteriaText, it.MaxPoints, it.PointsEarned, it.ChartsMet, it.SampleSize,
			)
			if err != nil {
				return 0, fmt.Errorf("failed to insert item %d of %q: %w", it.ItemNumber, cat.CategoryName, err)
			}
		}
	}

	return scorecardID, nil
}

// ListScorecards 列出批次内的记分卡（按文件路径排序），含大类与条目
func (s *Store) ListScorecards(ctx context.Context, batchID string) ([]model.StoredScorecard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, file_path, format, rule, company, facility,
			facility_name, company_name, review_month, review_year,
			total_score, total_max_points, score_percentage, issues
		FROM scorecards WHERE batch_id = ?
		ORDER BY file_path, id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scorecards: %w", err)
	}

	cards := []model.StoredScorecard{}
	for rows.Next() {
		var (
			sc             model.StoredScorecard
			format, issues string
		)
		err := rows.Scan(
			&sc.ID, &sc.BatchID, &sc.Path, &format, &sc.Rule, &sc.Company, &sc.Facility,
			&sc.Record.FacilityName, &sc.Record.CompanyName, &sc.Record.ReviewPeriod.Month, &sc.Record.ReviewPeriod.Year,
			&sc.Record.TotalScore, &sc.Record.TotalMaxPoints, &sc.Record.ScorePercentage, &issues,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan scorecard: %w", err)
		}
		sc.Format = model.FormatTag(format)
		sc.Record.KEVType = sc.Format
		if err := json.Unmarshal([]byte(issues), &sc.Issues); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to decode issues: %w", err)
		}
		cards = append(cards, sc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// 单连接：先关闭结果集再查询明细
	rows.Close()

	for i := range cards {
		categories, err := s.loadCategories(ctx, cards[i].ID)
		if err != nil {
			return nil, err
		}
		cards[i].Record.Categories = categories
	}
	return cards, nil
}

func (s *Store) loadCategories(ctx context.Context, scorecardID int64) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_name, total_points_earned, total_max_points
		FROM scorecard_categories WHERE scorecard_id = ? ORDER BY position
	`, scorecardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	var ids []int64
	categories := []model.Category{}
	for rows.Next() {
		var (
			id  int64
			cat model.Category
		)
		if err := rows.Scan(&id, &cat.CategoryName, &cat.TotalPointsEarned, &cat.TotalMaxPoints); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		ids = append(ids, id)
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		items, err := s.loadItems(ctx, id)
		if err != nil {
			return nil, err
		}
		categories[i].Items = items
	}
	return categories, nil
}

func (s *Store) loadItems(ctx context.Context, categoryID int64) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_number, ordinal, criteria_text, max_points, points_earned, charts_met, sample_size
		FROM scorecard_items WHERE category_id = ? ORDER BY position
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ItemNumber, &it.Ordinal, &it.CriteriaText, &it.MaxPoints, &it.PointsEarned, &it.ChartsMet, &it.SampleSize); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
