package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecards/internal/model"
	"scorecards/internal/parser"
	"scorecards/internal/store"
)

// touch 创建空文件（内容由注入的 Loader 提供）
func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func hybridIndex() *parser.SheetIndex {
	header := []string{"Item #", "Criteria", "Max Points", "Points Earned"}
	category := func(name string) parser.Sheet {
		return parser.Sheet{Name: name, Rows: parser.StringRows([][]string{
			header,
			{"1", name + " reviewed", "10", "8"},
			{"", "Total", "10", "8"},
		})}
	}
	return parser.NewSheetIndex(
		parser.Sheet{Name: parser.SheetKEVHybridCover, Rows: parser.StringRows([][]string{
			{"Facility Name", "Pine Ridge"},
			{"Review Period", "March 2025"},
		})},
		category(parser.SheetAbuseGrievances),
		category("Dining"),
		category("Activities"),
		category("Housekeeping"),
	)
}

func stubLoader(indexes map[string]*parser.SheetIndex) Loader {
	return func(path string) (*parser.SheetIndex, error) {
		idx, ok := indexes[filepath.Base(path)]
		if !ok {
			return nil, errors.New("not a workbook")
		}
		return idx, nil
	}
}

type recordingSink struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (s *recordingSink) RecordOutcome(_ context.Context, outcome model.DocumentOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, outcome.Path)
	return s.err
}

func TestWalker_DiscoverSkipsLockFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	a := touch(t, root, "Northern", "Pine Ridge", "March.xlsx")
	touch(t, root, "Northern", "Pine Ridge", "~$March.xlsx")
	touch(t, root, "Northern", "Pine Ridge", "notes.txt")
	b := touch(t, root, "Southern", "Oak", "April.XLSX")

	w := NewWalker(WalkerOptions{})
	paths, err := w.Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, paths)
}

func TestWalker_DiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := NewWalker(WalkerOptions{}).Discover(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestWalker_RunAggregatesFacilityAndCompany(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "Northern", "FacilityX", "Scorecard", "a.xlsx")
	touch(t, root, "Northern", "FacilityX", "Scorecard", "b.xlsx")
	touch(t, root, "Northern", "FacilityX", "Scorecard", "~$a.xlsx")

	sink := &recordingSink{}
	w := NewWalker(WalkerOptions{
		Workers:         2,
		CompanyKeywords: []string{"Northern", "Southern"},
		Sink:            sink,
		Loader: stubLoader(map[string]*parser.SheetIndex{
			"a.xlsx": hybridIndex(),
			"b.xlsx": hybridIndex(),
		}),
	})

	report, err := w.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalFiles)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 0, report.FailedCount)
	assert.Equal(t, 2, report.CompanyCounts["Northern"])
	assert.Equal(t, []string{"FacilityX"}, report.CompanyFacilities["Northern"])
	assert.Equal(t, 2, report.FormatCounts[model.FormatKEVHybrid])
	assert.Equal(t, 2, report.CompanyFormatCounts["Northern"][model.FormatKEVHybrid])
	assert.Len(t, sink.paths, 2)

	for _, outcome := range report.Outcomes {
		require.NotNil(t, outcome.Record)
		assert.Equal(t, "kev_hybrid_cover_abuse", outcome.Rule)
		assert.Equal(t, model.ReviewPeriod{Month: 3, Year: 2025}, outcome.Record.ReviewPeriod)
		assert.Empty(t, outcome.Issues)
	}
}

func TestWalker_UnreadableDocumentIsCounted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "Southern", "Oak", "good.xlsx")
	bad := touch(t, root, "Southern", "Oak", "broken.xlsx")

	sink := &recordingSink{}
	w := NewWalker(WalkerOptions{
		CompanyKeywords: []string{"Southern"},
		Sink:            sink,
		Loader:          stubLoader(map[string]*parser.SheetIndex{"good.xlsx": hybridIndex()}),
	})

	report, err := w.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalFiles)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.FailedCount)
	assert.Equal(t, 1, report.FormatCounts[model.FormatUnknown])
	assert.Len(t, sink.paths, 2)

	var failed *model.DocumentOutcome
	for i := range report.Outcomes {
		if report.Outcomes[i].Path == bad {
			failed = &report.Outcomes[i]
		}
	}
	require.NotNil(t, failed)
	assert.True(t, failed.Failed())
	assert.Contains(t, failed.Error, "not a workbook")
	assert.Nil(t, failed.Record)
}

func TestWalker_SinkErrorsAreReported(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "Oak", "good.xlsx")

	w := NewWalker(WalkerOptions{
		Sink:   &recordingSink{err: errors.New("disk full")},
		Loader: stubLoader(map[string]*parser.SheetIndex{"good.xlsx": hybridIndex()}),
	})

	report, err := w.Run(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, report.SinkErrors, 1)
	assert.Contains(t, report.SinkErrors[0], "disk full")
	assert.Equal(t, 1, report.SuccessCount)
}

func TestWalker_CancelledContextStopsLaunching(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "Oak", "a.xlsx")
	touch(t, root, "Oak", "b.xlsx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker(WalkerOptions{Loader: stubLoader(nil)})
	report, err := w.Run(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.TotalFiles)
}

func TestWalker_ResultIsIndependentOfWorkerCount(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	indexes := map[string]*parser.SheetIndex{}
	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx", "d.xlsx", "e.xlsx"} {
		touch(t, root, "Northern", "Pine Ridge", name)
		indexes[name] = hybridIndex()
	}
	touch(t, root, "Southern", "Oak", "broken.xlsx")

	run := func(workers int) *model.BatchReport {
		w := NewWalker(WalkerOptions{
			Workers:         workers,
			CompanyKeywords: []string{"Northern", "Southern"},
			Loader:          stubLoader(indexes),
		})
		report, err := w.RunPaths(context.Background(), root, mustDiscover(t, w, root), time.Time{})
		require.NoError(t, err)
		return report
	}

	serial := run(1)
	parallel := run(4)
	serial.Duration, parallel.Duration = 0, 0
	for i := range serial.Outcomes {
		serial.Outcomes[i].Duration = 0
	}
	for i := range parallel.Outcomes {
		parallel.Outcomes[i].Duration = 0
	}
	assert.True(t, reflect.DeepEqual(serial, parallel), "reports differ between 1 and 4 workers")
}

func mustDiscover(t *testing.T, w *Walker, root string) []string {
	t.Helper()
	paths, err := w.Discover(root)
	require.NoError(t, err)
	return paths
}

// cancellingLoader 在读取文档时取消 ctx，模拟处理途中收到取消
func cancellingLoader(cancel context.CancelFunc, idx *parser.SheetIndex) Loader {
	return func(string) (*parser.SheetIndex, error) {
		cancel()
		return idx, nil
	}
}

func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "scorecards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// ctxSink 记录写入时 ctx 的状态
type ctxSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *ctxSink) RecordOutcome(ctx context.Context, _ model.DocumentOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, ctx.Err())
	return ctx.Err()
}

func TestWalker_InFlightDocumentReachesSinkAfterCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touch(t, root, "Oak", "a.xlsx")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &ctxSink{}
	w := NewWalker(WalkerOptions{Sink: sink, Loader: cancellingLoader(cancel, hybridIndex())})
	report, err := w.Run(ctx, root)
	require.NoError(t, err)

	assert.Equal(t, 1, report.SuccessCount)
	assert.Empty(t, report.SinkErrors)
	require.Len(t, sink.errs, 1)
	assert.NoError(t, sink.errs[0])
}

func TestWalker_CancelMidBatchPersistsEveryAttemptedDocument(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		touch(t, root, "Oak", name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := newSQLiteStore(t)
	batchID, err := st.CreateBatch(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, st.StartBatch(context.Background(), batchID, 3))

	w := NewWalker(WalkerOptions{
		Workers: 1,
		Sink:    batchSink{store: st, batchID: batchID},
		Loader:  cancellingLoader(cancel, hybridIndex()),
	})
	report, err := w.Run(ctx, root)
	require.ErrorIs(t, err, context.Canceled)

	// 第三个文档启动前，前一个文档必然已完成并触发取消
	assert.GreaterOrEqual(t, report.TotalFiles, 1)
	assert.Less(t, report.TotalFiles, 3)
	assert.Empty(t, report.SinkErrors)

	b, err := st.GetBatch(context.Background(), batchID)
	require.NoError(t, err)
	assert.Equal(t, report.TotalFiles, b.ProcessedFiles)
	assert.Equal(t, report.SuccessCount, b.SuccessCount)
}
