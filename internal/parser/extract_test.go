package parser

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"scorecards/internal/model"
)

var itemHeader = []string{"Item #", "Criteria", "Max Points", "Points Earned", "Charts Met", "Sample Size"}

func categoryRows(items [][]string, total []string) [][]string {
	rows := [][]string{itemHeader}
	rows = append(rows, items...)
	if total != nil {
		rows = append(rows, total)
	}
	return rows
}

func snfIndex() *SheetIndex {
	return NewSheetIndex(
		Sheet{Name: SheetClinicalOverview, Rows: StringRows([][]string{
			{"Clinical Systems Review"},
			{"Facility Name", "Pine Ridge"},
			{"Company", "Northern Health"},
			{"Month", "Sept 2025"},
			{"Total Score", "70"},
			{"Total Possible", "80"},
			{"Score %", "87.5%"},
		})},
		Sheet{Name: "2. Falls", Rows: StringRows(categoryRows(
			[][]string{{"1", "Fall risk assessed on admission", "10", "10", "5", "5"}},
			[]string{"", "Total", "10", "10"},
		))},
		Sheet{Name: "1. Change of Condition", Rows: StringRows(categoryRows(
			[][]string{
				{"1", "Physician notified timely", "10", "8", "4", "5"},
				{"2", "Family notified", "10", "10", "5", "5"},
			},
			[]string{"", "Total", "20", "18"},
		))},
		Sheet{Name: "3. Wounds", Rows: StringRows(categoryRows(
			[][]string{{"1", "Weekly measurements", "20", "16", "4", "5"}},
			[]string{"", "Total", "20", "16"},
		))},
		Sheet{Name: "4) Infection Control", Rows: StringRows(categoryRows(
			[][]string{{"1", "Line listing current", "30", "26", "", ""}},
			[]string{"", "Total", "30", "26"},
		))},
	)
}

func TestExtract_SNF(t *testing.T) {
	t.Parallel()

	rec := Extract(snfIndex(), model.FormatSNFClinicalSystemsReview)
	if rec.KEVType != model.FormatSNFClinicalSystemsReview {
		t.Fatalf("kevType=%s", rec.KEVType)
	}
	if rec.FacilityName != "Pine Ridge" || rec.CompanyName != "Northern Health" {
		t.Fatalf("identity: %q %q", rec.FacilityName, rec.CompanyName)
	}
	if rec.TotalScore != 70 || rec.TotalMaxPoints != 80 || rec.ScorePercentage != 87.5 {
		t.Fatalf("summary: %v %v %v", rec.TotalScore, rec.TotalMaxPoints, rec.ScorePercentage)
	}
	wantNames := []string{"Change of Condition", "Falls", "Wounds", "Infection Control"}
	if len(rec.Categories) != len(wantNames) {
		t.Fatalf("categories=%d want %d", len(rec.Categories), len(wantNames))
	}
	for i, name := range wantNames {
		if rec.Categories[i].CategoryName != name {
			t.Fatalf("category %d=%q want %q", i, rec.Categories[i].CategoryName, name)
		}
	}
	coc := rec.Categories[0]
	if coc.TotalPointsEarned != 18 || coc.TotalMaxPoints != 20 || len(coc.Items) != 2 {
		t.Fatalf("change of condition: %+v", coc)
	}
	want := model.Item{ItemNumber: 1, Ordinal: "1", CriteriaText: "Physician notified timely", MaxPoints: 10, PointsEarned: 8, ChartsMet: 4, SampleSize: 5}
	if coc.Items[0] != want {
		t.Fatalf("item=%+v want %+v", coc.Items[0], want)
	}
}

func TestExtract_KEVHybrid(t *testing.T) {
	t.Parallel()

	idx := NewSheetIndex(
		Sheet{Name: SheetKEVHybridCover, Rows: StringRows([][]string{
			{"Facility:", "", "Lakeside Manor"},
			{"Organization", "Southern Care"},
			{"Review Period", "February 2025"},
			{"Total Points Earned", "45"},
			{"Possible Points", "50"},
			{"Percentage", "0.9"},
		})},
		Sheet{Name: SheetAbuseGrievances, Rows: StringRows(categoryRows(
			[][]string{{"1", "Grievance log reviewed", "25", "20", "", ""}},
			[]string{"Total", "", "25", "20"},
		))},
		Sheet{Name: "Notes", Rows: StringRows([][]string{{"free text"}})},
		Sheet{Name: "Infection Control", Rows: StringRows(categoryRows(
			[][]string{{"1", "Hand hygiene audit", "25", "25", "", ""}},
			[]string{"Total", "", "25", "25"},
		))},
	)

	rec := Extract(idx, model.FormatKEVHybrid)
	if rec.FacilityName != "Lakeside Manor" || rec.CompanyName != "Southern Care" {
		t.Fatalf("identity: %q %q", rec.FacilityName, rec.CompanyName)
	}
	if rec.ScorePercentage != 90 {
		t.Fatalf("fraction percentage should scale, got %v", rec.ScorePercentage)
	}
	if len(rec.Categories) != 2 {
		t.Fatalf("categories=%d want 2 (Notes has no table)", len(rec.Categories))
	}
	if rec.Categories[0].CategoryName != SheetAbuseGrievances || rec.Categories[1].CategoryName != "Infection Control" {
		t.Fatalf("category order: %q %q", rec.Categories[0].CategoryName, rec.Categories[1].CategoryName)
	}
}

func stackedRows() [][]string {
	return [][]string{
		{"Resident Care"},
		itemHeader,
		{"1", "Care plan updated quarterly", "5", "5", "3", "3"},
		{"2", "Total parenteral nutrition orders documented", "5", "4", "2", "3"},
		{"", "Total", "10", "9"},
		{},
		{"Medication Management"},
		itemHeader,
		{"1", "MAR reconciled", "10", "7", "", ""},
		{"", "Total", "10", "7"},
		{"Dining"},
		{"1", "Menus posted", "5", "5", "", ""},
		{"Safety"},
		{"1", "Fire drills logged", "5", "0", "", ""},
		{"", "Total", "5", "0"},
	}
}

func TestExtract_KEVMiniStackedSections(t *testing.T) {
	t.Parallel()

	idx := NewSheetIndex(
		Sheet{Name: SheetKEVMiniCover, Rows: StringRows([][]string{
			{"Facility Name", "Colville"},
			{"Management", "Northern"},
		})},
		Sheet{Name: "Score Cards", Rows: StringRows(stackedRows())},
	)

	rec := Extract(idx, model.FormatKEVMini)
	if rec.FacilityName != "Colville" || rec.CompanyName != "Northern" {
		t.Fatalf("identity: %q %q", rec.FacilityName, rec.CompanyName)
	}
	names := make([]string, 0, len(rec.Categories))
	for _, c := range rec.Categories {
		names = append(names, c.CategoryName)
	}
	want := []string{"Resident Care", "Medication Management", "Dining", "Safety"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("categories=%v want %v", names, want)
	}
	care := rec.Categories[0]
	if len(care.Items) != 2 || care.TotalPointsEarned != 9 || care.TotalMaxPoints != 10 {
		t.Fatalf("resident care: %+v", care)
	}
	if care.Items[1].CriteriaText != "Total parenteral nutrition orders documented" {
		t.Fatalf("criteria text must be verbatim, got %q", care.Items[1].CriteriaText)
	}
	dining := rec.Categories[2]
	if len(dining.Items) != 1 || dining.TotalPointsEarned != 0 {
		t.Fatalf("dining without total row: %+v", dining)
	}
}

func TestExtract_Olympus(t *testing.T) {
	t.Parallel()

	rows := append([][]string{
		{"Olympus ALF Quality Review"},
		{"Community", "Cedar House", "Operator", "Western Living"},
		{"Total Score", "21", "Max Points", "25"},
	}, stackedRows()...)
	idx := NewSheetIndex(
		Sheet{Name: "Instructions", Rows: StringRows(stackedRows())},
		Sheet{Name: "Olympus Scorecard", Rows: StringRows(rows)},
	)

	rec := Extract(idx, model.FormatALFOlympus)
	if rec.FacilityName != "Cedar House" || rec.CompanyName != "Western Living" {
		t.Fatalf("identity: %q %q", rec.FacilityName, rec.CompanyName)
	}
	if rec.TotalScore != 21 || rec.TotalMaxPoints != 25 {
		t.Fatalf("summary: %v %v", rec.TotalScore, rec.TotalMaxPoints)
	}
	if len(rec.Categories) != 4 || rec.Categories[0].CategoryName != "Resident Care" {
		t.Fatalf("categories: %+v", rec.Categories)
	}
}

func TestExtract_UnknownAndDegraded(t *testing.T) {
	t.Parallel()

	rec := Extract(indexWithSheets("Sheet1"), model.FormatUnknown)
	if rec.KEVType != model.FormatUnknown || rec.FacilityName != "" || rec.CompanyName != "" || len(rec.Categories) != 0 {
		t.Fatalf("unknown record should be minimal: %+v", rec)
	}

	// SNF marker sheet without any table still yields a record
	rec = Extract(indexWithSheets("1. Change of Condition"), model.FormatSNFClinicalSystemsReview)
	if len(rec.Categories) != 1 || len(rec.Categories[0].Items) != 0 {
		t.Fatalf("degraded snf record: %+v", rec)
	}
	if rec.FacilityName != "" {
		t.Fatalf("facility should be absent, got %q", rec.FacilityName)
	}

	rec = Extract(nil, model.FormatKEVMini)
	if rec.KEVType != model.FormatKEVMini || rec.Categories == nil {
		t.Fatalf("nil index: %+v", rec)
	}
}

func TestExtractDocument_EndToEndSNF(t *testing.T) {
	t.Parallel()

	doc := ExtractDocument(snfIndex(), "anything.xlsx")
	if doc.Recognition.Format != model.FormatSNFClinicalSystemsReview {
		t.Fatalf("format=%s", doc.Recognition.Format)
	}
	if doc.Record.ReviewPeriod != (model.ReviewPeriod{Month: 9, Year: 2025}) {
		t.Fatalf("period=%+v", doc.Record.ReviewPeriod)
	}

	again := ExtractDocument(snfIndex(), "anything.xlsx")
	if !reflect.DeepEqual(doc, again) {
		t.Fatalf("extraction is not deterministic")
	}
}

func TestLoadWorkbook_FromDisk(t *testing.T) {
	t.Parallel()

	wb := excelize.NewFile()
	t.Cleanup(func() { _ = wb.Close() })
	defaultSheet := wb.GetSheetName(wb.GetActiveSheetIndex())

	if _, err := wb.NewSheet(SheetKEVMiniCover); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	_ = wb.DeleteSheet(defaultSheet)
	_ = wb.SetCellValue(SheetKEVMiniCover, "A1", "Facility Name")
	_ = wb.SetCellValue(SheetKEVMiniCover, "B1", "Colville")
	_ = wb.SetCellValue(SheetKEVMiniCover, "A4", "Review Period")
	_ = wb.SetCellValue(SheetKEVMiniCover, "B4", "March 2025")
	_ = wb.SetCellValue(SheetKEVMiniCover, "A5", "Total Score")
	_ = wb.SetCellValue(SheetKEVMiniCover, "B5", 42)

	path := filepath.Join(t.TempDir(), "Colville KEV Mini.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	idx, err := LoadWorkbook(path)
	if err != nil {
		t.Fatalf("LoadWorkbook: %v", err)
	}
	if names := idx.SheetNames(); len(names) != 1 || names[0] != SheetKEVMiniCover {
		t.Fatalf("sheet names=%v", names)
	}
	if c := idx.Cell(SheetKEVMiniCover, 4, 1); c.Kind != CellNumber || c.Number != 42 {
		t.Fatalf("B5=%+v", c)
	}

	doc := ExtractDocument(idx, path)
	if doc.Record.KEVType != model.FormatKEVMini || doc.Record.FacilityName != "Colville" {
		t.Fatalf("record=%+v", doc.Record)
	}
	if doc.Record.ReviewPeriod != (model.ReviewPeriod{Month: 3, Year: 2025}) {
		t.Fatalf("period=%+v", doc.Record.ReviewPeriod)
	}
}

func TestLoadWorkbook_Unreadable(t *testing.T) {
	t.Parallel()

	if _, err := LoadWorkbook(filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
