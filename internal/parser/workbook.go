package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellKind 单元格取值类型
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell 无类型标量：文本、数字或空
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell builds a cell from workbook text. Text that reads as a number
// becomes a number cell and keeps its original text.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	if f, ok := parseNumber(s); ok {
		return Cell{Kind: CellNumber, Text: s, Number: f}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell builds a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Text: formatNumber(f), Number: f}
}

func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

func (c Cell) String() string { return c.Text }

// Float returns the numeric value of the cell.
func (c Cell) Float() (float64, bool) {
	if c.Kind != CellNumber {
		return 0, false
	}
	return c.Number, true
}

// Sheet 名称 + 单元格网格
type Sheet struct {
	Name string
	Rows [][]Cell
}

// SheetIndex 已加载文档的只读视图：有序 sheet 名 + 名称到网格的映射
type SheetIndex struct {
	names []string
	grids map[string][][]Cell
}

// NewSheetIndex 由内存中的 sheet 构建索引
func NewSheetIndex(sheets ...Sheet) *SheetIndex {
	idx := &SheetIndex{
		names: make([]string, 0, len(sheets)),
		grids: make(map[string][][]Cell, len(sheets)),
	}
	for _, s := range sheets {
		if _, exists := idx.grids[s.Name]; !exists {
			idx.names = append(idx.names, s.Name)
		}
		idx.grids[s.Name] = s.Rows
	}
	return idx
}

// StringRows converts a plain text grid into cells.
func StringRows(rows [][]string) [][]Cell {
	out := make([][]Cell, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			cells[j] = TextCell(v)
		}
		out[i] = cells
	}
	return out
}

// LoadWorkbook 打开 xlsx/xlsm 文件并读取全部 sheet
func LoadWorkbook(path string) (*SheetIndex, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return FromWorkbook(f)
}

// ReadWorkbook reads a workbook from r.
func ReadWorkbook(r io.Reader) (*SheetIndex, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()
	return FromWorkbook(f)
}

// FromWorkbook 将已打开的 excelize 文件转换为 SheetIndex
func FromWorkbook(f *excelize.File) (*SheetIndex, error) {
	if f == nil {
		return nil, fmt.Errorf("nil workbook")
	}
	sheetList := f.GetSheetList()
	sheets := make([]Sheet, 0, len(sheetList))
	for _, name := range sheetList {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: StringRows(rows)})
	}
	return NewSheetIndex(sheets...), nil
}

// SheetNames 返回 sheet 名列表副本（源文档顺序）
func (idx *SheetIndex) SheetNames() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// HasSheet reports whether a sheet with exactly this name exists.
func (idx *SheetIndex) HasSheet(name string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.grids[name]
	return ok
}

// Rows returns the grid of the named sheet. Callers must not modify it.
func (idx *SheetIndex) Rows(name string) ([][]Cell, bool) {
	if idx == nil {
		return nil, false
	}
	rows, ok := idx.grids[name]
	return rows, ok
}

// Cell returns the cell at (row, col), zero-based; out of range yields an empty cell.
func (idx *SheetIndex) Cell(sheet string, row, col int) Cell {
	rows, ok := idx.Rows(sheet)
	if !ok {
		return Cell{}
	}
	return cellAt(rows, row, col)
}

func cellAt(rows [][]Cell, row, col int) Cell {
	if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
		return Cell{}
	}
	return rows[row][col]
}
