package report

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/biokb/biokb-obo/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	// SheetImport 每个本体一行的导入结果
	SheetImport = "Import"
	// SheetSummary 本次导入汇总
	SheetSummary = "Summary"
)

// ImportHeader 导入结果表头
var ImportHeader = []string{
	"Ontology",
	"Status",
	"Terms",
	"Synonyms",
	"Identifiers",
	"XRefs",
	"Parent/Child",
	"File",
	"Error",
}

// Row 单个本体的导入结果
type Row struct {
	Name   string
	Status string
	Counts models.Counts
	File   string
	Error  string
}

// Report 一次导入的报表数据
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Rows        []Row
	Totals      models.Counts
}

// Generate 生成 Excel 报表
func Generate(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetImport)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, SheetImport, 1, toAny(ImportHeader)); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(ImportHeader), 1)
	if err := f.SetCellStyle(SheetImport, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, row := range r.Rows {
		values := []any{
			row.Name,
			row.Status,
			row.Counts.Terms,
			row.Counts.Synonyms,
			row.Counts.Identifiers,
			row.Counts.XRefs,
			row.Counts.ParentChild,
			row.File,
			row.Error,
		}
		if err := writeRow(f, SheetImport, i+2, values); err != nil {
			return nil, err
		}
	}

	widths := []float64{15, 12, 10, 10, 12, 10, 12, 40, 50}
	for col, w := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(SheetImport, name, name, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := writeSummary(f, r); err != nil {
		return nil, err
	}

	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile 生成报表并写入文件
func WriteFile(path string, r Report) error {
	data, err := Generate(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save report %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, r Report) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := [][]any{
		{"Run ID", r.RunID},
		{"Generated At", r.GeneratedAt.Format(time.RFC3339)},
		{"Ontologies", len(r.Rows)},
	}
	totals := r.Totals.Map()
	for _, kind := range models.Kinds {
		rows = append(rows, []any{kind, totals[kind]})
	}

	for i, values := range rows {
		if err := writeRow(f, SheetSummary, i+1, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "B", 20)
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
