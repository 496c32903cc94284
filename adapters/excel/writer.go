package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ttlearn/domain/result"
)

const resultsSheet = "Analysis_Results"

// ExportRows writes the result table to path, choosing the format from the
// extension (.csv for CSV, anything else for XLSX).
func ExportRows(path string, rows []result.Row) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return WriteRowsCSV(path, rows)
	}
	return WriteRowsXLSX(path, rows)
}

// WriteRowsCSV writes the result table as CSV to path.
func WriteRowsCSV(path string, rows []result.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteResultsCSV(f, rows)
}

// WriteResultsCSV streams the result table as CSV. Non-finite statistics
// become empty cells.
func WriteResultsCSV(w io.Writer, rows []result.Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(result.Headers()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(csvRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRowsXLSX writes the result table as an Excel workbook at path.
func WriteRowsXLSX(path string, rows []result.Row) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteResultsXLSX streams the result table as an Excel workbook.
func WriteResultsXLSX(w io.Writer, rows []result.Row) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// buildWorkbook assembles the results sheet with sized, centered columns.
// Non-finite statistics become empty cells.
func buildWorkbook(rows []result.Row) (*excelize.File, error) {
	f := excelize.NewFile()

	idx, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range result.Headers() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		rowIdx := r + 2
		values := []interface{}{
			row.Condition,
			row.Variable,
			row.N,
			cellValue(row.MeanFirst),
			cellValue(row.MeanLast),
			cellValue(row.ShapiroP),
			row.Test,
			cellValue(row.Statistic),
			cellValue(row.PValue),
		}
		for c, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := sizeColumns(f, rows); err != nil {
		return nil, err
	}
	return f, nil
}

// sizeColumns widens each column to its longest rendered value plus padding
// and centers the content.
func sizeColumns(f *excelize.File, rows []result.Row) error {
	centered, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for i, h := range result.Headers() {
		width := len(h)
		for _, row := range rows {
			if l := len(csvRecord(row)[i]); l > width {
				width = l
			}
		}

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(resultsSheet, col, col, float64(width+4)); err != nil {
			return err
		}
		if err := f.SetColStyle(resultsSheet, col, centered); err != nil {
			return err
		}
	}
	return nil
}

func csvRecord(row result.Row) []string {
	return []string{
		row.Condition,
		row.Variable,
		strconv.Itoa(row.N),
		formatCell(row.MeanFirst),
		formatCell(row.MeanLast),
		formatCell(row.ShapiroP),
		row.Test,
		formatCell(row.Statistic),
		formatCell(row.PValue),
	}
}

func formatCell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
