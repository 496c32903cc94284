package testkit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TestKit builds trial data trees on disk for tests and demos. Files are
// written under the kit's root in the layout the pipeline walks:
// condition/participant/(outcome/)files.
type TestKit struct {
	root string
}

// NewTestKit creates a kit rooted at dir.
func NewTestKit(dir string) *TestKit {
	return &TestKit{root: dir}
}

// Root returns the kit's root directory.
func (t *TestKit) Root() string {
	return t.root
}

// Path resolves a relative path under the kit's root.
func (t *TestKit) Path(rel string) string {
	return filepath.Join(t.root, rel)
}

// MkdirAll creates a directory tree under the root.
func (t *TestKit) MkdirAll(rel string) error {
	return os.MkdirAll(t.Path(rel), 0o755)
}

// Observation is one Variable/Value pair in a trial record. Values stay
// strings so fixtures can hold blanks and non-numeric text.
type Observation struct {
	Name  string
	Value string
}

// Event is one row of a timeline listing.
type Event struct {
	Type  string
	Trial string
}

// WriteTrial writes a standard Variable/Value trial record at rel,
// choosing CSV or workbook format from the extension.
func (t *TestKit) WriteTrial(rel string, obs []Observation) error {
	rows := make([][]string, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, []string{o.Name, o.Value})
	}
	return t.WriteTable(rel, []string{"Variable", "Value"}, rows)
}

// WriteTimeline writes a chronological event listing with type and trial
// columns.
func (t *TestKit) WriteTimeline(rel string, events []Event) error {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{e.Type, e.Trial})
	}
	return t.WriteTable(rel, []string{"type", "trial"}, rows)
}

// WriteTable writes headers and rows at rel. A .csv extension produces CSV;
// anything else produces a workbook, so .xls-named fixtures carry workbook
// content the reader can open.
func (t *TestKit) WriteTable(rel string, headers []string, rows [][]string) error {
	path := t.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return writeCSVTable(path, headers, rows)
	}
	return writeWorkbookTable(path, headers, rows)
}

func writeCSVTable(path string, headers []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeWorkbookTable(path string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for c, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, cellContent(v)); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

// cellContent writes numeric-looking values as numbers so fixtures resemble
// exported spreadsheets.
func cellContent(v string) interface{} {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
