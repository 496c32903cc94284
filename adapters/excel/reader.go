package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ttlearn/domain/trial"
	"ttlearn/internal"
)

// DataReader handles reading a single Excel or CSV trial file
type DataReader struct {
	filePath string
	fileType string // "excel" or "csv"
}

// NewDataReader creates a reader for filePath, dispatching on its extension
func NewDataReader(filePath string) *DataReader {
	fileType := "excel"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Read loads the file into a header/rows table. The header row is required;
// data rows may be absent.
func (r *DataReader) Read() (trial.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return trial.Table{}, fmt.Errorf("%s file not found: %s", r.fileType, r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	default:
		return r.readExcel()
	}
}

// readExcel reads the first worksheet of the workbook
func (r *DataReader) readExcel() (trial.Table, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return trial.Table{}, fmt.Errorf("failed to open workbook %s: %w", r.filePath, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return trial.Table{}, fmt.Errorf("workbook %s has no sheets", r.filePath)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return trial.Table{}, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	internal.DefaultLogger.Debug("read excel file %s (%d rows)", r.filePath, len(rows))

	return r.processRows(rows)
}

func (r *DataReader) readCSV() (trial.Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return trial.Table{}, fmt.Errorf("failed to open CSV file %s: %w", r.filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return trial.Table{}, fmt.Errorf("failed to read CSV file %s: %w", r.filePath, err)
	}
	internal.DefaultLogger.Debug("read csv file %s (%d rows)", r.filePath, len(rows))

	return r.processRows(rows)
}

// processRows converts raw rows into a table. Header cells are trimmed; data
// cells are kept verbatim.
func (r *DataReader) processRows(rows [][]string) (trial.Table, error) {
	if len(rows) == 0 {
		return trial.Table{}, fmt.Errorf("file %s contains no rows", r.filePath)
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	return trial.Table{Headers: headers, Rows: rows[1:]}, nil
}

// Reader implements ports.TableReader over per-file DataReaders.
type Reader struct{}

// NewReader creates the shared table reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadTable loads the file at path into a table
func (Reader) ReadTable(path string) (trial.Table, error) {
	return NewDataReader(path).Read()
}
