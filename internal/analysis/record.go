package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ttlearn/domain/core"
	"ttlearn/domain/trial"
	"ttlearn/ports"
)

// resolveColumns finds the Variable and Value column indexes in a header row.
// Exact names win; otherwise the first header containing "var" and the first
// containing "val" (case-insensitive) are used.
func resolveColumns(headers []string) (varIdx, valIdx int, ok bool) {
	varIdx, valIdx = -1, -1
	for i, h := range headers {
		if h == "Variable" {
			varIdx = i
		}
		if h == "Value" {
			valIdx = i
		}
	}
	if varIdx >= 0 && valIdx >= 0 {
		return varIdx, valIdx, true
	}

	varIdx, valIdx = -1, -1
	for i, h := range headers {
		lower := strings.ToLower(h)
		if varIdx == -1 && strings.Contains(lower, "var") {
			varIdx = i
		}
		if valIdx == -1 && strings.Contains(lower, "val") {
			valIdx = i
		}
	}
	if varIdx == -1 || valIdx == -1 {
		return 0, 0, false
	}
	return varIdx, valIdx, true
}

// RecordFromTable converts a loaded table into a trial record. Variable names
// are kept verbatim; blank values become NaN and non-numeric values are
// rejected.
func RecordFromTable(table trial.Table, path string) (trial.Record, error) {
	varIdx, valIdx, ok := resolveColumns(table.Headers)
	if !ok {
		return trial.Record{}, core.NewSchemaError(fmt.Sprintf("could not find 'Variable'/'Value' columns in %s", path))
	}

	rec := trial.NewRecord()
	for _, row := range table.Rows {
		var name, raw string
		if varIdx < len(row) {
			name = row[varIdx]
		}
		if valIdx < len(row) {
			raw = row[valIdx]
		}

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			rec.Set(name, math.NaN())
			continue
		}
		value, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return trial.Record{}, fmt.Errorf("non-numeric value %q for variable %q in %s", raw, name, path)
		}
		rec.Set(name, value)
	}
	return *rec, nil
}

// LoadRecord reads the trial file at path into a record.
func LoadRecord(reader ports.TableReader, path string) (trial.Record, error) {
	table, err := reader.ReadTable(path)
	if err != nil {
		return trial.Record{}, err
	}
	return RecordFromTable(table, path)
}
