package analysis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ttlearn/domain/core"
	"ttlearn/domain/trial"
)

// TestRecordFromTableExactColumns tests the canonical Variable/Value layout
func TestRecordFromTableExactColumns(t *testing.T) {
	table := trial.Table{
		Headers: []string{"Variable", "Value"},
		Rows: [][]string{
			{"Score", "10"},
			{"Errors", "2.5"},
		},
	}

	rec, err := RecordFromTable(table, "P1_serve_win1.xlsx")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := &trial.Record{
		Names:  []string{"Score", "Errors"},
		Values: map[string]float64{"Score": 10, "Errors": 2.5},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Record mismatch (-want +got):\n%s", diff)
	}
}

// TestRecordFromTableFuzzyColumns tests the substring fallback for column
// resolution
func TestRecordFromTableFuzzyColumns(t *testing.T) {
	table := trial.Table{
		Headers: []string{"Trial Variables", "Measured Values", "Notes"},
		Rows: [][]string{
			{"Score", "7", "good"},
		},
	}

	rec, err := RecordFromTable(table, "p.xlsx")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Values["Score"] != 7 {
		t.Errorf("Expected Score=7 via fuzzy headers, got %v", rec.Values)
	}
}

// TestRecordFromTableMissingColumns tests the schema error
func TestRecordFromTableMissingColumns(t *testing.T) {
	table := trial.Table{
		Headers: []string{"Name", "Score"},
		Rows:    [][]string{{"a", "1"}},
	}

	_, err := RecordFromTable(table, "p.xlsx")
	if err == nil {
		t.Fatal("Expected schema error, got none")
	}
	if !core.IsSchemaError(err) {
		t.Errorf("Expected a schema error, got %v", err)
	}
}

// TestRecordFromTableBlankAndShortRows tests blank cells and ragged rows
func TestRecordFromTableBlankAndShortRows(t *testing.T) {
	table := trial.Table{
		Headers: []string{"Variable", "Value"},
		Rows: [][]string{
			{"Score", "  "},
			{"Errors"},
		},
	}

	rec, err := RecordFromTable(table, "p.xlsx")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !math.IsNaN(rec.Values["Score"]) {
		t.Errorf("Expected blank value to load as NaN, got %v", rec.Values["Score"])
	}
	if !math.IsNaN(rec.Values["Errors"]) {
		t.Errorf("Expected missing cell to load as NaN, got %v", rec.Values["Errors"])
	}
}

// TestRecordFromTableNonNumericValue tests rejection of unparseable values
func TestRecordFromTableNonNumericValue(t *testing.T) {
	table := trial.Table{
		Headers: []string{"Variable", "Value"},
		Rows:    [][]string{{"Score", "fast"}},
	}

	_, err := RecordFromTable(table, "p.xlsx")
	if err == nil {
		t.Fatal("Expected error for non-numeric value, got none")
	}
}

// TestRecordFromTableDuplicateVariables tests the first-wins rule
func TestRecordFromTableDuplicateVariables(t *testing.T) {
	table := trial.Table{
		Headers: []string{"Variable", "Value"},
		Rows: [][]string{
			{"Score", "1"},
			{"Score", "2"},
		},
	}

	rec, err := RecordFromTable(table, "p.xlsx")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Len() != 1 || rec.Values["Score"] != 1 {
		t.Errorf("Expected single Score=1, got %v", rec.Values)
	}
}
