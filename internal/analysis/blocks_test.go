package analysis

import (
	"math"
	"testing"

	"ttlearn/domain/trial"
)

func recordOf(pairs ...interface{}) trial.Record {
	rec := trial.NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		rec.Set(pairs[i].(string), pairs[i+1].(float64))
	}
	return *rec
}

// TestBlockMeansFromRecords tests per-variable averaging across a block
func TestBlockMeansFromRecords(t *testing.T) {
	first := []trial.Record{
		recordOf("Score", 1.0, "Errors", 4.0),
		recordOf("Score", 2.0, "Errors", 6.0),
	}
	last := []trial.Record{
		recordOf("Score", 3.0, "Errors", 2.0),
		recordOf("Score", 4.0, "Errors", 0.0),
	}

	means, err := BlockMeansFromRecords(first, last)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(means.Variables) != 2 || means.Variables[0] != "Score" || means.Variables[1] != "Errors" {
		t.Fatalf("Expected variables [Score Errors], got %v", means.Variables)
	}
	if means.First["Score"] != 1.5 || means.Last["Score"] != 3.5 {
		t.Errorf("Expected Score means 1.5/3.5, got %v/%v", means.First["Score"], means.Last["Score"])
	}
	if means.First["Errors"] != 5 || means.Last["Errors"] != 1 {
		t.Errorf("Expected Errors means 5/1, got %v/%v", means.First["Errors"], means.Last["Errors"])
	}
}

// TestBlockMeansSkipsNaNWithinBlock tests that NaN values inside a block are
// averaged around, not propagated
func TestBlockMeansSkipsNaNWithinBlock(t *testing.T) {
	first := []trial.Record{
		recordOf("Score", 2.0),
		recordOf("Score", math.NaN()),
	}
	last := []trial.Record{
		recordOf("Score", 4.0),
		recordOf("Score", 6.0),
	}

	means, err := BlockMeansFromRecords(first, last)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if means.First["Score"] != 2 {
		t.Errorf("Expected NaN skipped in block mean, got %v", means.First["Score"])
	}
}

// TestBlockMeansAllMissingIsNaN tests the empty-mean rule
func TestBlockMeansAllMissingIsNaN(t *testing.T) {
	first := []trial.Record{recordOf("Score", math.NaN())}
	last := []trial.Record{recordOf("Score", 1.0)}

	means, err := BlockMeansFromRecords(first, last)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !math.IsNaN(means.First["Score"]) {
		t.Errorf("Expected NaN mean when every value is missing, got %v", means.First["Score"])
	}
}

// TestBlockMeansVariableMissingFromLastBlock tests the mismatch error
func TestBlockMeansVariableMissingFromLastBlock(t *testing.T) {
	first := []trial.Record{recordOf("Score", 1.0, "Errors", 2.0)}
	last := []trial.Record{recordOf("Score", 3.0)}

	_, err := BlockMeansFromRecords(first, last)
	if err == nil {
		t.Fatal("Expected error for variable missing from last block, got none")
	}
}

// TestBlockMeansVariableOnlyInLastBlock tests that late-appearing variables
// are not reported
func TestBlockMeansVariableOnlyInLastBlock(t *testing.T) {
	first := []trial.Record{recordOf("Score", 1.0)}
	last := []trial.Record{recordOf("Score", 2.0, "Extra", 9.0)}

	means, err := BlockMeansFromRecords(first, last)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(means.Variables) != 1 || means.Variables[0] != "Score" {
		t.Errorf("Expected only [Score], got %v", means.Variables)
	}
}
