package result

import (
	"strings"
	"testing"
)

// TestSignificant tests significance filtering at the alpha threshold
func TestSignificant(t *testing.T) {
	rows := []Row{
		{Variable: "A", PValue: 0.01},
		{Variable: "B", PValue: 0.05},
		{Variable: "C", PValue: 0.0499},
		{Variable: "D", PValue: 0.9},
	}

	sig := Significant(rows)
	if len(sig) != 2 {
		t.Fatalf("Expected 2 significant rows, got %d", len(sig))
	}
	if sig[0].Variable != "A" || sig[1].Variable != "C" {
		t.Errorf("Expected significant variables [A C], got [%s %s]", sig[0].Variable, sig[1].Variable)
	}
}

// TestDirection tests the late-block direction label
func TestDirection(t *testing.T) {
	up := Row{MeanFirst: 1, MeanLast: 2}
	if up.Direction() != "HIGHER" {
		t.Errorf("Expected HIGHER, got %s", up.Direction())
	}
	down := Row{MeanFirst: 2, MeanLast: 1}
	if down.Direction() != "LOWER" {
		t.Errorf("Expected LOWER, got %s", down.Direction())
	}
}

// TestFindingsNoSignificantResults tests the summary line when nothing clears alpha
func TestFindingsNoSignificantResults(t *testing.T) {
	rows := []Row{
		{Variable: "A", PValue: 0.5},
		{Variable: "B", PValue: 0.9},
	}

	lines := Findings(rows, 10)
	if len(lines) != 1 {
		t.Fatalf("Expected a single summary line, got %d lines", len(lines))
	}
	if lines[0] != "No significant results found at α=0.05 across 2 variables." {
		t.Errorf("Unexpected summary line: %q", lines[0])
	}
}

// TestFindingsWithSignificantResults tests the per-finding block format
func TestFindingsWithSignificantResults(t *testing.T) {
	rows := []Row{
		{Condition: "serve", Variable: "Score", Test: TestPairedT, PValue: 0.0123, MeanFirst: 1.5, MeanLast: 3.5},
		{Condition: "serve", Variable: "Errors", Test: TestWilcoxon, PValue: 0.8},
	}

	lines := Findings(rows, 5)
	if lines[0] != "Found 1 Significant Results (p < 0.05):" {
		t.Errorf("Unexpected heading: %q", lines[0])
	}
	if lines[1] != "" {
		t.Errorf("Expected blank separator, got %q", lines[1])
	}
	if lines[2] != "On average, Score was significantly HIGHER in the Last 5 trials." {
		t.Errorf("Unexpected direction line: %q", lines[2])
	}
	if !strings.Contains(lines[3], "Cond: serve") || !strings.Contains(lines[3], "p=0.0123") {
		t.Errorf("Unexpected detail line: %q", lines[3])
	}
	if lines[4] != "  (First 5 Avg: 1.500, Last 5 Avg: 3.500)" {
		t.Errorf("Unexpected averages line: %q", lines[4])
	}
}

// TestHeaders tests the exported column order
func TestHeaders(t *testing.T) {
	expected := []string{"Condition", "Variable", "N", "Mean_First", "Mean_Last", "Shapiro_p", "Test", "Test_stat", "p_value"}
	got := Headers()
	if len(got) != len(expected) {
		t.Fatalf("Expected %d headers, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Header %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}
