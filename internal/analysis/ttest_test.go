package analysis

import (
	"math"
	"testing"
)

// TestPairedTTestKnownValues tests the statistic and exact p-value on a small
// worked example
func TestPairedTTestKnownValues(t *testing.T) {
	first := []float64{1, 2, 3, 4, 5}
	last := []float64{2, 4, 5, 4, 5}
	// Differences are {-1,-2,-2,0,0}: mean -1, sample sd 1, so t = -sqrt(5).

	statistic, p := PairedTTest(first, last)
	if !approxEqual(statistic, -math.Sqrt(5), 1e-9) {
		t.Errorf("Expected t=-sqrt(5), got %v", statistic)
	}
	if !approxEqual(p, 0.08897, 1e-3) {
		t.Errorf("Expected p=0.0890 for t=-2.236 with df=4, got %v", p)
	}
}

// TestPairedTTestSkipsNaNPairs tests that pairs with a missing side are
// dropped before testing
func TestPairedTTestSkipsNaNPairs(t *testing.T) {
	first := []float64{1, 2, math.NaN()}
	last := []float64{2, 4, 5}
	// Only the first two pairs are used: differences {-1,-2}, t = -3, df = 1.

	statistic, p := PairedTTest(first, last)
	if !approxEqual(statistic, -3, 1e-9) {
		t.Errorf("Expected t=-3, got %v", statistic)
	}
	expected := 2 * (0.5 - math.Atan(3)/math.Pi)
	if !approxEqual(p, expected, 1e-9) {
		t.Errorf("Expected Cauchy tail p=%v, got %v", expected, p)
	}
}

// TestPairedTTestTooFewPairs tests the undefined-result rule
func TestPairedTTestTooFewPairs(t *testing.T) {
	cases := [][2][]float64{
		{{1}, {2}},
		{{1, math.NaN()}, {2, 3}},
		{{}, {}},
	}
	for _, c := range cases {
		statistic, p := PairedTTest(c[0], c[1])
		if !math.IsNaN(statistic) || !math.IsNaN(p) {
			t.Errorf("Expected (NaN, NaN) for %v vs %v, got (%v, %v)", c[0], c[1], statistic, p)
		}
	}
}

// TestPairedTTestZeroDifferences tests identical blocks: zero sd makes the
// statistic undefined rather than zero
func TestPairedTTestZeroDifferences(t *testing.T) {
	first := []float64{1, 2, 3}
	statistic, p := PairedTTest(first, first)
	if !math.IsNaN(statistic) || !math.IsNaN(p) {
		t.Errorf("Expected (NaN, NaN) for zero differences, got (%v, %v)", statistic, p)
	}
}
