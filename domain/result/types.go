package result

// Test names as they appear in the result table.
const (
	TestPairedT  = "Paired t-test"
	TestWilcoxon = "Wilcoxon"
)

// Alpha is the p-value threshold below which a row counts as a significant finding.
const Alpha = 0.05

// Row is one emitted statistical comparison for a (condition, variable) pair.
// MeanFirst/MeanLast are means of the per-participant block means; N is the
// number of contributing participants.
type Row struct {
	Condition string  `json:"condition" db:"condition"`
	Variable  string  `json:"variable" db:"variable"`
	N         int     `json:"n" db:"n"`
	MeanFirst float64 `json:"mean_first" db:"mean_first"`
	MeanLast  float64 `json:"mean_last" db:"mean_last"`
	ShapiroP  float64 `json:"shapiro_p" db:"shapiro_p"`
	Test      string  `json:"test" db:"test"`
	Statistic float64 `json:"statistic" db:"statistic"`
	PValue    float64 `json:"p_value" db:"p_value"`
}

// Significant reports whether this row clears the significance threshold.
func (r Row) Significant() bool {
	return r.PValue < Alpha
}

// Direction describes the late block relative to the early one.
func (r Row) Direction() string {
	if r.MeanLast > r.MeanFirst {
		return "HIGHER"
	}
	return "LOWER"
}

// Headers returns the column order used by exporters.
func Headers() []string {
	return []string{"Condition", "Variable", "N", "Mean_First", "Mean_Last", "Shapiro_p", "Test", "Test_stat", "p_value"}
}

// Significant filters a table down to its significant rows.
func Significant(rows []Row) []Row {
	var sig []Row
	for _, r := range rows {
		if r.Significant() {
			sig = append(sig, r)
		}
	}
	return sig
}
