package ports

import "ttlearn/domain/trial"

// TableReader defines the interface for loading tabular trial data from disk.
// Implementations dispatch on file extension (xls, xlsx, xlsm, csv).
type TableReader interface {
	// ReadTable loads the file at path into a header/rows table.
	ReadTable(path string) (trial.Table, error)
}
