package trial

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"ttlearn/domain/core"
)

// EventID is the composite identifier carried by one timeline row: the
// outcome category concatenated with the trial index, e.g. "loss3".
type EventID struct {
	Category string
	Index    string
}

// String returns the serialized composite identifier
func (id EventID) String() string {
	return id.Category + id.Index
}

// ParseEventID splits a composite identifier into its alphabetic and numeric
// parts. Characters are collected by class, mirroring how timeline rows are
// flattened into identifiers; either class coming up empty is a format error.
func ParseEventID(s string) (EventID, error) {
	var alpha, digits strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			alpha.WriteRune(r)
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		}
	}
	if alpha.Len() == 0 || digits.Len() == 0 {
		return EventID{}, core.NewFormatError(s)
	}
	return EventID{Category: alpha.String(), Index: digits.String()}, nil
}

// Trial records carry their index as trailing digits immediately before an
// xls-family extension, e.g. "P1_serve_win12.xlsx" -> 12.
var trialNumberPattern = regexp.MustCompile(`(?i)(\d+)\.xls`)

// NoTrialNumber is returned when a filename encodes no trial index.
const NoTrialNumber = -1

// TrialNumber extracts the trial index encoded in a record filename, or
// NoTrialNumber when the name has no digits before the extension.
func TrialNumber(name string) int {
	m := trialNumberPattern.FindStringSubmatch(name)
	if m == nil {
		return NoTrialNumber
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return NoTrialNumber
	}
	return n
}

// IsRecordFile reports whether a filename looks like an xls-family record
// (the name contains ".xls", covering .xls/.xlsx/.xlsm).
func IsRecordFile(name string) bool {
	return strings.Contains(strings.ToLower(name), ".xls")
}
