package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrTimelineNotFound = fmt.Errorf("%w: timeline record", ErrNotFound)
	ErrOutcomeNotFound  = fmt.Errorf("%w: outcome folder", ErrNotFound)
	ErrTrialNotFound    = fmt.Errorf("%w: trial record", ErrNotFound)
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)

	// Record errors
	ErrSchema = errors.New("expected columns not found")
	ErrFormat = errors.New("malformed trial identifier")

	// Aggregation errors
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Wrapper for anything else that fails while processing one participant.
	// The pipeline catches these at the participant boundary and continues.
	ErrParticipantFailed = errors.New("unexpected participant failure")
)

// Error constructors with context
func NewSchemaError(detail string) error {
	return fmt.Errorf("%w: %s", ErrSchema, detail)
}

func NewFormatError(identifier string) error {
	return fmt.Errorf("%w: '%s'", ErrFormat, identifier)
}

func NewParticipantFailure(participant string, err error) error {
	return fmt.Errorf("%w: participant %s: %v", ErrParticipantFailed, participant, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// IsExpectedSkip reports whether an error belongs to the sealed set of
// per-participant failure kinds that are logged and skipped without the
// generic catch-all wrapper.
func IsExpectedSkip(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSchema) ||
		errors.Is(err, ErrFormat) ||
		errors.Is(err, ErrInsufficientData)
}
