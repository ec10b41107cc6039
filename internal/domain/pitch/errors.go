package pitch

import "errors"

var (
	// ErrNotFound is returned when a pitch id does not exist in the store.
	ErrNotFound = errors.New("pitch not found")
	// ErrNotAnalyzed is returned when an operation needs a pitch in complete status.
	ErrNotAnalyzed = errors.New("pitch not analyzed")
	// ErrInvalidTransition is returned when the analysis state machine rejects a status change,
	// including a lost compare-and-set on the status column.
	ErrInvalidTransition = errors.New("invalid analysis status transition")
)
