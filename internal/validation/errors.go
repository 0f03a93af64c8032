package validation

import (
	"errors"
	"fmt"

	"github.com/DeafMist/club-pulse/internal/aggregate"
)

var (
	// ErrInvalidInput marks any problem with a user-supplied validation file.
	ErrInvalidInput = errors.New("invalid validation input")
	// ErrMissingGroundTruth means the file has no manual label column.
	ErrMissingGroundTruth = errors.New("missing ground truth column")
)

// ValidationInputError explains why a file cannot be evaluated. No metrics are
// computed when it is returned. Predicted is set when the rows could still be
// labelled, as for a file without ground truth.
type ValidationInputError struct {
	Reason    string
	Err       error
	Predicted *aggregate.Breakdown
}

func (e *ValidationInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ValidationInputError) Unwrap() error { return e.Err }

func (e *ValidationInputError) Is(target error) bool { return target == ErrInvalidInput }

func inputError(format string, args ...any) error {
	return &ValidationInputError{Reason: fmt.Sprintf(format, args...)}
}
