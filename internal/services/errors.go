package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Outcome describes what the pipeline should do with a unit after an error.
type Outcome string

const (
	// OutcomeComplete records the unit as done; the data is structurally absent
	// and a rerun would not change the result.
	OutcomeComplete Outcome = "complete"
	// OutcomeRetry leaves the unit unrecorded so the next run tries again.
	OutcomeRetry Outcome = "retry"
	// OutcomeAbort stops the run.
	OutcomeAbort Outcome = "abort"
)

// Classify maps a unit error to the outcome the pipeline should apply.
func Classify(err error) Outcome {
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		return OutcomeComplete
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return OutcomeAbort
	default:
		return OutcomeRetry
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
