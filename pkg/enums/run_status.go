package enums

import "fmt"

// RunStatus is the terminal state of a reconciliation run.
type RunStatus string

const (
	// RunStatusCompleted means every partition finished inside its budget.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusPartial means at least one partition timed out; its exclusion
	// is reported in the run summary.
	RunStatusPartial RunStatus = "partial"
	// RunStatusAborted means an invariant violation stopped the run.
	RunStatusAborted RunStatus = "aborted"
)

var validRunStatuses = []RunStatus{
	RunStatusCompleted,
	RunStatusPartial,
	RunStatusAborted,
}

// IsValid reports whether the status is recognized.
func (s RunStatus) IsValid() bool {
	for _, candidate := range validRunStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRunStatus converts raw input into a RunStatus.
func ParseRunStatus(value string) (RunStatus, error) {
	for _, candidate := range validRunStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid run status %q", value)
}
