package scheduler

import (
	"fmt"
	"strings"
)

// InvalidScheduleError carries the validator's full ordered defect list
// for a document that failed the Initialize gate. Actionable by editing
// the document, unlike everything else this package can return.
type InvalidScheduleError struct {
	Errors []string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %s", strings.Join(e.Errors, "; "))
}

// CredentialMissingError reports a live (non dry-run) Run attempted
// with no status-setting collaborator configured. The facade never
// silently no-ops a live run.
type CredentialMissingError struct{}

func (e *CredentialMissingError) Error() string {
	return "no status setter configured for a live run (set one or enable dry-run)"
}

// InvalidTargetInstantError reports a caller-supplied target instant
// that does not parse.
type InvalidTargetInstantError struct {
	Input string
}

func (e *InvalidTargetInstantError) Error() string {
	return fmt.Sprintf("invalid target instant %q (expected RFC3339 or YYYY-MM-DDTHH:MM[:SS])", e.Input)
}
