package gitsync

import (
	"fmt"
	"strings"

	"github.com/shinji-kodama/release-flow/internal/model"
)

// AbortError is returned when a pull fails. The run must stop, but it is
// not a crash: the CLI reports the reason and exits with
// model.ExitSyncAborted.
type AbortError struct {
	// Branch is the branch that could not be pulled.
	Branch string

	// Reason is a human readable explanation.
	Reason string

	// Conflicts holds the unmerged paths the pull left behind, if any.
	Conflicts []string

	Err error
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	msg := fmt.Sprintf("pull of %s aborted: %s", e.Branch, e.Reason)
	if len(e.Conflicts) > 0 {
		msg += fmt.Sprintf(" (conflicts in %s; resolve them and run again)", strings.Join(e.Conflicts, ", "))
	}
	return msg
}

// Unwrap returns the underlying git error.
func (e *AbortError) Unwrap() error {
	return e.Err
}

// ExitCode returns the soft-abort exit code.
func (e *AbortError) ExitCode() model.ExitCode {
	return model.ExitSyncAborted
}

// SyncError is a failed push, tag or branch operation against the remote.
type SyncError struct {
	// Op names the failed operation, e.g. "push".
	Op string

	// Ref is the branch or tag involved.
	Ref string

	Err error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Ref, e.Err)
}

// Unwrap returns the underlying git error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// ExitCode maps sync failures to model.ExitGitError.
func (e *SyncError) ExitCode() model.ExitCode {
	return model.ExitGitError
}
