package model

import (
	"fmt"
	"strings"
)

// DefaultRemote is the only remote the workflow ever talks to.
const DefaultRemote = "origin"

// DefaultTrunk is the long-lived integration branch releases are merged into.
const DefaultTrunk = "master"

// RefKind identifies the namespace a version tag lives under on the remote.
//
//	refs/tags/dev/<version>
//	refs/tags/release/<version>
type RefKind string

const (
	// RefKindDev marks in-progress versions.
	RefKindDev RefKind = "dev"

	// RefKindRelease marks published versions. The release ledger drives
	// the version decision in the planner.
	RefKindRelease RefKind = "release"
)

// String returns the string representation of RefKind.
func (k RefKind) String() string {
	return string(k)
}

// IsValid checks whether the RefKind value is one of the predefined kinds.
func (k RefKind) IsValid() bool {
	switch k {
	case RefKindDev, RefKindRelease:
		return true
	default:
		return false
	}
}

// ParseRefKind converts a string to a RefKind.
// Returns an error if the string does not match any valid kind.
func ParseRefKind(s string) (RefKind, error) {
	kind := RefKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid ref kind: %q (valid: dev, release)", s)
	}
	return kind, nil
}

// BumpKind is the semantic-version component the user chose to increment
// when the remote release is ahead of (or equal to) the declared version.
type BumpKind string

const (
	BumpPatch BumpKind = "patch"
	BumpMinor BumpKind = "minor"
	BumpMajor BumpKind = "major"
)

// BumpKinds lists the bump kinds in the order they are offered to the user.
// The first entry is the default.
var BumpKinds = []BumpKind{BumpPatch, BumpMinor, BumpMajor}

// String returns the string representation of BumpKind.
func (b BumpKind) String() string {
	return string(b)
}

// IsValid checks whether the BumpKind value is one of the predefined kinds.
func (b BumpKind) IsValid() bool {
	switch b {
	case BumpPatch, BumpMinor, BumpMajor:
		return true
	default:
		return false
	}
}

// ParseBumpKind converts a string to a BumpKind.
func ParseBumpKind(s string) (BumpKind, error) {
	bump := BumpKind(strings.ToLower(strings.TrimSpace(s)))
	if !bump.IsValid() {
		return "", fmt.Errorf("invalid bump kind: %q (valid: patch, minor, major)", s)
	}
	return bump, nil
}

// WorkflowState represents the progress of one release workflow run.
// The state transitions are strictly sequential:
//
//	Provisioning → LocalSynced → Committed → [Published]
//
// Committed is terminal unless publishing was requested.
type WorkflowState string

const (
	StateProvisioning WorkflowState = "provisioning"
	StateLocalSynced  WorkflowState = "local-synced"
	StateCommitted    WorkflowState = "committed"
	StatePublished    WorkflowState = "published"
)

// String returns the string representation of WorkflowState.
func (s WorkflowState) String() string {
	return string(s)
}

// WorkingBranch returns the name of the short-lived branch for a version.
//
//	WorkingBranch("1.2.0") == "dev/1.2.0"
func WorkingBranch(version string) string {
	return RefKindDev.String() + "/" + version
}

// ReleaseTag returns the name of the release tag for a version.
//
//	ReleaseTag("1.2.0") == "release/1.2.0"
func ReleaseTag(version string) string {
	return RefKindRelease.String() + "/" + version
}

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitSyncAborted is used when a pull against the remote failed and the
	// workflow stopped. The run is treated as a soft abort: the message is
	// printed but the process still exits 0.
	ExitSyncAborted ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates a missing manifest, an invalid version
	// string or an unreadable configuration file.
	ExitConfigError ExitCode = 2

	// ExitGitError indicates a git command (push, checkout, tag) failed.
	ExitGitError ExitCode = 3

	// ExitConflict indicates conflicted paths in the working tree or a
	// merge that produced conflicts. Needs manual resolution.
	ExitConflict ExitCode = 4

	// ExitHostingError indicates the hosting backend rejected a request
	// or could not be reached.
	ExitHostingError ExitCode = 5

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
