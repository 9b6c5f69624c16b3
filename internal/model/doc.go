// Package model defines the domain types and value objects for the
// release-flow CLI.
//
// This package contains pure data structures with no external dependencies.
// Ref kinds, version bump kinds, workflow states and the branch/tag naming
// convention live here so that every other package agrees on them.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
