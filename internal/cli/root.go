// Package cli implements the cobra-based CLI commands for release-flow.
//
// Each subcommand (commit, versions, cache) is defined in its own file
// within this package. This file defines the root command that serves as
// the parent for all subcommands and handles global flags and exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/release-flow/internal/console"
	"github.com/shinji-kodama/release-flow/internal/gitsync"
	"github.com/shinji-kodama/release-flow/internal/model"
	"github.com/shinji-kodama/release-flow/internal/prompt"
)

// Global flag variables shared across all subcommands.
var (
	// jsonOutput switches command results to JSON on stdout.
	jsonOutput bool

	// verbose enables [verbose] progress lines on stderr.
	verbose bool

	// workDir is the project directory. Empty means the current directory.
	workDir string
)

// Build information, injected from the main package.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "release-flow",
		Short: "Commit, version and publish a project through its git remote",
		Long: `release-flow automates a team's release workflow for one project.

It provisions the remote repository on GitHub or Gitee, commits pending work
on a dev/<version> branch derived from the release tags on the remote, and,
when asked to publish, merges that branch into trunk, tags release/<version>
and removes the branch.`,

		// Errors and usage are printed by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Project directory (default: current directory)")

	rootCmd.AddCommand(NewCommitCommand())
	rootCmd.AddCommand(NewVersionsCommand())
	rootCmd.AddCommand(NewCacheCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code mapped from the
// returned error. Ctrl+C cancels the command context.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	code := reportError(os.Stderr, err)
	os.Exit(int(code))
}

// exitCoder is implemented by errors that carry their own exit code.
type exitCoder interface {
	ExitCode() model.ExitCode
}

// exitCodeFor maps an error to the process exit code.
//
// A sync abort is checked first: it ends the run on purpose and maps to
// model.ExitSyncAborted even though it wraps a git failure.
func exitCodeFor(err error) model.ExitCode {
	var abort *gitsync.AbortError
	if errors.As(err, &abort) {
		return abort.ExitCode()
	}
	if errors.Is(err, prompt.ErrCancelled) {
		return model.ExitUserCancelled
	}

	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return model.ExitGeneralError
}

// reportError prints err and returns the exit code to use.
func reportError(w io.Writer, err error) model.ExitCode {
	code := exitCodeFor(err)

	var abort *gitsync.AbortError
	if errors.As(err, &abort) {
		printMessage(w, "aborted", abort.Error(), nil)
		return code
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) && cliErr == err {
		printMessage(w, "error", cliErr.Message, cliErr.Err)
		return code
	}
	printMessage(w, "error", err.Error(), nil)
	return code
}

// printMessage outputs a message in the appropriate format (JSON or text)
// based on the --json global flag.
func printMessage(w io.Writer, kind, message string, underlying error) {
	if jsonOutput {
		body := map[string]interface{}{
			"message": message,
		}
		if underlying != nil {
			body["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]interface{}{kind: body}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	label := "Error"
	if kind == "aborted" {
		label = "Aborted"
	}
	if underlying != nil {
		fmt.Fprintf(w, "%s: %s: %v\n", label, message, underlying)
	} else {
		fmt.Fprintf(w, "%s: %s\n", label, message)
	}
}

// newLogger returns the progress logger for a command.
func newLogger() *console.Logger {
	return console.New(os.Stderr, verbose)
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	newLogger().Verbose(format, args...)
}

// projectDir resolves --dir to an absolute path.
func projectDir() (string, error) {
	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("not a directory: %s", abs), err)
	}
	return abs, nil
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
