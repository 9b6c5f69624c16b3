// Package guard keeps the working tree in a committable state before any
// branch is pushed.
//
// Three gates run in a fixed order:
//  1. stash: a pending stash entry is popped back onto the tree
//  2. conflicts: unmerged paths stop the run with a ConflictError
//  3. not-committed: outstanding changes are staged and committed under a
//     non-empty message asked from the user
//
// The guard talks to git through the narrow Worktree interface so it can be
// exercised with fakes as well as with *git.Repo.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/shinji-kodama/release-flow/internal/console"
	"github.com/shinji-kodama/release-flow/internal/git"
	"github.com/shinji-kodama/release-flow/internal/model"
)

// Worktree is the subset of git operations the guard needs.
type Worktree interface {
	Status(ctx context.Context) (*git.Status, error)
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) error
	StashList(ctx context.Context) ([]string, error)
	StashPop(ctx context.Context) error
}

// MessagePrompter asks for the commit message.
type MessagePrompter interface {
	Input(message string) (string, error)
}

// ConflictError lists the unmerged paths that stopped the run.
type ConflictError struct {
	Paths []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("unresolved merge conflicts in %d file(s): %s; resolve them and run again",
		len(e.Paths), strings.Join(e.Paths, ", "))
}

// ExitCode lets the CLI map conflicts to model.ExitConflict.
func (e *ConflictError) ExitCode() model.ExitCode {
	return model.ExitConflict
}

// Guard runs the working tree gates.
type Guard struct {
	tree   Worktree
	prompt MessagePrompter
	log    *console.Logger
}

// New creates a Guard. log may be nil.
func New(tree Worktree, prompt MessagePrompter, log *console.Logger) *Guard {
	return &Guard{tree: tree, prompt: prompt, log: log}
}

// Run executes stash, conflict and not-committed checks in that order,
// stopping at the first failure.
func (g *Guard) Run(ctx context.Context) error {
	if err := g.CheckStash(ctx); err != nil {
		return err
	}
	if err := g.CheckConflicts(ctx); err != nil {
		return err
	}
	return g.CheckNotCommitted(ctx)
}

// CheckStash pops the most recent stash entry, if any.
//
// A pop that fails because it produced conflicts is not an error here: the
// conflicted paths are left on the tree and CheckConflicts reports them.
func (g *Guard) CheckStash(ctx context.Context) error {
	entries, err := g.tree.StashList(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stash entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	g.log.Info("Restoring stash: %s", entries[0])
	popErr := g.tree.StashPop(ctx)
	if popErr == nil {
		g.log.Success("Stash restored")
		return nil
	}

	status, err := g.tree.Status(ctx)
	if err == nil && len(status.Conflicted) > 0 {
		g.log.Warn("Stash pop left conflicts behind")
		return nil
	}
	return fmt.Errorf("failed to pop stash: %w", popErr)
}

// CheckConflicts fails with a *ConflictError when any path is unmerged.
func (g *Guard) CheckConflicts(ctx context.Context) error {
	status, err := g.tree.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read working tree status: %w", err)
	}
	if len(status.Conflicted) > 0 {
		return &ConflictError{Paths: status.Conflicted}
	}
	g.log.Verbose("No merge conflicts")
	return nil
}

// CheckNotCommitted stages and commits every outstanding change.
//
// Untracked, created, deleted, modified and renamed paths are all staged.
// The user is asked for a message until a non-blank one is given. When the
// tree is clean nothing is staged and Commit is never called.
func (g *Guard) CheckNotCommitted(ctx context.Context) error {
	status, err := g.tree.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read working tree status: %w", err)
	}

	pending := status.Pending()
	if len(pending) == 0 {
		g.log.Verbose("Working tree clean, nothing to commit")
		return nil
	}

	g.log.Info("Staging %d changed file(s)", len(pending))
	if err := g.tree.Add(ctx, pending...); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}

	message, err := g.askMessage()
	if err != nil {
		return err
	}

	if err := g.tree.Commit(ctx, message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	g.log.Success("Committed: %s", message)
	return nil
}

// askMessage repeats the prompt until it gets a non-blank answer.
func (g *Guard) askMessage() (string, error) {
	for {
		answer, err := g.prompt.Input("Commit message")
		if err != nil {
			return "", fmt.Errorf("commit message prompt failed: %w", err)
		}
		if message := strings.TrimSpace(answer); message != "" {
			return message, nil
		}
		g.log.Warn("Commit message cannot be empty")
	}
}
