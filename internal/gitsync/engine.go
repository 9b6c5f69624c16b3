// Package gitsync synchronizes the local repository with its single remote.
//
// The Engine wraps the git primitives with the failure policy of the
// release workflow:
//   - a failed pull is fatal for the run and surfaces as *AbortError
//   - a failed push or tag operation surfaces as *SyncError
//   - a merge that produces conflicts surfaces as *guard.ConflictError
//   - a remote trunk that does not exist yet is not an error when the
//     remote is first attached; trunk is pushed to create it
//
// Every operation is safe to repeat: tags are replaced rather than added,
// branches are checked out or created, and the remote is only added when
// missing.
package gitsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/shinji-kodama/release-flow/internal/console"
	"github.com/shinji-kodama/release-flow/internal/git"
	"github.com/shinji-kodama/release-flow/internal/guard"
	"github.com/shinji-kodama/release-flow/internal/model"
)

// Committer commits outstanding work. *guard.Guard satisfies it.
type Committer interface {
	CheckNotCommitted(ctx context.Context) error
}

// Engine performs remote synchronization for one repository.
type Engine struct {
	repo      *git.Repo
	remote    string
	trunk     string
	committer Committer
	log       *console.Logger
}

// New creates an Engine bound to model.DefaultRemote. An empty trunk means
// model.DefaultTrunk. committer is used only by EnsureRemoteConfigured.
func New(repo *git.Repo, trunk string, committer Committer, log *console.Logger) *Engine {
	if trunk == "" {
		trunk = model.DefaultTrunk
	}
	return &Engine{
		repo:      repo,
		remote:    model.DefaultRemote,
		trunk:     trunk,
		committer: committer,
		log:       log,
	}
}

// Trunk returns the integration branch name.
func (e *Engine) Trunk() string {
	return e.trunk
}

// Remote returns the remote name.
func (e *Engine) Remote() string {
	return e.remote
}

// EnsureRemoteConfigured attaches the remote at url when it is missing.
//
// On first attachment outstanding work is committed, then trunk is either
// pulled from the remote (unrelated histories allowed, since the remote may
// predate the local project) or pushed to create it. An already configured
// remote is left untouched. Reports whether the remote was added.
func (e *Engine) EnsureRemoteConfigured(ctx context.Context, url string) (bool, error) {
	exists, err := e.repo.HasRemote(ctx, e.remote)
	if err != nil {
		return false, err
	}
	if exists {
		e.log.Verbose("Remote %s already configured", e.remote)
		return false, nil
	}

	e.log.Info("Adding remote %s: %s", e.remote, url)
	if err := e.repo.AddRemote(ctx, e.remote, url); err != nil {
		return false, err
	}

	if err := e.committer.CheckNotCommitted(ctx); err != nil {
		return true, err
	}

	remoteTrunk, err := e.RemoteBranchExists(ctx, e.trunk)
	if err != nil {
		return true, err
	}
	if remoteTrunk {
		e.log.Info("Remote %s exists, merging it into the local history", e.trunk)
		return true, e.Pull(ctx, e.trunk, git.PullOptions{AllowUnrelatedHistories: true})
	}

	e.log.Info("Remote has no %s yet, pushing it", e.trunk)
	return true, e.Push(ctx, e.trunk)
}

// CheckoutOrCreate switches to branch, creating it from HEAD when it does
// not exist locally.
func (e *Engine) CheckoutOrCreate(ctx context.Context, branch string) error {
	current, err := e.repo.CurrentBranch(ctx)
	if err == nil && current == branch {
		e.log.Verbose("Already on %s", branch)
		return nil
	}

	if e.repo.BranchExists(ctx, branch) {
		e.log.Info("Switching to %s", branch)
		return e.repo.Checkout(ctx, branch)
	}

	e.log.Info("Creating branch %s", branch)
	return e.repo.CheckoutNew(ctx, branch)
}

// Pull merges the remote branch into the current branch.
//
// Any failure yields *AbortError. Pulling a trunk that was never pushed
// gets its own message since it usually means the remote was attached by
// hand.
func (e *Engine) Pull(ctx context.Context, branch string, opts git.PullOptions) error {
	e.log.Info("Pulling %s/%s", e.remote, branch)

	err := e.repo.Pull(ctx, e.remote, headRef(branch), opts)
	if err == nil {
		e.log.Success("Pulled %s/%s", e.remote, branch)
		return nil
	}

	abort := &AbortError{Branch: branch, Reason: gitOutput(err), Err: err}
	if isMissingRef(err) {
		abort.Reason = fmt.Sprintf("branch %s does not exist on %s", branch, e.remote)
		if branch == e.trunk {
			abort.Reason = fmt.Sprintf("trunk %s does not exist on %s; push it before running again", branch, e.remote)
		}
	}
	if status, statusErr := e.repo.Status(ctx); statusErr == nil {
		abort.Conflicts = status.Conflicted
	}

	e.log.Error("Pull of %s failed: %s", branch, abort.Reason)
	return abort
}

// Push publishes the local branch to the remote under the same name.
func (e *Engine) Push(ctx context.Context, branch string) error {
	e.log.Info("Pushing %s to %s", branch, e.remote)
	if err := e.repo.Push(ctx, e.remote, headRef(branch)+":"+headRef(branch)); err != nil {
		return &SyncError{Op: "push", Ref: branch, Err: err}
	}
	e.log.Success("Pushed %s", branch)
	return nil
}

// MergeInto checks out target and merges source into it. Conflicts are
// returned as *guard.ConflictError; nothing is resolved automatically.
func (e *Engine) MergeInto(ctx context.Context, source, target string) error {
	if err := e.repo.Checkout(ctx, target); err != nil {
		return err
	}

	e.log.Info("Merging %s into %s", source, target)
	if err := e.repo.Merge(ctx, headRef(source)); err != nil {
		if status, statusErr := e.repo.Status(ctx); statusErr == nil && len(status.Conflicted) > 0 {
			return &guard.ConflictError{Paths: status.Conflicted}
		}
		return fmt.Errorf("failed to merge %s into %s: %w", source, target, err)
	}
	e.log.Success("Merged %s into %s", source, target)
	return nil
}

// ReplaceTag makes name point at HEAD locally, removing any previous tag of
// that name from the remote and the local repository first.
func (e *Engine) ReplaceTag(ctx context.Context, name string) error {
	refs, err := e.RemoteRefs(ctx)
	if err != nil {
		return err
	}
	if contains(refs, "refs/tags/"+name) {
		e.log.Info("Removing existing remote tag %s", name)
		if err := e.repo.PushDelete(ctx, e.remote, "refs/tags/"+name); err != nil {
			return &SyncError{Op: "delete remote tag", Ref: name, Err: err}
		}
	}

	if e.repo.TagExists(ctx, name) {
		e.log.Verbose("Removing existing local tag %s", name)
		if err := e.repo.DeleteTag(ctx, name); err != nil {
			return err
		}
	}

	if err := e.repo.CreateTag(ctx, name); err != nil {
		return err
	}
	e.log.Success("Tagged %s", name)
	return nil
}

// PushTag publishes exactly one tag.
func (e *Engine) PushTag(ctx context.Context, name string) error {
	e.log.Info("Pushing tag %s", name)
	if err := e.repo.Push(ctx, e.remote, "refs/tags/"+name); err != nil {
		return &SyncError{Op: "push tag", Ref: name, Err: err}
	}
	return nil
}

// CreateOrReplaceTag replaces the tag and pushes it.
func (e *Engine) CreateOrReplaceTag(ctx context.Context, name string) error {
	if err := e.ReplaceTag(ctx, name); err != nil {
		return err
	}
	return e.PushTag(ctx, name)
}

// DeleteBranch removes branch locally and, when present, on the remote.
// The local branch must already be merged into the current branch.
func (e *Engine) DeleteBranch(ctx context.Context, branch string) error {
	if e.repo.BranchExists(ctx, branch) {
		e.log.Info("Deleting local branch %s", branch)
		if err := e.repo.DeleteBranch(ctx, branch); err != nil {
			return err
		}
	}

	exists, err := e.RemoteBranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if exists {
		e.log.Info("Deleting remote branch %s", branch)
		if err := e.repo.PushDelete(ctx, e.remote, headRef(branch)); err != nil {
			return &SyncError{Op: "delete remote branch", Ref: branch, Err: err}
		}
	}
	return nil
}

// headRef spells out a branch as a full ref. Working branches share the
// dev/<version> short name with dev tags, so bare names are ambiguous.
func headRef(branch string) string {
	return "refs/heads/" + branch
}

// RemoteRefs returns every ref name advertised by the remote.
func (e *Engine) RemoteRefs(ctx context.Context) ([]string, error) {
	refs, err := e.repo.ListRemote(ctx, e.remote)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name
	}
	return names, nil
}

// RemoteBranchExists reports whether refs/heads/<branch> exists remotely.
func (e *Engine) RemoteBranchExists(ctx context.Context, branch string) (bool, error) {
	refs, err := e.RemoteRefs(ctx)
	if err != nil {
		return false, err
	}
	return contains(refs, headRef(branch)), nil
}

// isMissingRef recognizes git's "couldn't find remote ref" failure.
func isMissingRef(err error) bool {
	cmdErr, ok := git.AsCommandError(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(cmdErr.Output()), "couldn't find remote ref")
}

// gitOutput returns git's own output for err, or err's text.
func gitOutput(err error) string {
	if cmdErr, ok := git.AsCommandError(err); ok {
		if out := cmdErr.Output(); out != "" {
			return out
		}
	}
	return err.Error()
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
