package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/release-flow/internal/model"
)

// Repo provides git operations on a single working directory by invoking
// the git CLI with `-C <dir>`.
type Repo struct {
	dir string
}

// Open binds a Repo to dir. The directory does not need to be a git
// repository yet; see IsRepo and Init.
func Open(dir string) *Repo {
	return &Repo{dir: dir}
}

// Dir returns the working directory the Repo operates on.
func (r *Repo) Dir() string {
	return r.dir
}

// RemoteRef is a single line of `git ls-remote --refs` output.
type RemoteRef struct {
	// Hash is the object the ref points to.
	Hash string

	// Name is the full ref name, e.g. "refs/tags/release/1.0.0".
	Name string
}

// PullOptions tunes a pull.
type PullOptions struct {
	// AllowUnrelatedHistories is needed the first time a local project is
	// attached to a remote that already has its own history.
	AllowUnrelatedHistories bool
}

// CommandError carries the output of a failed git invocation.
// It sits underneath the model.CLIError returned by every Repo method.
type CommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Output returns stdout and stderr joined, which is where git reports
// merge conflicts and missing refs respectively.
func (e *CommandError) Output() string {
	return strings.TrimSpace(e.Stdout + "\n" + e.Stderr)
}

// AsCommandError extracts the *CommandError from an error chain.
func AsCommandError(err error) (*CommandError, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}

// IsRepo reports whether the working directory has its own .git directory.
func (r *Repo) IsRepo() bool {
	info, err := os.Stat(filepath.Join(r.dir, ".git"))
	return err == nil && info.IsDir()
}

// Init creates a new repository whose unborn HEAD points at initialBranch.
//
// `git symbolic-ref` is used instead of `git init -b` so that git versions
// older than 2.28 behave the same way.
func (r *Repo) Init(ctx context.Context, initialBranch string) error {
	if _, err := r.run(ctx, "init"); err != nil {
		return err
	}
	if initialBranch == "" {
		return nil
	}
	_, err := r.run(ctx, "symbolic-ref", "HEAD", "refs/heads/"+initialBranch)
	return err
}

// Remotes returns the names of all configured remotes.
func (r *Repo) Remotes(ctx context.Context) ([]string, error) {
	output, err := r.run(ctx, "remote")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// HasRemote reports whether a remote with the given name is configured.
func (r *Repo) HasRemote(ctx context.Context, name string) (bool, error) {
	remotes, err := r.Remotes(ctx)
	if err != nil {
		return false, err
	}
	for _, remote := range remotes {
		if remote == name {
			return true, nil
		}
	}
	return false, nil
}

// AddRemote registers a new remote.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	_, err := r.run(ctx, "remote", "add", name, url)
	return err
}

// ListRemote returns every ref advertised by the remote, excluding peeled
// tags and pseudo-refs (`git ls-remote --refs`).
func (r *Repo) ListRemote(ctx context.Context, remote string) ([]RemoteRef, error) {
	output, err := r.run(ctx, "ls-remote", "--refs", remote)
	if err != nil {
		return nil, err
	}
	return parseLsRemote(output), nil
}

// Status returns the working tree status parsed from
// `git status --porcelain=v1 -z`.
func (r *Repo) Status(ctx context.Context) (*Status, error) {
	output, err := r.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return parseStatus(output), nil
}

// Add stages the given paths, including deletions. It is a no-op for an
// empty path list.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "-A", "--"}, paths...)
	_, err := r.run(ctx, args...)
	return err
}

// Commit records the staged changes with the given message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	return err
}

// StashList returns one line per stash entry, most recent first.
func (r *Repo) StashList(ctx context.Context) ([]string, error) {
	output, err := r.run(ctx, "stash", "list")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// StashPop applies and drops the most recent stash entry.
func (r *Repo) StashPop(ctx context.Context) error {
	_, err := r.run(ctx, "stash", "pop")
	return err
}

// CurrentBranch returns the short name of the checked-out branch.
// Works on an unborn branch too, where rev-parse would fail.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.run(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// LocalBranches returns the short names of all local branches.
func (r *Repo) LocalBranches(ctx context.Context) ([]string, error) {
	output, err := r.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// BranchExists checks whether a local branch with the given name exists.
//
// `git show-ref --verify --quiet` exits 0 when the ref exists and 1 when it
// does not. Only the exit code matters.
func (r *Repo) BranchExists(ctx context.Context, branch string) bool {
	_, err := r.run(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// Checkout switches to an existing local branch.
func (r *Repo) Checkout(ctx context.Context, branch string) error {
	_, err := r.run(ctx, "checkout", branch)
	return err
}

// CheckoutNew creates a branch at HEAD and switches to it.
func (r *Repo) CheckoutNew(ctx context.Context, branch string) error {
	_, err := r.run(ctx, "checkout", "-b", branch)
	return err
}

// Pull fetches branch from remote and merges it into the current branch.
// Rebase is never used; the merge commit message is not edited.
func (r *Repo) Pull(ctx context.Context, remote, branch string, opts PullOptions) error {
	args := []string{"pull", "--no-rebase", "--no-edit"}
	if opts.AllowUnrelatedHistories {
		args = append(args, "--allow-unrelated-histories")
	}
	args = append(args, remote, branch)
	_, err := r.run(ctx, args...)
	return err
}

// Push pushes the given refspecs to remote.
func (r *Repo) Push(ctx context.Context, remote string, refspecs ...string) error {
	args := append([]string{"push", remote}, refspecs...)
	_, err := r.run(ctx, args...)
	return err
}

// PushDelete removes a ref from the remote.
func (r *Repo) PushDelete(ctx context.Context, remote, ref string) error {
	_, err := r.run(ctx, "push", remote, "--delete", ref)
	return err
}

// Merge merges source into the current branch without opening an editor.
func (r *Repo) Merge(ctx context.Context, source string) error {
	_, err := r.run(ctx, "merge", "--no-edit", source)
	return err
}

// DeleteBranch removes a local branch. The branch must be fully merged
// into HEAD.
func (r *Repo) DeleteBranch(ctx context.Context, branch string) error {
	_, err := r.run(ctx, "branch", "-d", branch)
	return err
}

// Tags returns the names of all local tags.
func (r *Repo) Tags(ctx context.Context) ([]string, error) {
	output, err := r.run(ctx, "tag", "--list")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// TagExists reports whether a local tag with the given name exists.
func (r *Repo) TagExists(ctx context.Context, name string) bool {
	_, err := r.run(ctx, "show-ref", "--verify", "--quiet", "refs/tags/"+name)
	return err == nil
}

// CreateTag creates a lightweight tag at HEAD.
func (r *Repo) CreateTag(ctx context.Context, name string) error {
	_, err := r.run(ctx, "tag", name)
	return err
}

// DeleteTag removes a local tag.
func (r *Repo) DeleteTag(ctx context.Context, name string) error {
	_, err := r.run(ctx, "tag", "-d", name)
	return err
}

// run executes a git command with the given arguments in the Repo directory.
//
// It captures both stdout and stderr. On success (exit code 0), it returns
// the stdout output. On failure, it returns a model.CLIError with
// ExitGitError wrapping a *CommandError that keeps the raw output.
//
// The directory is passed to git via the -C flag so the process working
// directory never changes.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)

	// #nosec G204 -- args are built by this package
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Args:   args,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr := strings.TrimSpace(stderr.String()); stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, cmdErr)
	}

	return stdout.String(), nil
}

// parseLsRemote parses `git ls-remote` output. Each line is
// "<hash>\t<refname>"; malformed lines are skipped.
func parseLsRemote(output string) []RemoteRef {
	var refs []RemoteRef
	for _, line := range splitLines(output) {
		hash, name, ok := strings.Cut(line, "\t")
		if !ok || name == "" {
			continue
		}
		refs = append(refs, RemoteRef{Hash: hash, Name: name})
	}
	return refs
}

// splitLines splits command output into trimmed, non-empty lines.
func splitLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
