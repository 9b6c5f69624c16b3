// Package release runs the release workflow for one project directory.
//
// The workflow moves a Session through fixed states:
//
//	Provisioning -> LocalSynced -> Committed -> Published
//
// Provision makes sure the remote repository exists and the local
// repository is attached to it. Commit plans the working branch, commits
// outstanding work and pushes the branch. Publish (optional) merges the
// branch into trunk, replaces the release tag and retires the branch.
//
// A failing stage stops the run and nothing is rolled back. Every step is
// repeatable, so running the workflow again converges on the same result.
package release

import (
	"context"
	"fmt"

	"github.com/shinji-kodama/release-flow/internal/config"
	"github.com/shinji-kodama/release-flow/internal/console"
	"github.com/shinji-kodama/release-flow/internal/git"
	"github.com/shinji-kodama/release-flow/internal/gitsync"
	"github.com/shinji-kodama/release-flow/internal/guard"
	"github.com/shinji-kodama/release-flow/internal/hosting"
	"github.com/shinji-kodama/release-flow/internal/ledger"
	"github.com/shinji-kodama/release-flow/internal/manifest"
	"github.com/shinji-kodama/release-flow/internal/model"
	"github.com/shinji-kodama/release-flow/internal/planner"
	"github.com/shinji-kodama/release-flow/internal/prompt"
)

// ProviderResolver picks the hosting backend. *hosting.Resolver satisfies it.
type ProviderResolver interface {
	Resolve(override hosting.Platform) (hosting.Provider, error)
}

// Session is the state threaded through the stages of one run.
type Session struct {
	Dir       string              `json:"dir"`
	Name      string              `json:"name"`
	Version   string              `json:"version,omitempty"`
	Branch    string              `json:"branch,omitempty"`
	Tag       string              `json:"tag,omitempty"`
	Bumped    bool                `json:"bumped"`
	Platform  hosting.Platform    `json:"platform,omitempty"`
	FullName  string              `json:"repository,omitempty"`
	RemoteURL string              `json:"remoteUrl,omitempty"`
	State     model.WorkflowState `json:"state"`
}

// Workflow runs the stages against one directory.
type Workflow struct {
	dir      string
	cfg      *config.Config
	repo     *git.Repo
	resolver ProviderResolver
	prompter prompt.Prompter
	guard    *guard.Guard
	sync     *gitsync.Engine
	log      *console.Logger
}

// New creates a Workflow for dir.
func New(dir string, cfg *config.Config, resolver ProviderResolver, prompter prompt.Prompter, log *console.Logger) *Workflow {
	repo := git.Open(dir)
	g := guard.New(repo, prompter, log)
	return &Workflow{
		dir:      dir,
		cfg:      cfg,
		repo:     repo,
		resolver: resolver,
		prompter: prompter,
		guard:    g,
		sync:     gitsync.New(repo, cfg.Trunk, g, log),
		log:      log,
	}
}

// Run executes Provision and Commit, then Publish when cfg.Publish is set.
// The returned Session reflects the last state reached, also on error.
func (w *Workflow) Run(ctx context.Context) (Session, error) {
	s := Session{Dir: w.dir, State: model.StateProvisioning}

	s, err := w.Provision(ctx, s)
	if err != nil {
		return s, err
	}
	s, err = w.Commit(ctx, s)
	if err != nil {
		return s, err
	}
	if !w.cfg.Publish {
		return s, nil
	}
	return w.Publish(ctx, s)
}

// Provision ensures the remote repository exists, a .gitignore is present,
// the directory is a git repository and origin is attached.
func (w *Workflow) Provision(ctx context.Context, s Session) (Session, error) {
	if err := expect(s, model.StateProvisioning); err != nil {
		return s, err
	}
	w.log.Info("Provisioning %s", w.dir)

	provider, err := w.resolver.Resolve(hosting.Platform(w.cfg.Platform))
	if err != nil {
		return s, err
	}
	s.Platform = provider.Platform()

	m, err := manifest.Load(w.dir, w.cfg.Manifest)
	if err != nil {
		return s, err
	}
	s.Name = m.Name
	s.Version = m.Version

	remote, err := hosting.EnsureRepo(ctx, provider, w.cfg.Owner, m.Name, w.cfg.Private)
	if err != nil {
		return s, err
	}
	s.FullName = remote.FullName
	s.RemoteURL = provider.RepoURL(remote.FullName)
	w.log.Success("Remote repository %s ready on %s", remote.FullName, s.Platform)

	created, err := ensureGitignore(w.dir, w.cfg.Gitignore)
	if err != nil {
		return s, err
	}
	if created {
		w.log.Success("Created .gitignore")
	}

	if !w.repo.IsRepo() {
		w.log.Info("Initializing git repository")
		if err := w.repo.Init(ctx, w.sync.Trunk()); err != nil {
			return s, err
		}
	}

	if _, err := w.sync.EnsureRemoteConfigured(ctx, s.RemoteURL); err != nil {
		return s, err
	}

	s.State = model.StateLocalSynced
	return s, nil
}

// Commit plans the working branch, commits outstanding work on it and
// pushes it.
func (w *Workflow) Commit(ctx context.Context, s Session) (Session, error) {
	if err := expect(s, model.StateLocalSynced); err != nil {
		return s, err
	}
	w.log.Info("Committing")

	refs, err := w.sync.RemoteRefs(ctx)
	if err != nil {
		return s, err
	}
	snapshot := ledger.NewSnapshot(refs)

	m, err := manifest.Load(w.dir, w.cfg.Manifest)
	if err != nil {
		return s, err
	}

	plan, err := planner.New(w.prompter, m).Plan(m.Version, snapshot.LatestRelease())
	if err != nil {
		return s, err
	}
	s.Version = plan.Version
	s.Branch = plan.Branch
	s.Tag = model.ReleaseTag(plan.Version)
	s.Bumped = plan.Bumped
	if plan.Bumped {
		w.log.Success("Version bumped %s -> %s", plan.Previous, plan.Version)
	}
	w.log.Verbose("Working branch %s", plan.Branch)

	if err := w.guard.Run(ctx); err != nil {
		return s, err
	}

	if err := w.sync.CheckoutOrCreate(ctx, s.Branch); err != nil {
		return s, err
	}
	if err := w.sync.Pull(ctx, w.sync.Trunk(), git.PullOptions{}); err != nil {
		return s, err
	}

	remoteBranch, err := w.sync.RemoteBranchExists(ctx, s.Branch)
	if err != nil {
		return s, err
	}
	if remoteBranch {
		if err := w.sync.Pull(ctx, s.Branch, git.PullOptions{}); err != nil {
			return s, err
		}
		if err := w.guard.CheckConflicts(ctx); err != nil {
			return s, err
		}
	}

	if err := w.sync.Push(ctx, s.Branch); err != nil {
		return s, err
	}

	s.State = model.StateCommitted
	return s, nil
}

// Publish merges the working branch into trunk, replaces the release tag
// and removes the working branch locally and remotely.
func (w *Workflow) Publish(ctx context.Context, s Session) (Session, error) {
	if err := expect(s, model.StateCommitted); err != nil {
		return s, err
	}
	w.log.Info("Publishing %s", s.Tag)

	trunk := w.sync.Trunk()
	if err := w.sync.ReplaceTag(ctx, s.Tag); err != nil {
		return s, err
	}
	if err := w.sync.MergeInto(ctx, s.Branch, trunk); err != nil {
		return s, err
	}
	if err := w.sync.Push(ctx, trunk); err != nil {
		return s, err
	}
	if err := w.sync.PushTag(ctx, s.Tag); err != nil {
		return s, err
	}
	if err := w.sync.DeleteBranch(ctx, s.Branch); err != nil {
		return s, err
	}

	w.log.Success("Released %s", s.Tag)
	s.State = model.StatePublished
	return s, nil
}

// expect rejects a stage called out of order.
func expect(s Session, want model.WorkflowState) error {
	if s.State != want {
		return fmt.Errorf("stage requires state %s, session is %s", want, s.State)
	}
	return nil
}
