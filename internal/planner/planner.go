// Package planner decides which working branch and version a commit run
// targets.
//
// The decision compares the version declared in the manifest against the
// latest release tag on the remote:
//
//	no release tag              -> dev/<declared>
//	declared > latest release   -> dev/<declared>
//	latest release >= declared  -> ask for patch/minor/major over the
//	                               release, write it to the manifest,
//	                               dev/<bumped>
//
// The manifest is rewritten before the guard stages anything, so the bump
// is part of the commit the run produces.
package planner

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/shinji-kodama/release-flow/internal/model"
)

// Chooser asks the user to pick one of several labelled choices and returns
// the selected index.
type Chooser interface {
	Select(message string, choices []string, defaultIndex int) (int, error)
}

// VersionWriter persists a new project version.
type VersionWriter interface {
	SetVersion(version string) error
}

// Plan is the outcome of a planning decision.
type Plan struct {
	// Branch is the working branch, always "dev/<Version>".
	Branch string

	// Version is the version the run works on.
	Version string

	// Bumped is true when Version was derived from the remote release and
	// written back to the manifest.
	Bumped bool

	// Previous is the declared version before planning.
	Previous string

	// Bump is the increment the user chose. Empty unless Bumped.
	Bump model.BumpKind
}

// Planner holds the collaborators used when a bump is required.
type Planner struct {
	chooser Chooser
	writer  VersionWriter
}

// New creates a Planner.
func New(chooser Chooser, writer VersionWriter) *Planner {
	return &Planner{chooser: chooser, writer: writer}
}

// Plan decides the working branch for declared given the latest release on
// the remote (nil when none exists).
//
// An unparseable declared version is a configuration error. A failing
// prompt or manifest write is returned as is; nothing has been changed on
// disk in the former case.
func (p *Planner) Plan(declared string, latestRelease *semver.Version) (*Plan, error) {
	current, err := parseDeclared(declared)
	if err != nil {
		return nil, err
	}

	if latestRelease == nil || current.GreaterThan(latestRelease) {
		return &Plan{
			Branch:   model.WorkingBranch(current.String()),
			Version:  current.String(),
			Previous: declared,
		}, nil
	}

	bump, next, err := p.chooseBump(latestRelease)
	if err != nil {
		return nil, err
	}

	version := next.String()
	if err := p.writer.SetVersion(version); err != nil {
		return nil, fmt.Errorf("failed to write version %s: %w", version, err)
	}

	return &Plan{
		Branch:   model.WorkingBranch(version),
		Version:  version,
		Bumped:   true,
		Previous: declared,
		Bump:     bump,
	}, nil
}

// chooseBump offers patch, minor and major over base, patch preselected.
func (p *Planner) chooseBump(base *semver.Version) (model.BumpKind, *semver.Version, error) {
	candidates := make([]*semver.Version, len(model.BumpKinds))
	labels := make([]string, len(model.BumpKinds))
	for i, kind := range model.BumpKinds {
		candidates[i] = Bump(base, kind)
		labels[i] = fmt.Sprintf("%s (%s -> %s)", kind, base, candidates[i])
	}

	message := fmt.Sprintf("Release %s already exists on the remote. Choose the next version", base)
	index, err := p.chooser.Select(message, labels, 0)
	if err != nil {
		return "", nil, fmt.Errorf("version selection failed: %w", err)
	}
	if index < 0 || index >= len(candidates) {
		return "", nil, fmt.Errorf("version selection out of range: %d", index)
	}
	return model.BumpKinds[index], candidates[index], nil
}

// Bump increments one component of v, resetting the lower ones.
func Bump(v *semver.Version, kind model.BumpKind) *semver.Version {
	var next semver.Version
	switch kind {
	case model.BumpMajor:
		next = v.IncMajor()
	case model.BumpMinor:
		next = v.IncMinor()
	default:
		next = v.IncPatch()
	}
	return &next
}

// parseDeclared accepts a plain major.minor.patch version (an optional
// leading "v" is tolerated). Pre-release and build suffixes cannot be
// expressed as tags, so they are rejected.
func parseDeclared(declared string) (*semver.Version, error) {
	v, err := semver.NewVersion(declared)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid project version %q", declared),
			err,
		)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return nil, model.NewCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid project version %q: pre-release and build metadata are not supported", declared),
		)
	}
	return v, nil
}
