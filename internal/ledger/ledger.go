// Package ledger derives ordered semantic versions from remote tag refs.
//
// The ledger is a read-only view over the output of `git ls-remote --refs`:
// only refs shaped exactly like refs/tags/<kind>/<major>.<minor>.<patch>
// count, everything else is ignored. Queries are pure and can be re-run
// against the same ref list any number of times.
package ledger

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/shinji-kodama/release-flow/internal/model"
)

// tagRefPattern matches a version tag ref. The version part is further
// validated by semver.StrictNewVersion, which also rejects leading zeros.
var tagRefPattern = regexp.MustCompile(`^refs/tags/(dev|release)/(\d+\.\d+\.\d+)$`)

// TagRef is a version tag found on the remote.
type TagRef struct {
	Kind    model.RefKind
	Version *semver.Version
}

// ParseRef extracts a TagRef from a single ref. The input may be a bare ref
// name or a full ls-remote line ("<hash>\t<ref>"). Returns false for
// anything that is not a valid version tag.
func ParseRef(ref string) (TagRef, bool) {
	ref = strings.TrimSpace(ref)
	if _, name, ok := strings.Cut(ref, "\t"); ok {
		ref = strings.TrimSpace(name)
	}

	match := tagRefPattern.FindStringSubmatch(ref)
	if match == nil {
		return TagRef{}, false
	}

	version, err := semver.StrictNewVersion(match[2])
	if err != nil {
		return TagRef{}, false
	}
	return TagRef{Kind: model.RefKind(match[1]), Version: version}, true
}

// Versions returns the versions tagged under kind, highest first.
// Duplicate versions collapse into one entry.
func Versions(refs []string, kind model.RefKind) []*semver.Version {
	seen := make(map[string]bool)
	var versions []*semver.Version

	for _, ref := range refs {
		tag, ok := ParseRef(ref)
		if !ok || tag.Kind != kind {
			continue
		}
		key := tag.Version.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		versions = append(versions, tag.Version)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].GreaterThan(versions[j])
	})
	return versions
}

// Latest returns the highest version tagged under kind, or nil.
func Latest(refs []string, kind model.RefKind) *semver.Version {
	versions := Versions(refs, kind)
	if len(versions) == 0 {
		return nil
	}
	return versions[0]
}

// Snapshot holds both kinds of versions parsed from one ref listing.
type Snapshot struct {
	Dev     []*semver.Version
	Release []*semver.Version
}

// NewSnapshot parses refs once for both kinds.
func NewSnapshot(refs []string) *Snapshot {
	return &Snapshot{
		Dev:     Versions(refs, model.RefKindDev),
		Release: Versions(refs, model.RefKindRelease),
	}
}

// LatestDev returns the highest dev version, or nil.
func (s *Snapshot) LatestDev() *semver.Version {
	return head(s.Dev)
}

// LatestRelease returns the highest release version, or nil.
func (s *Snapshot) LatestRelease() *semver.Version {
	return head(s.Release)
}

// Strings renders versions as plain strings, preserving order.
func Strings(versions []*semver.Version) []string {
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.String()
	}
	return out
}

func head(versions []*semver.Version) *semver.Version {
	if len(versions) == 0 {
		return nil
	}
	return versions[0]
}
