package git

import "strings"

// Rename is a path that git detected as moved.
type Rename struct {
	From string
	To   string
}

// Status partitions the working tree the way the release workflow needs it.
// A path may appear in more than one bucket (e.g. "AM" is both created and
// modified); Pending de-duplicates.
type Status struct {
	// NotAdded holds untracked paths ("??").
	NotAdded []string

	// Created holds paths newly added to the index ("A?" and copies).
	Created []string

	// Deleted holds paths removed in the index or the working tree.
	Deleted []string

	// Modified holds paths with content or type changes.
	Modified []string

	// Renamed holds index renames. Only the destination is staged.
	Renamed []Rename

	// Conflicted holds unmerged paths (DD, AU, UD, UA, DU, AA, UU).
	Conflicted []string
}

// Pending returns every path that must be staged before committing:
// untracked, created, deleted, modified and the destination of renames.
// Order is stable and duplicates are removed.
func (s *Status) Pending() []string {
	seen := make(map[string]bool)
	var paths []string
	add := func(list ...string) {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}

	add(s.NotAdded...)
	add(s.Created...)
	add(s.Deleted...)
	add(s.Modified...)
	for _, r := range s.Renamed {
		add(r.To)
	}
	return paths
}

// IsClean reports whether nothing is pending and nothing is conflicted.
func (s *Status) IsClean() bool {
	return len(s.Pending()) == 0 && len(s.Conflicted) == 0
}

// conflictCodes are the XY pairs git uses for unmerged paths.
var conflictCodes = map[string]bool{
	"DD": true, "AU": true, "UD": true, "UA": true,
	"DU": true, "AA": true, "UU": true,
}

// parseStatus parses `git status --porcelain=v1 -z` output.
//
// Entries are NUL-terminated "XY PATH". Renames and copies carry a second
// NUL-terminated field holding the original path:
//
//	R  new-name\0old-name\0
func parseStatus(output string) *Status {
	status := &Status{}
	fields := strings.Split(output, "\x00")

	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}
		code, path := entry[:2], entry[3:]
		x, y := code[0], code[1]

		switch {
		case code == "??":
			status.NotAdded = append(status.NotAdded, path)
			continue
		case code == "!!":
			continue
		case conflictCodes[code]:
			status.Conflicted = append(status.Conflicted, path)
			continue
		}

		switch x {
		case 'R':
			from := ""
			if i+1 < len(fields) {
				i++
				from = fields[i]
			}
			status.Renamed = append(status.Renamed, Rename{From: from, To: path})
		case 'C':
			if i+1 < len(fields) {
				i++
			}
			status.Created = append(status.Created, path)
		case 'A':
			status.Created = append(status.Created, path)
		}

		if x == 'D' || y == 'D' {
			status.Deleted = append(status.Deleted, path)
		}
		if x == 'M' || y == 'M' || x == 'T' || y == 'T' {
			status.Modified = append(status.Modified, path)
		}
	}

	return status
}
