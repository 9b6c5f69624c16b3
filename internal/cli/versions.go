package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/release-flow/internal/git"
	"github.com/shinji-kodama/release-flow/internal/gitsync"
	"github.com/shinji-kodama/release-flow/internal/ledger"
	"github.com/shinji-kodama/release-flow/internal/model"
)

// NewVersionsCommand creates the "versions" cobra command.
func NewVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List dev and release versions tagged on origin",
		Long: `List the versions found under refs/tags/dev/ and refs/tags/release/ on
origin, newest first. Tags that are not plain major.minor.patch versions are
ignored.

Examples:
  release-flow versions
  release-flow versions --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runVersions(ctx context.Context, w io.Writer) error {
	dir, err := projectDir()
	if err != nil {
		return err
	}

	repo := git.Open(dir)
	if !repo.IsRepo() {
		return model.NewCLIError(model.ExitGitError, fmt.Sprintf("%s is not a git repository", dir))
	}

	refs, err := gitsync.New(repo, "", nil, newLogger()).RemoteRefs(ctx)
	if err != nil {
		return err
	}
	VerboseLog("origin advertises %d refs", len(refs))

	printVersions(w, ledger.NewSnapshot(refs))
	return nil
}

// versionsJSON is the --json shape of the versions command.
type versionsJSON struct {
	Dev           []string `json:"dev"`
	Release       []string `json:"release"`
	LatestDev     string   `json:"latestDev,omitempty"`
	LatestRelease string   `json:"latestRelease,omitempty"`
}

// printVersions outputs the ledger in text or JSON format.
func printVersions(w io.Writer, snap *ledger.Snapshot) {
	if IsJSONOutput() {
		out := versionsJSON{
			Dev:     ledger.Strings(snap.Dev),
			Release: ledger.Strings(snap.Release),
		}
		if v := snap.LatestDev(); v != nil {
			out.LatestDev = v.String()
		}
		if v := snap.LatestRelease(); v != nil {
			out.LatestRelease = v.String()
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if len(snap.Dev) == 0 && len(snap.Release) == 0 {
		fmt.Fprintln(w, "No version tags found on origin.")
		return
	}

	fmt.Fprintf(w, "%-10s %s\n", "KIND", "VERSION")
	for _, v := range snap.Release {
		fmt.Fprintf(w, "%-10s %s\n", model.RefKindRelease, v)
	}
	for _, v := range snap.Dev {
		fmt.Fprintf(w, "%-10s %s\n", model.RefKindDev, v)
	}
}
