package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/release-flow/internal/config"
	"github.com/shinji-kodama/release-flow/internal/hosting"
	"github.com/shinji-kodama/release-flow/internal/hosting/gitee"
	"github.com/shinji-kodama/release-flow/internal/hosting/github"
	"github.com/shinji-kodama/release-flow/internal/model"
	"github.com/shinji-kodama/release-flow/internal/prompt"
	"github.com/shinji-kodama/release-flow/internal/release"
)

// NewCommitCommand creates the "commit" cobra command.
func NewCommitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit pending work on the dev branch and optionally publish it",
		Long: `Commit pending work on a dev/<version> branch and push it.

The command makes sure the remote repository exists on the hosting platform,
attaches it as origin, commits outstanding changes under a message you enter,
and pushes dev/<version>. The version comes from the project manifest; when a
release tag for it (or a newer one) already exists you are asked to bump it.

With --publish the branch is merged into trunk, release/<version> is tagged
and pushed, and the dev branch is deleted locally and on the remote.

Examples:
  release-flow commit
  release-flow commit --publish
  release-flow commit --clear --platform gitee`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolP("clear", "c", false, "Clear the cached hosting token and platform first")
	cmd.Flags().BoolP("publish", "p", false, "Merge into trunk, tag the release and delete the dev branch")
	cmd.Flags().String("trunk", "", "Trunk branch (default: master)")
	cmd.Flags().String("manifest", "", "Project manifest file (default: package.json)")
	cmd.Flags().String("owner", "", "Account or organization owning the remote repository")
	cmd.Flags().String("platform", "", "Hosting platform: github or gitee")
	cmd.Flags().Bool("private", false, "Create the remote repository as private")

	return cmd
}

// runCommit loads settings, wires the hosting backends and runs the
// release workflow.
func runCommit(ctx context.Context, cmd *cobra.Command) error {
	dir, err := projectDir()
	if err != nil {
		return err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		return err
	}
	cfg, err := config.LoadDefault(cacheDir)
	if err != nil {
		return err
	}
	config.MergeFlags(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Platform != "" {
		platform, err := hosting.ParsePlatform(cfg.Platform)
		if err != nil {
			return model.WrapCLIError(model.ExitConfigError, "invalid --platform", err)
		}
		cfg.Platform = string(platform)
	}

	log := newLogger()
	store := hosting.NewCredentialStore(cacheDir)
	if cfg.Clear {
		if err := store.Clear(); err != nil {
			return err
		}
		log.Success("Cleared cached credentials in %s", cacheDir)
	}

	prompter := prompt.NewTerminal(nil, nil)
	resolver := &hosting.Resolver{
		Store:    store,
		Prompter: prompter,
		Factories: map[hosting.Platform]hosting.Factory{
			hosting.PlatformGitHub: github.NewProvider,
			hosting.PlatformGitee:  gitee.NewProvider,
		},
		BaseURLs: map[hosting.Platform]string{
			hosting.PlatformGitHub: cfg.GitHub.BaseURL,
			hosting.PlatformGitee:  cfg.Gitee.BaseURL,
		},
		Log: log,
	}

	workflow := release.New(dir, cfg, resolver, prompter, log)
	session, err := workflow.Run(ctx)
	if err != nil {
		VerboseLog("workflow stopped in state %s", session.State)
		return err
	}

	printSession(cmd.OutOrStdout(), session)
	return nil
}

// printSession outputs the outcome of a run.
func printSession(w io.Writer, s release.Session) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(s, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "Project:    %s\n", s.Name)
	fmt.Fprintf(w, "Repository: %s (%s)\n", s.FullName, s.Platform)
	fmt.Fprintf(w, "Version:    %s\n", s.Version)
	fmt.Fprintf(w, "Branch:     %s\n", s.Branch)
	fmt.Fprintf(w, "State:      %s\n", s.State)
	if s.State == model.StatePublished {
		fmt.Fprintf(w, "Tag:        %s\n", s.Tag)
	}
}
