package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/release-flow/internal/config"
	"github.com/shinji-kodama/release-flow/internal/hosting"
)

// NewCacheCommand creates the "cache" command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cached hosting credentials",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached token and platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cache directory and what it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheShow(cmd.OutOrStdout())
		},
	})

	return cmd
}

func runCacheClear(w io.Writer) error {
	dir, err := config.CacheDir()
	if err != nil {
		return err
	}
	if err := hosting.NewCredentialStore(dir).Clear(); err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"cleared": true, "dir": dir}, "", "  ")
		fmt.Fprintln(w, string(data))
		return nil
	}
	fmt.Fprintf(w, "Cleared cached credentials in %s\n", dir)
	return nil
}

// cacheJSON is the --json shape of "cache show". The token itself is never
// printed.
type cacheJSON struct {
	Dir      string `json:"dir"`
	Platform string `json:"platform,omitempty"`
	HasToken bool   `json:"hasToken"`
}

func runCacheShow(w io.Writer) error {
	dir, err := config.CacheDir()
	if err != nil {
		return err
	}
	store := hosting.NewCredentialStore(dir)

	platform, _, err := store.Platform()
	if err != nil {
		return err
	}
	_, hasToken, err := store.Token()
	if err != nil {
		return err
	}

	info := cacheJSON{Dir: dir, Platform: string(platform), HasToken: hasToken}
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(info, "", "  ")
		fmt.Fprintln(w, string(data))
		return nil
	}

	fmt.Fprintf(w, "Directory: %s\n", info.Dir)
	fmt.Fprintf(w, "Platform:  %s\n", orDash(info.Platform))
	fmt.Fprintf(w, "Token:     %s\n", map[bool]string{true: "cached", false: "-"}[info.HasToken])
	return nil
}

// orDash returns "-" for empty strings.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
