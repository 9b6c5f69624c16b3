package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-flow/internal/config"
	"github.com/shinji-kodama/release-flow/internal/gitsync"
	"github.com/shinji-kodama/release-flow/internal/guard"
	"github.com/shinji-kodama/release-flow/internal/hosting"
	"github.com/shinji-kodama/release-flow/internal/ledger"
	"github.com/shinji-kodama/release-flow/internal/model"
	"github.com/shinji-kodama/release-flow/internal/prompt"
	"github.com/shinji-kodama/release-flow/internal/release"
)

// resetGlobals restores the package-level flag variables after a test.
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		jsonOutput = false
		verbose = false
		workDir = ""
	})
}

// runRoot executes the root command with args and returns stdout.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetGlobals(t)

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExitCodeFor(t *testing.T) {
	gitErr := model.WrapCLIError(model.ExitGitError, "git pull failed", errors.New("exit status 1"))

	tests := []struct {
		name string
		err  error
		want model.ExitCode
	}{
		{name: "plain error", err: errors.New("boom"), want: model.ExitGeneralError},
		{name: "cli error", err: model.NewCLIError(model.ExitConfigError, "bad"), want: model.ExitConfigError},
		{name: "wrapped cli error", err: fmt.Errorf("stage: %w", model.NewCLIError(model.ExitHostingError, "x")), want: model.ExitHostingError},
		{name: "sync abort is soft", err: &gitsync.AbortError{Branch: "master", Reason: "x", Err: gitErr}, want: model.ExitSyncAborted},
		{name: "wrapped sync abort", err: fmt.Errorf("commit: %w", &gitsync.AbortError{Err: gitErr}), want: model.ExitSyncAborted},
		{name: "push failure", err: &gitsync.SyncError{Op: "push", Ref: "dev/1.0.0", Err: gitErr}, want: model.ExitGitError},
		{name: "conflict", err: &guard.ConflictError{Paths: []string{"a"}}, want: model.ExitConflict},
		{name: "cancelled prompt", err: fmt.Errorf("version selection failed: %w", prompt.ErrCancelled), want: model.ExitUserCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func TestReportErrorText(t *testing.T) {
	resetGlobals(t)
	var buf bytes.Buffer

	code := reportError(&buf, model.WrapCLIError(model.ExitConfigError, "manifest not found", errors.New("no such file")))
	assert.Equal(t, model.ExitConfigError, code)
	assert.Equal(t, "Error: manifest not found: no such file\n", buf.String())

	buf.Reset()
	code = reportError(&buf, &gitsync.AbortError{Branch: "master", Reason: "trunk master does not exist on origin"})
	assert.Equal(t, model.ExitSyncAborted, code)
	assert.Equal(t, "Aborted: pull of master aborted: trunk master does not exist on origin\n", buf.String())
}

func TestReportErrorJSON(t *testing.T) {
	resetGlobals(t)
	jsonOutput = true
	var buf bytes.Buffer

	code := reportError(&buf, &guard.ConflictError{Paths: []string{"a.go"}})
	assert.Equal(t, model.ExitConflict, code)

	var out map[string]map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Contains(t, out["error"]["message"], "a.go")
}

func TestPrintVersions(t *testing.T) {
	resetGlobals(t)
	snap := ledger.NewSnapshot([]string{
		"refs/tags/release/1.0.0",
		"refs/tags/release/1.1.0",
		"refs/tags/dev/1.2.0",
	})

	var buf bytes.Buffer
	printVersions(&buf, snap)
	assert.Equal(t,
		"KIND       VERSION\n"+
			"release    1.1.0\n"+
			"release    1.0.0\n"+
			"dev        1.2.0\n",
		buf.String())

	buf.Reset()
	printVersions(&buf, ledger.NewSnapshot(nil))
	assert.Equal(t, "No version tags found on origin.\n", buf.String())

	jsonOutput = true
	buf.Reset()
	printVersions(&buf, snap)
	var out versionsJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []string{"1.1.0", "1.0.0"}, out.Release)
	assert.Equal(t, "1.2.0", out.LatestDev)
}

func TestPrintSession(t *testing.T) {
	resetGlobals(t)
	s := release.Session{
		Name:     "demo",
		FullName: "octo/demo",
		Platform: hosting.PlatformGitHub,
		Version:  "1.1.0",
		Branch:   "dev/1.1.0",
		Tag:      "release/1.1.0",
		State:    model.StatePublished,
	}

	var buf bytes.Buffer
	printSession(&buf, s)
	assert.Contains(t, buf.String(), "Repository: octo/demo (github)\n")
	assert.Contains(t, buf.String(), "Tag:        release/1.1.0\n")

	s.State = model.StateCommitted
	buf.Reset()
	printSession(&buf, s)
	assert.NotContains(t, buf.String(), "Tag:")
}

func TestCacheCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)

	store := hosting.NewCredentialStore(home)
	require.NoError(t, store.SaveToken("tok"))
	require.NoError(t, store.SavePlatform(hosting.PlatformGitee))

	out, err := runRoot(t, "cache", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform:  gitee")
	assert.Contains(t, out, "Token:     cached")
	assert.NotContains(t, out, "tok\n")

	out, err = runRoot(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared cached credentials")

	_, ok, err := store.Token()
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestVersionsCommand lists tags from a real bare remote.
func TestVersionsCommand(t *testing.T) {
	t.Setenv("GIT_AUTHOR_NAME", "Test User")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test User")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	bare := filepath.Join(t.TempDir(), "remote.git")
	gitRun(t, "", "init", "--bare", bare)

	dir := t.TempDir()
	gitRun(t, dir, "init")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x\n"), 0o644))
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-m", "init")
	for _, tag := range []string{"release/0.9.0", "release/1.0.0", "dev/1.1.0", "release/bogus"} {
		gitRun(t, dir, "tag", tag)
	}
	gitRun(t, dir, "remote", "add", "origin", bare)
	gitRun(t, dir, "push", "origin", "--tags")

	out, err := runRoot(t, "versions", "--json", "--dir", dir)
	require.NoError(t, err)

	var got versionsJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"1.0.0", "0.9.0"}, got.Release)
	assert.Equal(t, []string{"1.1.0"}, got.Dev)
	assert.Equal(t, "1.0.0", got.LatestRelease)
}

func TestVersionsOutsideRepository(t *testing.T) {
	_, err := runRoot(t, "versions", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, model.ExitGitError, exitCodeFor(err))
}

func TestCommitRejectsUnknownPlatform(t *testing.T) {
	t.Setenv(config.EnvHome, t.TempDir())

	_, err := runRoot(t, "commit", "--platform", "svn", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, model.ExitConfigError, exitCodeFor(err))
}

func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	out, err := exec.Command("git", args...).CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(out))
}
