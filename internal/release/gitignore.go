package release

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultGitignore is written when the project has no .gitignore yet.
var defaultGitignore = []string{
	".DS_Store",
	"node_modules",
	"/dist",
	"",
	"# local env files",
	".env.local",
	".env.*.local",
	"",
	"# Log files",
	"npm-debug.log*",
	"yarn-debug.log*",
	"yarn-error.log*",
	"pnpm-debug.log*",
	"",
	"# Editor directories and files",
	".idea",
	".vscode",
	"*.suo",
	"*.ntvs*",
	"*.njsproj",
	"*.sln",
	"*.sw?",
}

// ensureGitignore creates dir/.gitignore with the default patterns plus
// extra. An existing file is never modified. Reports whether it wrote one.
func ensureGitignore(dir string, extra []string) (bool, error) {
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat .gitignore: %w", err)
	}

	lines := append([]string(nil), defaultGitignore...)
	if len(extra) > 0 {
		lines = append(lines, "")
		lines = append(lines, extra...)
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return true, nil
}
