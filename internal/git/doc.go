// Package git provides the git primitives used by the release-flow CLI.
//
// All git operations are performed via os/exec calls to the git binary,
// rather than using a Git library like go-git. This approach:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior (credentials, hooks, SSH config)
//     the user sees in their terminal
//   - Keeps stderr text from git available for error reporting
//
// The Repo struct binds one working directory and exposes status, staging,
// stash, branch, tag, pull/push and ls-remote operations on it.
package git
