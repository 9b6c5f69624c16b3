// Package hosting abstracts the remote repository hosting service.
//
// A Provider authenticates with a personal access token, looks up and
// creates repositories, and knows the clone URL form the workflow pushes
// to. Concrete backends live in the github and gitee subpackages; this
// package holds the shared types, the credential cache and the logic that
// picks a backend and makes sure the remote repository exists.
package hosting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shinji-kodama/release-flow/internal/model"
)

// Platform names a hosting backend.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitee  Platform = "gitee"
)

// Platforms lists the supported backends in prompt order.
var Platforms = []Platform{PlatformGitHub, PlatformGitee}

// String returns the string representation of Platform.
func (p Platform) String() string {
	return string(p)
}

// IsValid checks whether p is one of the supported backends.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformGitHub, PlatformGitee:
		return true
	default:
		return false
	}
}

// ParsePlatform converts a string to a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unsupported platform: %q (valid: github, gitee)", s)
	}
	return p, nil
}

// ErrRepoNotFound is returned by GetRepo when the repository does not exist
// or is not visible with the current token.
var ErrRepoNotFound = errors.New("repository not found")

// Repository describes a remote repository.
type Repository struct {
	Owner    string
	Name     string
	FullName string
	Private  bool
}

// Provider is a hosting backend.
type Provider interface {
	// Platform identifies the backend.
	Platform() Platform

	// Login returns the user name the token belongs to.
	Login(ctx context.Context) (string, error)

	// GetRepo looks up owner/name. Returns ErrRepoNotFound when missing.
	GetRepo(ctx context.Context, owner, name string) (*Repository, error)

	// CreateRepo creates name under owner. When owner is the authenticated
	// user the repository is personal, otherwise owner is an organization.
	CreateRepo(ctx context.Context, owner, name string, private bool) (*Repository, error)

	// RepoURL returns the URL git pushes to for fullName ("owner/name").
	RepoURL(fullName string) string
}

// Factory builds a Provider from a token and an optional API base URL.
type Factory func(token, baseURL string) Provider

// EnsureRepo returns owner/name, creating it when it does not exist.
// An empty owner means the authenticated user.
func EnsureRepo(ctx context.Context, p Provider, owner, name string, private bool) (*Repository, error) {
	login, err := p.Login(ctx)
	if err != nil {
		return nil, hostingError(p, "authentication failed", err)
	}
	if owner == "" {
		owner = login
	}

	repo, err := p.GetRepo(ctx, owner, name)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, ErrRepoNotFound) {
		return nil, hostingError(p, fmt.Sprintf("failed to look up %s/%s", owner, name), err)
	}

	repo, err = p.CreateRepo(ctx, owner, name, private)
	if err != nil {
		return nil, hostingError(p, fmt.Sprintf("failed to create %s/%s", owner, name), err)
	}
	return repo, nil
}

func hostingError(p Provider, message string, err error) error {
	return model.WrapCLIError(model.ExitHostingError, fmt.Sprintf("%s: %s", p.Platform(), message), err)
}
