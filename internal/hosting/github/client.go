// Package github implements hosting.Provider on top of go-github.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"

	"github.com/shinji-kodama/release-flow/internal/hosting"
)

// Client talks to the GitHub REST API with a personal access token.
type Client struct {
	client  *gh.Client
	sshHost string
	login   string
}

const defaultSSHHost = "github.com"


var _ hosting.Provider = (*Client)(nil)

// New creates a Client. baseURL overrides the API endpoint (GitHub
// Enterprise or tests); empty means api.github.com. Clone URLs use the
// host of baseURL.
func New(token, baseURL string) *Client {
	client := gh.NewClient(&http.Client{Timeout: 30 * time.Second}).WithAuthToken(token)
	sshHost := defaultSSHHost
	if baseURL != "" {
		if u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/"); err == nil {
			client.BaseURL = u
			sshHost = sshHostFor(u)
		}
	}
	return &Client{client: client, sshHost: sshHost}
}

// sshHostFor maps an API endpoint to the host serving git over SSH:
// api.github.com is github.com, an Enterprise server is its own host.
func sshHostFor(api *url.URL) string {
	host := api.Hostname()
	switch {
	case host == "":
		return defaultSSHHost
	case strings.EqualFold(host, "api.github.com"):
		return defaultSSHHost
	}
	return strings.TrimPrefix(host, "api.")
}

// NewProvider adapts New to hosting.Factory.
func NewProvider(token, baseURL string) hosting.Provider {
	return New(token, baseURL)
}

// Platform implements hosting.Provider.
func (c *Client) Platform() hosting.Platform {
	return hosting.PlatformGitHub
}

// Login returns the login of the token owner. The answer is cached.
func (c *Client) Login(ctx context.Context) (string, error) {
	if c.login != "" {
		return c.login, nil
	}
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("get authenticated user: %w", err)
	}
	c.login = user.GetLogin()
	return c.login, nil
}

// GetRepo implements hosting.Provider.
func (c *Client) GetRepo(ctx context.Context, owner, name string) (*hosting.Repository, error) {
	repo, resp, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, hosting.ErrRepoNotFound
		}
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}
	return convert(repo), nil
}

// CreateRepo implements hosting.Provider. Repositories owned by the token
// owner are created as personal repositories, anything else under the
// organization named owner.
func (c *Client) CreateRepo(ctx context.Context, owner, name string, private bool) (*hosting.Repository, error) {
	login, err := c.Login(ctx)
	if err != nil {
		return nil, err
	}

	org := owner
	if strings.EqualFold(owner, login) {
		org = ""
	}

	repo, _, err := c.client.Repositories.Create(ctx, org, &gh.Repository{
		Name:    gh.String(name),
		Private: gh.Bool(private),
	})
	if err != nil {
		return nil, fmt.Errorf("create repository %s/%s: %w", owner, name, err)
	}
	return convert(repo), nil
}

// RepoURL returns the SSH clone URL, so pushes use the user's SSH key
// rather than the API token.
func (c *Client) RepoURL(fullName string) string {
	return fmt.Sprintf("git@%s:%s.git", c.sshHost, fullName)
}

func convert(repo *gh.Repository) *hosting.Repository {
	return &hosting.Repository{
		Owner:    repo.GetOwner().GetLogin(),
		Name:     repo.GetName(),
		FullName: repo.GetFullName(),
		Private:  repo.GetPrivate(),
	}
}
