// Package gitee implements hosting.Provider against the Gitee v5 REST API.
//
// There is no maintained Go SDK for Gitee, so the client is a thin
// net/http wrapper: the token travels as the access_token parameter and
// responses are decoded with encoding/json.
package gitee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shinji-kodama/release-flow/internal/hosting"
)

// DefaultBaseURL is the public Gitee API endpoint.
const DefaultBaseURL = "https://gitee.com/api/v5"

// HTTPClient interface for HTTP operations (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// Client implements hosting.Provider for Gitee.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	login      string
}

var _ hosting.Provider = (*Client)(nil)

// NewClient creates a Gitee client. An empty baseURL means DefaultBaseURL.
func NewClient(token, baseURL string, httpClient HTTPClient) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// NewProvider adapts NewClient to hosting.Factory with a default HTTP
// client.
func NewProvider(token, baseURL string) hosting.Provider {
	return NewClient(token, baseURL, &http.Client{Timeout: 30 * time.Second})
}

// Platform implements hosting.Provider.
func (c *Client) Platform() hosting.Platform {
	return hosting.PlatformGitee
}

type giteeUser struct {
	Login string `json:"login"`
}

type giteeRepo struct {
	Name     string    `json:"name"`
	FullName string    `json:"full_name"`
	Private  bool      `json:"private"`
	Owner    giteeUser `json:"owner"`
}

// Login returns the login of the token owner. The answer is cached.
func (c *Client) Login(ctx context.Context) (string, error) {
	if c.login != "" {
		return c.login, nil
	}
	var user giteeUser
	if err := c.doRequest(ctx, http.MethodGet, "/user", nil, &user); err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	c.login = user.Login
	return c.login, nil
}

// GetRepo implements hosting.Provider.
func (c *Client) GetRepo(ctx context.Context, owner, name string) (*hosting.Repository, error) {
	var repo giteeRepo
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(name))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &repo); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, hosting.ErrRepoNotFound
		}
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	return convert(repo), nil
}

// CreateRepo implements hosting.Provider.
func (c *Client) CreateRepo(ctx context.Context, owner, name string, private bool) (*hosting.Repository, error) {
	login, err := c.Login(ctx)
	if err != nil {
		return nil, err
	}

	path := "/user/repos"
	if !strings.EqualFold(owner, login) {
		path = fmt.Sprintf("/orgs/%s/repos", url.PathEscape(owner))
	}

	body := map[string]interface{}{
		"name":    name,
		"private": private,
	}
	var repo giteeRepo
	if err := c.doRequest(ctx, http.MethodPost, path, body, &repo); err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	return convert(repo), nil
}

// RepoURL returns the HTTPS clone URL.
func (c *Client) RepoURL(fullName string) string {
	return fmt.Sprintf("https://gitee.com/%s.git", fullName)
}

// doRequest performs an API call and decodes the JSON answer into result.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	endpoint := c.baseURL + path + "?access_token=" + url.QueryEscape(c.token)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func convert(repo giteeRepo) *hosting.Repository {
	return &hosting.Repository{
		Owner:    repo.Owner.Login,
		Name:     repo.Name,
		FullName: repo.FullName,
		Private:  repo.Private,
	}
}
