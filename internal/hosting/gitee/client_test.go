package gitee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-flow/internal/hosting"
)

// mockHTTPClient is a test double for HTTPClient.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestLoginSendsAccessToken(t *testing.T) {
	mock := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/v5/user", req.URL.Path)
		assert.Equal(t, "secret", req.URL.Query().Get("access_token"))
		return respond(http.StatusOK, `{"login": "kai"}`), nil
	}}

	client := NewClient("secret", "", mock)
	login, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kai", login)

	// Cached: a second call does not hit the API.
	mock.doFunc = func(*http.Request) (*http.Response, error) {
		t.Fatal("unexpected request")
		return nil, nil
	}
	login, err = client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kai", login)
}

func TestGetRepo(t *testing.T) {
	mock := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		switch req.URL.Path {
		case "/api/v5/repos/kai/demo":
			return respond(http.StatusOK, `{"name":"demo","full_name":"kai/demo","owner":{"login":"kai"}}`), nil
		default:
			return respond(http.StatusNotFound, `{"message":"Not Found Project"}`), nil
		}
	}}
	client := NewClient("secret", "", mock)

	repo, err := client.GetRepo(context.Background(), "kai", "demo")
	require.NoError(t, err)
	assert.Equal(t, "kai/demo", repo.FullName)
	assert.Equal(t, "kai", repo.Owner)

	_, err = client.GetRepo(context.Background(), "kai", "missing")
	assert.True(t, errors.Is(err, hosting.ErrRepoNotFound))
}

func TestGetRepoServerError(t *testing.T) {
	mock := &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return respond(http.StatusInternalServerError, "oops"), nil
	}}

	_, err := NewClient("secret", "", mock).GetRepo(context.Background(), "kai", "demo")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.False(t, errors.Is(err, hosting.ErrRepoNotFound))
}

// TestCreateRepo uses a real HTTP server to exercise request encoding.
func TestCreateRepo(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == "/user" {
			_, _ = w.Write([]byte(`{"login":"kai"}`))
			return
		}

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["private"])

		owner := "kai"
		if r.URL.Path == "/orgs/team/repos" {
			owner = "team"
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"name":      body["name"],
			"full_name": owner + "/" + body["name"].(string),
			"private":   true,
			"owner":     map[string]string{"login": owner},
		})
	}))
	defer srv.Close()

	client := NewClient("secret", srv.URL, srv.Client())

	repo, err := client.CreateRepo(context.Background(), "kai", "demo", true)
	require.NoError(t, err)
	assert.Equal(t, "kai/demo", repo.FullName)

	repo, err = client.CreateRepo(context.Background(), "team", "tool", true)
	require.NoError(t, err)
	assert.Equal(t, "team/tool", repo.FullName)

	assert.Equal(t, []string{"GET /user", "POST /user/repos", "POST /orgs/team/repos"}, paths)
}

func TestRepoURL(t *testing.T) {
	client := NewClient("", "", nil)
	assert.Equal(t, "https://gitee.com/kai/demo.git", client.RepoURL("kai/demo"))
	assert.Equal(t, hosting.PlatformGitee, client.Platform())
}
