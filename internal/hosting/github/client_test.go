package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-flow/internal/hosting"
)

// newTestServer serves a minimal GitHub API with one existing repository.
func newTestServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var created []string
	mux := http.NewServeMux()

	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"login": "octo"}`))
	})
	mux.HandleFunc("/repos/octo/existing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name": "existing", "full_name": "octo/existing", "private": true, "owner": {"login": "octo"}}`))
	})
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})
	createHandler := func(owner string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			name, _ := body["name"].(string)
			created = append(created, owner+"/"+name)

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"name":      name,
				"full_name": owner + "/" + name,
				"private":   body["private"],
				"owner":     map[string]string{"login": owner},
			})
		}
	}
	mux.HandleFunc("/user/repos", createHandler("octo"))
	mux.HandleFunc("/orgs/acme/repos", createHandler("acme"))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &created
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	client := New("secret", srv.URL)

	login, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octo", login)
}

func TestGetRepo(t *testing.T) {
	srv, _ := newTestServer(t)
	client := New("secret", srv.URL)

	repo, err := client.GetRepo(context.Background(), "octo", "existing")
	require.NoError(t, err)
	assert.Equal(t, "octo/existing", repo.FullName)
	assert.True(t, repo.Private)

	_, err = client.GetRepo(context.Background(), "octo", "missing")
	assert.True(t, errors.Is(err, hosting.ErrRepoNotFound))
}

func TestCreateRepo(t *testing.T) {
	srv, created := newTestServer(t)
	client := New("secret", srv.URL)

	repo, err := client.CreateRepo(context.Background(), "octo", "demo", false)
	require.NoError(t, err)
	assert.Equal(t, "octo/demo", repo.FullName)

	repo, err = client.CreateRepo(context.Background(), "acme", "tool", true)
	require.NoError(t, err)
	assert.Equal(t, "acme/tool", repo.FullName)
	assert.True(t, repo.Private)

	assert.Equal(t, []string{"octo/demo", "acme/tool"}, *created)
}

func TestEnsureRepoCreatesMissing(t *testing.T) {
	srv, created := newTestServer(t)
	client := New("secret", srv.URL)

	repo, err := hosting.EnsureRepo(context.Background(), client, "", "demo", false)
	require.NoError(t, err)
	assert.Equal(t, "octo/demo", repo.FullName)
	assert.Equal(t, []string{"octo/demo"}, *created)

	repo, err = hosting.EnsureRepo(context.Background(), client, "octo", "existing", false)
	require.NoError(t, err)
	assert.Equal(t, "octo/existing", repo.FullName)
	assert.Len(t, *created, 1)
}

func TestRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{name: "default", baseURL: "", want: "git@github.com:octo/demo.git"},
		{name: "public api", baseURL: "https://api.github.com/", want: "git@github.com:octo/demo.git"},
		{name: "enterprise", baseURL: "https://ghe.example.com/api/v3/", want: "git@ghe.example.com:octo/demo.git"},
		{name: "enterprise api subdomain", baseURL: "https://api.ghe.example.com", want: "git@ghe.example.com:octo/demo.git"},
		{name: "port is dropped", baseURL: "http://127.0.0.1:8080/", want: "git@127.0.0.1:octo/demo.git"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New("", tt.baseURL).RepoURL("octo/demo"))
		})
	}
	assert.Equal(t, hosting.PlatformGitHub, New("", "").Platform())
}
