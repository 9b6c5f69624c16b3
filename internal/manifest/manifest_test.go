package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/release-flow/internal/model"
)

// writeManifest creates package.json in a fresh temp dir and returns the dir.
func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(content), 0644))
	return dir
}

func readManifest(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, DefaultFile))
	require.NoError(t, err)
	return string(data)
}

func TestLoad(t *testing.T) {
	dir := writeManifest(t, `{
  // project
  "name": "demo-app",
  "version": "1.4.2",
}`)

	m, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "demo-app", m.Name)
	assert.Equal(t, "1.4.2", m.Version)
	assert.Equal(t, filepath.Join(dir, DefaultFile), m.Path())
}

func TestLoadDefaultsVersion(t *testing.T) {
	dir := writeManifest(t, `{"name": "demo-app"}`)

	m, err := Load(dir, DefaultFile)
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, m.Version)
}

func TestLoadWithByteOrderMark(t *testing.T) {
	dir := writeManifest(t, "\ufeff{\n  \"name\": \"demo-app\",\n  \"version\": \"1.0.0\"\n}\n")

	m, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "demo-app", m.Name)
	assert.Equal(t, "1.0.0", m.Version)

	require.NoError(t, m.SetVersion("1.0.1"))
	assert.Equal(t, "\ufeff{\n  \"name\": \"demo-app\",\n  \"version\": \"1.0.1\"\n}\n", readManifest(t, dir))

	m, err = Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", m.Version)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing bool
	}{
		{name: "missing file", missing: true},
		{name: "invalid json", content: `{"name": `},
		{name: "missing name", content: `{"version": "1.0.0"}`},
		{name: "blank name", content: `{"name": "  "}`},
		{name: "numeric version", content: `{"name": "x", "version": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if !tt.missing {
				dir = writeManifest(t, tt.content)
			}

			_, err := Load(dir, "")
			require.Error(t, err)

			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.ExitConfigError, cliErr.Code)
		})
	}
}

// TestSetVersionInPlace verifies that only the version value changes.
func TestSetVersionInPlace(t *testing.T) {
	original := `{
    "name": "demo-app",
    // bumped by release-flow
    "version": "1.0.0",
    "scripts": {
        "version": "echo nested"
    },
    "private": true
}
`
	dir := writeManifest(t, original)
	m, err := Load(dir, "")
	require.NoError(t, err)

	require.NoError(t, m.SetVersion("1.1.0"))
	assert.Equal(t, "1.1.0", m.Version)

	want := `{
    "name": "demo-app",
    // bumped by release-flow
    "version": "1.1.0",
    "scripts": {
        "version": "echo nested"
    },
    "private": true
}
`
	assert.Equal(t, want, readManifest(t, dir))

	reloaded, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", reloaded.Version)
}

func TestSetVersionInsertsMissingKey(t *testing.T) {
	dir := writeManifest(t, "{\n\t\"name\": \"demo-app\"\n}\n")
	m, err := Load(dir, "")
	require.NoError(t, err)

	require.NoError(t, m.SetVersion("2.0.0"))
	assert.Equal(t, "{\n\t\"name\": \"demo-app\",\n\t\"version\": \"2.0.0\"\n}\n", readManifest(t, dir))
}

func TestSetVersionTwice(t *testing.T) {
	dir := writeManifest(t, `{"name":"demo-app","version":"1.0.0"}`)
	m, err := Load(dir, "")
	require.NoError(t, err)

	require.NoError(t, m.SetVersion("1.0.1"))
	require.NoError(t, m.SetVersion("1.0.2"))
	assert.Equal(t, `{"name":"demo-app","version":"1.0.2"}`, readManifest(t, dir))
}

func TestReplaceVersionEmptyObject(t *testing.T) {
	out, err := replaceVersion([]byte("{}\n"), "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"version\": \"1.0.0\"\n}\n", string(out))
}

func TestReplaceVersionRejectsNonObject(t *testing.T) {
	_, err := replaceVersion([]byte(`["name"]`), "1.0.0")
	assert.Error(t, err)
}
