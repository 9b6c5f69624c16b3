// Package config loads user settings for release-flow.
//
// Settings come from three layers, later ones winning:
//  1. built-in defaults (Default)
//  2. an optional YAML file in the per-user cache directory
//  3. command-line flags (MergeFlags)
//
// The cache directory also holds the cached hosting credential; see the
// hosting package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/release-flow/internal/manifest"
	"github.com/shinji-kodama/release-flow/internal/model"
)

const (
	// EnvHome overrides the cache directory.
	EnvHome = "RELEASE_FLOW_HOME"

	// DirName is the cache directory name under the user's home.
	DirName = ".release-flow"

	// FileName is the optional config file inside the cache directory.
	FileName = "config.yaml"
)

// Config holds the effective settings for one run.
type Config struct {
	// Trunk is the integration branch releases are merged into.
	Trunk string `yaml:"trunk"`

	// Manifest is the project manifest file, relative to the project root.
	Manifest string `yaml:"manifest"`

	// Owner is the account or organization owning the remote repository.
	// Empty means the authenticated user.
	Owner string `yaml:"owner"`

	// Platform forces a hosting backend instead of the cached choice.
	Platform string `yaml:"platform"`

	// Private makes newly created repositories private.
	Private bool `yaml:"private"`

	GitHub Endpoint `yaml:"github"`
	Gitee  Endpoint `yaml:"gitee"`

	// Gitignore lists extra patterns appended to a generated .gitignore.
	Gitignore []string `yaml:"gitignore"`

	// Clear purges cached credentials before the run. Flag only.
	Clear bool `yaml:"-"`

	// Publish runs the publish stage. Flag only.
	Publish bool `yaml:"-"`
}

// Endpoint configures a hosting API.
type Endpoint struct {
	BaseURL string `yaml:"base_url"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Trunk:    model.DefaultTrunk,
		Manifest: manifest.DefaultFile,
	}
}

// CacheDir returns the per-user cache directory: $RELEASE_FLOW_HOME when
// set, otherwise ~/.release-flow.
func CacheDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", model.WrapCLIError(model.ExitConfigError, "cannot locate home directory", err)
	}
	return filepath.Join(home, DirName), nil
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("failed to read %s", path), err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("failed to parse %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads config.yaml from dir.
func LoadDefault(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// MergeFlags overlays command-line flags that were given values. Flags that
// are not defined on the set are ignored.
func MergeFlags(cfg *Config, flags *pflag.FlagSet) *Config {
	if v, err := flags.GetString("trunk"); err == nil && v != "" {
		cfg.Trunk = v
	}
	if v, err := flags.GetString("manifest"); err == nil && v != "" {
		cfg.Manifest = v
	}
	if v, err := flags.GetString("owner"); err == nil && v != "" {
		cfg.Owner = v
	}
	if v, err := flags.GetString("platform"); err == nil && v != "" {
		cfg.Platform = v
	}
	if flags.Changed("private") {
		if v, err := flags.GetBool("private"); err == nil {
			cfg.Private = v
		}
	}
	if v, err := flags.GetBool("clear"); err == nil {
		cfg.Clear = v
	}
	if v, err := flags.GetBool("publish"); err == nil {
		cfg.Publish = v
	}
	return cfg
}

// Validate checks settings that would otherwise fail deep inside git.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Trunk) == "" {
		return model.NewCLIError(model.ExitConfigError, "trunk branch name cannot be empty")
	}
	if strings.HasPrefix(c.Trunk, "dev/") || strings.HasPrefix(c.Trunk, "release/") {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("trunk %q collides with the dev/ and release/ namespaces", c.Trunk))
	}
	if strings.TrimSpace(c.Manifest) == "" {
		return model.NewCLIError(model.ExitConfigError, "manifest file name cannot be empty")
	}
	return nil
}
