package hosting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	tokenFile    = ".git_token"
	platformFile = ".git_platform"
)

// CredentialStore caches the hosting token and the chosen platform as
// plain-text files in the per-user cache directory. Values are written once
// and reused until Clear is called.
type CredentialStore struct {
	dir string
}

// NewCredentialStore creates a store rooted at dir. The directory is
// created on the first write.
func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

// Dir returns the cache directory.
func (s *CredentialStore) Dir() string {
	return s.dir
}

// Token returns the cached token. ok is false when none is cached.
func (s *CredentialStore) Token() (token string, ok bool, err error) {
	return s.read(tokenFile)
}

// SaveToken caches token.
func (s *CredentialStore) SaveToken(token string) error {
	return s.write(tokenFile, token)
}

// Platform returns the cached platform. ok is false when none is cached.
func (s *CredentialStore) Platform() (Platform, bool, error) {
	value, ok, err := s.read(platformFile)
	if err != nil || !ok {
		return "", false, err
	}
	p, err := ParsePlatform(value)
	if err != nil {
		return "", false, fmt.Errorf("corrupt platform cache %s: %w", filepath.Join(s.dir, platformFile), err)
	}
	return p, true, nil
}

// SavePlatform caches p.
func (s *CredentialStore) SavePlatform(p Platform) error {
	return s.write(platformFile, string(p))
}

// Clear removes the cached token and platform. Missing files are ignored.
func (s *CredentialStore) Clear() error {
	return s.remove(tokenFile, platformFile)
}

// ClearToken removes only the cached token.
func (s *CredentialStore) ClearToken() error {
	return s.remove(tokenFile)
}

func (s *CredentialStore) remove(names ...string) error {
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func (s *CredentialStore) read(name string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	value := strings.TrimSpace(string(data))
	return value, value != "", nil
}

// write stores value with owner-only permissions since the token grants
// access to the hosting account.
func (s *CredentialStore) write(name, value string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(value), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
