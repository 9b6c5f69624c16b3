package hosting

import (
	"fmt"
	"strings"

	"github.com/shinji-kodama/release-flow/internal/console"
	"github.com/shinji-kodama/release-flow/internal/model"
)

// Prompter is the subset of interactive prompts the resolver uses.
type Prompter interface {
	Select(message string, choices []string, defaultIndex int) (int, error)
	Secret(message string) (string, error)
}

// Resolver picks the hosting backend and its credential.
type Resolver struct {
	Store     *CredentialStore
	Prompter  Prompter
	Factories map[Platform]Factory

	// BaseURLs overrides the API endpoint per platform.
	BaseURLs map[Platform]string

	Log *console.Logger
}

// Resolve returns a Provider ready for use.
//
// The platform is taken from override when set, else from the cache, else
// asked for. The token is taken from the cache, else asked for. Anything
// asked for is cached for later runs.
func (r *Resolver) Resolve(override Platform) (Provider, error) {
	platform, err := r.platform(override)
	if err != nil {
		return nil, err
	}

	factory, ok := r.Factories[platform]
	if !ok {
		return nil, model.NewCLIError(model.ExitConfigError, fmt.Sprintf("no backend registered for %s", platform))
	}

	token, err := r.token(platform)
	if err != nil {
		return nil, err
	}

	r.Log.Verbose("Using %s (credentials in %s)", platform, r.Store.Dir())
	return factory(token, r.BaseURLs[platform]), nil
}

func (r *Resolver) platform(override Platform) (Platform, error) {
	if override != "" {
		if !override.IsValid() {
			return "", model.NewCLIError(model.ExitConfigError, fmt.Sprintf("unsupported platform: %q", override))
		}
		cached, ok, err := r.Store.Platform()
		if err == nil && ok && cached == override {
			return override, nil
		}
		// A cached token belongs to the previously cached platform.
		if err != nil || ok {
			r.Log.Info("Switching platform to %s; the cached token will be asked for again", override)
			if err := r.Store.ClearToken(); err != nil {
				return "", err
			}
		}
		if err := r.Store.SavePlatform(override); err != nil {
			return "", err
		}
		return override, nil
	}

	cached, ok, err := r.Store.Platform()
	if err != nil {
		return "", err
	}
	if ok {
		return cached, nil
	}

	choices := make([]string, len(Platforms))
	for i, p := range Platforms {
		choices[i] = p.String()
	}
	index, err := r.Prompter.Select("Choose a hosting platform", choices, 0)
	if err != nil {
		return "", fmt.Errorf("platform selection failed: %w", err)
	}
	if index < 0 || index >= len(Platforms) {
		return "", fmt.Errorf("platform selection out of range: %d", index)
	}

	platform := Platforms[index]
	if err := r.Store.SavePlatform(platform); err != nil {
		return "", err
	}
	return platform, nil
}

func (r *Resolver) token(platform Platform) (string, error) {
	cached, ok, err := r.Store.Token()
	if err != nil {
		return "", err
	}
	if ok {
		return cached, nil
	}

	for {
		answer, err := r.Prompter.Secret(fmt.Sprintf("Enter your %s access token", platform))
		if err != nil {
			return "", fmt.Errorf("token prompt failed: %w", err)
		}
		if token := strings.TrimSpace(answer); token != "" {
			if err := r.Store.SaveToken(token); err != nil {
				return "", err
			}
			return token, nil
		}
		r.Log.Warn("Token cannot be empty")
	}
}
