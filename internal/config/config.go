package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration.
type Config struct {
	General struct {
		DefaultProvider string `koanf:"default_provider"`
	} `koanf:"general"`

	Providers map[string]ProviderConfig `koanf:"providers"`

	Security struct {
		// Extra substring patterns flagged as hardcoded secrets.
		Patterns []string `koanf:"patterns"`
	} `koanf:"security"`

	Style struct {
		// Architectural layers, outermost first, for the boundary check.
		Layers []string `koanf:"layers"`
	} `koanf:"style"`
}

// ProviderConfig holds the connection settings for one diff source.
type ProviderConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`
}

// LoadConfig loads the configuration from a file, falling back to default
// locations and DIFFRISK_-prefixed environment variables. The tool works
// with zero config; every field has a usable default.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"general.default_provider": "github",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./diffrisk.toml", "$HOME/.diffrisk.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// DIFFRISK_PROVIDERS_GITHUB_TOKEN=... overrides providers.github.token
	k.Load(env.Provider("DIFFRISK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DIFFRISK_")), "_", ".", -1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// GITHUB_TOKEN keeps working for the common case.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		gh := config.Providers["github"]
		if gh.Token == "" {
			gh.Token = token
			if config.Providers == nil {
				config.Providers = map[string]ProviderConfig{}
			}
			config.Providers["github"] = gh
		}
	}

	return &config, nil
}

// InitConfig writes a sample configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# diffrisk configuration

[general]
default_provider = "github"

[providers.github]
token = "your-github-token"

[providers.gitlab]
url = "https://gitlab.example.com"
token = "your-gitlab-token"

[security]
# Extra substring patterns flagged as hardcoded secrets.
patterns = []

[style]
# Architectural layers, outermost first, e.g. ["api", "domain", "infra"].
layers = []
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate checks that the configured default provider has what it needs to
// fetch changes. Local-diff and mock runs never hit this path.
func Validate(config *Config) error {
	if config.General.DefaultProvider == "" {
		return fmt.Errorf("default provider is required")
	}

	providerConfig, ok := config.Providers[config.General.DefaultProvider]
	if !ok {
		return fmt.Errorf("configuration for provider %s not found", config.General.DefaultProvider)
	}

	switch config.General.DefaultProvider {
	case "github":
		if providerConfig.Token == "" {
			return fmt.Errorf("github token is required")
		}
	case "gitlab":
		if providerConfig.URL == "" {
			return fmt.Errorf("gitlab url is required")
		}
		if providerConfig.Token == "" {
			return fmt.Errorf("gitlab token is required")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", config.General.DefaultProvider)
	}

	return nil
}
