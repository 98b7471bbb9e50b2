// Package config resolves imgprobe settings from command-line flags,
// environment variables, an optional config file, and literal defaults.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvBaseURL is the environment variable for the API base address
	EnvBaseURL = "PROXYCAST_BASE_URL"
	// EnvAPIKey is the environment variable for the API credential
	EnvAPIKey = "PROXYCAST_API_KEY"

	// DefaultBaseURL is the fallback API address
	DefaultBaseURL = "http://localhost:8999"
	// DefaultAPIKey is a placeholder credential for local servers
	DefaultAPIKey = "pc_LXZbIv3o78WpHuQwqgmwC0U4G0cY5UtQ"
	// DefaultPrompt is the sample prompt used by generation checks
	DefaultPrompt = "A cute fluffy cat sitting on a windowsill, looking at the sunset"
)

// ConfigFilenames contains the possible config file names, checked in order
var ConfigFilenames = []string{
	".imgprobe.yaml",
	"imgprobe.yaml",
}

// Config represents optional file-based defaults for the probe
type Config struct {
	BaseURL string `yaml:"baseUrl,omitempty"`
	APIKey  string `yaml:"apiKey,omitempty"`
	Prompt  string `yaml:"prompt,omitempty"`
	Timeout string `yaml:"timeout,omitempty"` // duration string, e.g. "30s"
	NoColor *bool  `yaml:"noColor,omitempty"`
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	if c.NoColor == nil {
		return false
	}
	return *c.NoColor
}

// LoadConfig reads a config file. If path is empty, the well-known filenames
// are tried in the current directory; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		for _, name := range ConfigFilenames {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}

	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDotenv loads a .env file from the working directory into the process
// environment. A missing file is ignored.
func LoadDotenv() {
	_ = godotenv.Load()
}

// LookupFunc reports the value of a named environment variable and whether
// it is set. Injecting it keeps resolution testable without touching the
// process environment.
type LookupFunc func(key string) (string, bool)

// Resolve returns the first present value among an explicit flag value, the
// named environment variable, and a literal fallback. Empty strings count as
// absent.
func Resolve(flagValue string, lookup LookupFunc, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if lookup != nil {
		if val, ok := lookup(envKey); ok && val != "" {
			return val
		}
	}
	return fallback
}

// ResolveChain is Resolve with an extra config-file layer between the
// environment and the literal fallback.
func ResolveChain(flagValue string, lookup LookupFunc, envKey, fileValue, fallback string) string {
	resolved := Resolve(flagValue, lookup, envKey, "")
	if resolved != "" {
		return resolved
	}
	if fileValue != "" {
		return fileValue
	}
	return fallback
}
