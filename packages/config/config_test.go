package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		val, ok := env[key]
		return val, ok
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		flagValue string
		env       map[string]string
		fallback  string
		expected  string
	}{
		{
			name:      "flag wins over everything",
			flagValue: "http://flag:1234",
			env:       map[string]string{EnvBaseURL: "http://env:5678"},
			fallback:  "http://default:8999",
			expected:  "http://flag:1234",
		},
		{
			name:     "env wins over fallback",
			env:      map[string]string{EnvBaseURL: "http://env:5678"},
			fallback: "http://default:8999",
			expected: "http://env:5678",
		},
		{
			name:     "fallback when nothing set",
			fallback: "http://default:8999",
			expected: "http://default:8999",
		},
		{
			name:     "empty env value treated as absent",
			env:      map[string]string{EnvBaseURL: ""},
			fallback: "http://default:8999",
			expected: "http://default:8999",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.flagValue, lookupFrom(tt.env), EnvBaseURL, tt.fallback)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolve_NilLookup(t *testing.T) {
	assert.Equal(t, "fallback", Resolve("", nil, EnvAPIKey, "fallback"))
}

func TestResolveChain(t *testing.T) {
	env := map[string]string{}

	// file value sits between env and fallback
	assert.Equal(t, "http://file:9000",
		ResolveChain("", lookupFrom(env), EnvBaseURL, "http://file:9000", "http://default:8999"))

	// env still beats the file value
	env[EnvBaseURL] = "http://env:5678"
	assert.Equal(t, "http://env:5678",
		ResolveChain("", lookupFrom(env), EnvBaseURL, "http://file:9000", "http://default:8999"))

	// fallback when every layer is empty
	assert.Equal(t, "http://default:8999",
		ResolveChain("", lookupFrom(map[string]string{}), EnvBaseURL, "", "http://default:8999"))
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "imgprobe.yaml")

	content := []byte("baseUrl: http://localhost:9999\napiKey: pc_test\nprompt: a red circle\nnoColor: true\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, "pc_test", cfg.APIKey)
	assert.Equal(t, "a red circle", cfg.Prompt)
	assert.True(t, cfg.GetNoColor())
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseUrl: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
