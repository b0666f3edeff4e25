package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
account: quantfoundry
repo: model-registry
registryRoot: models
branch: registry
tokenEnv: CUSTOM_TOKEN
`)

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "quantfoundry", cfg.Account)
	assert.Equal(t, "model-registry", cfg.Repo)
	assert.Equal(t, "models", cfg.RegistryRoot)
	assert.Equal(t, "registry", cfg.Branch)
	assert.Equal(t, "CUSTOM_TOKEN", cfg.TokenEnv)
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
account: quantfoundry
repo: model-registry
`)

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, DefaultBranch, cfg.Branch)
	assert.Equal(t, DefaultTokenEnv, cfg.TokenEnv)
	assert.Empty(t, cfg.RegistryRoot)
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing account", content: "repo: r\n"},
		{name: "missing repo", content: "account: a\n"},
		{name: "invalid yaml", content: "account: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(WithConfigPath(writeConfig(t, tt.content)))
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresSource(t *testing.T) {
	t.Parallel()

	_, err := Load()
	assert.Error(t, err)
}

func TestWithConfigPathMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	cfg := &Config{TokenEnv: "MLGIT_TEST_TOKEN"}
	t.Setenv("MLGIT_TEST_TOKEN", "secret")

	assert.Equal(t, "secret", cfg.Token())
}
