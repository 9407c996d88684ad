package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadChat_AllSet(t *testing.T) {
	s, err := LoadChat(mapLookup(map[string]string{
		EnvProjectEndpoint: "https://res.services.ai.azure.com/api/projects/demo",
		EnvModelDeployment: "gpt-4o",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://res.services.ai.azure.com/api/projects/demo", s.Endpoint)
	assert.Equal(t, "gpt-4o", s.Deployment)
	assert.Equal(t, DefaultChatAPIVersion, s.APIVersion)
}

func TestLoadChat_APIVersionOverride(t *testing.T) {
	s, err := LoadChat(mapLookup(map[string]string{
		EnvProjectEndpoint: "https://x",
		EnvModelDeployment: "m",
		EnvChatAPIVersion:  "2025-01-01-preview",
	}))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01-preview", s.APIVersion)
}

func TestLoadChat_MissingNamesEveryVariable(t *testing.T) {
	_, err := LoadChat(mapLookup(map[string]string{EnvModelDeployment: "   "}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingConfig))

	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{EnvProjectEndpoint, EnvModelDeployment}, missing.Names)
	assert.Contains(t, err.Error(), EnvProjectEndpoint)
}

func TestLoadImage(t *testing.T) {
	_, err := LoadImage(mapLookup(map[string]string{
		EnvImageEndpoint:   "https://res.openai.azure.com",
		EnvImageDeployment: "dall-e-3",
	}))
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{EnvImageAPIVersion}, missing.Names)

	s, err := LoadImage(mapLookup(map[string]string{
		EnvImageEndpoint:   "https://res.openai.azure.com",
		EnvImageDeployment: "dall-e-3",
		EnvImageAPIVersion: "2024-02-01",
		EnvImageBlobURL:    "https://acct.blob.core.windows.net/images",
	}))
	require.NoError(t, err)
	assert.Equal(t, "dall-e-3", s.Deployment)
	assert.Equal(t, "https://acct.blob.core.windows.net/images", s.BlobContainerURL)
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEVELUP_TEST_A=file\nLEVELUP_TEST_B=file\n"), 0o644))
	t.Setenv("LEVELUP_TEST_A", "env")
	t.Setenv("LEVELUP_TEST_B", "")
	require.NoError(t, os.Unsetenv("LEVELUP_TEST_B"))

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "env", os.Getenv("LEVELUP_TEST_A"))
	assert.Equal(t, "file", os.Getenv("LEVELUP_TEST_B"))
	t.Cleanup(func() { os.Unsetenv("LEVELUP_TEST_B") }) //nolint:errcheck
}
