package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(strings.ToUpper(key), "")
		os.Unsetenv(strings.ToUpper(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "motreport", cfg.S3.Bucket)
	assert.True(t, cfg.S3.UseSSL)
	assert.False(t, cfg.S3.Enabled())

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MOT_API_KEY")
	assert.Contains(t, err.Error(), "VES_API_KEY")
}

func TestLoadEnvFileAndOverrides(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "MOT_API_KEY=file-mot\nMOT_AUTHORIZATION_KEY=file-auth\nVES_API_KEY=file-ves\nPORT=9000\nHTTP_TIMEOUT=5s\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("S3_ENDPOINT", "localhost:9000")
	t.Setenv("S3_USE_SSL", "false")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "file-mot", cfg.MOTAPIKey)
	assert.Equal(t, "file-auth", cfg.MOTAuthorizationKey)
	assert.Equal(t, "file-ves", cfg.VESAPIKey)
	assert.Equal(t, "9100", cfg.Port, "environment wins over the file")
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.S3.Enabled())
	assert.False(t, cfg.S3.UseSSL)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_ACCESS_KEY_ID")
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOT_API_KEY", "a")
	t.Setenv("MOT_AUTHORIZATION_KEY", "b")
	t.Setenv("VES_API_KEY", "c")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
