package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBudgets(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, 25*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 7, cfg.LookaheadDays)
	assert.Equal(t, "nl-NL", cfg.Catalog.Language)
	assert.Equal(t, "NL", cfg.Catalog.Region)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "directory:\n  base_url: https://api.example.test\n  timeout: 5s\nlookahead_days: 14\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("AUTOMATION_API_KEY", "secret")
	t.Setenv("MEMORY_API_URL", "https://memory.example.test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test", cfg.Directory.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, 14, cfg.LookaheadDays)
	assert.Equal(t, "secret", cfg.Automation.APIKey)
	assert.Equal(t, "https://memory.example.test", cfg.Memory.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresDirectory(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())
}
