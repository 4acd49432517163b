package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("BLOB_BUCKET", "blobs")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NatsURL)
	assert.Equal(t, 3100, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultHarvest(), cfg.Harvest)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("BLOB_BUCKET", "blobs")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestDefaultHarvest(t *testing.T) {
	h := DefaultHarvest()

	assert.Equal(t, 5, h.PostCap)
	assert.Equal(t, 50, h.ScanLimit)
	assert.Equal(t, 10, h.MediaCap)
	assert.Equal(t, 10, h.PaceMinSeconds)
	assert.Equal(t, 15, h.PaceMaxSeconds)
	assert.Equal(t, 60, h.InputTimeoutSec)
}

func TestLoad_HarvestOverrides(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "harvest.yaml")
	content := "post_cap: 3\nscan_limit: 20\npace_min_seconds: 1\npace_max_seconds: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("HARVEST_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Harvest.PostCap)
	assert.Equal(t, 20, cfg.Harvest.ScanLimit)
	assert.Equal(t, 1, cfg.Harvest.PaceMinSeconds)
	// untouched keys keep defaults
	assert.Equal(t, 10, cfg.Harvest.MediaCap)
	assert.Equal(t, 60, cfg.Harvest.InputTimeoutSec)
}

func TestValidate_PaceBounds(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "harvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pace_min_seconds: 9\npace_max_seconds: 3\n"), 0644))
	t.Setenv("HARVEST_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pace_min_seconds")
}
