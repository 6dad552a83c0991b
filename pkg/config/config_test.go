package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100, cfg.Timeline.BatchSize)
	assert.Equal(t, 10000, cfg.Timeline.PostLimit)
	assert.Equal(t, time.Second, cfg.Timeline.PostRetryInterval)
	assert.Equal(t, 60*time.Second, cfg.Timeline.PostRetryMaxInterval)
	assert.Equal(t, 30*time.Second, cfg.Timeline.ShutdownWaitTime)
	assert.True(t, cfg.Timeline.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestPostQueueCapIsBatchSizePlusPostLimit(t *testing.T) {
	cfg := Default()
	cfg.Timeline.BatchSize = 50
	cfg.Timeline.PostLimit = 500

	assert.Equal(t, 550, cfg.PostQueueCap())
}

func TestLoadWithEmptyPathReturnsValidatedDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atsbridge.yaml")
	yaml := `
timeline:
  batch_size: 25
  server_addr: "http://history:8188/ws/v1/timeline"
  v15_enabled: true
acls:
  enabled: true
  admin: ["alice"]
extension:
  services: ["session-tracker"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Timeline.BatchSize)
	assert.Equal(t, "http://history:8188/ws/v1/timeline", cfg.Timeline.ServerAddr)
	assert.True(t, cfg.Timeline.V15Enabled)
	assert.True(t, cfg.ACLs.Enabled)
	assert.Equal(t, []string{"alice"}, cfg.ACLs.Admin)
	assert.Equal(t, []string{"session-tracker"}, cfg.Extension.Services)
	// fields not present in the manifest retain their defaults
	assert.Equal(t, 10000, cfg.Timeline.PostLimit)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeline: [this is not a map]"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateRejectsNonPositiveBatchSize(t *testing.T) {
	cfg := Default()
	cfg.Timeline.BatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg.Timeline.BatchSize = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativePostLimit(t *testing.T) {
	cfg := Default()
	cfg.Timeline.PostLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateAllowsZeroRetryInterval(t *testing.T) {
	cfg := Default()
	cfg.Timeline.PostRetryInterval = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNegativeRetryInterval(t *testing.T) {
	cfg := Default()
	cfg.Timeline.PostRetryInterval = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveRetryMaxInterval(t *testing.T) {
	cfg := Default()
	cfg.Timeline.PostRetryMaxInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveShutdownWaitTime(t *testing.T) {
	cfg := Default()
	cfg.Timeline.ShutdownWaitTime = 0
	assert.Error(t, cfg.Validate())
}
