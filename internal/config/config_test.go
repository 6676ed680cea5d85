package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeBase(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(content), 0o644))
	return dir
}

func TestLoadSchedulerDefaults(t *testing.T) {
	dir := writeBase(t, "server:\n  port: \"8080\"\n")
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("CONFIG_ENV", "local")

	cfg := Load()
	require.Equal(t, 60, cfg.Scheduler.ScanIntervalSeconds)
	require.Equal(t, 100, cfg.Scheduler.OutreachBatchSize)
	require.Equal(t, 100, cfg.Scheduler.DeferredReleaseBatch)
}

func TestLoadSchedulerOverrides(t *testing.T) {
	dir := writeBase(t, `
scheduler:
  scan_interval_seconds: 30
  outreach_batch_size: 25
  deferred_release_batch: 10
`)
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("CONFIG_ENV", "local")

	cfg := Load()
	require.Equal(t, 30, cfg.Scheduler.ScanIntervalSeconds)
	require.Equal(t, 25, cfg.Scheduler.OutreachBatchSize)
	require.Equal(t, 10, cfg.Scheduler.DeferredReleaseBatch)
}
