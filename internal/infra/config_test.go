package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/api/monitoring", cfg.Backend.MonitoringPath)
	assert.Equal(t, "/api", cfg.Backend.APIPath)
	assert.Equal(t, 30*time.Second, cfg.Polling.AgentsInterval)
	assert.Equal(t, 60*time.Second, cfg.Polling.StatisticsInterval)
	assert.Equal(t, 2*time.Second, cfg.Polling.HealthCheckRefreshDelay)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, uint(3), cfg.Engine.RetryAttempts)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9000
backend:
  base_url: http://monitoring:8086
polling:
  approvals_interval: 15s
redis:
  addr: redis:6379
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("LOGGER_LEVEL", "debug")

	cfg, err := loadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "http://monitoring:8086", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Polling.ApprovalsInterval)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfigRejectsBadInterval(t *testing.T) {
	t.Setenv("POLLING_AGENTS_INTERVAL", "0s")
	_, err := loadConfig(t.TempDir())
	assert.ErrorContains(t, err, "polling.agents_interval")
}

func TestLoadConfigRejectsOversizedAuditBatch(t *testing.T) {
	t.Setenv("ENGINE_AUDIT_BATCH_SIZE", "6554")
	_, err := loadConfig(t.TempDir())
	assert.ErrorContains(t, err, "engine.audit_batch_size")

	t.Setenv("ENGINE_AUDIT_BATCH_SIZE", "6553")
	cfg, err := loadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, MaxAuditBatchSize, cfg.Engine.AuditBatchSize)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [oops"), 0o600))
	_, err := loadConfig(dir)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LoggerConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
	_, err = NewLogger(LoggerConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
