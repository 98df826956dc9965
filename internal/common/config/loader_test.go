package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "app:\n  environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "admission-checker", cfg.App.Name)
	assert.Equal(t, ":5000", cfg.Server.Address)
	assert.Equal(t, 300000, cfg.Server.RequestTimeout)
	assert.Equal(t, 30000, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 3, cfg.Browser.LocatorAttempts)
	assert.Equal(t, 2000, cfg.Browser.OptionalTimeout)
	assert.Equal(t, "./cache", cfg.Cache.Directory)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Len(t, cfg.Fallback.Tiers, 4)
	assert.Equal(t, 700, cfg.Fallback.Tiers["high"].Cutoff)
}

func TestLoadFromFile_Sections(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "localhost:6390")

	cfg, err := LoadFromFile(writeConfig(t, `
server:
  university_ports:
    ben-gurion: 3001
    tel-aviv: 3004
browser:
  executable_path: ${ADMISSION_TEST_UNSET_CHROME}
  typing_delay: 120
database:
  redis:
    enabled: true
    address: ${REDIS_ADDRESS}
camunda:
  timeout: 60000
workers:
  admission-check-tel-aviv:
    enabled: true
    max_jobs_active: 2
fallback:
  tiers:
    high:
      cutoff: 710
      degrees: [רפואה]
`))
	require.NoError(t, err)

	assert.Equal(t, 3004, cfg.Server.UniversityPorts[UniversityTelAviv])
	assert.Equal(t, 120, cfg.Browser.TypingDelay)
	assert.Empty(t, cfg.Browser.ExecutablePath)
	assert.Equal(t, "localhost:6390", cfg.Database.Redis.Address)
	assert.Equal(t, []string{"רפואה"}, cfg.Fallback.Tiers["high"].Degrees)

	wcfg := GetWorkerConfig(cfg, "admission-check-tel-aviv")
	assert.Equal(t, 2, wcfg.MaxJobsActive)
	assert.Equal(t, 60000, wcfg.Timeout)
	assert.Equal(t, 2, wcfg.MaxRetries)

	fallback := GetWorkerConfig(cfg, "admission-check-technion")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 1, fallback.MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "admission-check-technion"))
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "camunda without broker",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "redis without address",
			body:    "database:\n  redis:\n    enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "postgres without host",
			body:    "database:\n  postgres:\n    enabled: true\n    database: admissions\n    user: app\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "tier cutoff out of range",
			body:    "fallback:\n  tiers:\n    high:\n      cutoff: 900\n",
			wantErr: "fallback.tiers.high.cutoff",
		},
		{
			name:    "bad port",
			body:    "server:\n  university_ports:\n    technion: 70000\n",
			wantErr: "server.university_ports.technion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REDIS_ADDRESS", "")
			t.Setenv("ZEEBE_ADDRESS", "")
			t.Setenv("DB_USER", "")

			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
