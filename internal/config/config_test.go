package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RENTALHUB_CONFIG", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_DefaultsAndGeneratedSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rentalhub")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RENTALHUB_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("COMMISSION_RATE", "")
	t.Setenv("LEASE_REMINDER_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0.05, cfg.Billing.CommissionRate)
	assert.Equal(t, 30, cfg.Jobs.LeaseReminderDays)
	assert.Len(t, cfg.Auth.JWTSecret, 32)
	assert.True(t, cfg.GeneratedJWTSecret)
}

func TestLoad_InvalidIntegerNamesKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rentalhub")
	t.Setenv("JOB_INTERVAL_MINUTES", "hourly")
	t.Setenv("RENTALHUB_CONFIG", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_INTERVAL_MINUTES")
}

func TestLoad_TomlThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rentalhub.toml")
	body := `
port = 9090
database_url = "postgres://toml/rentalhub"

[billing]
commission_rate = 0.08

[jobs]
lease_reminder_days = 14
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("RENTALHUB_CONFIG", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("COMMISSION_RATE", "")
	t.Setenv("LEASE_REMINDER_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "postgres://toml/rentalhub", cfg.DatabaseURL)
	assert.Equal(t, 0.08, cfg.Billing.CommissionRate)
	assert.Equal(t, 14, cfg.Jobs.LeaseReminderDays)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.GeneratedJWTSecret)
}

func TestLoad_CommissionRateBounds(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rentalhub")
	t.Setenv("COMMISSION_RATE", "1.5")
	t.Setenv("RENTALHUB_CONFIG", "")

	_, err := Load()
	assert.Error(t, err)
}
