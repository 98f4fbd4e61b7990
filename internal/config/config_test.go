package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "SPMS API", cfg.AppName)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "https://codeforces.com/api", cfg.CodeforcesBaseURL)
	require.Equal(t, 4, cfg.SyncConcurrency)
	require.Equal(t, 2, cfg.SyncHourUTC)
	require.Equal(t, 7, cfg.InactivityThresholdDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPMS_APP_PORT", "9090")
	t.Setenv("SPMS_SYNC_CONCURRENCY", "8")
	t.Setenv("SPMS_INACTIVITY_THRESHOLD_DAYS", "14")
	t.Setenv("SPMS_SMTP_USER", "bot@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.AppPort)
	require.Equal(t, 8, cfg.SyncConcurrency)
	require.Equal(t, 14, cfg.InactivityThresholdDays)
	require.Equal(t, "bot@example.com", cfg.FromEmail, "from address falls back to the smtp user")
}

func TestLoadRejectsInvalidSyncHour(t *testing.T) {
	t.Setenv("SPMS_SYNC_HOUR_UTC", "25")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddress(t *testing.T) {
	require.Equal(t, ":8080", Config{AppPort: "8080"}.HTTPAddress())
	require.Equal(t, ":9090", Config{AppPort: ":9090"}.HTTPAddress())
}
