package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radiolabme/hamlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := writeConfig(t, `
certificate = "certs/w1aw.p12"
callsign = " w1aw "
log_level = "debug"
expiry_policy = "strict"
ca_bundle = "/etc/hamlog/roots.tq6"
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	require.Equal(t, filepath.Join(dir, "certs", "w1aw.p12"), cfg.Certificate)
	require.Equal(t, "W1AW", cfg.Callsign)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, hamlog.ExpiryPolicyStrict, cfg.ExpiryPolicy)
	require.Equal(t, "/etc/hamlog/roots.tq6", cfg.CABundle)

	// Keys absent from the file keep their defaults.
	require.Equal(t, defaultConfig().PasswordEnv, cfg.PasswordEnv)
	require.Empty(t, cfg.KeyFile)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("explicit missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	tests := map[string]string{
		"unknown key":    `certficate = "typo.p12"`,
		"bad policy":     `expiry_policy = "whenever"`,
		"bad log level":  `log_level = "loud"`,
		"invalid syntax": `certificate = `,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestConfigOverride(t *testing.T) {
	cfg := defaultConfig()
	cfg.Certificate = "/from/file.p12"
	cfg.Callsign = "W1AW"

	cfg.override("/from/flag.pem", "/from/flag.key", "")
	require.Equal(t, "/from/flag.pem", cfg.Certificate)
	require.Equal(t, "/from/flag.key", cfg.KeyFile)
	require.Equal(t, "W1AW", cfg.Callsign)

	cfg.override("", "", "k1abc")
	require.Equal(t, "K1ABC", cfg.Callsign)
}

func TestLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelWarn, logLevel(0, slog.LevelWarn))
	require.Equal(t, slog.LevelInfo, logLevel(1, slog.LevelWarn))
	require.Equal(t, slog.LevelDebug, logLevel(1, slog.LevelDebug))
	require.Equal(t, slog.LevelDebug, logLevel(2, slog.LevelError))
}
