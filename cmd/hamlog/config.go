package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/radiolabme/hamlog"
)

// config.toml key mapping to runtime settings.
type fileConfig struct {
	Certificate  string `toml:"certificate"`
	PasswordEnv  string `toml:"password_env"`
	KeyFile      string `toml:"key_file"`
	Callsign     string `toml:"callsign"`
	CABundle     string `toml:"ca_bundle"`
	LogLevel     string `toml:"log_level"`
	ExpiryPolicy string `toml:"expiry_policy"`
}

type config struct {
	// Certificate is a PKCS#12 (.p12, .pfx) or PEM certificate file.
	Certificate string
	// PasswordEnv names the environment variable holding the PKCS#12 password.
	PasswordEnv string
	// KeyFile is the private key for a PEM certificate: either PEM or a
	// TQSL key file.
	KeyFile  string
	Callsign string
	// CABundle is a TQ6 or PEM bundle of trusted CA certificates. Chain
	// verification is skipped without one.
	CABundle     string
	LogLevel     slog.Level
	ExpiryPolicy hamlog.ExpiryPolicy
}

func defaultConfig() config {
	return config{
		PasswordEnv:  "HAMLOG_P12_PASSWORD",
		LogLevel:     slog.LevelWarn,
		ExpiryPolicy: hamlog.ExpiryPolicyIgnoreCA,
	}
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hamlog", "config.toml"), nil
}

// loadConfig overlays the TOML file at path onto the defaults. An empty
// path means the default location, which may be absent.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return config{}, fmt.Errorf("load hamlog config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load hamlog config: unknown key %q", undecoded[0].String())
	}

	base := filepath.Dir(path)
	if meta.IsDefined("certificate") {
		cfg.Certificate = resolvePath(base, raw.Certificate)
	}
	if meta.IsDefined("password_env") {
		cfg.PasswordEnv = strings.TrimSpace(raw.PasswordEnv)
	}
	if meta.IsDefined("key_file") {
		cfg.KeyFile = resolvePath(base, raw.KeyFile)
	}
	if meta.IsDefined("callsign") {
		cfg.Callsign = strings.ToUpper(strings.TrimSpace(raw.Callsign))
	}
	if meta.IsDefined("ca_bundle") {
		cfg.CABundle = resolvePath(base, raw.CABundle)
	}
	if meta.IsDefined("log_level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(raw.LogLevel))); err != nil {
			return config{}, fmt.Errorf("load hamlog config: log_level: %w", err)
		}
	}
	if meta.IsDefined("expiry_policy") {
		policy, err := hamlog.ParseExpiryPolicy(strings.TrimSpace(raw.ExpiryPolicy))
		if err != nil {
			return config{}, fmt.Errorf("load hamlog config: expiry_policy: %w", err)
		}
		cfg.ExpiryPolicy = policy
	}
	return cfg, nil
}

// override applies command line flags, which win over the file.
func (c *config) override(certificate, keyFile, callsign string) {
	if certificate != "" {
		c.Certificate = certificate
	}
	if keyFile != "" {
		c.KeyFile = keyFile
	}
	if callsign != "" {
		c.Callsign = strings.ToUpper(callsign)
	}
}

// resolvePath makes relative paths in the config file relative to the
// file's directory.
func resolvePath(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return filepath.Join(base, p)
}
