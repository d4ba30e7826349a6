// Copyright (c) 2026 ToeiRei
// sshlure - SSH credential-capture honeypot
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/sshlure/internal/i18n"
)

// Config is the complete runtime configuration. It is read once at startup
// and treated as immutable afterwards.
type Config struct {
	Listen            string        `mapstructure:"listen" yaml:"listen"`
	ExternalPort      int           `mapstructure:"external_port" yaml:"external_port"`
	HostKeys          []string      `mapstructure:"host_keys" yaml:"host_keys"`
	ServerVersion     string        `mapstructure:"server_version" yaml:"server_version"`
	MaxAuthTries      int           `mapstructure:"max_auth_tries" yaml:"max_auth_tries"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	RejectionDelay    time.Duration `mapstructure:"rejection_delay" yaml:"rejection_delay"`
	PersistTimeout    time.Duration `mapstructure:"persist_timeout" yaml:"persist_timeout"`
	Language          string        `mapstructure:"language" yaml:"language"`

	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`

	Metrics struct {
		Listen string `mapstructure:"listen" yaml:"listen"`
	} `mapstructure:"metrics" yaml:"metrics"`

	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`
}

// Defaults returns the default values keyed the way viper expects them.
func Defaults() map[string]any {
	return map[string]any{
		"listen":             "0.0.0.0:2222",
		"external_port":      2222,
		"host_keys":          []string{"./id_ed25519", "./id_rsa"},
		"server_version":     "SSH-2.0-OpenSSH_9.0",
		"max_auth_tries":     5000,
		"connection_timeout": 600 * time.Second,
		"rejection_delay":    time.Second,
		"persist_timeout":    5 * time.Second,
		"language":           "en",
		"database.type":      "sqlite",
		"database.dsn":       "./sshlure.db",
		"metrics.listen":     "",
		"log.level":          "info",
		"log.format":         "text",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "sshlure")
		default:
			configDir = "/etc/sshlure"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "sshlure")
	}

	return filepath.Join(configDir, "sshlure.yaml"), nil
}

// LoadConfig layers defaults, the first sshlure.yaml found (or the explicit
// file), SSHLURE_* environment variables and the flags of cmd, in that order
// of increasing precedence.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("sshlure")
	v.SetConfigType("yaml")

	// An explicit --config file wins over the search paths.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, the defaults are complete.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.SetEnvPrefix("sshlure")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// Load is LoadConfig for the honeypot's own Config, followed by the legacy
// environment overrides and validation.
func Load(cmd *cobra.Command, configFile *string) (Config, error) {
	c, err := LoadConfig[Config](cmd, Defaults(), configFile)
	if err != nil {
		return c, err
	}
	if err := ApplyLegacyEnv(&c, os.LookupEnv); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// ApplyLegacyEnv honours the variable names used by earlier container
// deployments: EXTERNAL_PORT, and DB_HOST/DB_USERNAME/DB_PASSWORD which
// select a postgres database named ssh_honeypot. SSHLURE_* variables take
// precedence when both are set.
func ApplyLegacyEnv(c *Config, lookup func(string) (string, bool)) error {
	if _, ok := lookup("SSHLURE_EXTERNAL_PORT"); !ok {
		if raw, ok := lookup("EXTERNAL_PORT"); ok && strings.TrimSpace(raw) != "" {
			port, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("invalid EXTERNAL_PORT %q: %w", raw, err)
			}
			c.ExternalPort = port
		}
	}

	if _, ok := lookup("SSHLURE_DATABASE_DSN"); ok {
		return nil
	}
	host, ok := lookup("DB_HOST")
	if !ok || strings.TrimSpace(host) == "" {
		return nil
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   strings.TrimSpace(host),
		Path:   "/ssh_honeypot",
	}
	user, _ := lookup("DB_USERNAME")
	pass, hasPass := lookup("DB_PASSWORD")
	if user != "" {
		if hasPass {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}
	c.Database.Type = "postgres"
	c.Database.Dsn = u.String()
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.ExternalPort < 1 || c.ExternalPort > 65535 {
		return fmt.Errorf("external_port must be between 1 and 65535, got %d", c.ExternalPort)
	}
	if len(c.HostKeys) == 0 {
		return fmt.Errorf("at least one host key path is required")
	}
	if !strings.HasPrefix(c.ServerVersion, "SSH-2.0-") {
		return fmt.Errorf("server_version must start with SSH-2.0-, got %q", c.ServerVersion)
	}
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Database.Dsn == "" {
		return fmt.Errorf("database dsn must not be empty")
	}
	if _, ok := i18n.AvailableLocales()[c.Language]; !ok {
		return fmt.Errorf("unsupported language %q (available: %s)", c.Language, strings.Join(i18n.LocaleTags(), ", "))
	}
	if c.ConnectionTimeout < 0 || c.RejectionDelay < 0 || c.PersistTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}
	return path, WriteConfigFileTo(c, path)
}

// WriteConfigFileTo writes c as YAML to path, creating parent directories.
func WriteConfigFileTo[T any](c *T, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the dsn may carry database credentials.
	return os.WriteFile(path, data, 0600)
}
