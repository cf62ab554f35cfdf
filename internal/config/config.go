package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentx-labs/aipkg/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys understood by Current.
const (
	KeyIDE         = "ide"
	KeyStrategy    = "strategy"
	KeyScope       = "scope"
	KeyLockTimeout = "lock_timeout"
	KeyCacheDir    = "cache_dir"
)

// DefaultLockTimeout bounds how long an invocation waits for a ledger lock.
const DefaultLockTimeout = 10 * time.Second

// Settings is the typed view of the configuration used by the commands.
type Settings struct {
	IDE         string
	Strategy    string
	Scope       string
	LockTimeout time.Duration
	CacheDir    string
}

// Dir returns the path to the config directory (~/.aipkg/).
// AIPKG_HOME overrides the location.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.aipkg/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyIDE, "claude-code")
	viper.SetDefault(KeyStrategy, "skip")
	viper.SetDefault(KeyScope, "project")
	viper.SetDefault(KeyLockTimeout, DefaultLockTimeout)
	viper.SetDefault(KeyCacheDir, filepath.Join(Dir(), "cache"))

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current returns the effective settings after Load.
func Current() Settings {
	timeout := viper.GetDuration(KeyLockTimeout)
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return Settings{
		IDE:         viper.GetString(KeyIDE),
		Strategy:    viper.GetString(KeyStrategy),
		Scope:       viper.GetString(KeyScope),
		LockTimeout: timeout,
		CacheDir:    viper.GetString(KeyCacheDir),
	}
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
