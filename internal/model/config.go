package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultAPIURL is the Atlassian GraphQL gateway endpoint.
const DefaultAPIURL = "https://team.atlassian.net/gateway/api/graphql"

// APIConfig holds settings for the GraphQL client.
type APIConfig struct {
	// URL is the GraphQL endpoint.
	URL string `mapstructure:"url" yaml:"url"`

	// TimeoutSec bounds each request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// PageSize is the number of notifications requested per account.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`
}

// PollConfig controls the background poller.
type PollConfig struct {
	// IntervalSec is how often (in seconds) all accounts are fetched.
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// StorageConfig locates the persisted state database and credentials.
type StorageConfig struct {
	DBPath         string `mapstructure:"db_path" yaml:"db_path"`
	CredentialsDir string `mapstructure:"credentials_dir" yaml:"credentials_dir"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/atlassify, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "atlassify")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			URL:        DefaultAPIURL,
			TimeoutSec: 30,
			PageSize:   50,
		},
		Poll: PollConfig{IntervalSec: 60},
		Storage: StorageConfig{
			DBPath:         filepath.Join(dir, "atlassify.db"),
			CredentialsDir: filepath.Join(dir, "credentials"),
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			File:       filepath.Join(dir, "logs", "atlassify.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

func newViper(path string) *viper.Viper {
	d := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("atlassify")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("api.page_size", d.API.PageSize)
	v.SetDefault("poll.interval_sec", d.Poll.IntervalSec)
	v.SetDefault("storage.db_path", d.Storage.DBPath)
	v.SetDefault("storage.credentials_dir", d.Storage.CredentialsDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus ATLASSIFY_* environment
// overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return decode(v, path)
}

// WatchConfig reloads the configuration whenever the file changes and
// hands the new value to onChange. Reload failures are passed as err.
func WatchConfig(path string, onChange func(cfg *AppConfig, err error)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v, e.Name))
	})
	v.WatchConfig()
	return nil
}

func decode(v *viper.Viper, path string) (*AppConfig, error) {
	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Poll.IntervalSec <= 0 {
		cfg.Poll.IntervalSec = 60
	}
	if cfg.API.PageSize <= 0 {
		cfg.API.PageSize = 50
	}
	return cfg, nil
}

func isNotFound(err error) bool {
	if _, ok := err.(*os.PathError); ok {
		return true
	}
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("poll", cfg.Poll)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
