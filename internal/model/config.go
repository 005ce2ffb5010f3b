package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds the remote HR API settings.
type APIConfig struct {
	// BaseURL is the root URL of the HR API (e.g., https://hr.example.com/api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every remote call. A timeout resolves as a
	// network failure.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationConfig holds the notification bridge settings.
type NotificationConfig struct {
	DedupeWindowMs int `mapstructure:"dedupe_window_ms" yaml:"dedupe_window_ms"`
	Buffer         int `mapstructure:"buffer" yaml:"buffer"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	PerPage int `mapstructure:"per_page" yaml:"per_page"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
}

// DataConfig locates local state.
type DataConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig          `mapstructure:"api" yaml:"api"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Display       DisplayConfig      `mapstructure:"display" yaml:"display"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`
	Data          DataConfig         `mapstructure:"data" yaml:"data"`
}

// RequestTimeout returns the API timeout as a duration.
func (c *AppConfig) RequestTimeout() time.Duration {
	if c.API.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// DedupeWindow returns the notification dedupe window as a duration.
func (c *AppConfig) DedupeWindow() time.Duration {
	if c.Notifications.DedupeWindowMs <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(c.Notifications.DedupeWindowMs) * time.Millisecond
}

// Validate reports configuration that would make the console unusable.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url %q must start with http:// or https://", c.API.BaseURL)
	}
	return nil
}

// ConfigDir returns ~/.config/hrconsole, falling back to the working
// directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "hrconsole")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/hrconsole/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8000/api",
			TimeoutSec: 30,
		},
		Notifications: NotificationConfig{
			DedupeWindowMs: 1500,
			Buffer:         32,
		},
		Display: DisplayConfig{
			PerPage: 15,
		},
		Log: LogConfig{
			File: filepath.Join(dir, "hrconsole.log"),
		},
		Data: DataConfig{
			DBPath: filepath.Join(dir, "hrconsole.db"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("notifications.dedupe_window_ms", d.Notifications.DedupeWindowMs)
	v.SetDefault("notifications.buffer", d.Notifications.Buffer)
	v.SetDefault("display.per_page", d.Display.PerPage)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("data.db_path", d.Data.DBPath)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// HRCONSOLE_* environment variables override file values (for example
// HRCONSOLE_API_BASE_URL). If the file does not exist, defaults apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("hrconsole")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Display.PerPage <= 0 {
		cfg.Display.PerPage = 15
	}
	if cfg.Notifications.Buffer <= 0 {
		cfg.Notifications.Buffer = 32
	}

	return cfg, nil
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
	v.Set("notifications", cfg.Notifications)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("data", cfg.Data)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
