package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shelfdesk/shelfdesk/internal/log"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging log.Config    `mapstructure:"logging"`
}

// APIConfig holds the remote catalog endpoint configuration.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"` // REST API root, e.g. https://localhost:5056/api
}

// StorageConfig holds the local store configuration.
type StorageConfig struct {
	Dir string `mapstructure:"dir"` // Directory holding the persisted store
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "",
		},
		Storage: StorageConfig{
			Dir: defaultDataPath(),
		},
		Logging: log.Config{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// HasRemote reports whether a remote endpoint is configured. Without one
// the default backend mode is local.
func (c *Config) HasRemote() bool {
	return c.API.BaseURL != ""
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelfdesk", "shelfdesk.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelfdesk", "shelfdesk.log")
	}
}

// defaultDataPath returns the default store directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shelfdesk")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelfdesk")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelfdesk")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shelfdesk")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("SHELFDESK")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("api.base_url", cfg.API.BaseURL)
	viper.Set("storage.dir", cfg.Storage.Dir)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
