package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Application name used for config, data and env prefixes
const AppName = "installer-intel"

// Config represents the application configuration
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	MSI      MSIConfig      `mapstructure:"msi"`
	Output   OutputConfig   `mapstructure:"output"`
	History  HistoryConfig  `mapstructure:"history"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// AnalysisConfig bounds the string extraction of EXE installers
type AnalysisConfig struct {
	MinStringLength int `mapstructure:"min_string_length"`
	MaxStrings      int `mapstructure:"max_strings"`
}

// MSIConfig selects the MSI property reader
type MSIConfig struct {
	Reader string `mapstructure:"reader"`
}

// OutputConfig controls where and how plans are written
type OutputConfig struct {
	DefaultPath string `mapstructure:"default_path"`
	Format      string `mapstructure:"format"`
}

// HistoryConfig controls the analysis history database
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	return LoadWith(viper.New(), "")
}

// LoadWith loads configuration into v. When configFile is set it is read
// instead of searching the standard locations.
func LoadWith(v *viper.Viper, configFile string) (*Config, error) {
	v.SetConfigType("toml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", AppName))
		}
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// INSTALLER_INTEL_LOGGING_LEVEL overrides logging.level
	v.SetEnvPrefix("INSTALLER_INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)
	cfg.Output.DefaultPath = expandPath(cfg.Output.DefaultPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail later in a confusing way
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("invalid output.format %q (want json or yaml)", c.Output.Format)
	}

	switch strings.ToLower(c.Logging.Color) {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid logging.color %q (want auto, always or never)", c.Logging.Color)
	}

	if c.Analysis.MinStringLength < 0 || c.Analysis.MaxStrings < 0 {
		return fmt.Errorf("analysis limits cannot be negative")
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".local", "share", AppName)
	v.SetDefault("paths.data_dir", dataDir)
	v.SetDefault("paths.db_file", filepath.Join(dataDir, "history.db"))
	v.SetDefault("paths.log_file", filepath.Join(dataDir, AppName+".log"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.color", "auto")

	v.SetDefault("analysis.min_string_length", 6)
	v.SetDefault("analysis.max_strings", 4000)

	v.SetDefault("msi.reader", "auto")

	v.SetDefault("output.default_path", "installplan.json")
	v.SetDefault("output.format", "json")

	v.SetDefault("history.enabled", true)
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
