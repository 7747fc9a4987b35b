package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"hsplit/internal/cluster"
	"hsplit/internal/compiledb"
	"hsplit/internal/paths"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Config represents the complete hsplit configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	// ProjectRootMarker is stripped from source paths to form unit ids.
	ProjectRootMarker string `json:"projectRootMarker" mapstructure:"projectRootMarker"`

	Index   IndexConfig   `json:"index" mapstructure:"index"`
	Cluster ClusterConfig `json:"cluster" mapstructure:"cluster"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// IndexConfig controls usage index construction and persistence
type IndexConfig struct {
	Path            string `json:"path" mapstructure:"path"`
	Workers         int    `json:"workers" mapstructure:"workers"`
	FlagMode        string `json:"flagMode" mapstructure:"flagMode"`
	MaxIncludeDepth int    `json:"maxIncludeDepth" mapstructure:"maxIncludeDepth"`
	ParseCacheSize  int    `json:"parseCacheSize" mapstructure:"parseCacheSize"`
	Database        bool   `json:"database" mapstructure:"database"`
}

// ClusterConfig holds the clustering defaults used by split and batch
type ClusterConfig struct {
	Method string `json:"method" mapstructure:"method"`
	K      int    `json:"k" mapstructure:"k"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"` // "human" or "json"
	Level      string `json:"level" mapstructure:"level"`   // "debug", "info", "warn", "error"
	File       bool   `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"` // e.g. "10MB"; empty disables rotation
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:           CurrentVersion,
		ProjectRootMarker: "",
		Index: IndexConfig{
			Path:            paths.DefaultIndexName,
			Workers:         0,
			FlagMode:        string(compiledb.FlagModeParsed),
			MaxIncludeDepth: 16,
			ParseCacheSize:  2048,
			Database:        true,
		},
		Cluster: ClusterConfig{
			Method: string(cluster.Average),
			K:      2,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			File:       false,
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadResult describes where a configuration came from.
type LoadResult struct {
	Config       *Config
	ConfigPath   string // empty when defaults were used
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration from .hsplit/config.json
func LoadConfig(root string) (*Config, error) {
	result, err := LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads the configuration file (or HSPLIT_CONFIG_PATH),
// fills unset keys from DefaultConfig and applies HSPLIT_* overrides.
func LoadConfigWithDetails(root string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigType("json")

	configPath := os.Getenv(ConfigPathEnv)
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(paths.DataDir(root))
	}

	result := &LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		result.UsedDefaults = true
	} else {
		result.ConfigPath = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	result.EnvOverrides = applyEnvOverrides(&cfg)
	result.Config = &cfg
	return result, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("projectRootMarker", d.ProjectRootMarker)
	v.SetDefault("index.path", d.Index.Path)
	v.SetDefault("index.workers", d.Index.Workers)
	v.SetDefault("index.flagMode", d.Index.FlagMode)
	v.SetDefault("index.maxIncludeDepth", d.Index.MaxIncludeDepth)
	v.SetDefault("index.parseCacheSize", d.Index.ParseCacheSize)
	v.SetDefault("index.database", d.Index.Database)
	v.SetDefault("cluster.method", d.Cluster.Method)
	v.SetDefault("cluster.k", d.Cluster.K)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// Save writes the configuration to .hsplit/config.json
func (c *Config) Save(root string) error {
	if _, err := paths.EnsureDataDir(root); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	return os.WriteFile(paths.ConfigPath(root), data, 0644)
}

// IndexPath resolves the configured index file against root.
func (c *Config) IndexPath(root string) string {
	p := c.Index.Path
	if p == "" {
		p = paths.DefaultIndexName
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(paths.DataDir(root), p)
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validLogFormats = map[string]bool{"human": true, "json": true}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if _, err := cluster.ParseLinkage(c.Cluster.Method); err != nil {
		return &ConfigError{Field: "cluster.method", Message: err.Error()}
	}
	if c.Cluster.K < 1 {
		return &ConfigError{Field: "cluster.k", Message: "must be at least 1"}
	}
	if _, err := compiledb.ParseFlagMode(c.Index.FlagMode); err != nil {
		return &ConfigError{Field: "index.flagMode", Message: err.Error()}
	}
	if c.Index.Workers < 0 {
		return &ConfigError{Field: "index.workers", Message: "must not be negative"}
	}
	if c.Index.MaxIncludeDepth < 0 {
		return &ConfigError{Field: "index.maxIncludeDepth", Message: "must not be negative"}
	}
	if c.Index.ParseCacheSize < 0 {
		return &ConfigError{Field: "index.parseCacheSize", Message: "must not be negative"}
	}
	if !validLogLevels[c.Logging.Level] {
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if !validLogFormats[c.Logging.Format] {
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	if c.Logging.MaxSize != "" {
		if _, err := ParseSize(c.Logging.MaxSize); err != nil {
			return &ConfigError{Field: "logging.maxSize", Message: err.Error()}
		}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
