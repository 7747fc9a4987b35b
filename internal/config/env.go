package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
)

// ConfigPathEnv names an explicit config file to load instead of .hsplit/config.json.
const ConfigPathEnv = "HSPLIT_CONFIG_PATH"

// EnvOverride records one environment variable applied on top of the file config.
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Path   string `json:"path"`
	Value  string `json:"value"`
}

// envVarMappings maps HSPLIT_* variables to config keys.
var envVarMappings = map[string]string{
	"HSPLIT_PROJECT_ROOT_MARKER": "projectRootMarker",
	"HSPLIT_INDEX_PATH":          "index.path",
	"HSPLIT_INDEX_WORKERS":       "index.workers",
	"HSPLIT_INDEX_FLAG_MODE":     "index.flagMode",
	"HSPLIT_INDEX_MAX_DEPTH":     "index.maxIncludeDepth",
	"HSPLIT_INDEX_CACHE_SIZE":    "index.parseCacheSize",
	"HSPLIT_INDEX_DATABASE":      "index.database",
	"HSPLIT_CLUSTER_METHOD":      "cluster.method",
	"HSPLIT_CLUSTER_K":           "cluster.k",
	"HSPLIT_LOG_FORMAT":          "logging.format",
	"HSPLIT_LOG_LEVEL":           "logging.level",
	"HSPLIT_LOG_FILE":            "logging.file",
	"HSPLIT_LOG_MAX_SIZE":        "logging.maxSize",
	"HSPLIT_LOG_MAX_BACKUPS":     "logging.maxBackups",
}

// GetSupportedEnvVars lists the recognised HSPLIT_* variables, sorted.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings)+1)
	for k := range envVarMappings {
		vars = append(vars, k)
	}
	vars = append(vars, ConfigPathEnv)
	sort.Strings(vars)
	return vars
}

// applyEnvOverrides applies set variables in name order. Values that do not
// parse for their key are ignored.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	names := make([]string, 0, len(envVarMappings))
	for k := range envVarMappings {
		names = append(names, k)
	}
	sort.Strings(names)

	var applied []EnvOverride
	for _, name := range names {
		value, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		path := envVarMappings[name]
		if err := applyOverride(cfg, path, value); err != nil {
			continue
		}
		applied = append(applied, EnvOverride{EnvVar: name, Path: path, Value: value})
	}
	return applied
}

func applyOverride(cfg *Config, path, value string) error {
	switch path {
	case "projectRootMarker":
		cfg.ProjectRootMarker = value
	case "index.path":
		cfg.Index.Path = value
	case "index.workers":
		return setInt(&cfg.Index.Workers, value)
	case "index.flagMode":
		cfg.Index.FlagMode = value
	case "index.maxIncludeDepth":
		return setInt(&cfg.Index.MaxIncludeDepth, value)
	case "index.parseCacheSize":
		return setInt(&cfg.Index.ParseCacheSize, value)
	case "index.database":
		return setBool(&cfg.Index.Database, value)
	case "cluster.method":
		cfg.Cluster.Method = value
	case "cluster.k":
		return setInt(&cfg.Cluster.K, value)
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.file":
		return setBool(&cfg.Logging.File, value)
	case "logging.maxSize":
		cfg.Logging.MaxSize = value
	case "logging.maxBackups":
		return setInt(&cfg.Logging.MaxBackups, value)
	default:
		return fmt.Errorf("unknown config path %q", path)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}
