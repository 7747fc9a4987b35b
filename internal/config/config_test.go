package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range GetSupportedEnvVars() {
		if v, ok := os.LookupEnv(name); ok {
			os.Unsetenv(name)
			t.Cleanup(func() { os.Setenv(name, v) })
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Cluster.Method != "average" {
		t.Errorf("Cluster.Method = %q, want %q", cfg.Cluster.Method, "average")
	}
	if cfg.Cluster.K != 2 {
		t.Errorf("Cluster.K = %d, want 2", cfg.Cluster.K)
	}
	if cfg.Index.FlagMode != "parsed" {
		t.Errorf("Index.FlagMode = %q, want %q", cfg.Index.FlagMode, "parsed")
	}
	if cfg.Index.Path != "usage.json" {
		t.Errorf("Index.Path = %q, want %q", cfg.Index.Path, "usage.json")
	}
	if !cfg.Index.Database {
		t.Error("Index.Database should be enabled by default")
	}
	if cfg.Logging.File {
		t.Error("file logging should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"unknown method", func(c *Config) { c.Cluster.Method = "nearest" }, "cluster.method"},
		{"method case", func(c *Config) { c.Cluster.Method = "Ward" }, ""},
		{"k zero", func(c *Config) { c.Cluster.K = 0 }, "cluster.k"},
		{"flag mode", func(c *Config) { c.Index.FlagMode = "magic" }, "index.flagMode"},
		{"positional", func(c *Config) { c.Index.FlagMode = "positional" }, ""},
		{"negative workers", func(c *Config) { c.Index.Workers = -1 }, "index.workers"},
		{"negative depth", func(c *Config) { c.Index.MaxIncludeDepth = -2 }, "index.maxIncludeDepth"},
		{"negative cache", func(c *Config) { c.Index.ParseCacheSize = -2 }, "index.parseCacheSize"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"max size", func(c *Config) { c.Logging.MaxSize = "lots" }, "logging.maxSize"},
		{"empty max size", func(c *Config) { c.Logging.MaxSize = "" }, ""},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.maxBackups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			cerr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "cluster.k", Message: "must be at least 1"}
	want := "config error in field 'cluster.k': must be at least 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Cluster.K != 2 || cfg.Cluster.Method != "average" {
		t.Errorf("expected defaults, got %+v", cfg.Cluster)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	dir := filepath.Join(root, ".hsplit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `{
		"version": 1,
		"projectRootMarker": "myproj/",
		"cluster": {"method": "ward", "k": 4},
		"index": {"flagMode": "positional"}
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ProjectRootMarker != "myproj/" {
		t.Errorf("ProjectRootMarker = %q", cfg.ProjectRootMarker)
	}
	if cfg.Cluster.Method != "ward" || cfg.Cluster.K != 4 {
		t.Errorf("Cluster = %+v, want ward/4", cfg.Cluster)
	}
	if cfg.Index.FlagMode != "positional" {
		t.Errorf("Index.FlagMode = %q", cfg.Index.FlagMode)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Index.MaxIncludeDepth != 16 {
		t.Errorf("Index.MaxIncludeDepth = %d, want 16", cfg.Index.MaxIncludeDepth)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	dir := filepath.Join(root, ".hsplit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(root); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestConfig_Save(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Cluster.K = 5
	cfg.ProjectRootMarker = "src/"
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, ".hsplit", "config.json")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	loaded, err := LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Cluster.K != 5 || loaded.ProjectRootMarker != "src/" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestConfig_SaveDataDirUnavailable(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".hsplit"), []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := DefaultConfig().Save(root); err == nil {
		t.Error("Save() should fail when .hsplit is not a directory")
	}
}

func TestConfig_IndexPath(t *testing.T) {
	cfg := DefaultConfig()
	if got, want := cfg.IndexPath("/repo"), filepath.Join("/repo", ".hsplit", "usage.json"); got != want {
		t.Errorf("IndexPath() = %q, want %q", got, want)
	}
	cfg.Index.Path = "/tmp/idx.json.zst"
	if got := cfg.IndexPath("/repo"); got != "/tmp/idx.json.zst" {
		t.Errorf("IndexPath() = %q", got)
	}
	cfg.Index.Path = ""
	if got, want := cfg.IndexPath("/repo"), filepath.Join("/repo", ".hsplit", "usage.json"); got != want {
		t.Errorf("IndexPath() = %q, want %q", got, want)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name:    "log level",
			envVars: map[string]string{"HSPLIT_LOG_LEVEL": "debug"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
				}
				if len(overrides) != 1 {
					t.Errorf("len(overrides) = %d, want 1", len(overrides))
				}
			},
		},
		{
			name:    "cluster int",
			envVars: map[string]string{"HSPLIT_CLUSTER_K": "7"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Cluster.K != 7 {
					t.Errorf("Cluster.K = %d, want 7", cfg.Cluster.K)
				}
			},
		},
		{
			name:    "bool",
			envVars: map[string]string{"HSPLIT_INDEX_DATABASE": "false"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Index.Database {
					t.Error("Index.Database should be false")
				}
			},
		},
		{
			name: "multiple in name order",
			envVars: map[string]string{
				"HSPLIT_PROJECT_ROOT_MARKER": "proj/",
				"HSPLIT_CLUSTER_METHOD":      "single",
				"HSPLIT_INDEX_WORKERS":       "3",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.ProjectRootMarker != "proj/" || cfg.Cluster.Method != "single" || cfg.Index.Workers != 3 {
					t.Errorf("overrides not applied: %+v", cfg)
				}
				if len(overrides) != 3 {
					t.Fatalf("len(overrides) = %d, want 3", len(overrides))
				}
				if overrides[0].EnvVar != "HSPLIT_CLUSTER_METHOD" || overrides[2].EnvVar != "HSPLIT_PROJECT_ROOT_MARKER" {
					t.Errorf("overrides not sorted: %+v", overrides)
				}
				if overrides[1].Path != "index.workers" {
					t.Errorf("Path = %q, want index.workers", overrides[1].Path)
				}
			},
		},
		{
			name:    "invalid int ignored",
			envVars: map[string]string{"HSPLIT_CLUSTER_K": "many"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Cluster.K != 2 {
					t.Errorf("Cluster.K = %d, want 2 (default)", cfg.Cluster.K)
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			overrides := applyEnvOverrides(cfg)

			tt.validate(t, cfg, overrides)
		})
	}
}

func TestApplyOverride_AllPaths(t *testing.T) {
	for name, path := range envVarMappings {
		t.Run(name, func(t *testing.T) {
			value := "1"
			if path == "index.database" || path == "logging.file" {
				value = "true"
			}
			if err := applyOverride(DefaultConfig(), path, value); err != nil {
				t.Errorf("applyOverride(%q) error = %v", path, err)
			}
		})
	}
	if err := applyOverride(DefaultConfig(), "nope", "1"); err == nil {
		t.Error("expected error for unknown path")
	}
}

func TestLoadConfigWithDetails(t *testing.T) {
	clearEnv(t)

	result, err := LoadConfigWithDetails(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if !result.UsedDefaults {
		t.Error("UsedDefaults should be true when no config file exists")
	}
	if result.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", result.ConfigPath)
	}
}

func TestLoadConfigWithDetails_EnvConfigPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(configPath, []byte(`{"version": 1, "cluster": {"k": 9}}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnv, configPath)

	result, err := LoadConfigWithDetails(dir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}
	if result.Config.Cluster.K != 9 {
		t.Errorf("Cluster.K = %d, want 9", result.Config.Cluster.K)
	}
}

func TestLoadConfigWithDetails_MissingEnvConfigPath(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "absent.json"))

	if _, err := LoadConfigWithDetails(t.TempDir()); err == nil {
		t.Error("expected error when the explicit config file is missing")
	}
}

func TestLoadConfigWithDetails_EnvBeatsFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Cluster.Method = "complete"
	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HSPLIT_CLUSTER_METHOD", "ward")

	result, err := LoadConfigWithDetails(root)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.Config.Cluster.Method != "ward" {
		t.Errorf("Cluster.Method = %q, want ward", result.Config.Cluster.Method)
	}
	if len(result.EnvOverrides) != 1 {
		t.Errorf("len(EnvOverrides) = %d, want 1", len(result.EnvOverrides))
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()
	want := map[string]bool{"HSPLIT_LOG_LEVEL": false, "HSPLIT_CLUSTER_K": false, ConfigPathEnv: false}
	for _, v := range vars {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("GetSupportedEnvVars() missing %s", k)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"100", 100, false},
		{"100B", 100, false},
		{"1kb", 1024, false},
		{"10KB", 10240, false},
		{"10MB", 10 << 20, false},
		{"1GB", 1 << 30, false},
		{"1.5MB", int64(1.5 * (1 << 20)), false},
		{" 2 MB ", 2 << 20, false},
		{"invalid", 0, true},
		{"-1MB", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}

	if (LoggingConfig{MaxSize: "bogus"}).MaxSizeBytes() != 0 {
		t.Error("invalid MaxSize should disable rotation")
	}
}
