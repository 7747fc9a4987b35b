package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"hsplit/internal/config"
	"hsplit/internal/errors"
	"hsplit/internal/paths"
)

var (
	configShowDiff  bool
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hsplit configuration",
	Long:  "View and manage hsplit configuration stored in .hsplit/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration: file values over defaults, with
HSPLIT_* environment overrides applied.

Examples:
  hsplit config show                 # Pretty-print current config
  hsplit config show --format json   # Raw JSON output
  hsplit config show --diff          # Only show non-default values`,
	Annotations: map[string]string{skipValidation: "true"},
	RunE:        runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a default .hsplit/config.json",
	Annotations: map[string]string{skipValidation: "true"},
	RunE:        runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:         "env",
	Short:       "List supported environment variables",
	Annotations: map[string]string{skipValidation: "true"},
	RunE:        runConfigEnv,
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath      string                 `json:"configPath,omitempty" yaml:"configPath,omitempty"`
	UsedDefaults    bool                   `json:"usedDefaults" yaml:"usedDefaults"`
	EnvOverrides    []config.EnvOverride   `json:"envOverrides,omitempty" yaml:"envOverrides,omitempty"`
	Config          map[string]interface{} `json:"config" yaml:"config"`
	Defaults        map[string]interface{} `json:"-" yaml:"-"`
	ValidationError string                 `json:"validationError,omitempty" yaml:"validationError,omitempty"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	result := app.loaded

	current, err := flattenConfig(result.Config)
	if err != nil {
		return errors.New(errors.InternalError, "failed to encode config", err, nil)
	}
	defaults, err := flattenConfig(config.DefaultConfig())
	if err != nil {
		return errors.New(errors.InternalError, "failed to encode defaults", err, nil)
	}
	if configShowDiff {
		current = computeDiff(current, defaults)
	}

	resp := &ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       current,
		Defaults:     defaults,
	}
	if err := result.Config.Validate(); err != nil {
		resp.ValidationError = err.Error()
	}
	return app.print(cmd.OutOrStdout(), resp)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := paths.ConfigPath(app.root)
	if _, err := os.Stat(path); err == nil && !configInitForce {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'hsplit config init --force' to overwrite it.")
		return nil
	}

	if err := config.DefaultConfig().Save(app.root); err != nil {
		return errors.New(errors.InternalError, "failed to write config file", err, nil)
	}
	app.logger.Info("Wrote default config", "path", path)
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
	return nil
}

var envVarDescriptions = map[string]string{
	config.ConfigPathEnv:         "Path to config file",
	"HSPLIT_PROJECT_ROOT_MARKER": "Marker stripped from unit paths",
	"HSPLIT_INDEX_PATH":          "Usage index file",
	"HSPLIT_INDEX_WORKERS":       "Concurrent extractions (int)",
	"HSPLIT_INDEX_FLAG_MODE":     "parsed or positional",
	"HSPLIT_INDEX_MAX_DEPTH":     "Maximum #include nesting (int)",
	"HSPLIT_INDEX_CACHE_SIZE":    "Parsed header cache entries (int)",
	"HSPLIT_INDEX_DATABASE":      "Store builds in .hsplit/hsplit.db (bool)",
	"HSPLIT_CLUSTER_METHOD":      "Linkage method",
	"HSPLIT_CLUSTER_K":           "Number of sub-headers (int)",
	"HSPLIT_LOG_FORMAT":          "Log format (human, json)",
	"HSPLIT_LOG_LEVEL":           "Log level (debug, info, warn, error)",
	"HSPLIT_LOG_FILE":            "Append logs to .hsplit/logs/hsplit.log (bool)",
	"HSPLIT_LOG_MAX_SIZE":        "Rotate the log file at this size, e.g. 10MB",
	"HSPLIT_LOG_MAX_BACKUPS":     "Rotated log files to keep (int)",
}

func runConfigEnv(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Supported hsplit Environment Variables")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	for _, name := range config.GetSupportedEnvVars() {
		fmt.Fprintf(w, "  %-28s %s\n", name, envVarDescriptions[name])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example usage:")
	fmt.Fprintln(w, "  HSPLIT_CLUSTER_K=4 hsplit split include/big.h")
	fmt.Fprintln(w, "  HSPLIT_LOG_LEVEL=debug hsplit index")
	return nil
}

// flattenConfig turns cfg into dotted keys such as "cluster.method".
func flattenConfig(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var nested map[string]interface{}
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, err
	}
	flat := make(map[string]interface{})
	flattenInto(flat, "", nested)
	return flat, nil
}

func flattenInto(dst map[string]interface{}, prefix string, m map[string]interface{}) {
	for k, v := range m {
		key := prefix + k
		if sub, ok := v.(map[string]interface{}); ok {
			flattenInto(dst, key+".", sub)
			continue
		}
		dst[key] = v
	}
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	for key, v := range current {
		if d, ok := defaults[key]; !ok || !isEqual(v, d) {
			diff[key] = v
		}
	}
	return diff
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
