package contract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/historian/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultPrecision   = 3
	MaxPrecision       = 3
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath    string
	PathFilter  string
	Excludes    []string
	ResultLimit int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	StateDir       string // Absolute directory holding the JSON state files
	FeedbackFile   string // Optional feedback input; empty means derive from risk maps
	Run            int    // Run id override (0 = next after the trajectory's max run)
	StagnationRuns int
	MinCadence     int

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Filter        string `mapstructure:"filter"`
	Exclude       string `mapstructure:"exclude"`
	OutputFile    string `mapstructure:"output-file"`
	Limit         int    `mapstructure:"limit"`
	Precision     int    `mapstructure:"precision"`
	Output        string `mapstructure:"output"`
	Width         int    `mapstructure:"width"`
	StateDir      string `mapstructure:"state-dir"`
	CacheBackend  string `mapstructure:"cache-backend"`
	CacheConnect  string `mapstructure:"cache-db-connect"`
	RunsBackend   string `mapstructure:"runs-backend"`
	RunsDBConnect string `mapstructure:"runs-db-connect"`
	Emoji         string `mapstructure:"emoji"`
	Color         string `mapstructure:"color"`

	// --- Fields from trajectoryCmd / scheduleCmd / runCmd flags ---
	Feedback       string `mapstructure:"feedback"`
	Run            int    `mapstructure:"run"`
	StagnationRuns int    `mapstructure:"stagnation-runs"`
	MinCadence     int    `mapstructure:"min-cadence"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// StatePath returns the absolute path of a state file name.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTrajectoryInputs(cfg, input); err != nil {
		return err
	}
	if err := resolveGitPathAndFilter(ctx, cfg, client, input); err != nil {
		return err
	}
	resolveStateDir(cfg, input)
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseDatabaseBackend lowercases and validates a backend name.
func ParseDatabaseBackend(s string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", s)
	}
	return backend, nil
}

// validateBackendConfigs validates cache and run tracking backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	backend, err := ParseDatabaseBackend(input.CacheBackend)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = input.CacheConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Tracking Backend Validation ---
	if input.RunsBackend == "" {
		cfg.RunsBackend = schema.NoneBackend
		return nil
	}
	backend, err = ParseDatabaseBackend(input.RunsBackend)
	if err != nil {
		return fmt.Errorf("runs: %w", err)
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if cachePath == runsPath {
			return fmt.Errorf("cache and run tracking must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.PathFilter = input.Filter
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, markdown", cfg.Output)
	}

	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}

	cfg.Excludes = []string{".min.js", "vendor/", "node_modules/", "dist/", "build/", "target/"}
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}

	return nil
}

// processTrajectoryInputs validates the run id and scheduling knobs.
func processTrajectoryInputs(cfg *Config, input *ConfigRawInput) error {
	if input.Run < 0 {
		return fmt.Errorf("run must be 0 (auto) or positive (received %d)", input.Run)
	}
	cfg.Run = input.Run

	if input.StagnationRuns < 1 {
		return fmt.Errorf("stagnation-runs must be at least 1 (received %d)", input.StagnationRuns)
	}
	cfg.StagnationRuns = input.StagnationRuns

	if input.MinCadence < 0 {
		return fmt.Errorf("min-cadence cannot be negative (received %d)", input.MinCadence)
	}
	cfg.MinCadence = input.MinCadence

	cfg.FeedbackFile = strings.TrimSpace(input.Feedback)
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveGitPathAndFilter resolves the Git repository path and set the implicit path filter.
func resolveGitPathAndFilter(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, statErr := os.Stat(absSearchPath)
	gitContextPath := absSearchPath
	if statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot

	if cfg.PathFilter != "" { // User-provided --filter flag takes precedence
		return nil
	}

	if absSearchPath != gitRoot {
		relativePath, err := filepath.Rel(gitRoot, absSearchPath)
		if err != nil {
			return err
		}
		if relativePath != "." {
			filter := relativePath
			if statErr == nil && info.IsDir() {
				filter += "/"
			}
			cfg.PathFilter = strings.ReplaceAll(filter, string(os.PathSeparator), "/")
		}
	}

	return nil
}

// ResolveRepoOverride points cfg at the repository containing path, resolving
// the root and implicit filter the same way as the CLI argument. The filter of
// the previous repository is dropped and the state directory moves to the new root.
func ResolveRepoOverride(ctx context.Context, cfg *Config, client GitClient, path string) error {
	cfg.PathFilter = ""
	if err := resolveGitPathAndFilter(ctx, cfg, client, &ConfigRawInput{RepoPathStr: path}); err != nil {
		return err
	}
	cfg.StateDir = filepath.Join(cfg.RepoPath, schema.DefaultStateDir)
	return nil
}

// resolveStateDir anchors a relative state directory at the repository root.
func resolveStateDir(cfg *Config, input *ConfigRawInput) {
	dir := strings.TrimSpace(input.StateDir)
	if dir == "" {
		dir = schema.DefaultStateDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.RepoPath, dir)
	}
	cfg.StateDir = dir
}
