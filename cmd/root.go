package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/iocache"
	"github.com/huangsam/historian/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw configuration merged by viper from file, env and flags.
var input = &contract.ConfigRawInput{}

// prof is started by sharedSetup when --profile is given.
var prof = &profiler{cfg: &contract.ProfileConfig{}}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// configDefaults are applied before the config file, env and flags.
var configDefaults = map[string]any{
	"limit":           contract.DefaultResultLimit,
	"precision":       contract.DefaultPrecision,
	"output":          schema.TextOut,
	"cache-backend":   schema.SQLiteBackend,
	"state-dir":       schema.DefaultStateDir,
	"emoji":           "yes",
	"color":           "yes",
	"stagnation-runs": schema.DefaultStagnationRuns,
	"min-cadence":     0,
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "historian",
	Short: "Mine Git history to score file risk and schedule rewrites.",
	Long: `Historian mines Git history for churn, function edits, TODOs and missing tests,
then tracks how each file's risk moves across runs. State lives in .aether/ at
the repository root unless --state-dir says otherwise.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// configureConfigFile points viper at --config, or at .historian.yaml in the
// working directory or $HOME.
func configureConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".historian")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// initConfig runs on cobra initialization: config file lookup, HISTORIAN_* env
// and defaults.
func initConfig() {
	configureConfigFile()

	viper.SetEnvPrefix("HISTORIAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for key, value := range configDefaults {
		viper.SetDefault(key, value)
	}
}

// loadConfigFile reads the config file. A missing file is not an error.
func loadConfigFile() error {
	configureConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// sharedSetup validates the merged configuration for the commands that mine
// or read state, then opens the cache and run stores.
func sharedSetup(ctx context.Context, args []string) error {
	if err := contract.ProcessProfilingConfig(prof.cfg, viper.GetString("profile")); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if err := prof.start(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// The optional positional argument is the repository or a path inside it
	input.RepoPathStr = "."
	if len(args) == 1 {
		input.RepoPathStr = args[0]
	}

	if err := contract.ProcessAndValidate(ctx, cfg, contract.NewLocalGitClient(), input); err != nil {
		return err
	}
	if !cfg.UseColors {
		color.NoColor = true
	}

	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling flushes the CPU and heap profiles if profiling was started.
func StopProfiling() error {
	return prof.stop(os.Stderr)
}
