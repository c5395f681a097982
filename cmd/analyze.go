package cmd

import (
	"github.com/huangsam/historian/core"
	"github.com/huangsam/historian/internal/contract"
	"github.com/spf13/cobra"
)

// runSetupWrapper binds the command's run flags before the shared setup.
func runSetupWrapper(cmd *cobra.Command, args []string) error {
	if err := bindLocalFlags(cmd); err != nil {
		return err
	}
	return sharedSetup(rootCtx, args)
}

// analyzeCmd mines history and scores every source file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [repo-path]",
	Short: "Score every source file by churn, function edits, TODOs and tests.",
	Long: `Walk the full Git history reachable from HEAD and score each tracked source file.

Risk is the mean of four factors, each normalized to [0, 1]:
- Commit factor: commits touching the file
- Function factor: distinct function edits inside the file
- TODO factor: TODO/FIXME comments in the working tree
- Test factor: 1 when no test file covers the file

The risk map, the history report (JSON and Markdown) and the evolution log
are written to the state directory.

Examples:
  # Score the current repository
  historian analyze

  # Restrict to a package and export the heatmap
  historian analyze --filter core/ --output csv --output-file risk.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}

// trajectoryCmd applies one run of feedback to the stored trajectory.
var trajectoryCmd = &cobra.Command{
	Use:   "trajectory [repo-path]",
	Short: "Apply one run of reinforcement to each file's long-term trajectory.",
	Long: `Fold one run of feedback into the stored trajectory and show every tracked file.

Feedback comes from --feedback when given. Otherwise a fresh analysis is
compared with the previous risk map: lower risk is rewarded, higher risk is
penalized and files that disappeared count as resolved.

Examples:
  # Derive feedback from the risk movement since the last analysis
  historian trajectory

  # Replay an external feedback file as run 4
  historian trajectory --feedback feedback.json --run 4`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: runSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrajectory(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot update trajectory", err)
		}
	},
}

// scheduleCmd picks stagnant files for a rewrite.
var scheduleCmd = &cobra.Command{
	Use:   "schedule [repo-path]",
	Short: "Schedule stagnant files for a rewrite.",
	Long: `Inspect the stored trajectory and schedule files that saw no positive
reinforcement in the last --stagnation-runs runs.

Every file's cadence advances by one. Scheduled files reset their cadence
and remember the run they were scheduled in. Use --min-cadence to space
out repeated rewrites of the same file.

Examples:
  # Schedule with the default three-run window
  historian schedule

  # Require five quiet runs and two runs between rewrites
  historian schedule --stagnation-runs 5 --min-cadence 2`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: runSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSchedule(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot schedule rewrites", err)
		}
	},
}

// runCmd runs the full pipeline.
var runCmd = &cobra.Command{
	Use:   "run [repo-path]",
	Short: "Analyze, update the trajectory and schedule rewrites in one pass.",
	Long: `Run the whole pipeline for one run id:

1. Analyze the repository and persist the risk map and reports
2. Load --feedback or derive it from the previous risk map
3. Update the trajectory
4. Schedule stagnant files and persist their cadence

When --runs-backend is set, the run and every file's risk are recorded for
later export.

Examples:
  # Next run in the sequence
  historian run

  # Track the run in SQLite
  historian run --runs-backend sqlite`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: runSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRun(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot complete run", err)
		}
	},
}

// reportCmd prints the stored state without analyzing.
var reportCmd = &cobra.Command{
	Use:   "report [repo-path]",
	Short: "Print the stored heatmap and trajectory summary.",
	Long: `Render the risk map and trajectory found in the state directory.
No Git history is read.

Examples:
  historian report
  historian report --output markdown --output-file state.md`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReport(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot render report", err)
		}
	},
}
