package core

import (
	"context"
	"time"

	"github.com/huangsam/historian/core/schedule"
	"github.com/huangsam/historian/core/trajectory"
	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/outwriter"
	"github.com/huangsam/historian/internal/statefile"
	"github.com/huangsam/historian/schema"
)

// TrajectoryOutput is the result of applying one run's feedback.
type TrajectoryOutput struct {
	Run        int
	Feedback   []schema.Feedback
	Trajectory schema.Trajectory
	Analysis   *AnalysisOutput // Nil when the feedback came from a file and no analysis ran
}

// RunOutput is the result of the full pipeline.
type RunOutput struct {
	TrajectoryOutput
	Schedule schema.Schedule
}

// resolveRun returns the configured run id, or the one after both the stored
// counter and the trajectory's last run.
func resolveRun(cfg *contract.Config, prev schema.Trajectory) (int, error) {
	if cfg.Run > 0 {
		return cfg.Run, nil
	}
	state, err := statefile.LoadRunState(cfg.StatePath(schema.RunStateFile))
	if err != nil {
		return 0, err
	}
	return trajectory.NextRun(prev, state.LastRun), nil
}

// latestRun returns the highest run recorded by the counter or the trajectory.
func latestRun(cfg *contract.Config, t schema.Trajectory) (int, error) {
	state, err := statefile.LoadRunState(cfg.StatePath(schema.RunStateFile))
	if err != nil {
		return 0, err
	}
	return max(state.LastRun, t.MaxRun()), nil
}

// saveRunState advances the stored counter to run. It never moves backwards.
func saveRunState(cfg *contract.Config, run int) error {
	path := cfg.StatePath(schema.RunStateFile)
	state, err := statefile.LoadRunState(path)
	if err != nil {
		return err
	}
	if run <= state.LastRun {
		return nil
	}
	return statefile.SaveRunState(path, schema.RunState{LastRun: run})
}

// analyzeAndPersist runs an analysis and returns it with the risk map it replaced.
func analyzeAndPersist(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*AnalysisOutput, schema.RiskMap, error) {
	prevRisk, err := statefile.LoadRiskMap(cfg.StatePath(schema.RiskMapFile))
	if err != nil {
		return nil, nil, err
	}
	out, err := runAnalysis(ctx, cfg, client, mgr)
	if err != nil {
		return nil, nil, err
	}
	if err := persistAnalysis(cfg, out); err != nil {
		return nil, nil, err
	}
	return out, prevRisk, nil
}

// resolveFeedback reads --feedback when given, otherwise derives events from
// the risk movement between two analyses.
func resolveFeedback(cfg *contract.Config, prevRisk, curRisk schema.RiskMap) ([]schema.Feedback, error) {
	if cfg.FeedbackFile != "" {
		return statefile.LoadFeedback(cfg.FeedbackFile)
	}
	return trajectory.DeriveFeedback(prevRisk, curRisk), nil
}

// saveTrajectory persists the trajectory and its plain summary.
func saveTrajectory(cfg *contract.Config, t schema.Trajectory) error {
	if err := statefile.SaveTrajectory(cfg.StatePath(schema.TrajectoryFile), t); err != nil {
		return err
	}
	summary := outwriter.RenderTrajectorySummary(trajectory.Rows(t)) + "\n"
	return statefile.SaveBytes(cfg.StatePath(schema.TrajectorySummaryFile), []byte(summary))
}

// runTrajectory applies one run of feedback to the stored trajectory. An
// analysis only runs when the feedback has to be derived.
func runTrajectory(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*TrajectoryOutput, error) {
	prev, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	if err != nil {
		return nil, err
	}
	run, err := resolveRun(cfg, prev)
	if err != nil {
		return nil, err
	}
	result := &TrajectoryOutput{Run: run}
	logRunHeader(ctx, cfg, result.Run)

	var prevRisk schema.RiskMap
	if cfg.FeedbackFile == "" {
		result.Analysis, prevRisk, err = analyzeAndPersist(ctx, cfg, client, mgr)
		if err != nil {
			return nil, err
		}
	}
	var curRisk schema.RiskMap
	if result.Analysis != nil {
		curRisk = result.Analysis.RiskMap
	}
	if result.Feedback, err = resolveFeedback(cfg, prevRisk, curRisk); err != nil {
		return nil, err
	}

	result.Trajectory = trajectory.Update(prev, result.Feedback, result.Run)
	if err := saveTrajectory(cfg, result.Trajectory); err != nil {
		return nil, err
	}
	if err := saveRunState(cfg, result.Run); err != nil {
		return nil, err
	}
	return result, nil
}

// scheduleOptions maps the configuration onto scheduler options.
func scheduleOptions(cfg *contract.Config) schedule.Options {
	opts := schedule.DefaultOptions()
	if cfg.StagnationRuns > 0 {
		opts.StagnationRuns = cfg.StagnationRuns
	}
	opts.MinCadence = cfg.MinCadence
	return opts
}

// planSchedule computes the schedule for the stored trajectory without saving it.
// Without --run it targets the latest run recorded in the trajectory.
func planSchedule(cfg *contract.Config) (schema.Schedule, int, error) {
	t, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	if err != nil {
		return schema.Schedule{}, 0, err
	}
	run := cfg.Run
	if run == 0 {
		latest, err := latestRun(cfg, t)
		if err != nil {
			return schema.Schedule{}, 0, err
		}
		run = max(latest, 1)
	}
	return schedule.Rewrites(t, run, scheduleOptions(cfg)), run, nil
}

// runPipeline analyzes, applies feedback, updates the trajectory and schedules
// rewrites. Run tracking failures are logged and never abort the pipeline.
func runPipeline(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*RunOutput, error) {
	prev, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	if err != nil {
		return nil, err
	}
	run, err := resolveRun(cfg, prev)
	if err != nil {
		return nil, err
	}
	result := &RunOutput{TrajectoryOutput: TrajectoryOutput{Run: run}}
	logRunHeader(ctx, cfg, result.Run)

	// --- 0. Begin Run Tracking (if configured) ---
	var runStore contract.RunStore
	if mgr != nil {
		runStore = mgr.GetRunStore()
	}
	var runID int64
	if runStore != nil {
		runID, err = runStore.BeginRun(result.Run, cfg.RepoPath, time.Now(), runConfigParams(cfg))
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		}
	}

	// --- 1. Analysis Phase ---
	analysis, prevRisk, err := analyzeAndPersist(ctx, cfg, client, mgr)
	if err != nil {
		return nil, err
	}
	result.Analysis = analysis

	// --- 2. Trajectory Phase ---
	if result.Feedback, err = resolveFeedback(cfg, prevRisk, analysis.RiskMap); err != nil {
		return nil, err
	}
	updated := trajectory.Update(prev, result.Feedback, result.Run)

	// --- 3. Schedule Phase ---
	result.Schedule = schedule.Rewrites(updated, result.Run, scheduleOptions(cfg))
	result.Trajectory = result.Schedule.Trajectory
	if err := saveTrajectory(cfg, result.Trajectory); err != nil {
		return nil, err
	}
	if err := saveRunState(cfg, result.Run); err != nil {
		return nil, err
	}

	// --- 4. End Run Tracking ---
	if runStore != nil && runID > 0 {
		recordRun(runStore, runID, result)
		if err := runStore.EndRun(runID, time.Now(), len(analysis.RiskMap), len(result.Schedule.Files)); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}
	return result, nil
}

// runConfigParams is the configuration snapshot stored with a tracked run.
func runConfigParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"filter":          cfg.PathFilter,
		"excludes":        cfg.Excludes,
		"feedback_file":   cfg.FeedbackFile,
		"stagnation_runs": cfg.StagnationRuns,
		"min_cadence":     cfg.MinCadence,
		"state_dir":       cfg.StateDir,
	}
}

// recordRun stores one file risk row per scored file.
func recordRun(store contract.RunStore, runID int64, result *RunOutput) {
	now := time.Now()
	history := result.Analysis.History
	functionEdits := history.FunctionEditCounts()
	todos := history.TodoCounts()
	scheduled := make(map[string]struct{}, len(result.Schedule.Files))
	for _, f := range result.Schedule.Files {
		scheduled[f] = struct{}{}
	}

	for path, entry := range result.Analysis.RiskMap {
		input := schema.FileRiskInput{
			AnalysisTime:      now,
			CommitCount:       history.FileCommitCounts[path],
			FunctionEditCount: functionEdits[path],
			TodoCount:         todos[path],
			Entry:             entry,
		}
		if te, ok := result.Trajectory[path]; ok {
			input.Status = trajectory.Classify(te)
		}
		_, input.Scheduled = scheduled[path]
		if err := store.RecordFileRisk(runID, path, input); err != nil {
			contract.LogWarn("Run tracking failed for "+path, err)
		}
	}
}
