// Package core has the orchestration of mining, scoring, trajectory and scheduling.
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

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteAnalyze mines and scores the repository, persists the risk map,
// report and evolution log, and prints the heatmap.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	client := contract.NewLocalGitClient()
	logPhaseHeader(ctx, cfg, "analyze")

	out, err := runAnalysis(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	if err := persistAnalysis(cfg, out); err != nil {
		return err
	}
	duration := time.Since(start)
	return outwriter.NewOutWriter().WriteHeatmap(schema.EnrichRisk(out.RiskMap), cfg, duration)
}

// ExecuteTrajectory applies one run of feedback to the stored trajectory and
// prints every tracked file.
func ExecuteTrajectory(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	client := contract.NewLocalGitClient()
	logPhaseHeader(ctx, cfg, "trajectory")

	out, err := runTrajectory(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteTrajectory(trajectory.Rows(out.Trajectory), cfg)
}

// ExecuteSchedule schedules stagnant files for a rewrite, persists the
// advanced cadence counters and prints the schedule.
func ExecuteSchedule(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	logPhaseHeader(ctx, cfg, "schedule")

	sched, run, err := planSchedule(cfg)
	if err != nil {
		return err
	}
	logRunHeader(ctx, cfg, run)
	if err := saveTrajectory(cfg, sched.Trajectory); err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSchedule(schedule.Rows(sched), run, cfg)
}

// ExecuteRun runs the full pipeline: analyze, derive or load feedback,
// update the trajectory and schedule rewrites.
func ExecuteRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	client := contract.NewLocalGitClient()
	logPhaseHeader(ctx, cfg, "run")

	out, err := runPipeline(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSchedule(schedule.Rows(out.Schedule), out.Run, cfg)
}

// ExecuteReport prints the stored heatmap and trajectory summary without analyzing.
func ExecuteReport(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	logPhaseHeader(ctx, cfg, "report")

	heatmap, err := GetRiskMapFromState(cfg)
	if err != nil {
		return err
	}
	rows, err := GetTrajectoryResults(cfg)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteStateReport(heatmap, rows, cfg)
}

// GetRiskMapResults analyzes the repository without persisting anything and
// returns the heatmap rows capped at the configured limit.
func GetRiskMapResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.HeatmapRow, error) {
	logPhaseHeader(ctx, cfg, "analyze")
	out, err := runAnalysis(ctx, cfg, contract.NewLocalGitClient(), mgr)
	if err != nil {
		return nil, err
	}
	return limitHeatmap(schema.EnrichRisk(out.RiskMap), cfg.ResultLimit), nil
}

// GetRiskMapFromState returns the heatmap rows of the stored risk map.
func GetRiskMapFromState(cfg *contract.Config) ([]schema.HeatmapRow, error) {
	rm, err := statefile.LoadRiskMap(cfg.StatePath(schema.RiskMapFile))
	if err != nil {
		return nil, err
	}
	return schema.EnrichRisk(rm), nil
}

// GetTrajectoryResults returns the rows of the stored trajectory.
func GetTrajectoryResults(cfg *contract.Config) ([]schema.TrajectoryRow, error) {
	t, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	if err != nil {
		return nil, err
	}
	return trajectory.Rows(t), nil
}

// GetScheduleResults computes the schedule of the stored trajectory without
// persisting it, and returns the rows with the run they target.
func GetScheduleResults(cfg *contract.Config) ([]schema.ScheduleRow, int, error) {
	sched, run, err := planSchedule(cfg)
	if err != nil {
		return nil, 0, err
	}
	return schedule.Rows(sched), run, nil
}

func limitHeatmap(rows []schema.HeatmapRow, limit int) []schema.HeatmapRow {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
