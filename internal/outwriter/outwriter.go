// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteHeatmap prints the risk heatmap using the configured output format.
func (ow *OutWriter) WriteHeatmap(rows []schema.HeatmapRow, cfg *contract.Config, duration time.Duration) error {
	return WriteHeatmap(rows, cfg, duration)
}

// WriteTrajectory prints trajectory rows using the configured output format.
func (ow *OutWriter) WriteTrajectory(rows []schema.TrajectoryRow, cfg *contract.Config) error {
	return WriteTrajectory(rows, cfg)
}

// WriteSchedule prints a scheduling pass using the configured output format.
func (ow *OutWriter) WriteSchedule(rows []schema.ScheduleRow, run int, cfg *contract.Config) error {
	return WriteSchedule(rows, run, cfg)
}

// WriteStateReport prints the stored heatmap and trajectory summary.
func (ow *OutWriter) WriteStateReport(heatmap []schema.HeatmapRow, traj []schema.TrajectoryRow, cfg *contract.Config) error {
	return WriteStateReport(heatmap, traj, cfg)
}
