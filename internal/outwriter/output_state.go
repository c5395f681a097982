package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
)

// WriteStateReport outputs the stored risk heatmap followed by the trajectory
// summary. CSV carries the heatmap only.
func WriteStateReport(heatmap []schema.HeatmapRow, traj []schema.TrajectoryRow, cfg *contract.Config) error {
	heatmap = limitRows(heatmap, cfg.ResultLimit)
	fmtFloat := createFormatter(cfg.Precision)

	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				RiskMap    []schema.HeatmapRow    `json:"risk_map"`
				Trajectory []schema.TrajectoryRow `json:"trajectory"`
			}{heatmap, traj})
		}, "Wrote JSON")
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHeatmapCSV(w, heatmap, fmtFloat)
		}, "Wrote CSV")
	case schema.MarkdownOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "```\n%s\n```\n\n```\n%s\n```\n",
				RenderHeatmap(heatmap, DefaultBarWidth), RenderTrajectorySummary(traj))
			return err
		}, "Wrote Markdown")
	default:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s\n\n%s\n", RenderHeatmap(heatmap, DefaultBarWidth), RenderTrajectorySummary(traj))
			return err
		}, "Wrote report")
	}
	if err != nil {
		return fmt.Errorf("error writing report: %w", err)
	}
	return nil
}
