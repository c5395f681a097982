package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const trajectoryFixedWidth = 60

// WriteTrajectory outputs the trajectory rows, dispatching based on the output format configured.
func WriteTrajectory(rows []schema.TrajectoryRow, cfg *contract.Config) error {
	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrajectoryCSV(w, rows)
		}, "Wrote CSV")
	case schema.MarkdownOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "```\n%s\n```\n", RenderTrajectorySummary(rows))
			return err
		}, "Wrote Markdown")
	default:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrajectoryTable(w, rows, cfg)
		}, "Wrote table")
	}
	if err != nil {
		return fmt.Errorf("error writing trajectory: %w", err)
	}
	return nil
}

func writeTrajectoryTable(w io.Writer, rows []schema.TrajectoryRow, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Path", "Total Δ", "Last Change", "Status", "History", "Cadence"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignLeft
	})

	status := func(s schema.TrajectoryStatus) string { return string(s) }
	if cfg.UseColors {
		status = contract.GetColorStatus
	}

	pathWidth := GetMaxTablePathWidth(cfg, trajectoryFixedWidth)
	counts := make(map[schema.TrajectoryStatus]int)
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		counts[r.Status]++
		data = append(data, []string{
			contract.TruncatePath(r.Path, pathWidth),
			strconv.Itoa(r.TotalReinforcement),
			string(r.LastChange),
			status(r.Status),
			r.Sparkline,
			strconv.Itoa(r.Cadence),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Tracking %d files (healing: %d, regressing: %d, oscillating: %d, resolved: %d)\n",
		len(rows), counts[schema.HealingStatus], counts[schema.RegressingStatus],
		counts[schema.OscillatingStatus], counts[schema.ResolvedStatus])
	return err
}

func writeTrajectoryCSV(w io.Writer, rows []schema.TrajectoryRow) error {
	header := []string{"file", "total_reinforcement", "last_change", "status", "history", "cadence", "last_scheduled_run"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			lastRun := ""
			if r.LastScheduledRun != nil {
				lastRun = strconv.Itoa(*r.LastScheduledRun)
			}
			rec := []string{
				r.Path,
				strconv.Itoa(r.TotalReinforcement),
				string(r.LastChange),
				string(r.Status),
				r.Sparkline,
				strconv.Itoa(r.Cadence),
				lastRun,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenderTrajectorySummary renders rows as the plain fixed-width summary kept
// next to the trajectory state.
func RenderTrajectorySummary(rows []schema.TrajectoryRow) string {
	const header = "File              Total Δ   Last Change   Status       History"
	divider := strings.Repeat("─", utf8.RuneCountInString(header))
	lines := []string{"📈 Trajectory Summary", divider, header, divider}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%-17s %6d   %-12s %-11s %s",
			r.Path, r.TotalReinforcement, r.LastChange, r.Status, r.Sparkline))
	}
	return strings.Join(lines, "\n")
}
