package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// DefaultBarWidth is the number of cells in a heatmap bar.
const DefaultBarWidth = 10

// heatmapFixedWidth approximates the non-path columns of the heatmap table.
const heatmapFixedWidth = 2*(DefaultBarWidth+8) + 16

// Bar renders value, clamped to [0,1], as a bar of width cells.
func Bar(value float64, width int) string {
	value = max(0, min(1, value))
	filled := int(math.RoundToEven(value * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat(" ", width-filled)
}

// WriteHeatmap outputs the risk heatmap, dispatching based on the output format configured.
func WriteHeatmap(rows []schema.HeatmapRow, cfg *contract.Config, duration time.Duration) error {
	total := len(rows)
	rows = limitRows(rows, cfg.ResultLimit)
	fmtFloat := createFormatter(cfg.Precision)

	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHeatmapCSV(w, rows, fmtFloat)
		}, "Wrote CSV")
	case schema.MarkdownOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "```\n%s\n```\n", RenderHeatmap(rows, DefaultBarWidth))
			return err
		}, "Wrote Markdown")
	default:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHeatmapTable(w, rows, total, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	if err != nil {
		return fmt.Errorf("error writing heatmap: %w", err)
	}
	return nil
}

func writeHeatmapTable(w io.Writer, rows []schema.HeatmapRow, total int, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Path", "Risk", "Churn", "Tests", "Priority"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	priority := func(p schema.Priority) string { return string(p) }
	if cfg.UseColors {
		priority = contract.GetColorPriority
	}

	pathWidth := GetMaxTablePathWidth(cfg, heatmapFixedWidth)
	data := make([][]string, 0, len(rows))
	high := 0
	for i, r := range rows {
		if r.Priority == schema.HighPriority {
			high++
		}
		tests := "yes"
		if r.TestFactor > 0 {
			tests = "no"
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.Path, pathWidth),
			Bar(r.Risk, DefaultBarWidth) + " " + fmtFloat(r.Risk),
			Bar(r.CommitFactor, DefaultBarWidth) + " " + fmtFloat(r.CommitFactor),
			tests,
			priority(r.Priority),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing top %d of %d files (high priority: %d)\n", len(rows), total, high); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return err
}

func writeHeatmapCSV(w io.Writer, rows []schema.HeatmapRow, fmtFloat func(float64) string) error {
	header := []string{"rank", "file", "risk", "commit_factor", "function_factor", "todo_factor", "test_factor", "priority"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range rows {
			rec := []string{
				strconv.Itoa(i + 1),
				r.Path,
				fmtFloat(r.Risk),
				fmtFloat(r.CommitFactor),
				fmtFloat(r.FunctionFactor),
				fmtFloat(r.TodoFactor),
				fmtFloat(r.TestFactor),
				string(r.Priority),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenderHeatmap renders rows as a plain fixed-width heatmap with bars for
// risk and commit churn.
func RenderHeatmap(rows []schema.HeatmapRow, width int) string {
	header := fmt.Sprintf("%-40s %-*s %-*s Priority", "File", width+6, "Risk", width+6, "Churn")
	lines := []string{header, strings.Repeat("-", len(header))}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%-40s %s %5.2f %s %5.2f %s",
			r.Path, Bar(r.Risk, width), r.Risk, Bar(r.CommitFactor, width), r.CommitFactor, r.Priority))
	}
	return strings.Join(lines, "\n")
}
