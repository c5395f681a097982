package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const scheduleFixedWidth = 40

// WriteSchedule outputs one scheduling pass, dispatching based on the output format configured.
func WriteSchedule(rows []schema.ScheduleRow, run int, cfg *contract.Config) error {
	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				Run   int                  `json:"run"`
				Files []schema.ScheduleRow `json:"files"`
			}{run, rows})
		}, "Wrote JSON")
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScheduleCSV(w, rows, run)
		}, "Wrote CSV")
	case schema.MarkdownOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScheduleMarkdown(w, rows, run)
		}, "Wrote Markdown")
	default:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScheduleTable(w, rows, run, cfg)
		}, "Wrote table")
	}
	if err != nil {
		return fmt.Errorf("error writing schedule: %w", err)
	}
	return nil
}

func lastRunText(r schema.ScheduleRow) string {
	if r.LastScheduledRun == nil {
		return "-"
	}
	return strconv.Itoa(*r.LastScheduledRun)
}

func writeScheduleTable(w io.Writer, rows []schema.ScheduleRow, run int, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Path", "Rewrite", "Cadence", "Last Scheduled"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg, scheduleFixedWidth)
	scheduled := 0
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		rewrite := "no"
		if r.Scheduled {
			scheduled++
			rewrite = contract.HighColor.Sprint("yes")
		}
		data = append(data, []string{
			contract.TruncatePath(r.Path, pathWidth),
			rewrite,
			strconv.Itoa(r.Cadence),
			lastRunText(r),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Scheduled %d of %d files for run %d\n", scheduled, len(rows), run)
	return err
}

func writeScheduleCSV(w io.Writer, rows []schema.ScheduleRow, run int) error {
	header := []string{"run", "file", "scheduled", "cadence", "last_scheduled_run"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			lastRun := ""
			if r.LastScheduledRun != nil {
				lastRun = strconv.Itoa(*r.LastScheduledRun)
			}
			rec := []string{strconv.Itoa(run), r.Path, strconv.FormatBool(r.Scheduled), strconv.Itoa(r.Cadence), lastRun}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeScheduleMarkdown(w io.Writer, rows []schema.ScheduleRow, run int) error {
	if _, err := fmt.Fprintf(w, "# Rewrite Schedule (run %d)\n\n| File | Rewrite | Cadence | Last Scheduled |\n| --- | --- | ---: | ---: |\n", run); err != nil {
		return err
	}
	for _, r := range rows {
		rewrite := "no"
		if r.Scheduled {
			rewrite = "yes"
		}
		if _, err := fmt.Fprintf(w, "| %s | %s | %d | %s |\n", r.Path, rewrite, r.Cadence, lastRunText(r)); err != nil {
			return err
		}
	}
	return nil
}
