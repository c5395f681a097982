package outwriter

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/huangsam/historian/schema"
)

// sparkChars are the bar heights used by Sparkline, lowest first.
var sparkChars = []rune("▁▂▃▄▅▆▇")

// Sparkline scales values against their maximum onto sparkChars. It is empty
// when there are no values or all of them are zero.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	peak := slices.Max(values)
	if peak == 0 {
		return ""
	}
	scale := float64(len(sparkChars) - 1)
	var sb strings.Builder
	for _, v := range values {
		sb.WriteRune(sparkChars[int(float64(v)/float64(peak)*scale)])
	}
	return sb.String()
}

// topMonth returns the busiest month. Ties go to the earliest month.
func topMonth(churn map[string]int) (string, int) {
	best, bestCount := "", -1
	for _, month := range slices.Sorted(maps.Keys(churn)) {
		if churn[month] > bestCount {
			best, bestCount = month, churn[month]
		}
	}
	return best, bestCount
}

// RenderReport renders the historian report as Markdown.
func RenderReport(report schema.HistorianReport) string {
	var sb strings.Builder
	line := func(format string, args ...any) {
		_, _ = fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	line("# Code Historian Report")
	line("## High Churn Files")
	if len(report.HighChurnFiles) > 0 {
		line("| File | Commit Count |")
		line("| --- | ---: |")
		for _, f := range report.HighChurnFiles {
			line("| %s | %d |", f.File, f.CommitCount)
		}
	} else {
		line("No file changes detected.")
	}

	line("\n## Functions with %d+ Changes", schema.HighChurnThreshold)
	if len(report.HighChurnFunctions) > 0 {
		line("| File | Function | Commit Count |")
		line("| --- | --- | ---: |")
		for _, f := range report.HighChurnFunctions {
			line("| %s | %s | %d |", f.File, f.Function, f.CommitCount)
		}
	} else {
		line("No functions with %d+ changes.", schema.HighChurnThreshold)
	}

	line("\n## TODOs / FIXMEs")
	if len(report.Todos) > 0 {
		line("| File | Line | Text |")
		line("| --- | ---: | --- |")
		for _, t := range report.Todos {
			line("| %s | %d | %s |", t.File, t.Line, t.Text)
		}
	} else {
		line("No TODOs or FIXMEs found.")
	}

	line("\n## Test Failures")
	if len(report.TestFailures) > 0 {
		line("| Commit | Message |")
		line("| --- | --- |")
		for _, t := range report.TestFailures {
			line("| %s | %s |", t.Commit, t.Message)
		}
	} else {
		line("No test failures found.")
	}

	line("\n## Temporal Churn")
	for _, f := range report.HighChurnFiles {
		churn := report.TemporalChurn[f.File]
		if len(churn) == 0 {
			continue
		}
		months := slices.Sorted(maps.Keys(churn))
		counts := make([]int, len(months))
		for i, m := range months {
			counts[i] = churn[m]
		}
		month, count := topMonth(churn)
		line("File: %s", f.File)
		line("Monthly Churn: %s", Sparkline(counts))
		line("Top Month: %s (%d commits)\n", month, count)
	}

	line("\n## Summary")
	for _, f := range report.HighChurnFiles {
		summary := fmt.Sprintf("%s changed %d times.", f.File, f.CommitCount)
		var funcs []string
		for _, fn := range report.HighChurnFunctions {
			if fn.File == f.File {
				funcs = append(funcs, fmt.Sprintf("%s (%d)", fn.Function, fn.CommitCount))
			}
		}
		if len(funcs) > 0 {
			summary += fmt.Sprintf(" Functions changed: %s.", strings.Join(funcs, ", "))
		}
		line("- %s", summary)
	}
	return sb.String()
}
