// Package schedule decides which stagnant files are due for a rewrite.
package schedule

import (
	"slices"

	"github.com/huangsam/historian/schema"
)

// Options tune the scheduler.
type Options struct {
	StagnationRuns int // Trailing history window inspected per file
	MinCadence     int // Stagnant files are held back until their cadence reaches this
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{StagnationRuns: schema.DefaultStagnationRuns}
}

// IsStagnant reports whether none of the last n history entries has positive
// reinforcement. Shorter histories are inspected whole; an empty one is stagnant.
func IsStagnant(history []schema.HistoryEntry, n int) bool {
	recent := history
	if n > 0 && len(history) > n {
		recent = history[len(history)-n:]
	}
	for _, h := range recent {
		if h.Reinforcement > 0 {
			return false
		}
	}
	return true
}

// Rewrites advances every file's cadence by one and schedules the stagnant
// ones for run. The input trajectory is not modified.
func Rewrites(t schema.Trajectory, run int, opts Options) schema.Schedule {
	if opts.StagnationRuns <= 0 {
		opts.StagnationRuns = schema.DefaultStagnationRuns
	}

	updated := t.Clone()
	files := []string{}
	for path, entry := range updated {
		entry.Cadence++
		if IsStagnant(entry.History, opts.StagnationRuns) && entry.Cadence >= opts.MinCadence {
			files = append(files, path)
			entry.Cadence = 0
			scheduled := run
			entry.LastScheduledRun = &scheduled
		}
		updated[path] = entry
	}
	slices.Sort(files)
	return schema.Schedule{Files: files, Trajectory: updated}
}

// Rows lists every file of a schedule, sorted by path.
func Rows(s schema.Schedule) []schema.ScheduleRow {
	paths := make([]string, 0, len(s.Trajectory))
	for p := range s.Trajectory {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	rows := make([]schema.ScheduleRow, 0, len(paths))
	for _, p := range paths {
		entry := s.Trajectory[p]
		_, scheduled := slices.BinarySearch(s.Files, p)
		rows = append(rows, schema.ScheduleRow{
			Path:             p,
			Scheduled:        scheduled,
			Cadence:          entry.Cadence,
			LastScheduledRun: entry.LastScheduledRun,
		})
	}
	return rows
}
