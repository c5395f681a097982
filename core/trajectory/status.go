package trajectory

import (
	"slices"
	"strings"

	"github.com/huangsam/historian/schema"
)

// Classify derives the long-term status of an entry.
// Resolved wins, then a uniform history sign, then the total and last change.
func Classify(entry schema.TrajectoryEntry) schema.TrajectoryStatus {
	if entry.LastChange == schema.Resolved {
		return schema.ResolvedStatus
	}
	if len(entry.History) > 0 {
		allNonNeg, allNonPos := true, true
		for _, h := range entry.History {
			if h.Reinforcement < 0 {
				allNonNeg = false
			}
			if h.Reinforcement > 0 {
				allNonPos = false
			}
		}
		if allNonNeg {
			return schema.HealingStatus
		}
		if allNonPos {
			return schema.RegressingStatus
		}
	}
	if entry.TotalReinforcement > 0 && entry.LastChange == schema.RiskDown {
		return schema.HealingStatus
	}
	if entry.TotalReinforcement < 0 && entry.LastChange == schema.RiskUp {
		return schema.RegressingStatus
	}
	return schema.OscillatingStatus
}

// Sparkline renders one symbol per history entry.
func Sparkline(history []schema.HistoryEntry) string {
	var sb strings.Builder
	for _, h := range history {
		switch {
		case h.Change == schema.Resolved:
			sb.WriteString("✓")
		case h.Reinforcement > 0:
			sb.WriteString("↑")
		case h.Reinforcement < 0:
			sb.WriteString("↓")
		default:
			sb.WriteString("-")
		}
	}
	return sb.String()
}

// Rows enriches every entry for display, sorted by path.
func Rows(t schema.Trajectory) []schema.TrajectoryRow {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	rows := make([]schema.TrajectoryRow, 0, len(paths))
	for _, p := range paths {
		entry := t[p]
		rows = append(rows, schema.TrajectoryRow{
			Path:               p,
			TotalReinforcement: entry.TotalReinforcement,
			LastChange:         entry.LastChange,
			Status:             Classify(entry),
			Sparkline:          Sparkline(entry.History),
			Cadence:            entry.Cadence,
			LastScheduledRun:   entry.LastScheduledRun,
		})
	}
	return rows
}
