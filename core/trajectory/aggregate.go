// Package trajectory folds per-run reinforcement into each file's long-term history.
package trajectory

import "github.com/huangsam/historian/schema"

// Update applies the feedback of one run to prev and returns the new trajectory.
// prev is not modified. Files without feedback are carried over unchanged.
// When a file receives several events, all reinforcements accumulate and the
// last event determines last_change.
func Update(prev schema.Trajectory, feedback []schema.Feedback, run int) schema.Trajectory {
	next := prev.Clone()
	for _, fb := range feedback {
		entry := next[fb.Filename]
		entry.TotalReinforcement += fb.Reinforcement
		entry.LastChange = fb.Change
		entry.History = append(entry.History, schema.HistoryEntry{
			Run:           run,
			Change:        fb.Change,
			Reinforcement: fb.Reinforcement,
		})
		next[fb.Filename] = entry
	}
	return next
}

// NextRun returns the run id that follows both lastRun and the highest run
// recorded in t.
func NextRun(t schema.Trajectory, lastRun int) int {
	return max(t.MaxRun(), lastRun) + 1
}
