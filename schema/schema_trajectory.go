package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

// HistoryEntry is one run's reinforcement for a file.
type HistoryEntry struct {
	Run           int         `json:"run"`
	Change        ChangeLabel `json:"change"`
	Reinforcement int         `json:"reinforcement"`
}

// UnmarshalJSON accepts any whole JSON number as the reinforcement.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	type alias HistoryEntry
	aux := struct {
		*alias
		Reinforcement json.Number `json:"reinforcement"`
	}{alias: (*alias)(h)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n, err := wholeNumber("reinforcement", aux.Reinforcement)
	if err != nil {
		return err
	}
	h.Reinforcement = n
	return nil
}

// TrajectoryEntry is the longitudinal state of one file across runs.
type TrajectoryEntry struct {
	TotalReinforcement int            `json:"total_reinforcement"`
	LastChange         ChangeLabel    `json:"last_change"`
	Cadence            int            `json:"cadence"`
	LastScheduledRun   *int           `json:"last_scheduled_run,omitempty"`
	History            []HistoryEntry `json:"history"`
}

// UnmarshalJSON accepts any whole JSON number as the total reinforcement.
func (te *TrajectoryEntry) UnmarshalJSON(data []byte) error {
	type alias TrajectoryEntry
	aux := struct {
		*alias
		TotalReinforcement json.Number `json:"total_reinforcement"`
	}{alias: (*alias)(te)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n, err := wholeNumber("total_reinforcement", aux.TotalReinforcement)
	if err != nil {
		return err
	}
	te.TotalReinforcement = n
	return nil
}

// Clone returns a deep copy of the entry.
func (te TrajectoryEntry) Clone() TrajectoryEntry {
	out := te
	if te.History != nil {
		out.History = make([]HistoryEntry, len(te.History))
		copy(out.History, te.History)
	}
	if te.LastScheduledRun != nil {
		run := *te.LastScheduledRun
		out.LastScheduledRun = &run
	}
	return out
}

// Trajectory maps a file path to its trajectory entry.
type Trajectory map[string]TrajectoryEntry

// Clone returns a deep copy of the trajectory.
func (t Trajectory) Clone() Trajectory {
	out := make(Trajectory, len(t))
	for path, entry := range t {
		out[path] = entry.Clone()
	}
	return out
}

// MaxRun returns the highest run id found in any history, or 0.
func (t Trajectory) MaxRun() int {
	maxRun := 0
	for _, entry := range t {
		for _, h := range entry.History {
			maxRun = max(maxRun, h.Run)
		}
		if entry.LastScheduledRun != nil {
			maxRun = max(maxRun, *entry.LastScheduledRun)
		}
	}
	return maxRun
}

// Feedback is a reinforcement event for one file in one run.
type Feedback struct {
	Filename      string      `json:"filename"`
	Change        ChangeLabel `json:"change"`
	Reinforcement int         `json:"reinforcement"`
}

// UnmarshalJSON accepts any whole JSON number as the reinforcement.
func (fb *Feedback) UnmarshalJSON(data []byte) error {
	type alias Feedback
	aux := struct {
		*alias
		Reinforcement json.Number `json:"reinforcement"`
	}{alias: (*alias)(fb)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n, err := wholeNumber("reinforcement", aux.Reinforcement)
	if err != nil {
		return err
	}
	fb.Reinforcement = n
	return nil
}

// wholeNumber converts a JSON number such as 2 or 2.0 to an int. A missing
// number is 0. Fractions are rejected.
func wholeNumber(field string, n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", field, n.String())
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s %s must be a whole number", field, n.String())
	}
	return int(f), nil
}

// RunState is the run counter kept in the state directory.
type RunState struct {
	LastRun int `json:"last_run"`
}

// Schedule is the outcome of one scheduling pass.
type Schedule struct {
	Files      []string   `json:"files"`
	Trajectory Trajectory `json:"trajectory"`
}

// TrajectoryRow is a trajectory entry enriched for display and export.
type TrajectoryRow struct {
	Path               string           `json:"path"`
	TotalReinforcement int              `json:"total_reinforcement"`
	LastChange         ChangeLabel      `json:"last_change"`
	Status             TrajectoryStatus `json:"status"`
	Sparkline          string           `json:"sparkline"`
	Cadence            int              `json:"cadence"`
	LastScheduledRun   *int             `json:"last_scheduled_run,omitempty"`
}

// ScheduleRow is one file of a scheduling pass enriched for display and export.
type ScheduleRow struct {
	Path             string `json:"path"`
	Scheduled        bool   `json:"scheduled"`
	Cadence          int    `json:"cadence"`
	LastScheduledRun *int   `json:"last_scheduled_run,omitempty"`
}
