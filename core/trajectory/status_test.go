package trajectory

import (
	"testing"

	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func history(values ...int) []schema.HistoryEntry {
	out := make([]schema.HistoryEntry, 0, len(values))
	for i, v := range values {
		change := schema.NoChange
		switch {
		case v > 0:
			change = schema.RiskDown
		case v < 0:
			change = schema.RiskUp
		}
		out = append(out, schema.HistoryEntry{Run: i + 1, Change: change, Reinforcement: v})
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		entry    schema.TrajectoryEntry
		expected schema.TrajectoryStatus
	}{
		{
			name:     "resolved wins over mixed history",
			entry:    schema.TrajectoryEntry{LastChange: schema.Resolved, TotalReinforcement: 2, History: history(-1, 3)},
			expected: schema.ResolvedStatus,
		},
		{
			name:     "uniform negative is regressing",
			entry:    schema.TrajectoryEntry{LastChange: schema.RiskUp, TotalReinforcement: -3, History: history(-1, -2)},
			expected: schema.RegressingStatus,
		},
		{
			name:     "uniform positive is healing",
			entry:    schema.TrajectoryEntry{LastChange: schema.RiskDown, TotalReinforcement: 3, History: history(1, 2)},
			expected: schema.HealingStatus,
		},
		{
			name:     "all zero history is healing by uniform sign",
			entry:    schema.TrajectoryEntry{History: history(0, 0)},
			expected: schema.HealingStatus,
		},
		{
			name:     "mixed with positive total and risk down",
			entry:    schema.TrajectoryEntry{LastChange: schema.RiskDown, TotalReinforcement: 2, History: history(-1, 3)},
			expected: schema.HealingStatus,
		},
		{
			name:     "mixed with negative total and risk up",
			entry:    schema.TrajectoryEntry{LastChange: schema.RiskUp, TotalReinforcement: -2, History: history(1, -3)},
			expected: schema.RegressingStatus,
		},
		{
			name:     "mixed without a matching heuristic",
			entry:    schema.TrajectoryEntry{LastChange: schema.RiskUp, TotalReinforcement: 2, History: history(3, -1)},
			expected: schema.OscillatingStatus,
		},
		{
			name:     "no history and no signal",
			entry:    schema.TrajectoryEntry{},
			expected: schema.OscillatingStatus,
		},
		{
			name:     "empty history uses the total heuristic",
			entry:    schema.TrajectoryEntry{LastChange: schema.RiskDown, TotalReinforcement: 1},
			expected: schema.HealingStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.entry))
		})
	}
}

func TestSparkline(t *testing.T) {
	h := []schema.HistoryEntry{
		{Change: schema.RiskUp, Reinforcement: -1},
		{Change: schema.Resolved, Reinforcement: 3},
		{Change: schema.RiskDown, Reinforcement: 2},
		{Change: schema.NoChange, Reinforcement: 0},
	}
	assert.Equal(t, "↓✓↑-", Sparkline(h))
	assert.Equal(t, "", Sparkline(nil))
}

func TestRows(t *testing.T) {
	traj := schema.Trajectory{
		"b.py": {TotalReinforcement: -2, LastChange: schema.RiskUp, History: history(-2)},
		"a.py": {
			TotalReinforcement: 2,
			LastChange:         schema.RiskDown,
			History: []schema.HistoryEntry{
				{Run: 1, Change: schema.RiskUp, Reinforcement: -1},
				{Run: 2, Change: schema.Resolved, Reinforcement: 3},
			},
		},
	}
	rows := Rows(traj)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.py", rows[0].Path)
	assert.Equal(t, schema.HealingStatus, rows[0].Status)
	assert.Equal(t, "↓✓", rows[0].Sparkline)
	assert.Equal(t, "b.py", rows[1].Path)
	assert.Equal(t, schema.RegressingStatus, rows[1].Status)
}
