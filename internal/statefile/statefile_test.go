package statefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()

	rm, err := LoadRiskMap(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, schema.RiskMap{}, rm)

	traj, err := LoadTrajectory(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, schema.Trajectory{}, traj)

	fb, err := LoadFeedback(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, fb)

	empty := write(t, dir, "empty.json", "  \n")
	rm, err = LoadRiskMap(empty)
	require.NoError(t, err)
	assert.Empty(t, rm)
}

func TestLoadRiskMapShapes(t *testing.T) {
	dir := t.TempDir()
	expected := schema.RiskMap{
		"a.py": {CommitFactor: 1, FunctionFactor: 0.5, TodoFactor: 0, TestFactor: 1, Risk: 0.625},
	}

	mapping := write(t, dir, "map.json", `{"a.py": {"commit_factor": 1, "function_factor": 0.5, "todo_factor": 0, "test_factor": 1, "risk": 0.625}}`)
	rm, err := LoadRiskMap(mapping)
	require.NoError(t, err)
	assert.Equal(t, expected, rm)

	list := write(t, dir, "list.json", `[{"filename": "a.py", "commit_factor": 1, "function_factor": 0.5, "todo_factor": 0, "test_factor": 1, "risk": 0.625}]`)
	rm, err = LoadRiskMap(list)
	require.NoError(t, err)
	assert.Equal(t, expected, rm)

	bad := write(t, dir, "bad.json", `[{"risk": 1}]`)
	_, err = LoadRiskMap(bad)
	assert.ErrorContains(t, err, "missing filename")
}

func TestLoadTrajectoryListShape(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "traj.json", `[
  {"filename": "a.py", "total_reinforcement": 2, "last_change": "risk_down",
   "history": [{"run": 1, "change": "risk_down", "reinforcement": 2}]}
]`)
	traj, err := LoadTrajectory(path)
	require.NoError(t, err)
	require.Contains(t, traj, "a.py")
	assert.Equal(t, 2, traj["a.py"].TotalReinforcement)
	assert.Equal(t, schema.RiskDown, traj["a.py"].LastChange)
	assert.Len(t, traj["a.py"].History, 1)
}

func TestTrajectoryRoundTrip(t *testing.T) {
	run := 3
	traj := schema.Trajectory{
		"a.py": {
			TotalReinforcement: 3,
			LastChange:         schema.Resolved,
			Cadence:            1,
			LastScheduledRun:   &run,
			History: []schema.HistoryEntry{
				{Run: 1, Change: schema.RiskUp, Reinforcement: -1},
				{Run: 2, Change: schema.RiskDown, Reinforcement: 3},
				{Run: 3, Change: schema.Resolved, Reinforcement: 1},
			},
		},
		"b.py": {TotalReinforcement: -2, LastChange: schema.RiskUp, History: []schema.HistoryEntry{{Run: 3, Change: schema.RiskUp, Reinforcement: -2}}},
	}
	path := filepath.Join(t.TempDir(), "nested", "trajectory.json")
	require.NoError(t, SaveTrajectory(path, traj))

	loaded, err := LoadTrajectory(path)
	require.NoError(t, err)
	assert.Equal(t, traj, loaded)
}

func TestRiskMapRoundTrip(t *testing.T) {
	rm := schema.RiskMap{"x.go": {CommitFactor: 0.333, TestFactor: 1, Risk: 0.333}}
	path := filepath.Join(t.TempDir(), "risk_map.json")
	require.NoError(t, SaveRiskMap(path, rm))

	loaded, err := LoadRiskMap(path)
	require.NoError(t, err)
	assert.Equal(t, rm, loaded)
}

func TestLoadFeedbackShapes(t *testing.T) {
	dir := t.TempDir()

	list := write(t, dir, "list.json", `[
  {"filename": "a.py", "change": "resolved", "reinforcement": 1},
  {"filename": "b.py", "change": "risk_up", "reinforcement": -2}
]`)
	fb, err := LoadFeedback(list)
	require.NoError(t, err)
	assert.Equal(t, []schema.Feedback{
		{Filename: "a.py", Change: schema.Resolved, Reinforcement: 1},
		{Filename: "b.py", Change: schema.RiskUp, Reinforcement: -2},
	}, fb)

	mapping := write(t, dir, "map.json", `{"b.py": {"change": "risk_up", "reinforcement": -2}, "a.py": {"change": "resolved", "reinforcement": 1}}`)
	fromMap, err := LoadFeedback(mapping)
	require.NoError(t, err)
	assert.Equal(t, fb, fromMap)
}

func TestDecodeFeedbackInvalid(t *testing.T) {
	_, err := DecodeFeedback([]byte(`[{"filename": "a.py", "change": "sideways", "reinforcement": 1}]`))
	assert.ErrorContains(t, err, "invalid change")

	_, err = DecodeFeedback([]byte(`[{"change": "resolved", "reinforcement": 1}]`))
	assert.ErrorContains(t, err, "missing filename")

	_, err = DecodeFeedback([]byte(`{not json`))
	assert.Error(t, err)

	empty, err := DecodeFeedback([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestSaveJSONFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, SaveJSON(path, map[string]int{"a": 1}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
}

func TestLoadWholeNumberReinforcement(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "traj.json", `{"a.py": {"total_reinforcement": 2.0, "last_change": "risk_down",
  "history": [{"run": 1, "change": "risk_down", "reinforcement": 2.0}]}}`)
	traj, err := LoadTrajectory(path)
	require.NoError(t, err)
	assert.Equal(t, 2, traj["a.py"].TotalReinforcement)
	assert.Equal(t, []schema.HistoryEntry{{Run: 1, Change: schema.RiskDown, Reinforcement: 2}}, traj["a.py"].History)

	fb, err := DecodeFeedback([]byte(`[{"filename": "a.py", "change": "risk_up", "reinforcement": -3.0}]`))
	require.NoError(t, err)
	assert.Equal(t, []schema.Feedback{{Filename: "a.py", Change: schema.RiskUp, Reinforcement: -3}}, fb)

	fb, err = DecodeFeedback([]byte(`{"a.py": {"change": "resolved"}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, fb[0].Reinforcement)
}

func TestLoadFractionalReinforcement(t *testing.T) {
	_, err := DecodeFeedback([]byte(`[{"filename": "a.py", "change": "risk_down", "reinforcement": 0.5}]`))
	assert.ErrorContains(t, err, "reinforcement 0.5 must be a whole number")

	path := write(t, t.TempDir(), "traj.json", `{"a.py": {"total_reinforcement": 1, "history": [{"run": 1, "change": "risk_down", "reinforcement": 1.25}]}}`)
	_, err = LoadTrajectory(path)
	assert.ErrorContains(t, err, "must be a whole number")
}

func TestRunStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "run_state.json")
	state, err := LoadRunState(path)
	require.NoError(t, err)
	assert.Equal(t, 0, state.LastRun)

	require.NoError(t, SaveRunState(path, schema.RunState{LastRun: 4}))
	state, err = LoadRunState(path)
	require.NoError(t, err)
	assert.Equal(t, 4, state.LastRun)

	bad := write(t, t.TempDir(), "bad.json", `{"last_run": "x"}`)
	_, err = LoadRunState(bad)
	assert.Error(t, err)
}
