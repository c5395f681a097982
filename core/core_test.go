package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/internal/iocache"
	"github.com/huangsam/historian/internal/statefile"
	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestConfig returns a config rooted at a fresh temp repository.
func newTestConfig(t *testing.T) *contract.Config {
	t.Helper()
	repo := t.TempDir()
	return &contract.Config{
		RepoPath:       repo,
		StateDir:       filepath.Join(repo, schema.DefaultStateDir),
		ResultLimit:    10,
		Precision:      3,
		Output:         schema.JSONOut,
		OutputFile:     filepath.Join(t.TempDir(), "out.json"),
		StagnationRuns: schema.DefaultStagnationRuns,
		CacheBackend:   schema.NoneBackend,
	}
}

// newMockRepo serves a two-commit history over app.py and lib.py. app.py holds
// one TODO in the working tree, and test_lib.py covers lib.py.
func newMockRepo(t *testing.T, ctx context.Context, root string) *contract.MockGitClient {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte("def run():\n    pass  # TODO split\n"), 0o644))

	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	commits := []schema.CommitRecord{
		{Hash: "c1", Parent: schema.EmptyTreeHash, Time: when, Message: "initial", Files: []string{"app.py", "lib.py"}},
		{Hash: "c2", Parent: "c1", Time: when.AddDate(0, 1, 0), Message: "tweak", Files: []string{"app.py"}},
	}
	client := new(contract.MockGitClient)
	client.On("ListCommits", ctx, root).Return(commits, nil)
	client.On("GetCommitPatch", ctx, root, schema.EmptyTreeHash, "c1").Return([]byte{}, nil)
	client.On("GetCommitPatch", ctx, root, "c1", "c2").Return([]byte{}, nil)
	client.On("ListFiles", ctx, root).Return([]string{"README.md", "app.py", "lib.py", "test_lib.py"}, nil)
	return client
}

func TestRunAnalysis(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	client := newMockRepo(t, ctx, cfg.RepoPath)

	out, err := runAnalysis(ctx, cfg, client, nil)
	require.NoError(t, err)

	require.Len(t, out.RiskMap, 3)
	assert.Equal(t, schema.RiskEntry{CommitFactor: 1, FunctionFactor: 0, TodoFactor: 1, TestFactor: 1, Risk: 0.75}, out.RiskMap["app.py"])
	assert.Equal(t, schema.RiskEntry{CommitFactor: 0.5, Risk: 0.125}, out.RiskMap["lib.py"])
	assert.Equal(t, schema.RiskEntry{}, out.RiskMap["test_lib.py"])
	assert.Equal(t, []schema.HighChurnFile{{File: "app.py", CommitCount: 2}, {File: "lib.py", CommitCount: 1}}, out.Report.HighChurnFiles)
	require.Len(t, out.Evolution.Suggestions, 1)
	assert.Equal(t, "app.py", out.Evolution.Suggestions[0].File)

	require.NoError(t, persistAnalysis(cfg, out))
	for _, name := range []string{schema.RiskMapFile, schema.ReportJSONFile, schema.ReportMarkdownFile, schema.EvolutionLogFile} {
		assert.FileExists(t, cfg.StatePath(name))
	}
	saved, err := statefile.LoadRiskMap(cfg.StatePath(schema.RiskMapFile))
	require.NoError(t, err)
	assert.Equal(t, out.RiskMap, saved)
	client.AssertExpectations(t)
}

func TestRunAnalysisFilters(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	cfg.Excludes = []string{"lib.py"}
	client := newMockRepo(t, ctx, cfg.RepoPath)

	out, err := runAnalysis(ctx, cfg, client, nil)
	require.NoError(t, err)
	assert.Contains(t, out.RiskMap, "app.py")
	assert.NotContains(t, out.RiskMap, "lib.py")
}

func TestRunAnalysisFilterKeepsOutsideTests(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	cfg.PathFilter = "lib"
	client := newMockRepo(t, ctx, cfg.RepoPath)

	out, err := runAnalysis(ctx, cfg, client, nil)
	require.NoError(t, err)
	require.Len(t, out.RiskMap, 1)
	assert.Equal(t, schema.RiskEntry{CommitFactor: 1, Risk: 0.25}, out.RiskMap["lib.py"])
}

func TestRunAnalysisGitFailure(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig(t)
	client := new(contract.MockGitClient)
	client.On("ListCommits", ctx, cfg.RepoPath).Return(nil, errors.New("fatal: bad object"))

	_, err := runAnalysis(ctx, cfg, client, nil)
	assert.ErrorContains(t, err, "bad object")
}

func TestRunTrajectoryDerivesFeedback(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	client := newMockRepo(t, ctx, cfg.RepoPath)

	prevRisk := schema.RiskMap{
		"app.py":  {Risk: 0.5},
		"lib.py":  {CommitFactor: 0.5, Risk: 0.125},
		"gone.py": {Risk: 0.9},
	}
	require.NoError(t, statefile.SaveRiskMap(cfg.StatePath(schema.RiskMapFile), prevRisk))

	out, err := runTrajectory(ctx, cfg, client, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Run)
	require.NotNil(t, out.Analysis)
	assert.Equal(t, []schema.Feedback{
		{Filename: "app.py", Change: schema.RiskUp, Reinforcement: -3},
		{Filename: "gone.py", Change: schema.Resolved, Reinforcement: 1},
	}, out.Feedback)

	saved, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	require.NoError(t, err)
	assert.Equal(t, out.Trajectory, saved)
	assert.Equal(t, -3, saved["app.py"].TotalReinforcement)
	assert.Equal(t, schema.Resolved, saved["gone.py"].LastChange)
	assert.NotContains(t, saved, "lib.py")

	summary, err := os.ReadFile(cfg.StatePath(schema.TrajectorySummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "📈 Trajectory Summary")
}

func TestRunTrajectoryFromFeedbackFile(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	cfg.Run = 5
	cfg.FeedbackFile = filepath.Join(t.TempDir(), "feedback.json")
	require.NoError(t, os.WriteFile(cfg.FeedbackFile, []byte(`{"a.py": {"change": "risk_down", "reinforcement": 2}}`), 0o644))

	client := new(contract.MockGitClient) // No git access expected
	out, err := runTrajectory(ctx, cfg, client, nil)
	require.NoError(t, err)
	assert.Nil(t, out.Analysis)
	assert.Equal(t, 5, out.Run)
	assert.Equal(t, []schema.HistoryEntry{{Run: 5, Change: schema.RiskDown, Reinforcement: 2}}, out.Trajectory["a.py"].History)
	client.AssertExpectations(t)
}

func TestRunPipelineTracksRun(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	client := newMockRepo(t, ctx, cfg.RepoPath)

	// app.py keeps its risk and already regressed once, so it is stagnant.
	require.NoError(t, statefile.SaveRiskMap(cfg.StatePath(schema.RiskMapFile), schema.RiskMap{
		"app.py": {CommitFactor: 1, TodoFactor: 1, TestFactor: 1, Risk: 0.75},
		"lib.py": {CommitFactor: 0.5, Risk: 0.125},
	}))
	require.NoError(t, statefile.SaveTrajectory(cfg.StatePath(schema.TrajectoryFile), schema.Trajectory{
		"app.py": {TotalReinforcement: -1, LastChange: schema.RiskUp, History: []schema.HistoryEntry{{Run: 1, Change: schema.RiskUp, Reinforcement: -1}}},
	}))

	runStore := new(iocache.MockRunStore)
	runStore.On("BeginRun", 2, cfg.RepoPath, mock.Anything, mock.Anything).Return(int64(7), nil)
	runStore.On("RecordFileRisk", int64(7), "app.py", mock.MatchedBy(func(in schema.FileRiskInput) bool {
		return in.Scheduled && in.Status == schema.RegressingStatus && in.CommitCount == 2 && in.TodoCount == 1
	})).Return(nil)
	runStore.On("RecordFileRisk", int64(7), "lib.py", mock.MatchedBy(func(in schema.FileRiskInput) bool {
		return !in.Scheduled && in.Status == "" && in.Entry.Risk == 0.125
	})).Return(nil)
	runStore.On("RecordFileRisk", int64(7), "test_lib.py", mock.Anything).Return(nil)
	runStore.On("EndRun", int64(7), mock.Anything, 3, 1).Return(nil)

	mgr := new(iocache.MockCacheManager)
	mgr.On("GetHistoryStore").Return(nil)
	mgr.On("GetRunStore").Return(runStore)

	out, err := runPipeline(ctx, cfg, client, mgr)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Run)
	assert.Empty(t, out.Feedback)
	assert.Equal(t, []string{"app.py"}, out.Schedule.Files)
	require.NotNil(t, out.Trajectory["app.py"].LastScheduledRun)
	assert.Equal(t, 2, *out.Trajectory["app.py"].LastScheduledRun)
	assert.Equal(t, 0, out.Trajectory["app.py"].Cadence)

	saved, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	require.NoError(t, err)
	assert.Equal(t, out.Schedule.Trajectory, saved)
	runStore.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

func TestRunPipelineTrackingFailureDoesNotAbort(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	client := newMockRepo(t, ctx, cfg.RepoPath)

	runStore := new(iocache.MockRunStore)
	runStore.On("BeginRun", 1, cfg.RepoPath, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	mgr := new(iocache.MockCacheManager)
	mgr.On("GetHistoryStore").Return(nil)
	mgr.On("GetRunStore").Return(runStore)

	out, err := runPipeline(ctx, cfg, client, mgr)
	require.NoError(t, err)
	assert.Len(t, out.Analysis.RiskMap, 3)
	runStore.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	runStore.AssertNotCalled(t, "RecordFileRisk", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunPipelineAdvancesRunWithoutFeedback(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	client := newMockRepo(t, ctx, cfg.RepoPath)

	for want := 1; want <= 3; want++ {
		out, err := runPipeline(ctx, cfg, client, nil)
		require.NoError(t, err)
		assert.Equal(t, want, out.Run)
		assert.Empty(t, out.Feedback)
	}
	state, err := statefile.LoadRunState(cfg.StatePath(schema.RunStateFile))
	require.NoError(t, err)
	assert.Equal(t, 3, state.LastRun)

	traj, err := runTrajectory(ctx, cfg, client, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, traj.Run)

	rows, run, err := GetScheduleResults(cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, run)
	assert.Empty(t, rows)
}

func TestRunPipelineExplicitRunKeepsCounter(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	client := newMockRepo(t, ctx, cfg.RepoPath)
	require.NoError(t, statefile.SaveRunState(cfg.StatePath(schema.RunStateFile), schema.RunState{LastRun: 5}))

	cfg.Run = 2
	out, err := runPipeline(ctx, cfg, client, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Run)

	state, err := statefile.LoadRunState(cfg.StatePath(schema.RunStateFile))
	require.NoError(t, err)
	assert.Equal(t, 5, state.LastRun)
}

func TestExecuteSchedule(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	require.NoError(t, statefile.SaveTrajectory(cfg.StatePath(schema.TrajectoryFile), schema.Trajectory{
		"a.py": {TotalReinforcement: 1, LastChange: schema.RiskDown, History: []schema.HistoryEntry{{Run: 3, Change: schema.RiskDown, Reinforcement: 1}}},
		"b.py": {TotalReinforcement: -1, LastChange: schema.RiskUp, History: []schema.HistoryEntry{{Run: 3, Change: schema.RiskUp, Reinforcement: -1}}},
	}))

	require.NoError(t, ExecuteSchedule(ctx, cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var printed struct {
		Run   int                  `json:"run"`
		Files []schema.ScheduleRow `json:"files"`
	}
	require.NoError(t, json.Unmarshal(data, &printed))
	assert.Equal(t, 3, printed.Run)
	require.Len(t, printed.Files, 2)
	assert.False(t, printed.Files[0].Scheduled)
	assert.Equal(t, 1, printed.Files[0].Cadence)
	assert.True(t, printed.Files[1].Scheduled)

	saved, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	require.NoError(t, err)
	assert.Equal(t, 1, saved["a.py"].Cadence)
	require.NotNil(t, saved["b.py"].LastScheduledRun)
	assert.Equal(t, 3, *saved["b.py"].LastScheduledRun)
}

func TestGetScheduleResultsDoesNotPersist(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Run = 9
	prev := schema.Trajectory{"a.py": {LastChange: schema.NoChange}}
	require.NoError(t, statefile.SaveTrajectory(cfg.StatePath(schema.TrajectoryFile), prev))

	rows, run, err := GetScheduleResults(cfg)
	require.NoError(t, err)
	assert.Equal(t, 9, run)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Scheduled)

	saved, err := statefile.LoadTrajectory(cfg.StatePath(schema.TrajectoryFile))
	require.NoError(t, err)
	assert.Equal(t, prev, saved)
}

func TestExecuteReport(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	cfg := newTestConfig(t)
	require.NoError(t, statefile.SaveRiskMap(cfg.StatePath(schema.RiskMapFile), schema.RiskMap{
		"a.py": {Risk: 0.2},
		"b.py": {Risk: 0.8},
	}))

	require.NoError(t, ExecuteReport(ctx, cfg, nil))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var printed struct {
		RiskMap    []schema.HeatmapRow    `json:"risk_map"`
		Trajectory []schema.TrajectoryRow `json:"trajectory"`
	}
	require.NoError(t, json.Unmarshal(data, &printed))
	require.Len(t, printed.RiskMap, 2)
	assert.Equal(t, "b.py", printed.RiskMap[0].Path)
	assert.Equal(t, schema.HighPriority, printed.RiskMap[0].Priority)
	assert.Empty(t, printed.Trajectory)
}

func TestShouldSuppressHeader(t *testing.T) {
	assert.False(t, shouldSuppressHeader(context.Background()))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(context.Background())))
}
