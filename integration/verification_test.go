//go:build integration

// Package integration contains integration tests for historian.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
// Or use: make test-integration
package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/historian/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noCache = []string{"HISTORIAN_CACHE_BACKEND=none"}

func readState[T any](t *testing.T, repo, name string) T {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(repo, schema.DefaultStateDir, name))
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

// TestAnalyzeCommitCountsMatchGit verifies the mined commit counts against git log.
func TestAnalyzeCommitCountsMatchGit(t *testing.T) {
	repo := initRepo(t)
	_, err := runHistorian(t, repo, noCache, "analyze", "--output", "json", "--output-file", filepath.Join(t.TempDir(), "risk.json"))
	require.NoError(t, err)

	report := readState[schema.HistorianReport](t, repo, schema.ReportJSONFile)
	require.NotEmpty(t, report.FileCommitCounts)
	for file, historianCommits := range report.FileCommitCounts {
		t.Run(file, func(t *testing.T) {
			gitCmd := exec.Command("git", "log", "--oneline", "--no-renames", "--", file)
			gitCmd.Dir = repo
			gitOutput, err := gitCmd.Output()
			require.NoError(t, err)
			gitLines := strings.Split(strings.TrimSpace(string(gitOutput)), "\n")
			if gitLines[0] == "" {
				gitLines = []string{}
			}
			assert.Equal(t, len(gitLines), historianCommits, "commit count mismatch for %s", file)
		})
	}

	assert.Equal(t, 1, report.TodoCounts["app.py"])
	assert.NotContains(t, report.TodoCounts, "lib.py")
	assert.Len(t, report.TestFailures, 1)
	assert.Contains(t, report.FunctionEditCounts, "app.py")

	rm := readState[schema.RiskMap](t, repo, schema.RiskMapFile)
	assert.Equal(t, 1.0, rm["app.py"].CommitFactor)
	assert.Equal(t, 0.0, rm["lib.py"].TestFactor)
	assert.Greater(t, rm["app.py"].Risk, rm["lib.py"].Risk)
}

// TestRunPipelineAcrossRuns runs the pipeline twice and checks the derived feedback.
func TestRunPipelineAcrossRuns(t *testing.T) {
	repo := initRepo(t)
	schedulePath := filepath.Join(t.TempDir(), "schedule.json")
	_, err := runHistorian(t, repo, noCache, "run", "--run", "1", "--output", "json", "--output-file", schedulePath)
	require.NoError(t, err)

	// The first run has no previous risk map to compare against.
	assert.Empty(t, readState[schema.Trajectory](t, repo, schema.TrajectoryFile))

	// Raise the risk of lib.py with another commit and a TODO.
	require.NoError(t, os.WriteFile(filepath.Join(repo, "lib.py"), []byte("def helper():\n    return 4  # FIXME: magic\n"), 0o644))
	gitCmd := exec.Command("git", "-C", repo, "-c", "user.name=Test", "-c", "user.email=test@example.com", "commit", "-q", "-am", "bump helper")
	out, err := gitCmd.CombinedOutput()
	require.NoError(t, err, string(out))

	_, err = runHistorian(t, repo, noCache, "run", "--run", "2", "--output", "json", "--output-file", schedulePath)
	require.NoError(t, err)

	traj := readState[schema.Trajectory](t, repo, schema.TrajectoryFile)
	require.Contains(t, traj, "lib.py")
	assert.Equal(t, schema.RiskUp, traj["lib.py"].LastChange)
	require.Len(t, traj["lib.py"].History, 1)
	assert.Equal(t, 2, traj["lib.py"].History[0].Run)
	assert.Negative(t, traj["lib.py"].TotalReinforcement)
	// A regressing file is stagnant and gets scheduled right away.
	require.NotNil(t, traj["lib.py"].LastScheduledRun)
	assert.Equal(t, 2, *traj["lib.py"].LastScheduledRun)

	var printed struct {
		Run   int                  `json:"run"`
		Files []schema.ScheduleRow `json:"files"`
	}
	data, err := os.ReadFile(schedulePath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &printed))
	assert.Equal(t, 2, printed.Run)

	// Without --run the id continues after the last one, even with no new feedback
	_, err = runHistorian(t, repo, noCache, "run", "--output", "json", "--output-file", schedulePath)
	require.NoError(t, err)
	state := readState[schema.RunState](t, repo, schema.RunStateFile)
	assert.Equal(t, 3, state.LastRun)

	for _, name := range []string{schema.TrajectorySummaryFile, schema.EvolutionLogFile, schema.ReportMarkdownFile} {
		assert.FileExists(t, filepath.Join(repo, schema.DefaultStateDir, name))
	}

	report, err := runHistorian(t, repo, noCache, "report", "--emoji", "no", "--color", "no")
	require.NoError(t, err)
	assert.Contains(t, report, "lib.py")
	assert.Contains(t, report, "Trajectory Summary")
}
