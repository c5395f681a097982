package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/huangsam/historian/internal/contract"
	mcp_internal "github.com/huangsam/historian/internal/mcp"
	"github.com/huangsam/historian/internal/statefile"
	"github.com/huangsam/historian/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(t *testing.T, ctx context.Context, baseCfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseCfg, nil)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func seedState(t *testing.T) *contract.Config {
	t.Helper()
	repo := t.TempDir()
	cfg := &contract.Config{
		RepoPath:       repo,
		StateDir:       filepath.Join(repo, schema.DefaultStateDir),
		ResultLimit:    10,
		StagnationRuns: schema.DefaultStagnationRuns,
	}
	require.NoError(t, statefile.SaveTrajectory(cfg.StatePath(schema.TrajectoryFile), schema.Trajectory{
		"a.py": {TotalReinforcement: 2, LastChange: schema.RiskDown, History: []schema.HistoryEntry{{Run: 2, Change: schema.RiskDown, Reinforcement: 2}}},
		"b.py": {TotalReinforcement: -1, LastChange: schema.RiskUp, History: []schema.HistoryEntry{{Run: 2, Change: schema.RiskUp, Reinforcement: -1}}},
	}))
	return cfg
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	baseCfg := seedState(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"zero stagnation runs", map[string]any{"stagnation_runs": 0.0}, "stagnation_runs must be at least 1"},
		{"negative min cadence", map[string]any{"min_cadence": -1.0}, "min_cadence must not be negative"},
		{"negative run", map[string]any{"run": -3.0}, "run must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, ctx, baseCfg, "get_schedule", tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestMCPServerHandlers_GetTrajectory(t *testing.T) {
	baseCfg := seedState(t)
	res := callTool(t, context.Background(), baseCfg, "get_trajectory", nil)
	require.False(t, res.IsError, resultText(res))

	var rows []schema.TrajectoryRow
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a.py", rows[0].Path)
	assert.Equal(t, schema.HealingStatus, rows[0].Status)
	assert.Equal(t, schema.RegressingStatus, rows[1].Status)
}

func TestMCPServerHandlers_GetTrajectoryRepoOverride(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
	baseCfg := seedState(t)

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	out, err := exec.Command("git", "-C", root, "init", "-q").CombinedOutput()
	require.NoError(t, err, string(out))
	sub := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, statefile.SaveTrajectory(filepath.Join(root, schema.DefaultStateDir, schema.TrajectoryFile), schema.Trajectory{
		"src/c.py": {TotalReinforcement: 1, LastChange: schema.RiskDown, History: []schema.HistoryEntry{{Run: 1, Change: schema.RiskDown, Reinforcement: 1}}},
	}))

	res := callTool(t, context.Background(), baseCfg, "get_trajectory", map[string]any{"repo_path": sub})
	require.False(t, res.IsError, resultText(res))
	var rows []schema.TrajectoryRow
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "src/c.py", rows[0].Path)
	assert.NoDirExists(t, filepath.Join(sub, schema.DefaultStateDir))
}

func TestMCPServerHandlers_RepoOverrideNotRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
	baseCfg := seedState(t)
	res := callTool(t, context.Background(), baseCfg, "get_schedule", map[string]any{"repo_path": t.TempDir()})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "invalid repo_path")
}

func TestMCPServerHandlers_GetScheduleDoesNotPersist(t *testing.T) {
	baseCfg := seedState(t)
	res := callTool(t, context.Background(), baseCfg, "get_schedule", map[string]any{"run": 3.0})
	require.False(t, res.IsError, resultText(res))

	var decoded struct {
		Run   int                  `json:"run"`
		Files []schema.ScheduleRow `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &decoded))
	assert.Equal(t, 3, decoded.Run)
	require.Len(t, decoded.Files, 2)
	assert.False(t, decoded.Files[0].Scheduled)
	assert.True(t, decoded.Files[1].Scheduled)

	saved, err := statefile.LoadTrajectory(baseCfg.StatePath(schema.TrajectoryFile))
	require.NoError(t, err)
	assert.Nil(t, saved["b.py"].LastScheduledRun)
}
