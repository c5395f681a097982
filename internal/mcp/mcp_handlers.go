package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/historian/core"
	"github.com/huangsam/historian/internal/contract"
	"github.com/huangsam/historian/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	client  contract.GitClient
}

// requestConfig clones the base config and applies a repo_path override.
// Switching repositories also moves the state directory into the new repo.
func (h *toolHandler) requestConfig(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		if err := contract.ResolveRepoOverride(ctx, cfg, h.client, p); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetRiskMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repo_path: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	rows, err := core.GetRiskMapResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(rows), nil
}

func (h *toolHandler) handleGetTrajectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repo_path: %v", err)), nil
	}

	rows, err := core.GetTrajectoryResults(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trajectory read failed: %v", err)), nil
	}
	return jsonResult(rows), nil
}

func (h *toolHandler) handleGetSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repo_path: %v", err)), nil
	}
	cfg.Run = request.GetInt("run", cfg.Run)
	cfg.StagnationRuns = request.GetInt("stagnation_runs", cfg.StagnationRuns)
	cfg.MinCadence = request.GetInt("min_cadence", cfg.MinCadence)

	if err := validateScheduleParams(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid schedule parameters: %v", err)), nil
	}

	rows, run, err := core.GetScheduleResults(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("schedule failed: %v", err)), nil
	}
	return jsonResult(struct {
		Run   int                  `json:"run"`
		Files []schema.ScheduleRow `json:"files"`
	}{run, rows}), nil
}

func validateScheduleParams(cfg *contract.Config) error {
	if cfg.Run < 0 {
		return errors.New("run must be positive")
	}
	if cfg.StagnationRuns < 1 {
		return errors.New("stagnation_runs must be at least 1")
	}
	if cfg.MinCadence < 0 {
		return errors.New("min_cadence must not be negative")
	}
	return nil
}
