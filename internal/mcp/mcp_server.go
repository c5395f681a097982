// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/historian/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Historian MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Historian Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		client:  contract.NewLocalGitClient(),
	}

	// --- 1. Tool: get_risk_map ---
	s.AddTool(mcp.NewTool("get_risk_map",
		mcp.WithDescription("Mine git history and score every source file by commit churn, function edits, TODOs and missing tests. Nothing is persisted."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to current directory if not specified).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleGetRiskMap)

	// --- 2. Tool: get_trajectory ---
	s.AddTool(mcp.NewTool("get_trajectory",
		mcp.WithDescription("Read the stored long-term trajectory of every tracked file, with its status and reinforcement sparkline."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository whose state directory is read.")),
	), h.handleGetTrajectory)

	// --- 3. Tool: get_schedule ---
	s.AddTool(mcp.NewTool("get_schedule",
		mcp.WithDescription("Preview which stagnant files would be scheduled for a rewrite. The stored trajectory is not modified."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository whose state directory is read.")),
		mcp.WithNumber("run", mcp.Description("Run id to schedule for (defaults to the latest recorded run).")),
		mcp.WithNumber("stagnation_runs", mcp.Description("Trailing history window inspected per file.")),
		mcp.WithNumber("min_cadence", mcp.Description("Runs a stagnant file waits between rewrites.")),
	), h.handleGetSchedule)

	return s
}

// StartMCPServer starts the Historian MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
