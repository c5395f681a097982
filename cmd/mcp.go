package cmd

import (
	"github.com/huangsam/historian/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Historian MCP server",
	Long:  `Launch an MCP server that allows AI agents to read risk maps, trajectories and rewrite schedules via standard tools.`,
	// Tool handlers suppress phase headers since stdio carries the protocol
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
