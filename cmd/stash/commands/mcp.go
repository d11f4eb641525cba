// ABOUTME: MCP command starts a Model Context Protocol server
// ABOUTME: Lets LLM agents like Claude use stash via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs stash as an MCP (Model Context Protocol) server, letting LLM
agents like Claude save, search, and declutter via stdio.

Configure in Claude Desktop's config file to enable the stash tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  stash mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "stash": {
  #       "command": "stash",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn("error closing storage", "err", err)
		}
	}()

	server := mcpserver.NewMCPServer("stash", versionInfo.Version)
	mcp.RegisterTools(server, a.Items, a.Search, a.Declutter, a.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
