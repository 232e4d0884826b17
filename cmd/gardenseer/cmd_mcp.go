package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mossline/gardenseer/internal/logging"
	"github.com/mossline/gardenseer/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run gardenseer as an MCP (Model Context Protocol) server over stdio.

Exposes the garden tools (garden_train, garden_simulate,
garden_alternatives, garden_next_event, garden_trajectory) to MCP
clients. Blocks until the client disconnects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// Logs go to stderr; stdout is the MCP transport.
			log := logging.NewLogger(cfg.Logging.Level, os.Stderr)

			srv, err := mcp.NewServer(&mcp.Config{
				Name:    "gardenseer",
				Version: version,
				Root:    root,
				DataDir: dataDir(cfg, root),
				Runtime: cfg,
			}, log)
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}
			defer srv.Close()

			log.Info("starting MCP server", "version", version)
			return srv.Run(context.Background())
		},
	}
}
