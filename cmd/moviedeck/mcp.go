package main

import (
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/config"
	mcpserver "github.com/vadimtrunov/MovieDeck/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand. It exposes the movie
// repository as MCP tools over stdin/stdout.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := config.SetupLogger(cfg.App.LogLevel)

			srv := mcpserver.NewServer(mcpserver.Deps{
				Movies:  initRepository(cfg, logger),
				Version: version,
			}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
