package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCmd returns the "config" subcommand group for configuration management.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

// newConfigValidateCmd returns the "config validate" subcommand that checks config file validity.
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styleSuccess.Render("✓ Configuration is valid"))
			fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("  TMDb: "+sanitizeURL(cfg.TMDb.BaseURL)+" ("+cfg.TMDb.Language+")"))
			if cfg.Telegram != nil {
				fmt.Fprintln(cmd.OutOrStdout(), styleDim.Render("  Telegram bot configured"))
			}
			return nil
		},
	}
}
