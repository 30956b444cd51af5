package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	version           = "0.1.0"
	defaultConfigPath = "configs/moviedeck.yaml"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moviedeck",
		Short: "Browse TMDb movie lists from the terminal",
		Long: "MovieDeck browses trending, now playing, popular, top rated and upcoming movies\n" +
			"from The Movie Database, with details, cast, reviews and trailers.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newListCmd(),
		newMovieCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "MovieDeck v%s\n", version)
		},
	}
}
