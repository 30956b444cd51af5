package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/httpclient"
	"github.com/vadimtrunov/MovieDeck/internal/repository"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleTitle = lipgloss.NewStyle().Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file. When the default
// file is absent, configuration comes from MOVIEDECK_* variables alone.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(path); path == defaultConfigPath && errors.Is(statErr, os.ErrNotExist) {
		cfg, err = config.FromEnv()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// initRepository builds the shared HTTP client, the TMDb client and the
// repository on top of them.
func initRepository(cfg *config.Config, logger *slog.Logger) *repository.MovieRepository {
	hc := httpclient.New(httpclient.Config{
		MaxAttempts: cfg.HTTP.MaxAttempts,
		BaseDelay:   cfg.HTTP.BaseDelay,
		MaxDelay:    cfg.HTTP.MaxDelay,
		Timeout:     cfg.HTTP.Timeout,
		DialTimeout: cfg.HTTP.DialTimeout,
	}, logger, httpclient.WithMiddleware(tmdb.APIKeyMiddleware(cfg.TMDb.APIKey, cfg.TMDb.Language)))

	client := tmdb.New(hc, tmdb.Options{
		BaseURL: cfg.TMDb.BaseURL,
		Region:  cfg.TMDb.Region,
	}, logger)

	logger.Info("TMDb client initialized",
		slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)),
		slog.String("language", cfg.TMDb.Language),
	)
	return repository.New(client, logger)
}

// newCoordinator creates a coordinator that does not fetch on its own.
// Commands decide what to load.
func newCoordinator(ctx context.Context, repo viewstate.Repository, cfg *config.Config, logger *slog.Logger) *viewstate.Coordinator {
	return viewstate.New(ctx, repo, viewstate.Options{
		TrendingWindow: cfg.App.TrendingWindow,
		Idle:           true,
	}, logger)
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
