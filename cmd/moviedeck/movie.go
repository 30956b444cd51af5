package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

const (
	maxCastMembers  = 8
	maxReviews      = 2
	maxReviewLength = 400
)

func newMovieCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "movie <id>",
		Short:   "Show details, cast, reviews and trailer of a movie",
		Example: `  moviedeck movie 27205`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid movie id %q: must be a positive integer", args[0])
			}
			return runMovie(cmd.OutOrStdout(), id, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func runMovie(w io.Writer, id int, asJSON bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg.App.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := newCoordinator(ctx, initRepository(cfg, logger), cfg, logger)
	defer c.Close()

	err = runWithSpinner(ctx, fmt.Sprintf("Loading movie %d", id), func(ctx context.Context) error {
		return c.LoadMovie(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("load movie %d: %w", id, err)
	}

	card, err := collectMovie(c, id)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, card)
	}
	fmt.Fprint(w, renderMovie(card))
	return nil
}

// collectMovie reads the movie slots of c for id. Only a details failure is
// an error; the other parts are optional.
func collectMovie(c *viewstate.Coordinator, id int) (viewstate.MovieView, error) {
	card, err := c.Movie(id)
	if err != nil {
		return viewstate.MovieView{}, fmt.Errorf("load movie %d: %w", id, err)
	}
	return card, nil
}

func renderMovie(card viewstate.MovieView) string {
	d := card.Details
	var sb strings.Builder

	title := d.Title
	if y := d.Year(); y > 0 {
		title += " (" + strconv.Itoa(y) + ")"
	}
	sb.WriteString(styleHeader.Render(title) + "\n")
	if d.Tagline != "" {
		sb.WriteString(styleDim.Render(d.Tagline) + "\n")
	}

	meta := []string{styleRating.Render(fmt.Sprintf("★ %.1f (%d votes)", d.VoteAverage, d.VoteCount))}
	if d.Runtime != nil && *d.Runtime > 0 {
		meta = append(meta, fmt.Sprintf("%d min", *d.Runtime))
	}
	if genres := d.GenreNames(); len(genres) > 0 {
		meta = append(meta, strings.Join(genres, ", "))
	}
	sb.WriteString(strings.Join(meta, styleDim.Render(" · ")) + "\n")

	if d.Overview != "" {
		sb.WriteString("\n" + d.Overview + "\n")
	}

	if c := card.Credits; c != nil && len(c.Cast) > 0 {
		sb.WriteString("\n" + styleTitle.Render("Cast") + "\n")
		for i, m := range c.Cast {
			if i == maxCastMembers {
				break
			}
			sb.WriteString("  " + m.Name)
			if m.Character != "" {
				sb.WriteString(styleDim.Render(" as " + m.Character))
			}
			sb.WriteString("\n")
		}
	}

	if rv := card.Reviews; rv != nil && len(rv.Results) > 0 {
		sb.WriteString("\n" + styleTitle.Render("Reviews") + "\n")
		for i, r := range rv.Results {
			if i == maxReviews {
				break
			}
			sb.WriteString("  " + styleInfo.Render(r.Author) + ": " + truncate(r.Content, maxReviewLength) + "\n")
		}
	}

	if card.TrailerURL != "" {
		sb.WriteString("\n" + styleDim.Render("Trailer: ") + card.TrailerURL + "\n")
	}
	if poster := tmdb.PosterURL(d.PosterPath, "w500"); poster != "" {
		sb.WriteString(styleDim.Render("Poster:  ") + poster + "\n")
	}
	return sb.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
