package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/filter"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

type listOptions struct {
	window string
	where  string
	search string
	limit  int
	json   bool
}

func newListCmd() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list <category>",
		Short: "Print a movie list",
		Long:  "Print one TMDb movie list: trending, now-playing, popular, top-rated or upcoming.",
		Example: `  moviedeck list trending --window week
  moviedeck list popular --where 'VoteAverage >= 7 && Year >= 2020'
  moviedeck list top-rated --search godfather --json`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: listCategoryNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := parseListCategory(args[0])
			if err != nil {
				return err
			}
			return runList(cmd.OutOrStdout(), cat, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.window, "window", "", "trending time window: day or week (default from config)")
	flags.StringVar(&opts.where, "where", "", "filter expression, e.g. 'VoteAverage > 7 && hasGenre(28)'")
	flags.StringVar(&opts.search, "search", "", "fuzzy title search")
	flags.IntVar(&opts.limit, "limit", 20, "maximum number of movies to print, 0 for all")
	flags.BoolVar(&opts.json, "json", false, "print JSON")
	return cmd
}

func listCategoryNames() []string {
	cats := viewstate.ListCategories()
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.String())
	}
	return names
}

func parseListCategory(s string) (viewstate.Category, error) {
	cat, err := viewstate.ParseCategory(s)
	if err != nil {
		return 0, err
	}
	if !slices.Contains(viewstate.ListCategories(), cat) {
		return 0, fmt.Errorf("%s is not a movie list, use one of %v", cat, listCategoryNames())
	}
	return cat, nil
}

func validateWindow(window string) error {
	switch window {
	case "", "day", "week":
		return nil
	}
	return fmt.Errorf("invalid time window %q: must be day or week", window)
}

func runList(w io.Writer, cat viewstate.Category, opts listOptions) error {
	if err := validateWindow(opts.window); err != nil {
		return err
	}
	var f *filter.Filter
	if opts.where != "" {
		var err error
		if f, err = filter.Compile(opts.where); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg.App.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := newCoordinator(ctx, initRepository(cfg, logger), cfg, logger)
	defer c.Close()

	window := opts.window
	if window == "" {
		window = cfg.App.TrendingWindow
	}
	err = runWithSpinner(ctx, "Loading "+categoryTitle(cat), func(ctx context.Context) error {
		return c.Load(ctx, cat, window)
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", cat, err)
	}
	if failure := c.CategoryError(cat); failure != nil {
		return fmt.Errorf("load %s: %w", cat, failure)
	}

	movies, _ := c.Movies(cat)
	movies = narrowMovies(movies, f, opts.search, opts.limit)
	if opts.json {
		return writeJSON(w, movies)
	}
	printMovieList(w, categoryTitle(cat), movies)
	return nil
}

// narrowMovies applies the filter, then the fuzzy search, then the limit.
func narrowMovies(movies []tmdb.Movie, f *filter.Filter, search string, limit int) []tmdb.Movie {
	if f != nil {
		movies = f.Apply(movies)
	}
	if search != "" {
		movies = filter.Search(search, movies)
	}
	if limit > 0 && len(movies) > limit {
		movies = movies[:limit]
	}
	return movies
}

func printMovieList(w io.Writer, title string, movies []tmdb.Movie) {
	fmt.Fprintln(w, styleHeader.Render(title))
	if len(movies) == 0 {
		fmt.Fprintln(w, styleDim.Render("No movies found."))
		return
	}
	for i, m := range movies {
		fmt.Fprintf(w, "%s %s  %s  %s\n",
			styleDim.Render(fmt.Sprintf("%2d.", i+1)),
			styleTitle.Render(movieLabel(m)),
			styleRating.Render(fmt.Sprintf("★ %.1f", m.VoteAverage)),
			styleDim.Render("#"+strconv.Itoa(m.ID)),
		)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func movieLabel(m tmdb.Movie) string {
	if y := m.Year(); y > 0 {
		return m.Title + " (" + strconv.Itoa(y) + ")"
	}
	return m.Title
}

func categoryTitle(cat viewstate.Category) string {
	switch cat {
	case viewstate.CategoryTrending:
		return "Trending"
	case viewstate.CategoryNowPlaying:
		return "Now playing"
	case viewstate.CategoryPopular:
		return "Popular"
	case viewstate.CategoryTopRated:
		return "Top rated"
	case viewstate.CategoryUpcoming:
		return "Upcoming"
	}
	return cat.String()
}
