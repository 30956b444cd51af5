package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/MovieDeck/internal/core"
	"github.com/vadimtrunov/MovieDeck/internal/filter"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
)

// Movies is the repository surface exposed as tools.
type Movies interface {
	TrendingMovies(ctx context.Context, timeWindow string) core.Result[tmdb.MovieList]
	NowPlayingMovies(ctx context.Context) core.Result[tmdb.NowPlayingList]
	PopularMovies(ctx context.Context) core.Result[tmdb.MovieList]
	TopRatedMovies(ctx context.Context) core.Result[tmdb.MovieList]
	UpcomingMovies(ctx context.Context) core.Result[tmdb.MovieList]
	MovieDetails(ctx context.Context, movieID int) core.Result[tmdb.MovieDetails]
	MovieReviews(ctx context.Context, movieID int) core.Result[tmdb.ReviewList]
	CastDetails(ctx context.Context, movieID int) core.Result[tmdb.Credits]
	MovieVideos(ctx context.Context, movieID int) core.Result[tmdb.VideoList]
}

// Deps holds dependencies for MCP tool handlers.
type Deps struct {
	Movies  Movies
	Version string
}

// Server wraps an MCP SDK server with the movie tools.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all movie tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "moviedeck",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(trendingMoviesTool(), s.handleTrendingMovies)
	s.server.AddTool(listTool("now_playing_movies", "List movies currently in theaters."), s.handleNowPlayingMovies)
	s.server.AddTool(listTool("popular_movies", "List the most popular movies on TMDb right now."), s.handlePopularMovies)
	s.server.AddTool(listTool("top_rated_movies", "List the top rated movies of all time on TMDb."), s.handleTopRatedMovies)
	s.server.AddTool(listTool("upcoming_movies", "List movies that will be released soon."), s.handleUpcomingMovies)
	s.server.AddTool(movieTool("get_movie_details",
		"Get detailed information about a movie by its TMDb ID: runtime, genres, tagline, overview and ratings."), s.handleGetMovieDetails)
	s.server.AddTool(movieTool("get_movie_reviews", "Get user reviews of a movie by its TMDb ID."), s.handleGetMovieReviews)
	s.server.AddTool(movieTool("get_movie_credits", "Get the cast and crew of a movie by its TMDb ID."), s.handleGetMovieCredits)
	s.server.AddTool(movieTool("get_movie_trailers",
		"Get trailers and other videos of a movie by its TMDb ID, with the preferred trailer's watch URL."), s.handleGetMovieTrailers)
}

// Tool definitions.

func listProperties() map[string]any {
	return map[string]any{
		"where": map[string]any{
			"type": "string",
			"description": "Optional filter expression over Title, Year, VoteAverage, VoteCount, Popularity, " +
				"ReleaseDate, Adult, GenreIDs with helpers icontains(s, sub), hasGenre(id), releasedAfter(date), " +
				`releasedBefore(date) and the case-sensitive operator contains. ` +
				`Example: "VoteAverage >= 7 && Year > 2000"`,
		},
		"query": map[string]any{
			"type":        "string",
			"description": "Optional fuzzy title search",
		},
		"limit": map[string]any{
			"type":        "integer",
			"description": "Maximum number of movies to return",
		},
	}
}

func trendingMoviesTool() *mcpsdk.Tool {
	props := listProperties()
	props["time_window"] = map[string]any{
		"type":        "string",
		"enum":        []any{"day", "week"},
		"description": "Trending window, day (default) or week",
	}
	return &mcpsdk.Tool{
		Name:        "trending_movies",
		Description: "List movies trending on TMDb for the day or the week.",
		InputSchema: map[string]any{"type": "object", "properties": props},
	}
}

func listTool(name, desc string) *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        name,
		Description: desc,
		InputSchema: map[string]any{"type": "object", "properties": listProperties()},
	}
}

func movieTool(name, desc string) *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        name,
		Description: desc,
		InputSchema: tmdbIDSchema("The TMDb ID of the movie"),
	}
}

func tmdbIDSchema(desc string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tmdb_id": map[string]any{
				"type":        "integer",
				"description": desc,
			},
		},
		"required": []any{"tmdb_id"},
	}
}

// Tool handlers. Each parses arguments, calls the repository, returns JSON text content.

type listArgs struct {
	TimeWindow string `json:"time_window"`
	Where      string `json:"where"`
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
}

func parseListArgs(raw json.RawMessage) (listArgs, error) {
	var args listArgs
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	if args.Limit < 0 {
		return args, fmt.Errorf("limit must not be negative")
	}
	return args, nil
}

// narrow applies the optional where, query and limit arguments.
func (a listArgs) narrow(movies []tmdb.Movie) ([]tmdb.Movie, error) {
	if a.Where != "" {
		f, err := filter.Compile(a.Where)
		if err != nil {
			return nil, err
		}
		movies = f.Apply(movies)
	}
	if a.Query != "" {
		movies = filter.Search(a.Query, movies)
	}
	if a.Limit > 0 && len(movies) > a.Limit {
		movies = movies[:a.Limit]
	}
	if movies == nil {
		movies = []tmdb.Movie{}
	}
	return movies, nil
}

func (s *Server) handleTrendingMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie repository not configured"), nil
	}
	args, err := parseListArgs(req.Params.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}
	window := args.TimeWindow
	switch window {
	case "":
		window = "day"
	case "day", "week":
	default:
		return toolError(fmt.Sprintf("time_window must be day or week, got %q", window)), nil
	}
	return s.movieList(args, s.deps.Movies.TrendingMovies(ctx, window))
}

func (s *Server) handleNowPlayingMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie repository not configured"), nil
	}
	args, err := parseListArgs(req.Params.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}

	r := s.deps.Movies.NowPlayingMovies(ctx)
	list, ok := r.Value()
	if !ok {
		return s.failure("now_playing_movies", r.Failure()), nil
	}
	movies, err := args.narrow(list.Results)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(map[string]any{
		"dates":         list.Dates,
		"results":       movies,
		"total_results": list.TotalResults,
	})
}

func (s *Server) handlePopularMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return s.simpleList(ctx, req, Movies.PopularMovies)
}

func (s *Server) handleTopRatedMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return s.simpleList(ctx, req, Movies.TopRatedMovies)
}

func (s *Server) handleUpcomingMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	return s.simpleList(ctx, req, Movies.UpcomingMovies)
}

func (s *Server) simpleList(ctx context.Context, req *mcpsdk.CallToolRequest,
	fetch func(Movies, context.Context) core.Result[tmdb.MovieList],
) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie repository not configured"), nil
	}
	args, err := parseListArgs(req.Params.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return s.movieList(args, fetch(s.deps.Movies, ctx))
}

func (s *Server) movieList(args listArgs, r core.Result[tmdb.MovieList]) (*mcpsdk.CallToolResult, error) {
	list, ok := r.Value()
	if !ok {
		return s.failure("movie list", r.Failure()), nil
	}
	movies, err := args.narrow(list.Results)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(map[string]any{
		"results":       movies,
		"total_results": list.TotalResults,
	})
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie repository not configured"), nil
	}
	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolResult(s, "get_movie_details", s.deps.Movies.MovieDetails(ctx, tmdbID))
}

func (s *Server) handleGetMovieReviews(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie repository not configured"), nil
	}
	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolResult(s, "get_movie_reviews", s.deps.Movies.MovieReviews(ctx, tmdbID))
}

func (s *Server) handleGetMovieCredits(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie repository not configured"), nil
	}
	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolResult(s, "get_movie_credits", s.deps.Movies.CastDetails(ctx, tmdbID))
}

func (s *Server) handleGetMovieTrailers(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Movies == nil {
		return toolError("movie repository not configured"), nil
	}
	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	r := s.deps.Movies.MovieVideos(ctx, tmdbID)
	videos, ok := r.Value()
	if !ok {
		return s.failure("get_movie_trailers", r.Failure()), nil
	}
	out := map[string]any{"id": videos.ID, "videos": videos.Results}
	if trailer := videos.Trailer(); trailer != nil {
		out["trailer_url"] = trailer.WatchURL()
	}
	return toolJSON(out)
}

// Helper functions.

func toolResult[T any](s *Server, tool string, r core.Result[T]) (*mcpsdk.CallToolResult, error) {
	v, ok := r.Value()
	if !ok {
		return s.failure(tool, r.Failure()), nil
	}
	return toolJSON(v)
}

func (s *Server) failure(tool string, f *core.Failure) *mcpsdk.CallToolResult {
	s.logger.Warn("mcp tool failed",
		slog.String("tool", tool),
		slog.String("kind", f.Kind.String()),
		slog.Int("status", f.StatusCode),
	)
	return toolError(f.Message)
}

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		if v != float64(int(v)) || v <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		if n <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}
