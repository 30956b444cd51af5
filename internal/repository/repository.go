// Package repository adapts the TMDb client to core.Result values so that
// callers never deal with transport errors or HTTP status handling.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadimtrunov/MovieDeck/internal/core"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
)

// API is the remote client the repository calls. *tmdb.Client implements it.
type API interface {
	TrendingMovies(ctx context.Context, timeWindow string) (*tmdb.Response[tmdb.MovieList], error)
	NowPlayingMovies(ctx context.Context) (*tmdb.Response[tmdb.NowPlayingList], error)
	PopularMovies(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error)
	TopRatedMovies(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error)
	UpcomingMovies(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error)
	MovieDetails(ctx context.Context, id int) (*tmdb.Response[tmdb.MovieDetails], error)
	MovieReviews(ctx context.Context, id int) (*tmdb.Response[tmdb.ReviewList], error)
	MovieCredits(ctx context.Context, id int) (*tmdb.Response[tmdb.Credits], error)
	MovieVideos(ctx context.Context, id int) (*tmdb.Response[tmdb.VideoList], error)
}

var _ API = (*tmdb.Client)(nil)

// MovieRepository exposes one operation per TMDb endpoint.
type MovieRepository struct {
	api    API
	logger *slog.Logger
}

// New creates a repository over api.
func New(api API, logger *slog.Logger) *MovieRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &MovieRepository{api: api, logger: logger}
}

func (r *MovieRepository) TrendingMovies(ctx context.Context, timeWindow string) core.Result[tmdb.MovieList] {
	return apiRequest(ctx, r, "trending", func(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error) {
		return r.api.TrendingMovies(ctx, timeWindow)
	})
}

func (r *MovieRepository) NowPlayingMovies(ctx context.Context) core.Result[tmdb.NowPlayingList] {
	return apiRequest(ctx, r, "now_playing", r.api.NowPlayingMovies)
}

func (r *MovieRepository) PopularMovies(ctx context.Context) core.Result[tmdb.MovieList] {
	return apiRequest(ctx, r, "popular", r.api.PopularMovies)
}

func (r *MovieRepository) TopRatedMovies(ctx context.Context) core.Result[tmdb.MovieList] {
	return apiRequest(ctx, r, "top_rated", r.api.TopRatedMovies)
}

func (r *MovieRepository) UpcomingMovies(ctx context.Context) core.Result[tmdb.MovieList] {
	return apiRequest(ctx, r, "upcoming", r.api.UpcomingMovies)
}

func (r *MovieRepository) MovieDetails(ctx context.Context, movieID int) core.Result[tmdb.MovieDetails] {
	return apiRequest(ctx, r, "details", func(ctx context.Context) (*tmdb.Response[tmdb.MovieDetails], error) {
		return r.api.MovieDetails(ctx, movieID)
	})
}

func (r *MovieRepository) MovieReviews(ctx context.Context, movieID int) core.Result[tmdb.ReviewList] {
	return apiRequest(ctx, r, "reviews", func(ctx context.Context) (*tmdb.Response[tmdb.ReviewList], error) {
		return r.api.MovieReviews(ctx, movieID)
	})
}

// CastDetails returns the credits (cast and crew) of a movie.
func (r *MovieRepository) CastDetails(ctx context.Context, movieID int) core.Result[tmdb.Credits] {
	return apiRequest(ctx, r, "credits", func(ctx context.Context) (*tmdb.Response[tmdb.Credits], error) {
		return r.api.MovieCredits(ctx, movieID)
	})
}

func (r *MovieRepository) MovieVideos(ctx context.Context, movieID int) core.Result[tmdb.VideoList] {
	return apiRequest(ctx, r, "videos", func(ctx context.Context) (*tmdb.Response[tmdb.VideoList], error) {
		return r.api.MovieVideos(ctx, movieID)
	})
}

// apiRequest invokes call and classifies the outcome:
// an error becomes a transport (or decode) failure, a non-2xx status or a
// missing body becomes a response failure, anything else is a success.
func apiRequest[T any](
	ctx context.Context, r *MovieRepository, endpoint string,
	call func(context.Context) (*tmdb.Response[T], error),
) (result core.Result[T]) {
	start := time.Now()
	logger := r.logger.With(slog.String("endpoint", endpoint))
	logger.Debug("api request started")

	defer func() {
		if p := recover(); p != nil {
			logger.Error("api request panicked", slog.Any("panic", p))
			result = core.Fail[T](core.TransportFailure(fmt.Errorf("%s: %v", endpoint, p)))
		}
	}()

	resp, err := call(ctx)
	if err != nil {
		var f *core.Failure
		var decodeErr *tmdb.DecodeError
		if errors.As(err, &decodeErr) {
			f = core.DecodeFailure(decodeErr.StatusCode, err)
		} else {
			f = core.TransportFailure(err)
		}
		logger.Debug("api request failed",
			slog.String("kind", f.Kind.String()),
			slog.String("error", f.Message),
			slog.Duration("elapsed", time.Since(start)),
		)
		return core.Fail[T](f)
	}
	if resp == nil {
		return core.Fail[T](nil)
	}

	if !resp.Successful() || resp.Body == nil {
		f := core.ResponseFailure(resp.StatusCode, resp.ErrorBody)
		logger.Debug("api request unsuccessful",
			slog.Int("status", resp.StatusCode),
			slog.String("kind", f.Kind.String()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return core.Fail[T](f)
	}

	logger.Debug("api request succeeded",
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	return core.Ok(*resp.Body)
}
