// Package tmdbtest provides an in-memory stand-in for the TMDb client.
package tmdbtest

import (
	"context"
	"sync"

	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
)

// Fake implements the TMDb client surface with per-endpoint hooks.
// A nil hook answers 200 with a zero-value body.
type Fake struct {
	Trending   func(ctx context.Context, timeWindow string) (*tmdb.Response[tmdb.MovieList], error)
	NowPlaying func(ctx context.Context) (*tmdb.Response[tmdb.NowPlayingList], error)
	Popular    func(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error)
	TopRated   func(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error)
	Upcoming   func(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error)
	Details    func(ctx context.Context, id int) (*tmdb.Response[tmdb.MovieDetails], error)
	Reviews    func(ctx context.Context, id int) (*tmdb.Response[tmdb.ReviewList], error)
	Credits    func(ctx context.Context, id int) (*tmdb.Response[tmdb.Credits], error)
	Videos     func(ctx context.Context, id int) (*tmdb.Response[tmdb.VideoList], error)

	mu    sync.Mutex
	calls map[string]int
}

// OK answers 200 with body.
func OK[T any](body T) (*tmdb.Response[T], error) {
	return &tmdb.Response[T]{StatusCode: 200, Body: &body}, nil
}

// Status answers an error status with a raw error body.
func Status[T any](code int, errorBody string) (*tmdb.Response[T], error) {
	return &tmdb.Response[T]{StatusCode: code, ErrorBody: errorBody}, nil
}

// Null answers 200 without a body.
func Null[T any]() (*tmdb.Response[T], error) {
	return &tmdb.Response[T]{StatusCode: 200}, nil
}

// Calls returns how many times endpoint was hit.
func (f *Fake) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *Fake) record(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[endpoint]++
}

func (f *Fake) TrendingMovies(ctx context.Context, timeWindow string) (*tmdb.Response[tmdb.MovieList], error) {
	f.record("trending")
	if f.Trending == nil {
		return OK(tmdb.MovieList{})
	}
	return f.Trending(ctx, timeWindow)
}

func (f *Fake) NowPlayingMovies(ctx context.Context) (*tmdb.Response[tmdb.NowPlayingList], error) {
	f.record("now_playing")
	if f.NowPlaying == nil {
		return OK(tmdb.NowPlayingList{})
	}
	return f.NowPlaying(ctx)
}

func (f *Fake) PopularMovies(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error) {
	f.record("popular")
	if f.Popular == nil {
		return OK(tmdb.MovieList{})
	}
	return f.Popular(ctx)
}

func (f *Fake) TopRatedMovies(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error) {
	f.record("top_rated")
	if f.TopRated == nil {
		return OK(tmdb.MovieList{})
	}
	return f.TopRated(ctx)
}

func (f *Fake) UpcomingMovies(ctx context.Context) (*tmdb.Response[tmdb.MovieList], error) {
	f.record("upcoming")
	if f.Upcoming == nil {
		return OK(tmdb.MovieList{})
	}
	return f.Upcoming(ctx)
}

func (f *Fake) MovieDetails(ctx context.Context, id int) (*tmdb.Response[tmdb.MovieDetails], error) {
	f.record("details")
	if f.Details == nil {
		return OK(tmdb.MovieDetails{ID: id})
	}
	return f.Details(ctx, id)
}

func (f *Fake) MovieReviews(ctx context.Context, id int) (*tmdb.Response[tmdb.ReviewList], error) {
	f.record("reviews")
	if f.Reviews == nil {
		return OK(tmdb.ReviewList{ID: id})
	}
	return f.Reviews(ctx, id)
}

func (f *Fake) MovieCredits(ctx context.Context, id int) (*tmdb.Response[tmdb.Credits], error) {
	f.record("credits")
	if f.Credits == nil {
		return OK(tmdb.Credits{ID: id})
	}
	return f.Credits(ctx, id)
}

func (f *Fake) MovieVideos(ctx context.Context, id int) (*tmdb.Response[tmdb.VideoList], error) {
	f.record("videos")
	if f.Videos == nil {
		return OK(tmdb.VideoList{ID: id})
	}
	return f.Videos(ctx, id)
}
