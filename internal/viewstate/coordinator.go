// Package viewstate holds the observable state behind the movie screens and
// mediates every change to it through the repository.
//
// Each fetch runs in its own goroutine and publishes either its payload into
// the matching slot or a failure into the error state. Loading is tracked as
// a count of outstanding fetches, so concurrent fetches never clear each
// other's loading signal.
package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/MovieDeck/internal/core"
	"github.com/vadimtrunov/MovieDeck/internal/repository"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
)

// DefaultTrendingWindow is the time window fetched at startup.
const DefaultTrendingWindow = "day"

// Repository is what the Coordinator needs from the data layer.
type Repository interface {
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

var _ Repository = (*repository.MovieRepository)(nil)

// ErrorEvent is emitted for every failed fetch.
type ErrorEvent struct {
	Category Category
	Failure  *core.Failure
}

// Options configures a Coordinator.
type Options struct {
	// TrendingWindow is used by the startup trending fetch.
	TrendingWindow string
	// Idle skips the startup fetches.
	Idle bool
}

// Coordinator owns the observable state of the movie browser.
type Coordinator struct {
	repo   Repository
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	Trending   *Observable[tmdb.MovieList]
	NowPlaying *Observable[tmdb.NowPlayingList]
	Popular    *Observable[tmdb.MovieList]
	TopRated   *Observable[tmdb.MovieList]
	Upcoming   *Observable[tmdb.MovieList]
	Details    *Observable[tmdb.MovieDetails]
	Reviews    *Observable[tmdb.ReviewList]
	Cast       *Observable[tmdb.Credits]
	Trailers   *Observable[tmdb.VideoList]

	// LastError is the message of the most recent failure of any category.
	LastError *Observable[string]
	// LoadingState is true while at least one fetch is outstanding.
	LoadingState *Observable[bool]

	mu          sync.Mutex
	closed      bool
	outstanding int
	inFlight    [numCategories]int
	failures    map[Category]*core.Failure

	errors  *hub[ErrorEvent]
	changes *hub[Category]
}

// New creates a Coordinator bound to ctx: canceling ctx (or calling Close)
// abandons in-flight fetches. Unless opts.Idle is set, the five movie lists
// are fetched concurrently right away.
func New(ctx context.Context, repo Repository, opts Options, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	scope, cancel := context.WithCancel(ctx)

	c := &Coordinator{
		repo:         repo,
		logger:       logger,
		ctx:          scope,
		cancel:       cancel,
		Trending:     NewObservable[tmdb.MovieList](),
		NowPlaying:   NewObservable[tmdb.NowPlayingList](),
		Popular:      NewObservable[tmdb.MovieList](),
		TopRated:     NewObservable[tmdb.MovieList](),
		Upcoming:     NewObservable[tmdb.MovieList](),
		Details:      NewObservable[tmdb.MovieDetails](),
		Reviews:      NewObservable[tmdb.ReviewList](),
		Cast:         NewObservable[tmdb.Credits](),
		Trailers:     NewObservable[tmdb.VideoList](),
		LastError:    NewObservable[string](),
		LoadingState: NewObservable[bool](),
		failures:     make(map[Category]*core.Failure),
		errors:       newHub[ErrorEvent](),
		changes:      newHub[Category](),
	}
	c.LoadingState.Set(false)

	if !opts.Idle {
		window := opts.TrendingWindow
		if window == "" {
			window = DefaultTrendingWindow
		}
		c.FetchTrending(window)
		c.FetchNowPlaying()
		c.FetchPopular()
		c.FetchTopRated()
		c.FetchUpcoming()
	}
	return c
}

// FetchTrending loads trending movies for a time window ("day" or "week").
func (c *Coordinator) FetchTrending(timeWindow string) {
	c.launch(CategoryTrending, func(ctx context.Context) { c.trending(ctx, timeWindow) })
}

func (c *Coordinator) FetchNowPlaying() { c.launch(CategoryNowPlaying, c.nowPlaying) }
func (c *Coordinator) FetchPopular()    { c.launch(CategoryPopular, c.popular) }
func (c *Coordinator) FetchTopRated()   { c.launch(CategoryTopRated, c.topRated) }
func (c *Coordinator) FetchUpcoming()   { c.launch(CategoryUpcoming, c.upcoming) }

func (c *Coordinator) FetchMovieDetails(movieID int) {
	c.launch(CategoryDetails, func(ctx context.Context) { c.details(ctx, movieID) })
}

func (c *Coordinator) FetchMovieReviews(movieID int) {
	c.launch(CategoryReviews, func(ctx context.Context) { c.reviews(ctx, movieID) })
}

func (c *Coordinator) FetchCastDetails(movieID int) {
	c.launch(CategoryCast, func(ctx context.Context) { c.cast(ctx, movieID) })
}

func (c *Coordinator) FetchMovieTrailers(movieID int) {
	c.launch(CategoryTrailers, func(ctx context.Context) { c.trailers(ctx, movieID) })
}

// FetchMovie triggers details, reviews, cast and trailers for one movie.
func (c *Coordinator) FetchMovie(movieID int) {
	c.FetchMovieDetails(movieID)
	c.FetchMovieReviews(movieID)
	c.FetchCastDetails(movieID)
	c.FetchMovieTrailers(movieID)
}

// LoadHome fetches the five movie lists concurrently and returns once all
// of them have published. The error is non-nil only if ctx ended first.
func (c *Coordinator) LoadHome(ctx context.Context, timeWindow string) error {
	if timeWindow == "" {
		timeWindow = DefaultTrendingWindow
	}
	return c.group(ctx, map[Category]func(context.Context){
		CategoryTrending:   func(ctx context.Context) { c.trending(ctx, timeWindow) },
		CategoryNowPlaying: c.nowPlaying,
		CategoryPopular:    c.popular,
		CategoryTopRated:   c.topRated,
		CategoryUpcoming:   c.upcoming,
	})
}

// LoadMovie fetches details, reviews, cast and trailers concurrently and
// returns once all of them have published.
func (c *Coordinator) LoadMovie(ctx context.Context, movieID int) error {
	return c.group(ctx, map[Category]func(context.Context){
		CategoryDetails:  func(ctx context.Context) { c.details(ctx, movieID) },
		CategoryReviews:  func(ctx context.Context) { c.reviews(ctx, movieID) },
		CategoryCast:     func(ctx context.Context) { c.cast(ctx, movieID) },
		CategoryTrailers: func(ctx context.Context) { c.trailers(ctx, movieID) },
	})
}

// Load fetches a single list category synchronously.
func (c *Coordinator) Load(ctx context.Context, cat Category, timeWindow string) error {
	var fn func(context.Context)
	switch cat {
	case CategoryTrending:
		if timeWindow == "" {
			timeWindow = DefaultTrendingWindow
		}
		fn = func(ctx context.Context) { c.trending(ctx, timeWindow) }
	case CategoryNowPlaying:
		fn = c.nowPlaying
	case CategoryPopular:
		fn = c.popular
	case CategoryTopRated:
		fn = c.topRated
	case CategoryUpcoming:
		fn = c.upcoming
	default:
		return fmt.Errorf("category %s needs a movie ID", cat)
	}
	return c.group(ctx, map[Category]func(context.Context){cat: fn})
}

func (c *Coordinator) trending(ctx context.Context, timeWindow string) {
	publish(c, CategoryTrending, c.Trending, c.repo.TrendingMovies(ctx, timeWindow))
}

func (c *Coordinator) nowPlaying(ctx context.Context) {
	publish(c, CategoryNowPlaying, c.NowPlaying, c.repo.NowPlayingMovies(ctx))
}

func (c *Coordinator) popular(ctx context.Context) {
	publish(c, CategoryPopular, c.Popular, c.repo.PopularMovies(ctx))
}

func (c *Coordinator) topRated(ctx context.Context) {
	publish(c, CategoryTopRated, c.TopRated, c.repo.TopRatedMovies(ctx))
}

func (c *Coordinator) upcoming(ctx context.Context) {
	publish(c, CategoryUpcoming, c.Upcoming, c.repo.UpcomingMovies(ctx))
}

func (c *Coordinator) details(ctx context.Context, movieID int) {
	publish(c, CategoryDetails, c.Details, c.repo.MovieDetails(ctx, movieID))
}

func (c *Coordinator) reviews(ctx context.Context, movieID int) {
	publish(c, CategoryReviews, c.Reviews, c.repo.MovieReviews(ctx, movieID))
}

func (c *Coordinator) cast(ctx context.Context, movieID int) {
	publish(c, CategoryCast, c.Cast, c.repo.CastDetails(ctx, movieID))
}

func (c *Coordinator) trailers(ctx context.Context, movieID int) {
	publish(c, CategoryTrailers, c.Trailers, c.repo.MovieVideos(ctx, movieID))
}

// publish writes exactly one of: the payload into slot, or the failure.
func publish[T any](c *Coordinator, cat Category, slot *Observable[T], r core.Result[T]) {
	if v, ok := r.Value(); ok {
		slot.Set(v)
		c.mu.Lock()
		delete(c.failures, cat)
		c.mu.Unlock()
		c.notify(cat)
		return
	}
	c.fail(cat, r.Failure())
}

func (c *Coordinator) fail(cat Category, f *core.Failure) {
	c.logger.Warn("fetch failed",
		slog.String("category", cat.String()),
		slog.String("kind", f.Kind.String()),
		slog.Int("status", f.StatusCode),
		slog.String("error", f.Message),
	)

	c.mu.Lock()
	c.failures[cat] = f
	c.mu.Unlock()

	c.LastError.Set(f.Message)
	if dropped := c.errors.publish(ErrorEvent{Category: cat, Failure: f}); dropped > 0 {
		c.logger.Debug("error event dropped for slow subscribers", slog.Int("subscribers", dropped))
	}
	c.notify(cat)
}

func (c *Coordinator) notify(cat Category) {
	c.changes.publish(cat)
}

// launch marks cat as loading before returning, then runs fn in a goroutine
// bound to the coordinator scope.
func (c *Coordinator) launch(cat Category, fn func(context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("fetch ignored after close", slog.String("category", cat.String()))
		return
	}
	c.wg.Add(1)
	c.beginLocked(cat)
	c.mu.Unlock()
	c.notify(cat)

	go func() {
		defer c.wg.Done()
		c.run(c.ctx, cat, fn)
	}()
}

// group runs fns concurrently with loading bookkeeping and waits for all.
func (c *Coordinator) group(ctx context.Context, fns map[Category]func(context.Context)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for cat, fn := range fns {
		c.mu.Lock()
		c.beginLocked(cat)
		c.mu.Unlock()
		c.notify(cat)

		g.Go(func() error {
			c.run(gctx, cat, fn)
			return gctx.Err()
		})
	}
	return g.Wait()
}

// run executes fn and always ends the loading bracket after fn published.
// The caller must have called beginLocked for cat.
func (c *Coordinator) run(ctx context.Context, cat Category, fn func(context.Context)) {
	defer c.end(cat)
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("fetch panicked", slog.String("category", cat.String()), slog.Any("panic", p))
			c.fail(cat, core.TransportFailure(fmt.Errorf("%s fetch: %v", cat, p)))
		}
	}()
	fn(ctx)
}

func (c *Coordinator) beginLocked(cat Category) {
	c.inFlight[cat]++
	c.outstanding++
	if c.outstanding == 1 {
		c.LoadingState.Set(true)
	}
}

func (c *Coordinator) end(cat Category) {
	c.mu.Lock()
	c.inFlight[cat]--
	c.outstanding--
	if c.outstanding == 0 {
		c.LoadingState.Set(false)
	}
	c.mu.Unlock()
	c.notify(cat)
}

// Movies returns the movies held by a list category slot, and false if the
// slot was never filled or cat is not a list category.
func (c *Coordinator) Movies(cat Category) ([]tmdb.Movie, bool) {
	switch cat {
	case CategoryTrending:
		return results(c.Trending)
	case CategoryNowPlaying:
		l, ok := c.NowPlaying.Get()
		return l.Results, ok
	case CategoryPopular:
		return results(c.Popular)
	case CategoryTopRated:
		return results(c.TopRated)
	case CategoryUpcoming:
		return results(c.Upcoming)
	}
	return nil, false
}

func results(slot *Observable[tmdb.MovieList]) ([]tmdb.Movie, bool) {
	l, ok := slot.Get()
	return l.Results, ok
}

// Loading reports whether any fetch is outstanding.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outstanding > 0
}

// Outstanding returns the number of fetches in flight.
func (c *Coordinator) Outstanding() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outstanding
}

// CategoryLoading reports whether a fetch for cat is in flight.
func (c *Coordinator) CategoryLoading(cat Category) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cat >= 0 && cat < numCategories && c.inFlight[cat] > 0
}

// CategoryError returns the last failure of cat, or nil if its latest fetch
// succeeded or the errors were cleared.
func (c *Coordinator) CategoryError(cat Category) *core.Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[cat]
}

// ClearError resets the last error to "" and forgets per-category failures.
func (c *Coordinator) ClearError() {
	c.mu.Lock()
	clear(c.failures)
	c.mu.Unlock()
	c.LastError.Set("")
}

// SubscribeErrors streams every failure as it happens.
func (c *Coordinator) SubscribeErrors() (<-chan ErrorEvent, func()) {
	return c.errors.subscribe()
}

// SubscribeChanges streams the category of every state change: loading
// transitions, published payloads and failures.
func (c *Coordinator) SubscribeChanges() (<-chan Category, func()) {
	return c.changes.subscribe()
}

// Wait blocks until every fetch launched so far has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight fetches and waits for them. Later fetches are ignored.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}
