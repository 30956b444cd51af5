package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vadimtrunov/MovieDeck/internal/httpclient"
)

const (
	// DefaultBaseURL is the TMDb v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultLanguage is sent when a request carries no language.
	DefaultLanguage = "en-US"

	maxBodySize = 10 << 20
)

// Options configures a Client.
type Options struct {
	// BaseURL overrides DefaultBaseURL (tests, proxies).
	BaseURL string
	// Region is sent to now playing and upcoming when set.
	Region string
}

// Response is the raw outcome of an HTTP exchange that completed.
// Body is nil when the server sent no body or a JSON null.
type Response[T any] struct {
	StatusCode int
	Body       *T
	ErrorBody  string
}

// Successful reports a 2xx status.
func (r *Response[T]) Successful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeError is returned when a successful response body is not valid JSON
// for the expected shape.
type DecodeError struct {
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client is a TMDb API v3 client. Authentication is not its concern: the
// shared httpclient.Client is expected to carry APIKeyMiddleware.
type Client struct {
	baseURL string
	region  string
	http    *httpclient.Client
	logger  *slog.Logger
}

// New creates a TMDb client on top of a shared HTTP client.
func New(hc *httpclient.Client, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		region:  opts.Region,
		http:    hc,
		logger:  logger,
	}
}

// NewForTest creates a TMDb client with a custom base URL for testing.
// Exported because it is used by cross-package tests.
func NewForTest(baseURL string, logger *slog.Logger) *Client {
	hc := httpclient.New(httpclient.DefaultConfig(), logger,
		httpclient.WithMiddleware(APIKeyMiddleware("test-key", DefaultLanguage)))
	return New(hc, Options{BaseURL: baseURL}, logger)
}

// APIKeyMiddleware adds api_key to every request and language when the
// request does not set one.
func APIKeyMiddleware(apiKey, language string) httpclient.Middleware {
	if language == "" {
		language = DefaultLanguage
	}
	return httpclient.InjectQuery(
		url.Values{"api_key": {apiKey}},
		url.Values{"language": {language}},
	)
}

// TrendingMovies fetches trending movies for a time window ("day" or "week").
func (c *Client) TrendingMovies(ctx context.Context, timeWindow string) (*Response[MovieList], error) {
	return get[MovieList](ctx, c, "/trending/movie/"+url.PathEscape(timeWindow), pageParams(1))
}

// NowPlayingMovies fetches movies currently in theatres.
func (c *Client) NowPlayingMovies(ctx context.Context) (*Response[NowPlayingList], error) {
	return get[NowPlayingList](ctx, c, "/movie/now_playing", c.regionParams(pageParams(1)))
}

// PopularMovies fetches the popular list.
func (c *Client) PopularMovies(ctx context.Context) (*Response[MovieList], error) {
	return get[MovieList](ctx, c, "/movie/popular", pageParams(1))
}

// TopRatedMovies fetches the top rated list.
func (c *Client) TopRatedMovies(ctx context.Context) (*Response[MovieList], error) {
	return get[MovieList](ctx, c, "/movie/top_rated", pageParams(1))
}

// UpcomingMovies fetches upcoming releases.
func (c *Client) UpcomingMovies(ctx context.Context) (*Response[MovieList], error) {
	return get[MovieList](ctx, c, "/movie/upcoming", c.regionParams(pageParams(1)))
}

// MovieDetails retrieves full details for a movie by TMDb ID.
func (c *Client) MovieDetails(ctx context.Context, id int) (*Response[MovieDetails], error) {
	return get[MovieDetails](ctx, c, fmt.Sprintf("/movie/%d", id), nil)
}

// MovieReviews retrieves the first page of reviews.
func (c *Client) MovieReviews(ctx context.Context, id int) (*Response[ReviewList], error) {
	return get[ReviewList](ctx, c, fmt.Sprintf("/movie/%d/reviews", id), pageParams(1))
}

// MovieCredits retrieves cast and crew.
func (c *Client) MovieCredits(ctx context.Context, id int) (*Response[Credits], error) {
	return get[Credits](ctx, c, fmt.Sprintf("/movie/%d/credits", id), nil)
}

// MovieVideos retrieves trailers and other videos.
func (c *Client) MovieVideos(ctx context.Context, id int) (*Response[VideoList], error) {
	return get[VideoList](ctx, c, fmt.Sprintf("/movie/%d/videos", id), nil)
}

func pageParams(page int) url.Values {
	return url.Values{"page": {strconv.Itoa(page)}}
}

func (c *Client) regionParams(params url.Values) url.Values {
	if c.region != "" {
		params.Set("region", c.region)
	}
	return params
}

// get performs a GET request against the TMDb API. Any completed exchange
// is returned as a Response; only transport and decode faults are errors.
func get[T any](ctx context.Context, c *Client, path string, params url.Values) (*Response[T], error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("tmdb request failed",
			slog.String("path", path),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("tmdb request completed",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)

	out := &Response[T]{StatusCode: resp.StatusCode}
	if !out.Successful() {
		out.ErrorBody = string(data)
		return out, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}

	var body T
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil, &DecodeError{StatusCode: resp.StatusCode, Err: err}
	}
	out.Body = &body
	return out, nil
}
