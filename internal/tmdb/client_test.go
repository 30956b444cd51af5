package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vadimtrunov/MovieDeck/internal/httpclient"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, opts Options, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := discardLogger()
	hc := httpclient.New(httpclient.DefaultConfig(), logger,
		httpclient.WithMiddleware(APIKeyMiddleware("test-key", "")))
	opts.BaseURL = server.URL
	return New(hc, opts, logger)
}

func strPtr(s string) *string { return &s }

func TestTrendingMovies(t *testing.T) {
	client := newTestClient(t, Options{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/movie/day" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Error("missing api_key")
		}
		if q.Get("language") != "en-US" {
			t.Errorf("expected language en-US, got %q", q.Get("language"))
		}
		if q.Get("page") != "1" {
			t.Errorf("expected page 1, got %q", q.Get("page"))
		}

		resp := MovieList{
			Page: 1,
			Results: []Movie{
				{ID: 42, Title: "Test", PosterPath: strPtr("/x.jpg")},
			},
			TotalPages:   1,
			TotalResults: 1,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))

	resp, err := client.TrendingMovies(context.Background(), "day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Successful() || resp.Body == nil {
		t.Fatalf("expected successful response with body, got %+v", resp)
	}
	if len(resp.Body.Results) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(resp.Body.Results))
	}
	m := resp.Body.Results[0]
	if m.ID != 42 || m.Title != "Test" {
		t.Errorf("unexpected movie: %+v", m)
	}
	if m.PosterPath == nil || *m.PosterPath != "/x.jpg" {
		t.Errorf("unexpected poster path: %v", m.PosterPath)
	}
}

func TestListEndpointsPaths(t *testing.T) {
	tests := []struct {
		name       string
		wantPath   string
		wantRegion string
		call       func(c *Client) (int, error)
	}{
		{"now playing", "/movie/now_playing", "DE", func(c *Client) (int, error) {
			r, err := c.NowPlayingMovies(context.Background())
			return statusOf(r, err)
		}},
		{"popular", "/movie/popular", "", func(c *Client) (int, error) {
			r, err := c.PopularMovies(context.Background())
			return statusOf(r, err)
		}},
		{"top rated", "/movie/top_rated", "", func(c *Client) (int, error) {
			r, err := c.TopRatedMovies(context.Background())
			return statusOf(r, err)
		}},
		{"upcoming", "/movie/upcoming", "DE", func(c *Client) (int, error) {
			r, err := c.UpcomingMovies(context.Background())
			return statusOf(r, err)
		}},
		{"reviews", "/movie/550/reviews", "", func(c *Client) (int, error) {
			r, err := c.MovieReviews(context.Background(), 550)
			return statusOf(r, err)
		}},
		{"credits", "/movie/550/credits", "", func(c *Client) (int, error) {
			r, err := c.MovieCredits(context.Background(), 550)
			return statusOf(r, err)
		}},
		{"videos", "/movie/550/videos", "", func(c *Client) (int, error) {
			r, err := c.MovieVideos(context.Background(), 550)
			return statusOf(r, err)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, Options{Region: "DE"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("region"); got != tt.wantRegion {
					t.Errorf("region = %q, want %q", got, tt.wantRegion)
				}
				w.Write([]byte(`{"id":550}`))
			}))

			status, err := tt.call(client)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != http.StatusOK {
				t.Errorf("expected 200, got %d", status)
			}
		})
	}
}

func statusOf[T any](r *Response[T], err error) (int, error) {
	if err != nil {
		return 0, err
	}
	if r.Body == nil {
		return r.StatusCode, errors.New("nil body")
	}
	return r.StatusCode, nil
}

func TestMovieDetails(t *testing.T) {
	client := newTestClient(t, Options{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"id": 550,
			"title": "Fight Club",
			"runtime": 139,
			"release_date": "1999-10-15",
			"poster_path": null,
			"genres": [{"id": 18, "name": "Drama"}],
			"vote_average": 8.4
		}`))
	}))

	resp, err := client.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := resp.Body
	if d == nil {
		t.Fatal("expected body")
	}
	if d.Title != "Fight Club" {
		t.Errorf("expected Fight Club, got %s", d.Title)
	}
	if d.Runtime == nil || *d.Runtime != 139 {
		t.Errorf("expected runtime 139, got %v", d.Runtime)
	}
	if d.PosterPath != nil {
		t.Errorf("expected nil poster path, got %q", *d.PosterPath)
	}
	if d.BackdropPath != nil {
		t.Errorf("expected absent backdrop path, got %q", *d.BackdropPath)
	}
	if d.Year() != 1999 {
		t.Errorf("expected year 1999, got %d", d.Year())
	}
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, Options{}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Not Found"))
	}))

	resp, err := client.MovieDetails(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Successful() {
		t.Fatal("expected unsuccessful response")
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if resp.ErrorBody != "Not Found" {
		t.Errorf("expected error body %q, got %q", "Not Found", resp.ErrorBody)
	}
	if resp.Body != nil {
		t.Error("expected nil body")
	}
}

func TestNullBody(t *testing.T) {
	for _, payload := range []string{"", "null", "  null\n"} {
		client := newTestClient(t, Options{}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(payload))
		}))

		resp, err := client.PopularMovies(context.Background())
		if err != nil {
			t.Fatalf("payload %q: unexpected error: %v", payload, err)
		}
		if !resp.Successful() {
			t.Errorf("payload %q: expected 2xx", payload)
		}
		if resp.Body != nil {
			t.Errorf("payload %q: expected nil body, got %+v", payload, resp.Body)
		}
	}
}

func TestDecodeError(t *testing.T) {
	client := newTestClient(t, Options{}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"page": "one"}`))
	}))

	_, err := client.PopularMovies(context.Background())
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", decodeErr.StatusCode)
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := NewForTest(server.URL, discardLogger())
	server.Close()

	_, err := client.MovieCredits(context.Background(), 42)
	if err == nil {
		t.Fatal("expected transport error for closed server")
	}
}

func TestPosterURL(t *testing.T) {
	tests := []struct {
		path   *string
		size   string
		expect string
	}{
		{strPtr("/abc123.jpg"), "w500", "https://image.tmdb.org/t/p/w500/abc123.jpg"},
		{strPtr(""), "w500", ""},
		{nil, "w500", ""},
		{strPtr("/poster.jpg"), "original", "https://image.tmdb.org/t/p/original/poster.jpg"},
	}
	for _, tt := range tests {
		got := PosterURL(tt.path, tt.size)
		if got != tt.expect {
			t.Errorf("PosterURL(%v, %q) = %q, want %q", tt.path, tt.size, got, tt.expect)
		}
	}
}

func TestVideoListTrailer(t *testing.T) {
	tests := []struct {
		name    string
		videos  []Video
		wantKey string
	}{
		{"empty", nil, ""},
		{"prefers youtube trailer", []Video{
			{Key: "teaser", Site: "YouTube", Type: "Teaser"},
			{Key: "trailer", Site: "YouTube", Type: "Trailer"},
		}, "trailer"},
		{"falls back to first playable", []Video{
			{Key: "x", Site: "Dailymotion", Type: "Trailer"},
			{Key: "clip", Site: "Vimeo", Type: "Clip"},
		}, "clip"},
		{"nothing playable", []Video{{Key: "x", Site: "Dailymotion"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VideoList{Results: tt.videos}.Trailer()
			if tt.wantKey == "" {
				if got != nil {
					t.Errorf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.Key != tt.wantKey {
				t.Errorf("expected key %q, got %+v", tt.wantKey, got)
			}
		})
	}
}

func TestVideoWatchURL(t *testing.T) {
	v := Video{Key: "abc", Site: "YouTube"}
	if got := v.WatchURL(); got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("unexpected watch URL %q", got)
	}
	if got := (Video{Key: "abc", Site: "Other"}).WatchURL(); got != "" {
		t.Errorf("expected empty URL, got %q", got)
	}
}
