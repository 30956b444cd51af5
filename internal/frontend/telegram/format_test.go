package telegram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

func TestEscapeMdV2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "hello world", want: "hello world"},
		{name: "dots", in: "hello.", want: "hello\\."},
		{name: "exclamation", in: "Done!", want: "Done\\!"},
		{name: "parentheses", in: "(2024)", want: "\\(2024\\)"},
		{name: "brackets", in: "[link]", want: "\\[link\\]"},
		{name: "underscores", in: "foo_bar", want: "foo\\_bar"},
		{name: "stars", in: "*bold*", want: "\\*bold\\*"},
		{name: "mixed", in: "Dune (2021) - 8.0*", want: "Dune \\(2021\\) \\- 8\\.0\\*"},
		{name: "all specials", in: "_*[]()~`>#+-=|{}.!", want: "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeMdV2(tt.in)
			if got != tt.want {
				t.Errorf("EscapeMdV2(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBold(t *testing.T) {
	got := FormatBold("Dune")
	want := "*Dune*"
	if got != want {
		t.Errorf("FormatBold(%q) = %q, want %q", "Dune", got, want)
	}

	got = FormatBold("Dune (2021)")
	want = "*Dune \\(2021\\)*"
	if got != want {
		t.Errorf("FormatBold(%q) = %q, want %q", "Dune (2021)", got, want)
	}
}

func TestFormatItalic(t *testing.T) {
	got := FormatItalic("description")
	want := "_description_"
	if got != want {
		t.Errorf("FormatItalic(%q) = %q, want %q", "description", got, want)
	}
}

func TestRatingBar(t *testing.T) {
	tests := []struct {
		name   string
		vote   float64
		width  int
		filled int
	}{
		{name: "zero", vote: 0, width: 10, filled: 0},
		{name: "half", vote: 5, width: 10, filled: 5},
		{name: "full", vote: 10, width: 10, filled: 10},
		{name: "default width", vote: 8.4, width: 0, filled: 8},
		{name: "over max", vote: 12, width: 10, filled: 10},
		{name: "negative", vote: -1, width: 10, filled: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RatingBar(tt.vote, tt.width)
			if n := strings.Count(got, "★"); n != tt.filled {
				t.Errorf("RatingBar(%v, %d) = %q, want %d filled", tt.vote, tt.width, got, tt.filled)
			}
			if !strings.HasSuffix(got, fmt.Sprintf(" %.1f", tt.vote)) {
				t.Errorf("RatingBar(%v) = %q, missing score", tt.vote, got)
			}
		})
	}
}

func TestFormatMovieList(t *testing.T) {
	movies := []tmdb.Movie{
		{ID: 1, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", VoteAverage: 8.3},
		{ID: 2, Title: "Untitled"},
	}
	r := formatMovieList("Trending", movies)

	wantPlain := "Trending\n\n1. Dune: Part Two (2024)  8.3\n2. Untitled  0.0"
	if got := r.plain.String(); got != wantPlain {
		t.Errorf("plain = %q, want %q", got, wantPlain)
	}
	wantMD := "*Trending*\n\n1\\. Dune: Part Two \\(2024\\)  _8\\.3_\n2\\. Untitled  _0\\.0_"
	if got := r.md.String(); got != wantMD {
		t.Errorf("md = %q, want %q", got, wantMD)
	}

	empty := formatMovieList("Popular", nil)
	if !strings.Contains(empty.plain.String(), "No movies found.") {
		t.Errorf("unexpected empty list %q", empty.plain.String())
	}
}

func TestFormatMovie(t *testing.T) {
	runtime := 166
	release := "2024-02-27"
	card := viewstate.MovieView{
		Details: &tmdb.MovieDetails{
			ID: 693134, Title: "Dune: Part Two", Tagline: "Long live the fighters.",
			Runtime: &runtime, ReleaseDate: &release, VoteAverage: 8.2,
			Genres:   []tmdb.Genre{{ID: 878, Name: "Science Fiction"}, {ID: 12, Name: "Adventure"}},
			Overview: "Paul Atreides unites with Chani.",
		},
		Credits: &tmdb.Credits{Cast: []tmdb.CastMember{{Name: "Timothée Chalamet", Character: "Paul Atreides"}, {Name: "Zendaya"}}},
		Reviews: &tmdb.ReviewList{Results: []tmdb.Review{{Author: "critic", Content: strings.Repeat("a", 400)}}},
		Videos:  &tmdb.VideoList{Results: []tmdb.Video{{Key: "Way9Dexny3w", Site: "YouTube", Type: "Trailer"}}},
	}

	plain := formatMovie(card).plain.String()
	for _, want := range []string{
		"Dune: Part Two (2024)",
		"Long live the fighters.",
		"166 min",
		"Science Fiction, Adventure",
		"Timothée Chalamet as Paul Atreides\nZendaya",
		"critic: " + strings.Repeat("a", 300) + "…",
		"Trailer: https://www.youtube.com/watch?v=Way9Dexny3w",
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("formatted movie missing %q:\n%s", want, plain)
		}
	}

	bare := formatMovie(viewstate.MovieView{Details: &tmdb.MovieDetails{Title: "Unknown"}}).plain.String()
	for _, absent := range []string{"Cast", "Reviews", "Trailer", "min"} {
		if strings.Contains(bare, absent) {
			t.Errorf("bare movie should not contain %q:\n%s", absent, bare)
		}
	}
}
