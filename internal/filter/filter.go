// Package filter narrows movie lists with expr-lang expressions and fuzzy
// title search.
package filter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sahilm/fuzzy"

	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
)

// CompilationError reports an expression that could not be compiled.
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("filter %q: %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("filter %q: %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// Env is the environment an expression is evaluated against.
type Env struct {
	ID               int       `expr:"ID"`
	Title            string    `expr:"Title"`
	OriginalTitle    string    `expr:"OriginalTitle"`
	Overview         string    `expr:"Overview"`
	OriginalLanguage string    `expr:"Language"`
	ReleaseDate      string    `expr:"ReleaseDate"`
	Year             int       `expr:"Year"`
	VoteAverage      float64   `expr:"VoteAverage"`
	VoteCount        int       `expr:"VoteCount"`
	Popularity       float64   `expr:"Popularity"`
	Adult            bool      `expr:"Adult"`
	GenreIDs         []int     `expr:"GenreIDs"`
	Released         time.Time `expr:"Released"`

	// contains is an expr operator, so the case-insensitive helper is icontains.
	IContains      func(s, sub string) bool `expr:"icontains"`
	HasGenre       func(id int) bool        `expr:"hasGenre"`
	ReleasedAfter  func(date string) bool   `expr:"releasedAfter"`
	ReleasedBefore func(date string) bool   `expr:"releasedBefore"`
}

func newEnv(m tmdb.Movie) Env {
	released, _ := time.Parse(time.DateOnly, m.ReleaseDate)
	return Env{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		OriginalLanguage: m.OriginalLanguage,
		ReleaseDate:      m.ReleaseDate,
		Year:             m.Year(),
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Popularity:       m.Popularity,
		Adult:            m.Adult,
		GenreIDs:         m.GenreIDs,
		Released:         released,

		IContains: func(s, sub string) bool {
			return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
		},
		HasGenre: func(id int) bool { return slices.Contains(m.GenreIDs, id) },
		ReleasedAfter: func(date string) bool {
			t, err := time.Parse(time.DateOnly, date)
			return err == nil && !released.IsZero() && released.After(t)
		},
		ReleasedBefore: func(date string) bool {
			t, err := time.Parse(time.DateOnly, date)
			return err == nil && !released.IsZero() && released.Before(t)
		},
	}
}

// Filter is a compiled expression. It is safe for concurrent use.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile type-checks expression against Env. The result must be a bool.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}
	return &Filter{expression: expression, program: program}, nil
}

// Match reports whether m satisfies the filter. Runtime errors count as
// no match.
func (f *Filter) Match(m tmdb.Movie) bool {
	out, err := expr.Run(f.program, newEnv(m))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Apply returns the movies that match, in their original order.
func (f *Filter) Apply(movies []tmdb.Movie) []tmdb.Movie {
	var out []tmdb.Movie
	for _, m := range movies {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

func (f *Filter) String() string { return f.expression }

// Fuzzy returns the indexes of movies whose title matches query, best match
// first. An empty query matches every movie in order.
func Fuzzy(query string, movies []tmdb.Movie) []int {
	query = strings.TrimSpace(query)
	if query == "" {
		idx := make([]int, len(movies))
		for i := range movies {
			idx[i] = i
		}
		return idx
	}

	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = strings.ToLower(m.Title)
	}
	matches := fuzzy.Find(strings.ToLower(query), titles)

	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	return idx
}

// Search is Fuzzy returning the movies themselves.
func Search(query string, movies []tmdb.Movie) []tmdb.Movie {
	idx := Fuzzy(query, movies)
	out := make([]tmdb.Movie, len(idx))
	for i, j := range idx {
		out[i] = movies[j]
	}
	return out
}
