package main

import (
	"context"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb/tmdbtest"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

func listResponse(movies []tmdb.Movie) func(context.Context) (*tmdb.Response[tmdb.MovieList], error) {
	return func(context.Context) (*tmdb.Response[tmdb.MovieList], error) {
		return tmdbtest.OK(tmdb.MovieList{Page: 1, Results: movies})
	}
}

// newLoadedBrowser returns a sized browser whose lists are already loaded.
func newLoadedBrowser(t *testing.T, fake *tmdbtest.Fake) (browseModel, *viewstate.Coordinator) {
	t.Helper()
	c := newTestCoordinator(t, fake)
	if err := c.LoadHome(context.Background(), "day"); err != nil {
		t.Fatal(err)
	}
	m := newBrowseModel(c, nil, "day")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(browseModel), c
}

func press(t *testing.T, m browseModel, keys ...tea.KeyMsg) (browseModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(k)
		m = updated.(browseModel)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModel_InitialState(t *testing.T) {
	c := newTestCoordinator(t, &tmdbtest.Fake{})
	m := newBrowseModel(c, nil, "day")

	if m.ready {
		t.Error("should not be ready before WindowSizeMsg")
	}
	if m.View() != "Initializing..." {
		t.Errorf("unexpected view %q", m.View())
	}
	if len(m.tabs) != 5 || m.tabs[0] != viewstate.CategoryTrending {
		t.Errorf("unexpected tabs %v", m.tabs)
	}
	if m.Init() == nil {
		t.Error("Init should return a command")
	}
}

func TestBrowseModel_ShowsTrendingList(t *testing.T) {
	m, _ := newLoadedBrowser(t, &tmdbtest.Fake{Trending: func(ctx context.Context, _ string) (*tmdb.Response[tmdb.MovieList], error) {
		return listResponse(sampleMovies())(ctx)
	}})

	view := m.View()
	for _, want := range []string{"Trending", "Now playing", "> ", "Dune (2021)", "Arrival (2016)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBrowseModel_SwitchTabsAndCursor(t *testing.T) {
	m, _ := newLoadedBrowser(t, &tmdbtest.Fake{Popular: listResponse(sampleMovies())})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	if m.tabs[m.tab] != viewstate.CategoryPopular {
		t.Fatalf("expected popular tab, got %v", m.tabs[m.tab])
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	m, _ = press(t, m, runes("j"), runes("j"), runes("j"))
	if m.cursor != 3 {
		t.Errorf("cursor should stop at last item, got %d", m.cursor)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.tabs[m.tab] != viewstate.CategoryNowPlaying || m.cursor != 0 {
		t.Errorf("expected now playing with reset cursor, got %v cursor %d", m.tabs[m.tab], m.cursor)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab}, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.tabs[m.tab] != viewstate.CategoryUpcoming {
		t.Errorf("expected wrap to upcoming, got %v", m.tabs[m.tab])
	}
}

func TestBrowseModel_Filter(t *testing.T) {
	m, _ := newLoadedBrowser(t, &tmdbtest.Fake{Trending: func(ctx context.Context, _ string) (*tmdb.Response[tmdb.MovieList], error) {
		return listResponse(sampleMovies())(ctx)
	}})

	m, _ = press(t, m, runes("/"))
	if !m.searching {
		t.Fatal("expected search mode")
	}
	m, _ = press(t, m, runes("p"), runes("a"), runes("r"), runes("t"))
	if got := m.visible(); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("visible = %+v, want only Dune: Part Two", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.searching {
		t.Error("enter should leave search mode")
	}
	if !strings.Contains(m.View(), "filter: part") {
		t.Errorf("status should show filter:\n%s", m.View())
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := len(m.visible()); got != 4 {
		t.Errorf("esc should clear filter, visible = %d", got)
	}
}

func TestBrowseModel_OpenMovie(t *testing.T) {
	fake := &tmdbtest.Fake{
		Trending: func(ctx context.Context, _ string) (*tmdb.Response[tmdb.MovieList], error) {
			return listResponse(sampleMovies())(ctx)
		},
		Details: func(_ context.Context, id int) (*tmdb.Response[tmdb.MovieDetails], error) {
			return tmdbtest.OK(tmdb.MovieDetails{ID: id, Title: "Dune: Part Two", Overview: "Paul unites with the Fremen."})
		},
	}
	m, c := newLoadedBrowser(t, fake)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != viewMovie || m.movieID != 2 {
		t.Fatalf("expected movie view for id 2, got view %v id %d", m.view, m.movieID)
	}

	c.Wait()
	updated, _ := m.Update(changeMsg(viewstate.CategoryDetails))
	m = updated.(browseModel)

	if fake.Calls("details") != 1 || fake.Calls("credits") != 1 {
		t.Errorf("expected movie fetches, got details=%d credits=%d", fake.Calls("details"), fake.Calls("credits"))
	}
	if !strings.Contains(m.View(), "Paul unites with the Fremen.") {
		t.Errorf("movie view missing overview:\n%s", m.View())
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.view != viewList {
		t.Error("esc should return to the list")
	}
}

func TestBrowseModel_ErrorAndClear(t *testing.T) {
	fake := &tmdbtest.Fake{
		Upcoming: func(context.Context) (*tmdb.Response[tmdb.MovieList], error) {
			return tmdbtest.Status[tmdb.MovieList](http.StatusUnauthorized, "Invalid API key")
		},
	}
	m, c := newLoadedBrowser(t, fake)

	if !strings.Contains(m.View(), "Error: Invalid API key") {
		t.Errorf("status should show last error:\n%s", m.View())
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if !strings.Contains(m.View(), "Could not load: Invalid API key") {
		t.Errorf("upcoming tab should show its error:\n%s", m.View())
	}

	m, _ = press(t, m, runes("e"))
	if last, _ := c.LastError.Get(); last != "" {
		t.Errorf("expected cleared error, got %q", last)
	}
	if strings.Contains(m.View(), "Error: Invalid API key") {
		t.Error("status should not show a cleared error")
	}
}

func TestBrowseModel_Reload(t *testing.T) {
	fake := &tmdbtest.Fake{}
	m, c := newLoadedBrowser(t, fake)

	press(t, m, runes("r"))
	c.Wait()
	if fake.Calls("trending") != 2 {
		t.Errorf("expected reload of trending, got %d calls", fake.Calls("trending"))
	}
}

func TestBrowseModel_Quit(t *testing.T) {
	m, _ := newLoadedBrowser(t, &tmdbtest.Fake{})

	for _, k := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, runes("q")} {
		if _, cmd := press(t, m, k); cmd == nil {
			t.Errorf("%s should return a quit command", k)
		}
	}
}
