package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/filter"
	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

var (
	styleTabActive = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("5"))
	styleSelected  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

// newBrowseCmd returns the "browse" subcommand, the interactive movie browser.
func newBrowseCmd() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse movie lists interactively",
		Long: "Browse trending, now playing, popular, top rated and upcoming movies.\n" +
			"tab/shift+tab switch lists, enter opens a movie, / filters titles, esc goes back,\n" +
			"e dismisses the error, r reloads, q quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse(window)
		},
	}
	cmd.Flags().StringVar(&window, "window", "", "trending time window: day or week (default from config)")
	return cmd
}

// runBrowse starts a coordinator, which loads the five lists at once, and
// hands it to the Bubble Tea browser.
func runBrowse(window string) error {
	if err := validateWindow(window); err != nil {
		return err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if window == "" {
		window = cfg.App.TrendingWindow
	}

	// The TUI owns the terminal; failures surface in the status line.
	logger := slog.New(slog.DiscardHandler)
	repo := initRepository(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := viewstate.New(ctx, repo, viewstate.Options{TrendingWindow: window}, logger)
	defer c.Close()
	changes, stop := c.SubscribeChanges()
	defer stop()

	p := tea.NewProgram(newBrowseModel(c, changes, window), tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browse: %w", err)
	}
	return nil
}

// changeMsg reports that a coordinator slot changed.
type changeMsg viewstate.Category

type browseView int

const (
	viewList browseView = iota
	viewMovie
)

// browseModel is the Bubble Tea model for the movie browser.
type browseModel struct {
	coord   *viewstate.Coordinator
	changes <-chan viewstate.Category
	window  string

	tabs   []viewstate.Category
	tab    int
	cursor int

	query     textinput.Model
	searching bool

	spinner spinner.Model
	ticking bool

	viewport viewport.Model
	view     browseView
	movieID  int

	width  int
	height int
	ready  bool
}

func newBrowseModel(c *viewstate.Coordinator, changes <-chan viewstate.Category, window string) browseModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter titles"
	ti.CharLimit = 100

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		coord:   c,
		changes: changes,
		window:  window,
		tabs:    viewstate.ListCategories(),
		query:   ti,
		spinner: s,
		ticking: true,
	}
}

// Init starts the spinner and the change listener.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChange(m.changes))
}

// waitForChange reads one change and re-arms itself from Update.
func waitForChange(ch <-chan viewstate.Category) tea.Cmd {
	return func() tea.Msg {
		cat, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(cat)
	}
}

// Update handles coordinator changes and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case changeMsg:
		if m.view == viewMovie {
			m.refreshMovie()
		}
		tick := m.startTicking()
		return m, tea.Batch(tick, waitForChange(m.changes))

	case spinner.TickMsg:
		if !m.coord.Loading() {
			m.ticking = false
			if m.view == viewMovie {
				m.refreshMovie()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// startTicking resumes the spinner when a fetch is outstanding.
func (m *browseModel) startTicking() tea.Cmd {
	if m.ticking || !m.coord.Loading() {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	vpHeight := max(m.height-3, 1)
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.query.Width = m.width - 4
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.view == viewMovie {
		return m.handleMovieKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		m.switchTab(1)
	case "shift+tab", "left", "h":
		m.switchTab(-1)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case "/":
		m.searching = true
		cmd := m.query.Focus()
		return m, cmd
	case "esc":
		m.query.SetValue("")
		m.cursor = 0
	case "e":
		m.coord.ClearError()
	case "r":
		m.reload()
		cmd := m.startTicking()
		return m, cmd
	case "enter":
		movies := m.visible()
		if len(movies) == 0 {
			return m, nil
		}
		cmd := m.openMovie(movies[min(m.cursor, len(movies)-1)].ID)
		return m, cmd
	}
	return m, nil
}

func (m browseModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.query.Blur()
		m.query.SetValue("")
		m.cursor = 0
		return m, nil
	case "enter":
		m.searching = false
		m.query.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m browseModel) handleMovieKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "e":
		m.coord.ClearError()
		return m, nil
	case "r":
		cmd := m.openMovie(m.movieID)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *browseModel) switchTab(delta int) {
	m.tab = (m.tab + delta + len(m.tabs)) % len(m.tabs)
	m.cursor = 0
	m.query.SetValue("")
}

func (m *browseModel) reload() {
	switch m.tabs[m.tab] {
	case viewstate.CategoryTrending:
		m.coord.FetchTrending(m.window)
	case viewstate.CategoryNowPlaying:
		m.coord.FetchNowPlaying()
	case viewstate.CategoryPopular:
		m.coord.FetchPopular()
	case viewstate.CategoryTopRated:
		m.coord.FetchTopRated()
	case viewstate.CategoryUpcoming:
		m.coord.FetchUpcoming()
	}
}

func (m *browseModel) openMovie(id int) tea.Cmd {
	m.view = viewMovie
	m.movieID = id
	m.coord.FetchMovie(id)
	m.refreshMovie()
	m.viewport.GotoTop()
	return m.startTicking()
}

func (m *browseModel) refreshMovie() {
	for _, cat := range viewstate.MovieCategories() {
		if m.coord.CategoryLoading(cat) {
			m.viewport.SetContent(styleDim.Render(fmt.Sprintf("Loading movie %d...", m.movieID)))
			return
		}
	}
	card, err := collectMovie(m.coord, m.movieID)
	if err != nil {
		m.viewport.SetContent(styleError.Render(err.Error()))
		return
	}
	m.viewport.SetContent(renderMovie(card))
}

// visible returns the current tab's movies narrowed by the title filter.
func (m browseModel) visible() []tmdb.Movie {
	movies, _ := m.coord.Movies(m.tabs[m.tab])
	if q := strings.TrimSpace(m.query.Value()); q != "" {
		return filter.Search(q, movies)
	}
	return movies
}

// View renders tabs, the list or the movie, and the status line.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	if m.view == viewMovie {
		body = m.viewport.View()
	} else {
		body = m.renderList()
	}
	return m.renderTabs() + "\n" + body + "\n" + m.renderStatus()
}

func (m browseModel) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, cat := range m.tabs {
		name := categoryTitle(cat)
		if m.coord.CategoryLoading(cat) {
			name += " …"
		}
		if i == m.tab {
			parts = append(parts, styleTabActive.Render(name))
		} else {
			parts = append(parts, styleDim.Render(name))
		}
	}
	return strings.Join(parts, "  ")
}

func (m browseModel) renderList() string {
	cat := m.tabs[m.tab]
	movies := m.visible()
	rows := max(m.height-3, 1)

	if len(movies) == 0 {
		var msg string
		switch {
		case m.coord.CategoryLoading(cat):
			msg = styleDim.Render("Loading...")
		case m.coord.CategoryError(cat) != nil:
			msg = styleError.Render("Could not load: " + m.coord.CategoryError(cat).Message)
		default:
			msg = styleDim.Render("No movies found.")
		}
		return msg + strings.Repeat("\n", rows-1)
	}

	cursor := min(m.cursor, len(movies)-1)
	start := 0
	if cursor >= rows {
		start = cursor - rows + 1
	}
	end := min(start+rows, len(movies))

	var sb strings.Builder
	for i := start; i < end; i++ {
		mv := movies[i]
		line := fmt.Sprintf("%s  %s", movieLabel(mv), styleRating.Render(fmt.Sprintf("★ %.1f", mv.VoteAverage)))
		if i == cursor {
			sb.WriteString(styleSelected.Render("> ") + line)
		} else {
			sb.WriteString("  " + line)
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(strings.Repeat("\n", rows-(end-start)))
	return sb.String()
}

func (m browseModel) renderStatus() string {
	var parts []string
	if m.coord.Loading() {
		parts = append(parts, m.spinner.View()+styleDim.Render(" Loading"))
	}
	if last, _ := m.coord.LastError.Get(); last != "" {
		parts = append(parts, styleError.Render("Error: "+last)+styleDim.Render(" (e to dismiss)"))
	}

	switch {
	case m.searching:
		parts = append(parts, m.query.View())
	case m.view == viewMovie:
		parts = append(parts, styleDim.Render("esc back · ↑/↓ scroll · r reload · q quit"))
	case m.query.Value() != "":
		parts = append(parts, styleDim.Render("filter: "+m.query.Value()+" (esc to clear)"))
	default:
		parts = append(parts, styleDim.Render("tab switch · enter details · / filter · r reload · q quit"))
	}
	return strings.Join(parts, "  ")
}
