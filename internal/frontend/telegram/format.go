package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

// mdV2Replacer escapes special characters for Telegram MarkdownV2.
var mdV2Replacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMdV2 escapes a string for safe use in Telegram MarkdownV2.
func EscapeMdV2(s string) string {
	return mdV2Replacer.Replace(s)
}

// FormatBold returns MarkdownV2 bold text.
func FormatBold(s string) string {
	return "*" + EscapeMdV2(s) + "*"
}

// FormatItalic returns MarkdownV2 italic text.
func FormatItalic(s string) string {
	return "_" + EscapeMdV2(s) + "_"
}

// RatingBar renders a 0-10 vote average as a bar of width cells.
func RatingBar(vote float64, width int) string {
	if width < 1 {
		width = 10
	}
	filled := int(vote / 10 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return fmt.Sprintf("%s%s %.1f",
		strings.Repeat("★", filled),
		strings.Repeat("☆", width-filled),
		vote,
	)
}

// reply is a message in both MarkdownV2 and plain text, the latter used
// when Telegram rejects the markup.
type reply struct {
	md    strings.Builder
	plain strings.Builder
}

func (r *reply) text(s string) *reply {
	r.md.WriteString(EscapeMdV2(s))
	r.plain.WriteString(s)
	return r
}

func (r *reply) bold(s string) *reply {
	r.md.WriteString(FormatBold(s))
	r.plain.WriteString(s)
	return r
}

func (r *reply) italic(s string) *reply {
	r.md.WriteString(FormatItalic(s))
	r.plain.WriteString(s)
	return r
}

func (r *reply) line() *reply {
	r.md.WriteByte('\n')
	r.plain.WriteByte('\n')
	return r
}

const (
	maxListItems    = 10
	maxCastMembers  = 8
	maxReviews      = 2
	maxReviewLength = 300
)

func movieLabel(m tmdb.Movie) string {
	if y := m.Year(); y > 0 {
		return m.Title + " (" + strconv.Itoa(y) + ")"
	}
	return m.Title
}

// formatMovieList renders up to maxListItems numbered movies.
func formatMovieList(title string, movies []tmdb.Movie) *reply {
	r := &reply{}
	r.bold(title).line()
	if len(movies) == 0 {
		return r.italic("No movies found.")
	}
	for i, m := range movies {
		if i == maxListItems {
			break
		}
		r.line().text(fmt.Sprintf("%d. %s  ", i+1, movieLabel(m))).italic(fmt.Sprintf("%.1f", m.VoteAverage))
	}
	return r
}

// formatMovie renders what /movie shows. Nil parts are omitted.
func formatMovie(card viewstate.MovieView) *reply {
	d := card.Details
	r := &reply{}

	title := d.Title
	if y := d.Year(); y > 0 {
		title += " (" + strconv.Itoa(y) + ")"
	}
	r.bold(title).line()
	if d.Tagline != "" {
		r.italic(d.Tagline).line()
	}
	r.text(RatingBar(d.VoteAverage, 10))
	if d.Runtime != nil && *d.Runtime > 0 {
		r.text(fmt.Sprintf(" · %d min", *d.Runtime))
	}
	r.line()
	if genres := d.GenreNames(); len(genres) > 0 {
		r.text(strings.Join(genres, ", ")).line()
	}
	if d.Overview != "" {
		r.line().text(d.Overview).line()
	}

	if c := card.Credits; c != nil && len(c.Cast) > 0 {
		names := make([]string, 0, maxCastMembers)
		for i, m := range c.Cast {
			if i == maxCastMembers {
				break
			}
			if m.Character != "" {
				names = append(names, m.Name+" as "+m.Character)
			} else {
				names = append(names, m.Name)
			}
		}
		r.line().bold("Cast").line().text(strings.Join(names, "\n")).line()
	}

	if rv := card.Reviews; rv != nil && len(rv.Results) > 0 {
		r.line().bold("Reviews").line()
		for i, review := range rv.Results {
			if i == maxReviews {
				break
			}
			r.italic(review.Author).text(": " + truncate(review.Content, maxReviewLength)).line()
		}
	}

	if v := card.Videos; v != nil {
		if trailer := v.Trailer(); trailer != nil {
			r.line().text("Trailer: " + trailer.WatchURL())
		}
	}
	return r
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
