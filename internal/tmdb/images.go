package tmdb

import (
	"strconv"
	"strings"
)

const imageBaseURL = "https://image.tmdb.org/t/p/"

// ImageURL returns the full URL for an image path, or "" if path is empty.
func ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + size + path
}

// PosterURL returns the full URL for an optional poster path.
func PosterURL(posterPath *string, size string) string {
	if posterPath == nil {
		return ""
	}
	return ImageURL(*posterPath, size)
}

// Year returns the release year, or 0 if the date is missing or malformed.
func (m Movie) Year() int {
	return yearOf(m.ReleaseDate)
}

// Year returns the release year, or 0 if unknown.
func (d MovieDetails) Year() int {
	if d.ReleaseDate == nil {
		return 0
	}
	return yearOf(*d.ReleaseDate)
}

// GenreNames returns the genre names in API order.
func (d MovieDetails) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// WatchURL returns a browser URL for the video, or "" for unsupported sites.
func (v Video) WatchURL() string {
	if v.Key == "" {
		return ""
	}
	switch strings.ToLower(v.Site) {
	case "youtube":
		return "https://www.youtube.com/watch?v=" + v.Key
	case "vimeo":
		return "https://vimeo.com/" + v.Key
	}
	return ""
}

// Trailer picks the video to play: the first YouTube trailer, else the first
// playable video. Returns nil when nothing is playable.
func (l VideoList) Trailer() *Video {
	for i := range l.Results {
		v := &l.Results[i]
		if strings.EqualFold(v.Type, "Trailer") && strings.EqualFold(v.Site, "YouTube") && v.Key != "" {
			return v
		}
	}
	for i := range l.Results {
		if l.Results[i].WatchURL() != "" {
			return &l.Results[i]
		}
	}
	return nil
}
