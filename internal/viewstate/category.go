package viewstate

import (
	"fmt"
	"strings"
)

// Category names one observable data slot of the Coordinator.
type Category int

const (
	CategoryTrending Category = iota
	CategoryNowPlaying
	CategoryPopular
	CategoryTopRated
	CategoryUpcoming
	CategoryDetails
	CategoryReviews
	CategoryCast
	CategoryTrailers

	numCategories
)

var categoryNames = [numCategories]string{
	"trending",
	"now-playing",
	"popular",
	"top-rated",
	"upcoming",
	"details",
	"reviews",
	"cast",
	"trailers",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ListCategories are the movie list slots filled at startup.
func ListCategories() []Category {
	return []Category{CategoryTrending, CategoryNowPlaying, CategoryPopular, CategoryTopRated, CategoryUpcoming}
}

// MovieCategories are the slots keyed by a movie ID.
func MovieCategories() []Category {
	return []Category{CategoryDetails, CategoryReviews, CategoryCast, CategoryTrailers}
}

// ParseCategory accepts the String form with '-', '_' or no separator,
// case-insensitively.
func ParseCategory(s string) (Category, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for i, name := range categoryNames {
		if strings.ReplaceAll(name, "-", "") == norm {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}
