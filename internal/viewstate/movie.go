package viewstate

import (
	"errors"

	"github.com/vadimtrunov/MovieDeck/internal/tmdb"
)

// ErrMovieNotLoaded is returned by Movie when the details slot holds no
// movie or a different one.
var ErrMovieNotLoaded = errors.New("movie not loaded")

// MovieView is a snapshot of the movie slots for one movie. Optional parts
// that failed or belong to another movie are nil.
type MovieView struct {
	Details    *tmdb.MovieDetails `json:"details"`
	Credits    *tmdb.Credits      `json:"credits,omitempty"`
	Reviews    *tmdb.ReviewList   `json:"reviews,omitempty"`
	Videos     *tmdb.VideoList    `json:"videos,omitempty"`
	TrailerURL string             `json:"trailer_url,omitempty"`
}

// Movie reads the movie slots for id. A details failure is returned as the
// recorded *core.Failure; the other parts never fail the call.
func (c *Coordinator) Movie(id int) (MovieView, error) {
	if f := c.CategoryError(CategoryDetails); f != nil {
		return MovieView{}, f
	}
	details, ok := c.Details.Get()
	if !ok || details.ID != id {
		return MovieView{}, ErrMovieNotLoaded
	}

	v := MovieView{Details: &details}
	if credits, ok := c.Cast.Get(); ok && credits.ID == id && c.CategoryError(CategoryCast) == nil {
		v.Credits = &credits
	}
	if reviews, ok := c.Reviews.Get(); ok && reviews.ID == id && c.CategoryError(CategoryReviews) == nil {
		v.Reviews = &reviews
	}
	if videos, ok := c.Trailers.Get(); ok && videos.ID == id && c.CategoryError(CategoryTrailers) == nil {
		v.Videos = &videos
		if t := videos.Trailer(); t != nil {
			v.TrailerURL = t.WatchURL()
		}
	}
	return v, nil
}
