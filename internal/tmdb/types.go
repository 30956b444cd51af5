package tmdb

// Movie is a movie summary as returned by the list endpoints.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	MediaType        string  `json:"media_type,omitempty"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int   `json:"genre_ids"`
	Popularity       float64 `json:"popularity"`
	ReleaseDate      string  `json:"release_date"`
	Video            bool    `json:"video"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
}

// MovieList is the paginated envelope of trending, popular, top rated and upcoming.
type MovieList struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Dates is the release window reported by now playing.
type Dates struct {
	Maximum string `json:"maximum"`
	Minimum string `json:"minimum"`
}

// NowPlayingList is MovieList plus the release window.
type NowPlayingList struct {
	Dates        Dates   `json:"dates"`
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// MovieDetails represents detailed movie information.
type MovieDetails struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline,omitempty"`
	Status           string  `json:"status,omitempty"`
	IMDbID           string  `json:"imdb_id,omitempty"`
	Genres           []Genre `json:"genres"`
	Runtime          *int    `json:"runtime"`
	ReleaseDate      *string `json:"release_date"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	OriginalLanguage string  `json:"original_language"`
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ReviewList is the paginated reviews envelope.
type ReviewList struct {
	ID           int      `json:"id"`
	Page         int      `json:"page"`
	Results      []Review `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

type Review struct {
	Author        string        `json:"author"`
	Content       string        `json:"content"`
	CreatedAt     string        `json:"created_at"`
	UpdatedAt     string        `json:"updated_at"`
	AuthorDetails AuthorDetails `json:"author_details"`
}

type AuthorDetails struct {
	Name       string   `json:"name"`
	Username   string   `json:"username"`
	AvatarPath *string  `json:"avatar_path"`
	Rating     *float64 `json:"rating"`
}

// Credits is the cast and crew of a movie.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type CastMember struct {
	CastID      int     `json:"cast_id"`
	Character   string  `json:"character"`
	CreditID    string  `json:"credit_id"`
	Name        string  `json:"name"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

type CrewMember struct {
	CreditID    string  `json:"credit_id"`
	Department  string  `json:"department"`
	Job         string  `json:"job"`
	Name        string  `json:"name"`
	ProfilePath *string `json:"profile_path"`
}

// VideoList holds the videos (trailers, teasers, clips) of a movie.
type VideoList struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

type Video struct {
	ID        string `json:"id"`
	ISO639_1  string `json:"iso_639_1"`
	ISO3166_1 string `json:"iso_3166_1"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	Site      string `json:"site"`
	Size      int    `json:"size"`
	Type      string `json:"type"`
}
