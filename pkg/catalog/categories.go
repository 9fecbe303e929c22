package catalog

import "streamflix/pkg/media"

// Category describes one browse row: a resource path on the catalog API,
// its fixed parameters, the media kind, and whether the page is re-sorted
// by rating after fetch (top-rated rows).
type Category struct {
	Key          string
	Path         string
	Params       map[string]string
	Kind         media.Kind
	SortByRating bool
}

// Genre IDs on the catalog API.
const (
	genreAction    = "28"
	genreSciFi     = "878"
	genreComedy    = "35"
	genreDrama     = "18"
	genreAnimation = "16"
)

// Categories returns the browse rows in display order.
func Categories() []Category {
	return []Category{
		{Key: "trending_movies", Path: "trending/movie/day", Kind: media.KindMovie},
		{Key: "top_rated_movies", Path: "movie/top_rated", Kind: media.KindMovie, SortByRating: true},
		{Key: "popular_movies", Path: "movie/popular", Kind: media.KindMovie},
		{Key: "action_movies", Path: "discover/movie", Params: map[string]string{"with_genres": genreAction}, Kind: media.KindMovie},
		{Key: "scifi_movies", Path: "discover/movie", Params: map[string]string{"with_genres": genreSciFi}, Kind: media.KindMovie},
		{Key: "comedy_movies", Path: "discover/movie", Params: map[string]string{"with_genres": genreComedy}, Kind: media.KindMovie},
		{Key: "trending_tv", Path: "trending/tv/day", Kind: media.KindSeries},
		{Key: "top_rated_tv", Path: "tv/top_rated", Kind: media.KindSeries, SortByRating: true},
		{Key: "popular_tv", Path: "tv/popular", Kind: media.KindSeries},
		{Key: "drama_tv", Path: "discover/tv", Params: map[string]string{"with_genres": genreDrama}, Kind: media.KindSeries},
		{Key: "comedy_tv", Path: "discover/tv", Params: map[string]string{"with_genres": genreComedy}, Kind: media.KindSeries},
		{Key: "anime_movies", Path: "discover/movie", Params: map[string]string{"with_genres": genreAnimation}, Kind: media.KindMovie},
		{Key: "anime_tv", Path: "discover/tv", Params: map[string]string{"with_genres": genreAnimation}, Kind: media.KindSeries},
	}
}

// PriorityCategories are loaded first (above the fold) for fast initial
// paint; the rest load in background batches.
var PriorityCategories = []string{
	"trending_movies",
	"top_rated_movies",
	"popular_movies",
	"action_movies",
}

// CategoryByKey returns the category with the given key, if any.
func CategoryByKey(key string) (Category, bool) {
	for _, c := range Categories() {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}
