package catalog

import (
	"fmt"

	"streamflix/pkg/media"
)

// ListResponse is one page of a catalog listing or search.
type ListResponse struct {
	Page       int    `json:"page"`
	Results    []Item `json:"results"`
	TotalPages int    `json:"total_pages"`
}

// Item is one raw catalog entry. Movies carry title/release_date, series
// carry name/first_air_date; multi-search additionally carries media_type.
type Item struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	MediaType    string  `json:"media_type"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
}

// ShowDetail is top-level series metadata.
type ShowDetail struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	NumberOfSeasons int    `json:"number_of_seasons"`
}

// SeasonDetail is the episode list for one season.
type SeasonDetail struct {
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// Episode is one entry in a season listing.
type Episode struct {
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	StillPath     string `json:"still_path"`
	Overview      string `json:"overview"`
}

// ExternalIDs is the response of the external_ids lookup.
type ExternalIDs struct {
	ID     int    `json:"id"`
	IMDbID string `json:"imdb_id"`
}

// Title is the normalized view of a catalog item used by the browse layer.
type Title struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Year     string     `json:"year"`
	Rating   string     `json:"rating"`
	Overview string     `json:"overview"`
	Poster   string     `json:"poster"`
	Kind     media.Kind `json:"kind"`
}

// ToTitle normalizes a raw catalog item for the given kind. Missing dates
// and ratings render as "N/A", matching the browse presentation.
func (it Item) ToTitle(kind media.Kind) Title {
	name := it.Title
	date := it.ReleaseDate
	if kind == media.KindSeries {
		name = it.Name
		date = it.FirstAirDate
	}

	year := "N/A"
	if len(date) >= 4 {
		year = date[:4]
	}

	rating := "N/A"
	if it.VoteAverage > 0 {
		rating = fmt.Sprintf("%.1f", it.VoteAverage)
	}

	overview := it.Overview
	if overview == "" {
		overview = "No description available."
	}

	return Title{
		ID:       it.ID,
		Name:     name,
		Year:     year,
		Rating:   rating,
		Overview: overview,
		Poster:   it.PosterPath,
		Kind:     kind,
	}
}
