// Package media holds the shared content identity types passed between the
// catalog, aggregator, playback and subtitle layers.
package media

import "fmt"

// Kind distinguishes movies from series.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// Ref identifies what is being played: an external (IMDb-style) identifier
// plus kind, and for series the season and episode numbers. Immutable once
// constructed.
type Ref struct {
	IMDbID  string
	Kind    Kind
	Season  int
	Episode int
}

// StreamID returns the identifier used to query the stream aggregator.
// Series compose as "{imdbId}:{season}:{episode}" with no zero-padding.
func (r Ref) StreamID() string {
	if r.Kind == KindSeries {
		return fmt.Sprintf("%s:%d:%d", r.IMDbID, r.Season, r.Episode)
	}
	return r.IMDbID
}
