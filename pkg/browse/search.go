package browse

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"streamflix/pkg/catalog"
	"streamflix/pkg/logger"
	"streamflix/pkg/media"
)

// maxSearchResults caps the rendered search grid.
const maxSearchResults = 24

// Searcher runs debounced live search. Each keystroke takes a monotonic
// token; a response is applied only if its token is still the newest, so a
// slow response for an older query can never overwrite a newer one.
type Searcher struct {
	client   *catalog.Client
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	token   uint64
	query   string
	active  bool
	results []catalog.Title
}

// NewSearcher creates a searcher. debounce is the idle window after the last
// keystroke before a request is issued.
func NewSearcher(client *catalog.Client, debounce time.Duration) *Searcher {
	return &Searcher{client: client, debounce: debounce}
}

// Query registers a keystroke. The request fires after the debounce window
// unless another keystroke arrives first. An empty query leaves search mode
// and clears results immediately, invalidating any in-flight request.
func (s *Searcher) Query(ctx context.Context, q string) {
	q = strings.TrimSpace(q)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token++
	token := s.token
	s.query = q

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if q == "" {
		s.active = false
		s.results = nil
		return
	}
	s.active = true

	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, q, token)
	})
}

func (s *Searcher) run(ctx context.Context, q string, token uint64) {
	list, err := s.client.SearchMulti(ctx, q)
	if err != nil {
		logger.Warn("Search failed", "query", q, "error", err)
		s.apply(token, nil)
		return
	}
	s.apply(token, rankSearchResults(list.Results))
}

// apply installs results if token still names the newest query.
func (s *Searcher) apply(token uint64, results []catalog.Title) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		logger.Debug("Dropping stale search response", "token", token)
		return
	}
	s.results = results
}

// rankSearchResults filters multi-search items to movies and series, orders
// them by rating descending with unrated entries last, and caps the list.
func rankSearchResults(items []catalog.Item) []catalog.Title {
	var titles []catalog.Title
	for _, it := range items {
		switch it.MediaType {
		case "movie":
			titles = append(titles, it.ToTitle(media.KindMovie))
		case "tv":
			titles = append(titles, it.ToTitle(media.KindSeries))
		}
	}

	sort.SliceStable(titles, func(i, j int) bool {
		return ratingValue(titles[i]) > ratingValue(titles[j])
	})

	if len(titles) > maxSearchResults {
		titles = titles[:maxSearchResults]
	}
	return titles
}

// ratingValue orders "N/A" ratings after every numeric rating.
func ratingValue(t catalog.Title) float64 {
	v, err := strconv.ParseFloat(t.Rating, 64)
	if err != nil {
		return -1
	}
	return v
}

// Active reports whether search mode is engaged (non-empty query).
func (s *Searcher) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Results returns the current search results snapshot.
func (s *Searcher) Results() []catalog.Title {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Title, len(s.results))
	copy(out, s.results)
	return out
}
