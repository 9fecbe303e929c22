// Package browse assembles the category rows and search results backing the
// browse screen. Priority rows load in parallel for fast first paint; the
// remaining rows load in small background batches so the catalog API is not
// hammered with the full fan-out at once.
package browse

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"streamflix/pkg/catalog"
	"streamflix/pkg/logger"
)

// maxListingPages caps pagination depth; the catalog API rejects pages
// beyond 500.
const maxListingPages = 500

// Row is the load state of one category row.
type Row struct {
	Category catalog.Category

	mu         sync.Mutex
	titles     []catalog.Title
	page       int
	totalPages int
	loading    bool
	failed     bool
}

// RowView is an immutable snapshot of a row for rendering.
type RowView struct {
	Key     string          `json:"key"`
	Titles  []catalog.Title `json:"titles"`
	Page    int             `json:"page"`
	HasMore bool            `json:"has_more"`
	Loading bool            `json:"loading"`
	Failed  bool            `json:"failed"`
}

// Service owns the category rows.
type Service struct {
	client    *catalog.Client
	batchSize int

	rows  map[string]*Row
	order []string
}

// NewService creates a browse service over the given catalog client.
// batchSize controls how many non-priority rows load concurrently per batch.
func NewService(client *catalog.Client, batchSize int) *Service {
	if batchSize < 1 {
		batchSize = 1
	}
	s := &Service{
		client:    client,
		batchSize: batchSize,
		rows:      make(map[string]*Row),
	}
	for _, cat := range catalog.Categories() {
		s.rows[cat.Key] = &Row{Category: cat}
		s.order = append(s.order, cat.Key)
	}
	return s
}

// LoadAll fetches the first page of every category: priority rows first, all
// in parallel, then the rest in sequential batches. A row that fails stays
// empty and is marked failed; one bad row never aborts the others.
func (s *Service) LoadAll(ctx context.Context) {
	priority := make(map[string]bool, len(catalog.PriorityCategories))
	for _, key := range catalog.PriorityCategories {
		priority[key] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range catalog.PriorityCategories {
		row, ok := s.rows[key]
		if !ok {
			continue
		}
		g.Go(func() error {
			s.loadPage(gctx, row, 1)
			return nil
		})
	}
	g.Wait()

	var rest []*Row
	for _, key := range s.order {
		if !priority[key] {
			rest = append(rest, s.rows[key])
		}
	}
	for start := 0; start < len(rest); start += s.batchSize {
		end := start + s.batchSize
		if end > len(rest) {
			end = len(rest)
		}
		bg, bctx := errgroup.WithContext(ctx)
		for _, row := range rest[start:end] {
			bg.Go(func() error {
				s.loadPage(bctx, row, 1)
				return nil
			})
		}
		bg.Wait()
	}
}

// LoadMore appends the next page to a row. It is a no-op while a load for the
// row is already in flight or when the row has no further pages.
func (s *Service) LoadMore(ctx context.Context, key string) {
	row, ok := s.rows[key]
	if !ok {
		return
	}

	row.mu.Lock()
	if row.loading || (row.totalPages > 0 && row.page >= row.totalPages) {
		row.mu.Unlock()
		return
	}
	next := row.page + 1
	row.mu.Unlock()

	s.loadPage(ctx, row, next)
}

// loadPage fetches one page for a row and appends its titles.
func (s *Service) loadPage(ctx context.Context, row *Row, page int) {
	row.mu.Lock()
	if row.loading {
		row.mu.Unlock()
		return
	}
	row.loading = true
	row.mu.Unlock()

	defer func() {
		row.mu.Lock()
		row.loading = false
		row.mu.Unlock()
	}()

	list, err := s.client.List(ctx, row.Category, page)
	if err != nil {
		logger.Warn("Category load failed", "category", row.Category.Key, "page", page, "error", err)
		row.mu.Lock()
		row.failed = true
		row.mu.Unlock()
		return
	}

	items := list.Results
	if row.Category.SortByRating {
		items = append([]catalog.Item(nil), items...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].VoteAverage > items[j].VoteAverage
		})
	}

	titles := make([]catalog.Title, 0, len(items))
	for _, it := range items {
		titles = append(titles, it.ToTitle(row.Category.Kind))
	}

	total := list.TotalPages
	if total > maxListingPages {
		total = maxListingPages
	}

	row.mu.Lock()
	if page == 1 {
		// A page-1 load is a reload: replace the row, never stack a second
		// copy of it.
		row.titles = titles
	} else {
		row.titles = append(row.titles, titles...)
	}
	row.page = page
	row.totalPages = total
	row.failed = false
	row.mu.Unlock()

	logger.Debug("Category loaded", "category", row.Category.Key, "page", page, "count", len(titles))
}

// Row returns a snapshot of one row.
func (s *Service) Row(key string) (RowView, bool) {
	row, ok := s.rows[key]
	if !ok {
		return RowView{}, false
	}
	return row.view(), true
}

// Rows returns snapshots of every row in display order.
func (s *Service) Rows() []RowView {
	views := make([]RowView, 0, len(s.order))
	for _, key := range s.order {
		views = append(views, s.rows[key].view())
	}
	return views
}

func (r *Row) view() RowView {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]catalog.Title, len(r.titles))
	copy(titles, r.titles)
	return RowView{
		Key:     r.Category.Key,
		Titles:  titles,
		Page:    r.page,
		HasMore: r.totalPages == 0 || r.page < r.totalPages,
		Loading: r.loading,
		Failed:  r.failed,
	}
}
