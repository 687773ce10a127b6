package stocklist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/offer-stocks/internal/model"
)

// ErrStaleResponse is returned when parameters changed while a fetch was in
// flight.  The result was discarded.
var ErrStaleResponse = errors.New("stocklist: response superseded by newer parameters")

// Page is one server page of stocks.
type Page struct {
	Rows         []model.StockListRow `json:"stocks"`
	TotalCount   int                  `json:"total_count"`
	HasAnyStocks bool                 `json:"has_stocks"`
}

// Backend is the persistence contract the Browser talks to.  DeleteStocks
// must accept ids that no longer exist.
type Backend interface {
	FetchStocks(ctx context.Context, offerID uint64, q Query) (Page, error)
	DeleteStocks(ctx context.Context, offerID uint64, ids []uint64) error
}

// View is a consistent snapshot of the Browser.
type View struct {
	Query        Query
	Rows         []model.StockListRow
	TotalCount   int
	HasAnyStocks bool
	PageCount    int
	Selected     []uint64
}

// Browser holds the paginated stock list of one offer.  Filters and sort
// are sent to the backend; only the answer to the current parameters is
// ever applied.  Deletions are not optimistic: rows disappear when a
// refetch says so.
type Browser struct {
	backend Backend
	offerID uint64
	group   singleflight.Group

	mu       sync.Mutex
	query    Query
	rows     []model.StockListRow
	total    int
	hasAny   bool
	selected map[uint64]struct{}
}

// NewBrowser starts on page 1 with no filter and the default sort.
func NewBrowser(backend Backend, offerID uint64, pageSize int) *Browser {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Browser{
		backend:  backend,
		offerID:  offerID,
		query:    Query{Page: 1, PageSize: pageSize},
		selected: make(map[uint64]struct{}),
	}
}

// Query returns the current parameters.
func (b *Browser) Query() Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// SetFilter replaces the filter, returns to page 1 and clears the selection.
func (b *Browser) SetFilter(f model.FilterState) Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Filter = f
	b.query.Page = 1
	b.clearSelectionLocked()
	return b.query
}

// SetSort replaces the sort and clears the selection.  The page is kept.
func (b *Browser) SetSort(s model.SortState) Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Sort = s
	b.clearSelectionLocked()
	return b.query
}

// ClickColumn applies NextSort for a header click.
func (b *Browser) ClickColumn(col model.SortColumn) Query {
	return b.SetSort(NextSort(b.Query().Sort, col))
}

// SetPage moves to a 1-based page.
func (b *Browser) SetPage(page int) Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	if page < 1 {
		page = 1
	}
	b.query.Page = page
	return b.query
}

// Refresh fetches the current parameters.  Identical concurrent fetches are
// shared; the shared call ignores cancellation and each caller checks its
// own ctx afterwards.  If the parameters changed before the answer arrived
// the answer is dropped and ErrStaleResponse returned.
func (b *Browser) Refresh(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, fmt.Errorf("stocklist: fetch: %w", err)
	}
	q := b.Query()
	key := strconv.FormatUint(b.offerID, 10) + "|" + q.Key()
	shared := context.WithoutCancel(ctx)
	v, err, _ := b.group.Do(key, func() (any, error) {
		return b.backend.FetchStocks(shared, b.offerID, q)
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return Page{}, fmt.Errorf("stocklist: fetch: %w", err)
	}
	page := v.(Page)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.query.Key() != q.Key() {
		return Page{}, ErrStaleResponse
	}
	b.rows = slices.Clone(page.Rows)
	b.total = page.TotalCount
	b.hasAny = page.HasAnyStocks
	b.clearSelectionLocked()
	return page, nil
}

// View returns a snapshot.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	sel := make([]uint64, 0, len(b.selected))
	for id := range b.selected {
		sel = append(sel, id)
	}
	slices.Sort(sel)
	return View{
		Query:        b.query,
		Rows:         slices.Clone(b.rows),
		TotalCount:   b.total,
		HasAnyStocks: b.hasAny,
		PageCount:    PageCount(b.total, b.query.PageSize),
		Selected:     sel,
	}
}

// Select toggles one visible row.  Unknown ids are ignored.
func (b *Browser) Select(id uint64, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !on {
		delete(b.selected, id)
		return
	}
	if slices.ContainsFunc(b.rows, func(r model.StockListRow) bool { return r.ID == id }) {
		b.selected[id] = struct{}{}
	}
}

// SelectAll selects every visible row, or none.
func (b *Browser) SelectAll(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearSelectionLocked()
	if on {
		for _, r := range b.rows {
			b.selected[r.ID] = struct{}{}
		}
	}
}

func (b *Browser) clearSelectionLocked() { clear(b.selected) }

// DeleteSelected deletes the selected rows.
func (b *Browser) DeleteSelected(ctx context.Context) error {
	return b.DeleteStocks(ctx, b.View().Selected)
}

// DeleteStocks removes ids on the server then refetches.  When the current
// page comes back empty it steps back exactly one page.  On failure the
// list is refetched rather than patched, since part of the batch may have
// been deleted.
func (b *Browser) DeleteStocks(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := b.backend.DeleteStocks(ctx, b.offerID, ids); err != nil {
		if _, rerr := b.Refresh(ctx); rerr != nil && !errors.Is(rerr, ErrStaleResponse) {
			return errors.Join(fmt.Errorf("stocklist: delete: %w", err), rerr)
		}
		return fmt.Errorf("stocklist: delete: %w", err)
	}

	q := b.Query()
	page, err := b.Refresh(ctx)
	if errors.Is(err, ErrStaleResponse) {
		// parameters moved on while deleting; the newer fetch owns the view
		return nil
	}
	if err != nil {
		return err
	}
	if len(page.Rows) == 0 && q.Page > 1 {
		b.mu.Lock()
		if b.query.Key() == q.Key() {
			b.query.Page = q.Page - 1
		}
		b.mu.Unlock()
		if _, err := b.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleResponse) {
			return err
		}
	}
	return nil
}
