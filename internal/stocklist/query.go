package stocklist

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/iliyamo/offer-stocks/internal/model"
)

// Query is the full parameter tuple of one stock fetch.
type Query struct {
	Filter   model.FilterState
	Sort     model.SortState
	Page     int
	PageSize int
}

// Key identifies the tuple; two queries with the same key return the same
// page.
func (q Query) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d", q.Filter.Key(), q.Sort.Key(), q.Page, q.PageSize)
}

// Values encodes the query string understood by the stocks endpoint.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Filter.Date != nil {
		v.Set("date", q.Filter.Date.Format(time.DateOnly))
	}
	if q.Filter.Hour != nil {
		v.Set("time", q.Filter.Hour.String())
	}
	if q.Filter.PriceCategoryID != nil {
		v.Set("price_category_id", strconv.FormatUint(*q.Filter.PriceCategoryID, 10))
	}
	if !q.Sort.IsDefault() {
		v.Set("order_by", string(q.Sort.Column))
		v.Set("order_by_desc", strconv.FormatBool(q.Sort.Desc()))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// ParseQuery decodes query-string parameters.  Dates are read in loc.
func ParseQuery(v url.Values, pageSize int, loc *time.Location) (Query, error) {
	if loc == nil {
		loc = time.UTC
	}
	q := Query{Page: 1, PageSize: pageSize}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if s := v.Get("date"); s != "" {
		d, err := time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			return Query{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		q.Filter.Date = &d
	}
	if s := v.Get("time"); s != "" {
		t, err := model.ParseClockTime(s)
		if err != nil {
			return Query{}, err
		}
		q.Filter.Hour = &t
	}
	if s := v.Get("price_category_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Query{}, fmt.Errorf("invalid price_category_id %q", s)
		}
		q.Filter.PriceCategoryID = &id
	}
	col, err := model.ParseSortColumn(v.Get("order_by"))
	if err != nil {
		return Query{}, err
	}
	if col != model.SortNone {
		q.Sort = model.SortState{Column: col, Direction: model.SortDirectionAsc}
		if desc, _ := strconv.ParseBool(v.Get("order_by_desc")); desc {
			q.Sort.Direction = model.SortDirectionDesc
		}
	}
	if s := v.Get("page"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil || p < 1 {
			return Query{}, fmt.Errorf("invalid page %q", s)
		}
		q.Page = p
	}
	return q, nil
}
