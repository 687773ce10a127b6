package stocklist

import "github.com/iliyamo/offer-stocks/internal/model"

// DefaultPageSize is the number of stocks per page.
const DefaultPageSize = 20

// PageCount is ceil(total/size).  A non-positive size uses DefaultPageSize.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampPage keeps a 1-based page inside [1, pageCount].
func ClampPage(page, pageCount int) int {
	if page > pageCount {
		page = pageCount
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns page (1-based) of rows.  Out of range pages are empty.
func Paginate(rows []model.StockListRow, page, size int) []model.StockListRow {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []model.StockListRow{}
	}
	end := min(start+size, len(rows))
	return rows[start:end]
}
