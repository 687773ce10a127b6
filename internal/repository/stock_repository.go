package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/stocklist"
)

// StockRepo manages offers, price categories, stocks and activation codes
// in MySQL.  Times are stored as UTC DATETIME (parseTime=true, loc=UTC).
// Stocks with a NULL beginning_datetime are price table entries, the others
// are dated occurrences of an event.
type StockRepo struct {
	db  *sql.DB
	loc *time.Location
}

// NewStockRepo returns a repository.  loc is the venue time zone used by
// the day and hour filters; the hour filter relies on MySQL time zone
// tables being loaded.
func NewStockRepo(db *sql.DB, loc *time.Location) *StockRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &StockRepo{db: db, loc: loc}
}

// DB exposes the underlying handle for callers composing transactions.
func (r *StockRepo) DB() *sql.DB { return r.db }

func (r *StockRepo) GetOffer(ctx context.Context, offerID uint64) (model.Offer, error) {
	const q = `SELECT o.id, o.owner_id, o.status, o.is_event, o.is_digital, COALESCE(o.ean, ''),
			p.id, p.name, o.date_created
		FROM offers o
		LEFT JOIN providers p ON p.id = o.last_provider_id
		WHERE o.id = ?`
	var (
		o        model.Offer
		provID   sql.NullInt64
		provName sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, offerID).Scan(
		&o.ID, &o.OwnerID, &o.Status, &o.IsEvent, &o.IsDigital, &o.EAN,
		&provID, &provName, &o.DateCreated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Offer{}, ErrOfferNotFound
		}
		return model.Offer{}, err
	}
	if provID.Valid {
		o.LastProvider = &model.Provider{ID: uint64(provID.Int64), Name: provName.String}
	}
	return o, nil
}

func (r *StockRepo) HasConflictingPublishedOfferWithSameEAN(ctx context.Context, offer model.Offer) (bool, error) {
	if offer.EAN == "" {
		return false, nil
	}
	const q = `SELECT EXISTS(
		SELECT 1 FROM offers
		WHERE ean = ? AND owner_id = ? AND id <> ? AND status IN ('ACTIVE', 'PUBLISHED', 'SOLD_OUT'))`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, offer.EAN, offer.OwnerID, offer.ID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *StockRepo) PriceCategories(ctx context.Context, offerID uint64) ([]model.PriceCategory, error) {
	const q = `SELECT id, offer_id, label, price FROM price_categories WHERE offer_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PriceCategory{}
	for rows.Next() {
		var c model.PriceCategory
		if err := rows.Scan(&c.ID, &c.OfferID, &c.Label, &c.Price); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// orderBy maps a sort state onto SQL.  Unlimited quantities and open
// booking limits sort as the largest values.
func orderBy(s model.SortState) (string, error) {
	dir := "ASC"
	if s.Desc() {
		dir = "DESC"
	}
	var expr []string
	if s.IsDefault() {
		return "s.beginning_datetime ASC, s.id ASC", nil
	}
	switch s.Column {
	case model.SortDate, model.SortTime, model.SortBeginningDatetime:
		expr = []string{"s.beginning_datetime"}
	case model.SortPriceCategory:
		expr = []string{"COALESCE(pc.price, 0)"}
	case model.SortBookingLimitDatetime:
		expr = []string{"(s.booking_limit_datetime IS NULL)", "s.booking_limit_datetime"}
	case model.SortRemainingQuantity:
		expr = []string{"(s.quantity IS NULL)", "(s.quantity - s.dn_booked_quantity)"}
	case model.SortBookedQuantity:
		expr = []string{"s.dn_booked_quantity"}
	default:
		return "", fmt.Errorf("unknown sort column %q", s.Column)
	}
	for i := range expr {
		expr[i] += " " + dir
	}
	return strings.Join(expr, ", ") + ", s.id ASC", nil
}

func (r *StockRepo) SearchStocks(ctx context.Context, offerID uint64, q stocklist.Query, now time.Time) (stocklist.Page, error) {
	where := []string{"s.offer_id = ?", "s.is_soft_deleted = 0", "s.beginning_datetime IS NOT NULL"}
	args := []any{offerID}

	if f := q.Filter.Date; f != nil {
		y, m, d := f.Date()
		from := time.Date(y, m, d, 0, 0, 0, 0, r.loc)
		where = append(where, "s.beginning_datetime >= ?", "s.beginning_datetime < ?")
		args = append(args, from.UTC(), from.AddDate(0, 0, 1).UTC())
	}
	if h := q.Filter.Hour; h != nil {
		where = append(where, "TIME_FORMAT(CONVERT_TZ(s.beginning_datetime, '+00:00', ?), '%H:%i') = ?")
		args = append(args, r.loc.String(), h.String())
	}
	if c := q.Filter.PriceCategoryID; c != nil {
		where = append(where, "s.price_category_id = ?")
		args = append(args, *c)
	}
	cond := strings.Join(where, " AND ")

	order, err := orderBy(q.Sort)
	if err != nil {
		return stocklist.Page{}, err
	}

	var page stocklist.Page
	const anySQL = `SELECT EXISTS(SELECT 1 FROM stocks WHERE offer_id = ? AND is_soft_deleted = 0 AND beginning_datetime IS NOT NULL)`
	if err := r.db.QueryRowContext(ctx, anySQL, offerID).Scan(&page.HasAnyStocks); err != nil {
		return stocklist.Page{}, err
	}

	countSQL := `SELECT COUNT(*) FROM stocks s WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&page.TotalCount); err != nil {
		return stocklist.Page{}, err
	}

	size := q.PageSize
	if size <= 0 {
		size = stocklist.DefaultPageSize
	}
	pageNo := max(q.Page, 1)
	dataSQL := `SELECT s.id, s.beginning_datetime, s.booking_limit_datetime,
			COALESCE(s.price_category_id, 0), s.quantity, s.dn_booked_quantity
		FROM stocks s
		LEFT JOIN price_categories pc ON pc.id = s.price_category_id
		WHERE ` + cond + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), size, (pageNo-1)*size)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return stocklist.Page{}, err
	}
	defer rows.Close()

	page.Rows = make([]model.StockListRow, 0, size)
	for rows.Next() {
		var (
			row      model.StockListRow
			limit    sql.NullTime
			quantity sql.NullInt64
		)
		if err := rows.Scan(&row.ID, &row.BeginningDatetime, &limit, &row.PriceCategoryID, &quantity, &row.BookingsQuantity); err != nil {
			return stocklist.Page{}, err
		}
		row.BookingLimitDatetime = nullTime(limit)
		row.Quantity = nullInt(quantity)
		row.IsEventDeletable = model.IsEventDeletableAt(&row.BeginningDatetime, now)
		page.Rows = append(page.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return stocklist.Page{}, err
	}
	return page, nil
}

func (r *StockRepo) StockRefs(ctx context.Context, offerID uint64, ids []uint64) ([]StockRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(offerID, ids)
	q := `SELECT id, offer_id, beginning_datetime, dn_booked_quantity
		FROM stocks WHERE offer_id = ? AND is_soft_deleted = 0 AND id IN (` + in + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockRef
	for rows.Next() {
		var (
			ref   StockRef
			begin sql.NullTime
		)
		if err := rows.Scan(&ref.ID, &ref.OfferID, &begin, &ref.BookingsQuantity); err != nil {
			return nil, err
		}
		ref.BeginningDatetime = nullTime(begin)
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *StockRepo) DeleteStocks(ctx context.Context, offerID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(offerID, ids)
	res, err := r.db.ExecContext(ctx,
		`UPDATE stocks SET is_soft_deleted = 1 WHERE offer_id = ? AND is_soft_deleted = 0 AND id IN (`+in+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *StockRepo) PriceTable(ctx context.Context, offerID uint64) ([]model.PriceTableEntry, error) {
	const q = `SELECT s.id, s.offer_id, s.price_category_id, COALESCE(s.label, ''), s.price, s.quantity,
			s.dn_booked_quantity, s.booking_limit_datetime, s.activation_codes_expiration_datetime,
			(SELECT COUNT(*) FROM activation_codes ac WHERE ac.stock_id = s.id)
		FROM stocks s
		WHERE s.offer_id = ? AND s.is_soft_deleted = 0 AND s.beginning_datetime IS NULL
		ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PriceTableEntry{}
	for rows.Next() {
		var (
			e        model.PriceTableEntry
			id       uint64
			category sql.NullInt64
			quantity sql.NullInt64
			limit    sql.NullTime
			expires  sql.NullTime
			codes    int
		)
		if err := rows.Scan(&id, &e.OfferID, &category, &e.Label, &e.Price, &quantity,
			&e.BookingsQuantity, &limit, &expires, &codes); err != nil {
			return nil, err
		}
		e.ID = &id
		if category.Valid {
			c := uint64(category.Int64)
			e.PriceCategoryID = &c
		}
		e.Quantity = nullInt(quantity)
		if e.Quantity != nil {
			rem := *e.Quantity - e.BookingsQuantity
			e.RemainingQuantity = &rem
		}
		e.BookingLimitDatetime = nullTime(limit)
		e.ActivationCodesExpirationDatetime = nullTime(expires)
		e.HasActivationCode = codes > 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertStocks writes every entry in one transaction.  Activation codes are
// only inserted together with a new stock.
func (r *StockRepo) UpsertStocks(ctx context.Context, offerID uint64, entries []model.PriceTableEntry) (n int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	for _, e := range entries {
		if e.ID == nil {
			if err = insertStock(ctx, tx, offerID, e); err != nil {
				return 0, err
			}
		} else {
			if err = updateStock(ctx, tx, offerID, e); err != nil {
				return 0, err
			}
		}
		n++
	}
	return n, nil
}

func insertStock(ctx context.Context, tx *sql.Tx, offerID uint64, e model.PriceTableEntry) error {
	const q = `INSERT INTO stocks (offer_id, price_category_id, label, price, quantity,
			booking_limit_datetime, activation_codes_expiration_datetime)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, offerID, e.PriceCategoryID, nullLabel(e.Label), e.Price,
		e.Quantity, e.BookingLimitDatetime, e.ActivationCodesExpirationDatetime)
	if err != nil {
		return err
	}
	if len(e.ActivationCodes) == 0 {
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	const qc = `INSERT INTO activation_codes (stock_id, code, expiration_datetime) VALUES (?, ?, ?)`
	for _, code := range e.ActivationCodes {
		if _, err := tx.ExecContext(ctx, qc, id, code, e.ActivationCodesExpirationDatetime); err != nil {
			return err
		}
	}
	return nil
}

func updateStock(ctx context.Context, tx *sql.Tx, offerID uint64, e model.PriceTableEntry) error {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM stocks WHERE id = ? AND offer_id = ? AND is_soft_deleted = 0 FOR UPDATE`, *e.ID, offerID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrStockNotFound, *e.ID)
		}
		return err
	}
	// codes and their expiration are immutable once written
	const q = `UPDATE stocks SET price_category_id = ?, label = ?, price = ?, quantity = ?, booking_limit_datetime = ?
		WHERE id = ?`
	_, err = tx.ExecContext(ctx, q, e.PriceCategoryID, nullLabel(e.Label), e.Price, e.Quantity, e.BookingLimitDatetime, id)
	return err
}

func inClause(offerID uint64, ids []uint64) (string, []any) {
	args := make([]any, 0, len(ids)+1)
	args = append(args, offerID)
	for _, id := range ids {
		args = append(args, id)
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullLabel(s string) any {
	if s == "" {
		return nil
	}
	return s
}
