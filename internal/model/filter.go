package model

import (
	"fmt"
	"time"
)

// ClockTime is an hour and minute of the day, used by the hour filter.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Matches reports whether t falls on the same hour and minute.
func (c ClockTime) Matches(t time.Time) bool { return t.Hour() == c.Hour && t.Minute() == c.Minute }

// FilterState holds the optional stock list filters.  A nil field matches
// every row for that dimension.  Date only carries a calendar day.
type FilterState struct {
	Date            *time.Time `json:"date,omitempty"`
	Hour            *ClockTime `json:"time,omitempty"`
	PriceCategoryID *uint64    `json:"price_category_id,omitempty"`
}

// IsActive reports whether any filter is set.
func (f FilterState) IsActive() bool {
	return f.Date != nil || f.Hour != nil || f.PriceCategoryID != nil
}

// Key renders the filter as a stable string for request keying.
func (f FilterState) Key() string {
	date, hour, cat := "-", "-", "-"
	if f.Date != nil {
		date = f.Date.Format(time.DateOnly)
	}
	if f.Hour != nil {
		hour = f.Hour.String()
	}
	if f.PriceCategoryID != nil {
		cat = fmt.Sprint(*f.PriceCategoryID)
	}
	return date + "|" + hour + "|" + cat
}

// SortColumn is one of the fixed stock list columns.
type SortColumn string

const (
	SortNone                 SortColumn = ""
	SortDate                 SortColumn = "DATE"
	SortTime                 SortColumn = "TIME"
	SortBeginningDatetime    SortColumn = "BEGINNING_DATETIME"
	SortPriceCategory        SortColumn = "PRICE_CATEGORY_ID"
	SortBookingLimitDatetime SortColumn = "BOOKING_LIMIT_DATETIME"
	SortRemainingQuantity    SortColumn = "REMAINING_QUANTITY"
	SortBookedQuantity       SortColumn = "DN_BOOKED_QUANTITY"
)

// SortColumns lists every supported column.
var SortColumns = []SortColumn{
	SortDate, SortTime, SortBeginningDatetime, SortPriceCategory,
	SortBookingLimitDatetime, SortRemainingQuantity, SortBookedQuantity,
}

// ParseSortColumn validates an order_by value.  The empty string is SortNone.
func ParseSortColumn(s string) (SortColumn, error) {
	if s == "" {
		return SortNone, nil
	}
	for _, c := range SortColumns {
		if string(c) == s {
			return c, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort column %q", s)
}

// SortDirection is NONE, ASC or DESC.
type SortDirection string

const (
	SortDirectionNone SortDirection = "NONE"
	SortDirectionAsc  SortDirection = "ASC"
	SortDirectionDesc SortDirection = "DESC"
)

// SortState is the single active sort of the stock list.
type SortState struct {
	Column    SortColumn    `json:"column"`
	Direction SortDirection `json:"direction"`
}

// IsDefault reports whether the state falls back to beginning datetime ASC.
func (s SortState) IsDefault() bool {
	return s.Column == SortNone || s.Direction == SortDirectionNone || s.Direction == ""
}

// Desc reports whether the active direction is descending.
func (s SortState) Desc() bool { return !s.IsDefault() && s.Direction == SortDirectionDesc }

// Key renders the sort for request keying.
func (s SortState) Key() string {
	if s.IsDefault() {
		return "default"
	}
	return string(s.Column) + ":" + string(s.Direction)
}
