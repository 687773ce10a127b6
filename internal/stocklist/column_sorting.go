package stocklist

import "github.com/iliyamo/offer-stocks/internal/model"

// NextSort is the header click transition.  A new column starts ascending;
// clicking the active column goes ASC, DESC, then back to no sort.
func NextSort(current model.SortState, clicked model.SortColumn) model.SortState {
	if clicked == model.SortNone {
		return model.SortState{Column: model.SortNone, Direction: model.SortDirectionNone}
	}
	if current.Column != clicked {
		return model.SortState{Column: clicked, Direction: model.SortDirectionAsc}
	}
	switch current.Direction {
	case model.SortDirectionAsc:
		return model.SortState{Column: clicked, Direction: model.SortDirectionDesc}
	case model.SortDirectionDesc:
		return model.SortState{Column: model.SortNone, Direction: model.SortDirectionNone}
	default:
		return model.SortState{Column: clicked, Direction: model.SortDirectionAsc}
	}
}
