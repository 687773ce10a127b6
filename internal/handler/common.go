package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/offer-stocks/internal/middleware"
	"github.com/iliyamo/offer-stocks/internal/pricetable"
	"github.com/iliyamo/offer-stocks/internal/repository"
	"github.com/iliyamo/offer-stocks/internal/service"
)

// StockHandler exposes the stock service over HTTP.
type StockHandler struct {
	Stocks        *service.StockService
	StocksPerPage int
}

// NewStockHandler panics when svc is nil.
func NewStockHandler(svc *service.StockService, stocksPerPage int) *StockHandler {
	if svc == nil {
		panic("nil stock service passed to NewStockHandler")
	}
	return &StockHandler{Stocks: svc, StocksPerPage: stocksPerPage}
}

func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return 0, errors.New("invalid user_id in context")
	}
	return id, nil
}

// ownerAndOffer reads the caller and the :id offer parameter.  On failure
// the response is already written and ok is false.
func ownerAndOffer(c echo.Context) (ownerID, offerID uint64, ok bool, err error) {
	ownerID, err = getUserID(c)
	if err != nil {
		return 0, 0, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offerID, err = strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || offerID == 0 {
		return 0, 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offer id"})
	}
	return ownerID, offerID, true, nil
}

// writeError maps service and repository errors to a status and body.
// failed is the message of the 500 response.
func writeError(c echo.Context, err error, failed string) error {
	var rej *pricetable.RejectionError
	switch {
	case errors.As(err, &rej):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stocks", "fields": rej.Fields.List(), "global": rej.Global})
	case errors.Is(err, repository.ErrOfferNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	case errors.Is(err, repository.ErrStockNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "stock not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrSynchronizedStock):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stocks of a synchronized offer cannot be deleted", "code": service.CodeStockFromProvider})
	case errors.Is(err, service.ErrStockNotDeletable), errors.Is(err, service.ErrOfferFrozen), errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNoStocks), errors.Is(err, service.ErrTooManyStocks),
		errors.Is(err, service.ErrCodesNotAllowed), errors.Is(err, service.ErrInvalidCodeFile):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("%s: %v", failed, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": failed})
	}
}
