package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/stocklist"
)

type stocksPageResponse struct {
	Stocks       []model.StockListRow `json:"stocks"`
	TotalCount   int                  `json:"total_count"`
	HasAnyStocks bool                 `json:"has_stocks"`
	Page         int                  `json:"page"`
	PageCount    int                  `json:"page_count"`
}

// ListStocks handles GET /v1/offers/:id/stocks.  Query parameters: date,
// time, price_category_id, order_by, order_by_desc and page.
func (h *StockHandler) ListStocks(c echo.Context) error {
	ownerID, offerID, ok, err := ownerAndOffer(c)
	if !ok {
		return err
	}
	q, err := stocklist.ParseQuery(c.QueryParams(), h.StocksPerPage, h.Stocks.Location())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	page, err := h.Stocks.SearchStocks(c.Request().Context(), ownerID, offerID, q)
	if err != nil {
		return writeError(c, err, "search failed")
	}
	return c.JSON(http.StatusOK, stocksPageResponse{
		Stocks:       page.Rows,
		TotalCount:   page.TotalCount,
		HasAnyStocks: page.HasAnyStocks,
		Page:         q.Page,
		PageCount:    stocklist.PageCount(page.TotalCount, q.PageSize),
	})
}

type deleteStocksRequest struct {
	IDs []uint64 `json:"ids_to_delete"`
}

// DeleteStocks handles POST /v1/offers/:id/stocks/delete.
func (h *StockHandler) DeleteStocks(c echo.Context) error {
	ownerID, offerID, ok, err := ownerAndOffer(c)
	if !ok {
		return err
	}
	var req deleteStocksRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	n, err := h.Stocks.DeleteStocks(c.Request().Context(), ownerID, offerID, req.IDs)
	if err != nil {
		return writeError(c, err, "delete failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted_count": n})
}

// DeleteStock handles DELETE /v1/offers/:id/stocks/:stock_id.
func (h *StockHandler) DeleteStock(c echo.Context) error {
	ownerID, offerID, ok, err := ownerAndOffer(c)
	if !ok {
		return err
	}
	stockID, err := strconv.ParseUint(c.Param("stock_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stock id"})
	}
	n, err := h.Stocks.DeleteStocks(c.Request().Context(), ownerID, offerID, []uint64{stockID})
	if err != nil {
		return writeError(c, err, "delete failed")
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "stock not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

type upsertStocksRequest struct {
	Mode   string                  `json:"mode"`
	Stocks []model.PriceTableEntry `json:"stocks"`
}

// UpsertStocks handles POST /v1/offers/:id/stocks.  Entries without id are
// created.  A refusal answers 400 with per-entry field errors.
func (h *StockHandler) UpsertStocks(c echo.Context) error {
	ownerID, offerID, ok, err := ownerAndOffer(c)
	if !ok {
		return err
	}
	var req upsertStocksRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Stocks) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no stocks given"})
	}
	n, err := h.Stocks.UpsertStocks(c.Request().Context(), ownerID, offerID, model.ParseWizardMode(req.Mode), req.Stocks)
	if err != nil {
		return writeError(c, err, "save failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"persisted_count": n})
}

// PriceCategories handles GET /v1/offers/:id/price-categories.
func (h *StockHandler) PriceCategories(c echo.Context) error {
	ownerID, offerID, ok, err := ownerAndOffer(c)
	if !ok {
		return err
	}
	cats, err := h.Stocks.PriceCategories(c.Request().Context(), ownerID, offerID)
	if err != nil {
		return writeError(c, err, "fetch failed")
	}
	return c.JSON(http.StatusOK, cats)
}

// PriceTable handles GET /v1/offers/:id/price-table?mode=EDITION.
func (h *StockHandler) PriceTable(c echo.Context) error {
	ownerID, offerID, ok, err := ownerAndOffer(c)
	if !ok {
		return err
	}
	view, err := h.Stocks.PriceTable(c.Request().Context(), ownerID, offerID, model.ParseWizardMode(c.QueryParam("mode")))
	if err != nil {
		return writeError(c, err, "fetch failed")
	}
	return c.JSON(http.StatusOK, view)
}

// UploadActivationCodes handles POST /v1/offers/:id/activation-codes with a
// multipart "file" holding one code per line.
func (h *StockHandler) UploadActivationCodes(c echo.Context) error {
	ownerID, offerID, ok, err := ownerAndOffer(c)
	if !ok {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing file"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer f.Close()

	up, err := h.Stocks.ParseActivationCodes(c.Request().Context(), ownerID, offerID, model.ParseWizardMode(c.FormValue("mode")), f)
	if err != nil {
		return writeError(c, err, "upload failed")
	}
	return c.JSON(http.StatusOK, up)
}
