package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/offer-stocks/internal/middleware"
	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/repository"
	"github.com/iliyamo/offer-stocks/internal/service"
	"github.com/iliyamo/offer-stocks/internal/utils"
)

const (
	secret  = "handler-secret"
	ownerID = uint64(9)
)

var now = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func newServer(t *testing.T) (*echo.Echo, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore(time.UTC)
	store.PutOffer(model.Offer{ID: 1, OwnerID: ownerID, Status: model.OfferStatusActive, IsEvent: true})
	store.PutOffer(model.Offer{ID: 2, OwnerID: ownerID, Status: model.OfferStatusActive, IsEvent: true,
		LastProvider: &model.Provider{ID: 1, Name: "Boost"}})
	store.PutOffer(model.Offer{ID: 3, OwnerID: ownerID, Status: model.OfferStatusActive, IsDigital: true, DateCreated: now})
	cat := store.AddPriceCategory(1, "full", decimal.NewFromInt(20))
	for i := 0; i < 3; i++ {
		store.AddDatedStock(1, model.StockListRow{
			BeginningDatetime: now.Add(time.Duration(24*(i+1)) * time.Hour),
			PriceCategoryID:   cat.ID,
			Quantity:          model.Ptr(10),
		})
	}

	svc := service.NewStockService(store, nil, service.NopPublisher{}, service.Options{Now: func() time.Time { return now }})
	h := NewStockHandler(svc, 2)

	e := echo.New()
	g := e.Group("/v1/offers/:id", middleware.JWTAuth(secret), middleware.RequireRole(middleware.RoleOwner))
	g.GET("/stocks", h.ListStocks)
	g.POST("/stocks", h.UpsertStocks)
	g.POST("/stocks/delete", h.DeleteStocks)
	g.DELETE("/stocks/:stock_id", h.DeleteStock)
	g.GET("/price-categories", h.PriceCategories)
	g.GET("/price-table", h.PriceTable)
	g.POST("/activation-codes", h.UploadActivationCodes)
	return e, store
}

func token(t *testing.T, user uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, user, role, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

func do(e *echo.Echo, method, target, tok string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		bs, _ := json.Marshal(body)
		rd = bytes.NewReader(bs)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListStocks(t *testing.T) {
	e, _ := newServer(t)
	tok := token(t, ownerID, middleware.RoleOwner)

	rec := do(e, http.MethodGet, "/v1/offers/1/stocks?page=2", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Stocks     []model.StockListRow `json:"stocks"`
		TotalCount int                  `json:"total_count"`
		HasStocks  bool                 `json:"has_stocks"`
		Page       int                  `json:"page"`
		PageCount  int                  `json:"page_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Stocks, 1)
	assert.Equal(t, 3, body.TotalCount)
	assert.True(t, body.HasStocks)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.PageCount)
}

func TestListStocksErrors(t *testing.T) {
	e, _ := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/offers/1/stocks", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/offers/1/stocks", token(t, ownerID, "USER"), nil).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/offers/1/stocks", token(t, 77, middleware.RoleOwner), nil).Code)

	tok := token(t, ownerID, middleware.RoleOwner)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/offers/404/stocks", tok, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/offers/abc/stocks", tok, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/offers/1/stocks?order_by=BOGUS", tok, nil).Code)
}

func TestDeleteStocks(t *testing.T) {
	e, store := newServer(t)
	tok := token(t, ownerID, middleware.RoleOwner)
	synced := store.AddDatedStock(2, model.StockListRow{BeginningDatetime: now.Add(72 * time.Hour)})

	rec := do(e, http.MethodPost, "/v1/offers/2/stocks/delete", tok, echo.Map{"ids_to_delete": []uint64{synced}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "STOCK_FROM_PROVIDER_CANNOT_BE_DELETED")

	rec = do(e, http.MethodPost, "/v1/offers/1/stocks/delete", tok, echo.Map{"ids_to_delete": []uint64{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	old := store.AddDatedStock(1, model.StockListRow{BeginningDatetime: now.Add(-72 * time.Hour)})
	rec = do(e, http.MethodDelete, "/v1/offers/1/stocks/"+strconv.FormatUint(old, 10), tok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	fresh := store.AddDatedStock(1, model.StockListRow{BeginningDatetime: now.Add(72 * time.Hour)})
	rec = do(e, http.MethodPost, "/v1/offers/1/stocks/delete", tok, echo.Map{"ids_to_delete": []uint64{fresh}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted_count":1}`, rec.Body.String())

	rec = do(e, http.MethodDelete, "/v1/offers/1/stocks/"+strconv.FormatUint(fresh, 10), tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertStocks(t *testing.T) {
	e, _ := newServer(t)
	tok := token(t, ownerID, middleware.RoleOwner)

	rec := do(e, http.MethodPost, "/v1/offers/1/stocks", tok, echo.Map{
		"mode": "CREATION",
		"stocks": []echo.Map{
			{"label": "Plein", "price": "20.50", "quantity": 100},
			{"label": "Réduit", "price": 10},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"persisted_count":2}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/v1/offers/1/stocks", tok, echo.Map{
		"stocks": []echo.Map{{"label": "Bad", "price": -1}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Fields []struct {
			Index   int    `json:"index"`
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Fields, 1)
	assert.Equal(t, 0, body.Fields[0].Index)
	assert.Equal(t, "price", body.Fields[0].Field)

	rec = do(e, http.MethodGet, "/v1/offers/1/price-table?mode=EDITION", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.PriceTableView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Entries, 2)
	assert.True(t, decimal.RequireFromString("20.5").Equal(view.Entries[0].Price))
}

func TestPriceCategories(t *testing.T) {
	e, _ := newServer(t)
	rec := do(e, http.MethodGet, "/v1/offers/1/price-categories", token(t, ownerID, middleware.RoleOwner), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"full"`)
}

func TestUploadActivationCodes(t *testing.T) {
	e, _ := newServer(t)
	tok := token(t, ownerID, middleware.RoleOwner)

	upload := func(offer string, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("file", "codes.csv")
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
		require.NoError(t, w.WriteField("mode", "CREATION"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/offers/"+offer+"/activation-codes", &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("3", "AAA\r\nBBB\r\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up service.CodeUpload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, []string{"AAA", "BBB"}, up.Codes)

	rec = upload("3", "AAA\nAAA\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "duplicated"))

	rec = upload("1", "AAA\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
