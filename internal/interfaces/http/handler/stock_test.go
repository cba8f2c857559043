package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/inventory/internal/interfaces/http/dto"
	"github.com/erp/inventory/tests/testutil"
)

func expectBadRequest(t *testing.T, tc *testutil.TestContext) {
	t.Helper()
	testutil.AssertErrorResponse(t, tc, dto.ErrCodeBadRequest)
}

func assertBadRequest(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestStockHandlerProcessEntryValidation(t *testing.T) {
	h := NewStockHandler(nil)

	testutil.RunHTTPTestCases(t, h.ProcessEntry, []testutil.HTTPTestCase{
		{
			Name:           "malformed JSON",
			Method:         http.MethodPost,
			Path:           "/stock/entries",
			Body:           json.RawMessage("{not json"),
			ExpectedStatus: http.StatusBadRequest,
			Validate:       expectBadRequest,
		},
		{
			Name:           "missing required fields",
			Method:         http.MethodPost,
			Path:           "/stock/entries",
			Body:           json.RawMessage(`{}`),
			ExpectedStatus: http.StatusBadRequest,
			Validate:       expectBadRequest,
		},
	})
}

func TestStockHandlerProcessExitValidation(t *testing.T) {
	h := NewStockHandler(nil)

	testutil.RunHTTPTestCase(t, h.ProcessExit, testutil.HTTPTestCase{
		Method:         http.MethodPost,
		Path:           "/stock/exits",
		Body:           json.RawMessage(`{"quantity": "abc"}`),
		ExpectedStatus: http.StatusBadRequest,
		Validate:       expectBadRequest,
	})
}

func TestStockHandlerAdjustValidation(t *testing.T) {
	h := NewStockHandler(nil)

	testutil.RunHTTPTestCase(t, h.AdjustStock, testutil.HTTPTestCase{
		Method:         http.MethodPost,
		Path:           "/stock/adjustments",
		Body:           json.RawMessage(`{}`),
		ExpectedStatus: http.StatusBadRequest,
		Validate:       expectBadRequest,
	})
}

func TestStockHandlerTransferValidation(t *testing.T) {
	h := NewStockHandler(nil)

	testutil.RunHTTPTestCase(t, h.Transfer, testutil.HTTPTestCase{
		Method:         http.MethodPost,
		Path:           "/stock/transfers",
		Body:           json.RawMessage(`{}`),
		ExpectedStatus: http.StatusBadRequest,
		Validate:       expectBadRequest,
	})
}

func TestStockHandlerCheckAvailabilityValidation(t *testing.T) {
	h := NewStockHandler(nil)

	testutil.RunHTTPTestCases(t, h.CheckAvailability, []testutil.HTTPTestCase{
		{
			Name:           "missing fields",
			Method:         http.MethodPost,
			Path:           "/stock/availability/check",
			Body:           json.RawMessage(`{}`),
			ExpectedStatus: http.StatusBadRequest,
			Validate:       expectBadRequest,
		},
		{
			Name:   "invalid product id",
			Method: http.MethodPost,
			Path:   "/stock/availability/check",
			Body: json.RawMessage(
				`{"product_id": "nope", "warehouse_id": "also-nope", "quantity": "1"}`),
			ExpectedStatus: http.StatusBadRequest,
			Validate:       expectBadRequest,
		},
	})
}

func TestStockHandlerGetStockValidation(t *testing.T) {
	h := NewStockHandler(nil)

	t.Run("missing product id", func(t *testing.T) {
		c, w := newTestContext()
		c.Request = httptest.NewRequest(http.MethodGet, "/stock/lookup", nil)
		h.GetStock(c)

		assertBadRequest(t, w)
	})

	t.Run("invalid warehouse id", func(t *testing.T) {
		c, w := newTestContext()
		c.Request = httptest.NewRequest(http.MethodGet,
			"/stock/lookup?product_id=0e8dd797-0f07-4f7f-b0b6-8c6c2a2c5a10&warehouse_id=bad", nil)
		h.GetStock(c)

		assertBadRequest(t, w)
	})
}

func TestStockHandlerListByWarehouseValidation(t *testing.T) {
	h := NewStockHandler(nil)

	c, w := newTestContext()
	c.Params = gin.Params{{Key: "warehouse_id", Value: "not-a-uuid"}}
	h.ListByWarehouse(c)

	assertBadRequest(t, w)
}

func TestStockHandlerListByProductValidation(t *testing.T) {
	h := NewStockHandler(nil)

	c, w := newTestContext()
	c.Params = gin.Params{{Key: "product_id", Value: "not-a-uuid"}}
	h.ListByProduct(c)

	assertBadRequest(t, w)
}

func TestStockHandlerListLotsValidation(t *testing.T) {
	h := NewStockHandler(nil)

	t.Run("missing product id", func(t *testing.T) {
		c, w := newTestContext()
		c.Request = httptest.NewRequest(http.MethodGet, "/stock/lots", nil)
		h.ListLots(c)

		assertBadRequest(t, w)
	})

	t.Run("invalid warehouse id", func(t *testing.T) {
		c, w := newTestContext()
		c.Request = httptest.NewRequest(http.MethodGet,
			"/stock/lots?product_id=0e8dd797-0f07-4f7f-b0b6-8c6c2a2c5a10&warehouse_id=bad", nil)
		h.ListLots(c)

		assertBadRequest(t, w)
	})
}

func TestToFilter(t *testing.T) {
	t.Run("defaults preserved for zero values", func(t *testing.T) {
		filter := toFilter(dto.ListRequest{})

		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, 20, filter.PageSize)
	})

	t.Run("explicit values override defaults", func(t *testing.T) {
		filter := toFilter(dto.ListRequest{
			Page:     3,
			PageSize: 50,
			OrderBy:  "quantity",
			OrderDir: "asc",
			Search:   "widget",
		})

		assert.Equal(t, 3, filter.Page)
		assert.Equal(t, 50, filter.PageSize)
		assert.Equal(t, "quantity", filter.OrderBy)
		assert.Equal(t, "asc", filter.OrderDir)
		assert.Equal(t, "widget", filter.Search)
	})
}
