package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	inventoryapp "github.com/erp/inventory/internal/application/inventory"
	"github.com/erp/inventory/internal/infrastructure/cache"
	"github.com/erp/inventory/internal/infrastructure/persistence"
	"github.com/erp/inventory/internal/interfaces/http/handler"
	"github.com/erp/inventory/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newMovementAPI builds a minimal HTTP stack over a test database,
// mirroring the server route layout.
func newMovementAPI(tdb *TestDB) *gin.Engine {
	txScope := persistence.NewGormTransactionScope(tdb.DB)
	idempotencyStore := cache.NewMemoryStore()

	movementService := inventoryapp.NewMovementService(txScope, idempotencyStore, zap.NewNop())
	movementHandler := handler.NewMovementHandler(movementService)

	engine := gin.New()
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	movementRoutes := router.NewDomainGroup("movements", "/movements")
	movementRoutes.POST("", movementHandler.Create)
	movementRoutes.GET("/:id", movementHandler.Get)
	movementRoutes.GET("/by-number/:number", movementHandler.GetByNumber)
	movementRoutes.POST("/:id/authorize", movementHandler.Authorize)
	movementRoutes.POST("/:id/cancel", movementHandler.Cancel)
	movementRoutes.POST("/:id/execute", movementHandler.Execute)
	r.Register(movementRoutes)
	r.Setup()

	return engine
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var envelope apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope),
		"response was not a JSON envelope: %s", w.Body.String())

	return w, envelope
}

func TestMovementAPI_EntryLifecycle(t *testing.T) {
	tdb := NewTestDB(t)
	engine := newMovementAPI(tdb)

	product := tdb.CreateTestProduct("PRD-API-001")
	warehouse := tdb.CreateTestWarehouse("WH-API-01")

	// Create a deferred entry movement
	w, envelope := doJSON(t, engine, http.MethodPost, "/api/v1/movements", map[string]interface{}{
		"type":         "ENTRY",
		"product_id":   product.ID,
		"warehouse_id": warehouse.ID,
		"quantity":     "10",
		"unit_cost":    "4.5",
		"reference":    "PO-123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, envelope.Success)

	var created inventoryapp.MovementResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &created))
	assert.Equal(t, "CREATED", created.Status)
	assert.NotEmpty(t, created.Number)

	// Authorize it
	w, envelope = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/movements/%s/authorize", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var authorized inventoryapp.MovementResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &authorized))
	assert.Equal(t, "AUTHORIZED", authorized.Status)

	// Execute applies the stock change
	w, envelope = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/movements/%s/execute", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var executed inventoryapp.MovementResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &executed))
	assert.Equal(t, "EXECUTED", executed.Status)

	quantity := tdb.StockQuantity(product.ID, warehouse.ID)
	assert.True(t, quantity.Equal(decimal.NewFromInt(10)), "stock was %s", quantity)

	// Re-executing the same movement is rejected and must not double-apply stock
	w, envelope = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/movements/%s/execute", created.ID), nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.Error.Code)

	quantity = tdb.StockQuantity(product.ID, warehouse.ID)
	assert.True(t, quantity.Equal(decimal.NewFromInt(10)), "stock after replay was %s", quantity)

	// Lookup by number round-trips
	w, envelope = doJSON(t, engine, http.MethodGet,
		"/api/v1/movements/by-number/"+created.Number, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched inventoryapp.MovementResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "EXECUTED", fetched.Status)
}

func TestMovementAPI_ExecuteWithoutAuthorizationFails(t *testing.T) {
	tdb := NewTestDB(t)
	engine := newMovementAPI(tdb)

	product := tdb.CreateTestProduct("PRD-API-002")
	warehouse := tdb.CreateTestWarehouse("WH-API-02")

	w, envelope := doJSON(t, engine, http.MethodPost, "/api/v1/movements", map[string]interface{}{
		"type":         "ENTRY",
		"product_id":   product.ID,
		"warehouse_id": warehouse.ID,
		"quantity":     "3",
		"unit_cost":    "1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created inventoryapp.MovementResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &created))

	w, envelope = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/movements/%s/execute", created.ID), nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.Error.Code)
}

func TestMovementAPI_CancelledMovementCannotExecute(t *testing.T) {
	tdb := NewTestDB(t)
	engine := newMovementAPI(tdb)

	product := tdb.CreateTestProduct("PRD-API-003")
	warehouse := tdb.CreateTestWarehouse("WH-API-03")

	w, envelope := doJSON(t, engine, http.MethodPost, "/api/v1/movements", map[string]interface{}{
		"type":         "EXIT",
		"product_id":   product.ID,
		"warehouse_id": warehouse.ID,
		"quantity":     "2",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created inventoryapp.MovementResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &created))

	w, envelope = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/movements/%s/cancel", created.ID), map[string]interface{}{
			"reason": "created by mistake",
		})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cancelled inventoryapp.MovementResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &cancelled))
	assert.Equal(t, "CANCELLED", cancelled.Status)

	w, envelope = doJSON(t, engine, http.MethodPost,
		fmt.Sprintf("/api/v1/movements/%s/execute", created.ID), nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ERR_INVALID_STATE", envelope.Error.Code)
}

func TestMovementAPI_UnknownMovementReturnsNotFound(t *testing.T) {
	tdb := NewTestDB(t)
	engine := newMovementAPI(tdb)

	w, envelope := doJSON(t, engine, http.MethodGet,
		"/api/v1/movements/0e8dd797-0f07-4f7f-b0b6-8c6c2a2c5a10", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ERR_NOT_FOUND", envelope.Error.Code)
}
