package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/erp/inventory/internal/application/inventory"
	"github.com/erp/inventory/internal/domain/shared"
	"github.com/erp/inventory/internal/interfaces/http/dto"
)

// StockHandler handles stock operations and queries
type StockHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(inventoryService *inventoryapp.InventoryService) *StockHandler {
	return &StockHandler{
		inventoryService: inventoryService,
	}
}

// CheckAvailabilityRequest asks whether a quantity can be served
type CheckAvailabilityRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// ProcessEntry handles POST /stock/entries
func (h *StockHandler) ProcessEntry(c *gin.Context) {
	var req inventoryapp.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid entry request: "+err.Error())
		return
	}

	result, err := h.inventoryService.ProcessEntry(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ProcessReturn handles POST /stock/returns
func (h *StockHandler) ProcessReturn(c *gin.Context) {
	var req inventoryapp.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid return request: "+err.Error())
		return
	}

	result, err := h.inventoryService.ProcessReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ProcessExit handles POST /stock/exits
func (h *StockHandler) ProcessExit(c *gin.Context) {
	var req inventoryapp.ExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid exit request: "+err.Error())
		return
	}

	result, err := h.inventoryService.ProcessExit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// AdjustStock handles POST /stock/adjustments
func (h *StockHandler) AdjustStock(c *gin.Context) {
	var req inventoryapp.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid adjustment request: "+err.Error())
		return
	}

	result, err := h.inventoryService.AdjustStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Transfer handles POST /stock/transfers
func (h *StockHandler) Transfer(c *gin.Context) {
	var req inventoryapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid transfer request: "+err.Error())
		return
	}

	result, err := h.inventoryService.Transfer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// CheckAvailability handles POST /stock/availability/check
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	var req CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid availability request: "+err.Error())
		return
	}

	result, err := h.inventoryService.CheckAvailability(
		c.Request.Context(), req.ProductID, req.WarehouseID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetStock handles GET /stock/lookup
func (h *StockHandler) GetStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	record, err := h.inventoryService.GetStock(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// ListByWarehouse handles GET /stock/warehouses/:warehouse_id
func (h *StockHandler) ListByWarehouse(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Param("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	records, err := h.inventoryService.ListStockByWarehouse(
		c.Request.Context(), warehouseID, toFilter(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// ListByProduct handles GET /stock/products/:product_id
func (h *StockHandler) ListByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	records, err := h.inventoryService.ListStockByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// ListLots handles GET /stock/lots
func (h *StockHandler) ListLots(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var warehouseID *uuid.UUID
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid warehouse ID format")
			return
		}
		warehouseID = &id
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}

	lots, err := h.inventoryService.ListLots(
		c.Request.Context(), productID, warehouseID, toFilter(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lots)
}

// toFilter converts list request parameters to a repository filter
func toFilter(req dto.ListRequest) shared.Filter {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter
}
