package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/erp/inventory/internal/application/inventory"
	"github.com/erp/inventory/internal/interfaces/http/dto"
)

// defaultExpiryWindowDays is the horizon for the expiring-lots report.
const defaultExpiryWindowDays = 30

// ReportHandler handles valuation and expiry reporting endpoints
type ReportHandler struct {
	BaseHandler
	reportService *inventoryapp.ReportService
	exportService *inventoryapp.ExportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *inventoryapp.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// SetExportService enables the export endpoints
func (h *ReportHandler) SetExportService(exportService *inventoryapp.ExportService) {
	h.exportService = exportService
}

// optionalWarehouseID parses an optional warehouse_id query parameter
func optionalWarehouseID(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("warehouse_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// Valuation handles GET /reports/valuation
func (h *ReportHandler) Valuation(c *gin.Context) {
	warehouseID, ok := optionalWarehouseID(c)
	if !ok {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	report, err := h.reportService.Valuation(c.Request.Context(), warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// ExpiringLots handles GET /reports/lots/expiring
func (h *ReportHandler) ExpiringLots(c *gin.Context) {
	days := defaultExpiryWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "days must be a positive integer")
			return
		}
		days = parsed
	}

	warehouseID, ok := optionalWarehouseID(c)
	if !ok {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	report, err := h.reportService.ExpiringLots(c.Request.Context(), days, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// ExpiredLots handles GET /reports/lots/expired
func (h *ReportHandler) ExpiredLots(c *gin.Context) {
	warehouseID, ok := optionalWarehouseID(c)
	if !ok {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	report, err := h.reportService.ExpiredLots(c.Request.Context(), warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// AverageCost handles GET /reports/average-cost/:product_id
func (h *ReportHandler) AverageCost(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	avgCost, err := h.reportService.AverageCost(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"product_id":   productID,
		"average_cost": avgCost,
	})
}

// ExportValuation handles POST /reports/valuation/export
func (h *ReportHandler) ExportValuation(c *gin.Context) {
	if h.exportService == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeExportUnavailable,
			"Report export storage is not configured")
		return
	}

	warehouseID, ok := optionalWarehouseID(c)
	if !ok {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	result, err := h.exportService.ExportValuation(c.Request.Context(), warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// LowStock handles GET /reports/low-stock
func (h *ReportHandler) LowStock(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	records, err := h.reportService.LowStock(c.Request.Context(), warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}
