package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/erp/inventory/internal/application/inventory"
)

// MovementHandler handles the deferred-authorization movement lifecycle
type MovementHandler struct {
	BaseHandler
	movementService *inventoryapp.MovementService
}

// NewMovementHandler creates a new MovementHandler
func NewMovementHandler(movementService *inventoryapp.MovementService) *MovementHandler {
	return &MovementHandler{
		movementService: movementService,
	}
}

// CancelMovementRequest carries the cancellation reason
type CancelMovementRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// Create handles POST /movements
func (h *MovementHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid movement request: "+err.Error())
		return
	}

	movement, err := h.movementService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, movement)
}

// Authorize handles POST /movements/:id/authorize
func (h *MovementHandler) Authorize(c *gin.Context) {
	movementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	movement, err := h.movementService.Authorize(c.Request.Context(), movementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movement)
}

// Cancel handles POST /movements/:id/cancel
func (h *MovementHandler) Cancel(c *gin.Context) {
	movementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	var req CancelMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Cancellation requires a reason")
		return
	}

	movement, err := h.movementService.Cancel(c.Request.Context(), movementID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movement)
}

// Execute handles POST /movements/:id/execute
func (h *MovementHandler) Execute(c *gin.Context) {
	movementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	movement, err := h.movementService.Execute(c.Request.Context(), movementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movement)
}

// Get handles GET /movements/:id
func (h *MovementHandler) Get(c *gin.Context) {
	movementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	movement, err := h.movementService.Get(c.Request.Context(), movementID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movement)
}

// GetByNumber handles GET /movements/by-number/:number
func (h *MovementHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Movement number is required")
		return
	}

	movement, err := h.movementService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movement)
}

// List handles GET /movements
func (h *MovementHandler) List(c *gin.Context) {
	var filter inventoryapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid list parameters: "+err.Error())
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	movements, total, err := h.movementService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}
